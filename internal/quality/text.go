package quality

import (
	"strings"
	"unicode"
)

// sentenceEnders terminate a sentence for the splitter.
const sentenceEnders = ".!?"

// splitSentences breaks prose into sentences on terminal punctuation.
// Deliberately simple: abbreviations over-split slightly, which biases
// the grade estimate low by a fraction of a grade, uniformly across
// artifacts.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for _, r := range text {
		current.WriteRune(r)
		if strings.ContainsRune(sentenceEnders, r) {
			s := strings.TrimSpace(current.String())
			if s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}

// words splits text into lowercase word tokens, stripping punctuation.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\''
	})
}

// countSyllables estimates syllables in a word by counting vowel groups,
// discounting a trailing silent e. Always at least 1 for non-empty words.
func countSyllables(word string) int {
	word = strings.ToLower(word)
	if word == "" {
		return 0
	}

	isVowel := func(r rune) bool {
		return strings.ContainsRune("aeiouy", r)
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		v := isVowel(r)
		if v && !prevVowel {
			count++
		}
		prevVowel = v
	}

	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}

	if count < 1 {
		count = 1
	}

	return count
}

// countOccurrences counts how many of the phrases appear in the
// lowercased text, counting each phrase at most once.
func countOccurrences(lowerText string, phrases []string) int {
	count := 0
	for _, p := range phrases {
		if strings.Contains(lowerText, p) {
			count++
		}
	}
	return count
}

// clamp bounds a score to [0,1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
