package quality

import (
	"regexp"
	"strings"

	"github.com/lessonforge/lessonforge/internal/domain"
)

// minUnits is the expected minimum number of content units per artifact
// type. Artifacts below the minimum earn partial structure credit in
// proportion to how close they come.
var minUnits = map[domain.ArtifactType]int{
	domain.ArtifactFlashcards:    8,
	domain.ArtifactQuiz:          6,
	domain.ArtifactPodcastScript: 6,
	domain.ArtifactOutline:       4,
	domain.ArtifactStudyGuide:    4,
}

// gradeBand is the inclusive Flesch-Kincaid grade range considered a
// perfect readability fit for one audience level.
type gradeBand struct {
	low, high float64
}

var audienceBands = map[domain.AudienceLevel]gradeBand{
	domain.AudienceElementary:    {1, 5},
	domain.AudienceMiddleSchool:  {6, 8},
	domain.AudienceHighSchool:    {9, 12},
	domain.AudienceUndergraduate: {11, 14},
	domain.AudienceProfessional:  {12, 16},
}

// Phrase lexicons for the heuristic scorers. These live in code rather
// than configuration: they are part of the scoring semantics, and
// changing them silently would change cache TTLs for identical content.
var (
	examplePhrases = []string{
		"for example", "for instance", "e.g.", "such as", "imagine",
		"consider", "picture this", "say you",
	}

	progressionPhrases = []string{
		"summary", "overview", "introduction", "to begin", "first,",
		"recap", "in conclusion", "to wrap up", "key takeaway",
	}

	recallPhrases = []string{
		"try to", "can you", "quiz yourself", "test yourself",
		"think about", "recall", "practice", "write down", "explain why",
	}

	directAddressPhrases = []string{
		"you ", "your ", "you'", "let's", "we'll", "let us",
	}

	contradictionPhrases = []string{
		"but actually", "on the contrary", "this contradicts",
		"which is wrong", "that is false", "despite what was said",
	}

	hedgingPhrases = []string{
		"might be", "may be", "possibly", "perhaps", "it is believed",
		"some say", "arguably", "supposedly", "allegedly",
	}

	citationPhrases = []string{
		"according to", "research shows", "studies show", "et al",
		"published", "as documented",
	}
)

// yearPattern matches four-digit years, a weak citation signal.
var yearPattern = regexp.MustCompile(`\b(1[89]\d\d|20\d\d)\b`)

// scoreStructure rewards artifacts that carry enough well-formed content
// units for their type plus the framing fields (summary, objectives).
func scoreStructure(a *domain.Artifact) float64 {
	min := minUnits[a.Type]
	if min == 0 {
		min = 4
	}

	units := a.Units()
	if units == 0 {
		return 0
	}

	// Unit count: full credit at or above the minimum, proportional below.
	countScore := float64(units) / float64(min)
	if countScore > 1 {
		countScore = 1
	}

	// Unit completeness: the fraction of units with all parts populated.
	complete := 0
	switch a.Type {
	case domain.ArtifactFlashcards:
		for _, c := range a.Cards {
			if strings.TrimSpace(c.Front) != "" && strings.TrimSpace(c.Back) != "" {
				complete++
			}
		}
	case domain.ArtifactQuiz:
		for _, q := range a.Questions {
			if strings.TrimSpace(q.Prompt) != "" && strings.TrimSpace(q.Answer) != "" {
				complete++
			}
		}
	case domain.ArtifactPodcastScript:
		for _, s := range a.Segments {
			if strings.TrimSpace(s.Speaker) != "" && strings.TrimSpace(s.Text) != "" {
				complete++
			}
		}
	default:
		for _, s := range a.Sections {
			if strings.TrimSpace(s.Title) != "" && strings.TrimSpace(s.Body) != "" {
				complete++
			}
		}
	}
	completeness := float64(complete) / float64(units)

	framing := 0.0
	if strings.TrimSpace(a.Summary) != "" {
		framing += 0.5
	}
	if len(a.Objectives) > 0 {
		framing += 0.5
	}

	return clamp(0.45*countScore + 0.35*completeness + 0.20*framing)
}

// scoreReadability measures Flesch-Kincaid grade fit against the target
// audience band. A grade inside the band scores 1.0; outside, the score
// decays by 0.2 per grade of distance.
func scoreReadability(text string, audience domain.AudienceLevel) float64 {
	grade := fleschKincaidGrade(text)

	band, ok := audienceBands[audience]
	if !ok {
		band = audienceBands[domain.AudienceHighSchool]
	}

	var distance float64
	switch {
	case grade < band.low:
		distance = band.low - grade
	case grade > band.high:
		distance = grade - band.high
	default:
		return 1.0
	}

	return clamp(1.0 - 0.2*distance)
}

// fleschKincaidGrade computes the Flesch-Kincaid grade level of the text.
func fleschKincaidGrade(text string) float64 {
	sentences := splitSentences(text)
	tokens := words(text)
	if len(sentences) == 0 || len(tokens) == 0 {
		return 0
	}

	syllables := 0
	for _, w := range tokens {
		syllables += countSyllables(w)
	}

	wordsPerSentence := float64(len(tokens)) / float64(len(sentences))
	syllablesPerWord := float64(syllables) / float64(len(tokens))

	grade := 0.39*wordsPerSentence + 11.8*syllablesPerWord - 15.59
	if grade < 0 {
		grade = 0
	}
	return grade
}

// scorePedagogy rewards the teaching scaffolding an artifact carries:
// stated objectives, worked examples, progressive structure, and
// prompts that ask the learner to recall or practice.
func scorePedagogy(a *domain.Artifact, lower string) float64 {
	score := 0.0

	if len(a.Objectives) > 0 {
		score += 0.30
	}

	examples := countOccurrences(lower, examplePhrases)
	switch {
	case examples >= 2:
		score += 0.25
	case examples == 1:
		score += 0.15
	}

	if countOccurrences(lower, progressionPhrases) > 0 {
		score += 0.20
	}

	recall := countOccurrences(lower, recallPhrases)
	switch {
	case recall >= 2:
		score += 0.25
	case recall == 1:
		score += 0.15
	}

	// Question-and-answer artifact types embody recall by construction.
	if recall == 0 && (a.Type == domain.ArtifactFlashcards || a.Type == domain.ArtifactQuiz) {
		score += 0.25
	}

	return clamp(score)
}

// scoreEngagement rewards conversational signals: questions posed to the
// reader, direct address, and concrete imagery.
func scoreEngagement(lower string) float64 {
	score := 0.0

	questions := strings.Count(lower, "?")
	switch {
	case questions >= 3:
		score += 0.40
	case questions >= 1:
		score += 0.25
	}

	address := countOccurrences(lower, directAddressPhrases)
	switch {
	case address >= 2:
		score += 0.35
	case address == 1:
		score += 0.20
	}

	if countOccurrences(lower, examplePhrases) > 0 {
		score += 0.25
	}

	return clamp(score)
}

// scoreFactuality is a heuristic proxy for factual reliability. It
// starts at full credit and deducts for self-contradiction markers and
// dense hedging, with a small bonus for citation-style grounding.
func scoreFactuality(text, lower string) float64 {
	score := 1.0

	score -= 0.25 * float64(countOccurrences(lower, contradictionPhrases))

	tokens := words(text)
	if len(tokens) > 0 {
		hedges := 0
		for _, p := range hedgingPhrases {
			hedges += strings.Count(lower, p)
		}
		density := float64(hedges) / float64(len(tokens))
		// One hedge per 50 words is normal prose; beyond that each extra
		// hedge per 50 words costs a tenth.
		if density > 0.02 {
			score -= (density - 0.02) * 5
		}
	}

	if countOccurrences(lower, citationPhrases) > 0 || yearPattern.MatchString(text) {
		score += 0.05
	}

	return clamp(score)
}
