package domain

import (
	"errors"
	"strings"
)

// Common validation errors for Artifact.
var (
	ErrEmptyArtifactTitle = errors.New("artifact title cannot be empty")
	ErrEmptyArtifactBody  = errors.New("artifact has no content")
)

// Section is one titled block of prose in an outline or study guide.
type Section struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Card is a single flashcard with a prompt side and an answer side.
type Card struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// Question is a single quiz question. Choices is empty for open-ended
// questions.
type Question struct {
	Prompt  string   `json:"prompt"`
	Choices []string `json:"choices,omitempty"`
	Answer  string   `json:"answer"`
}

// Segment is one spoken block of a podcast script.
type Segment struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Artifact is a generated educational artifact. Exactly one of the
// content slices is expected to be populated, matching the artifact type
// it was generated for; the scalar fields apply to every type.
type Artifact struct {
	Type          ArtifactType  `json:"type"`
	Topic         string        `json:"topic"`
	AudienceLevel AudienceLevel `json:"audience_level"`
	Title         string        `json:"title"`
	Summary       string        `json:"summary,omitempty"`
	Objectives    []string      `json:"objectives,omitempty"`
	Sections      []Section     `json:"sections,omitempty"`
	Cards         []Card        `json:"cards,omitempty"`
	Questions     []Question    `json:"questions,omitempty"`
	Segments      []Segment     `json:"segments,omitempty"`
}

// Validate checks that the artifact carries at least a title and some
// content of the expected shape for its type.
func (a *Artifact) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return ErrEmptyArtifactTitle
	}

	if !a.Type.Valid() {
		return ErrInvalidArtifactType
	}

	switch a.Type {
	case ArtifactFlashcards:
		if len(a.Cards) == 0 {
			return ErrEmptyArtifactBody
		}
	case ArtifactQuiz:
		if len(a.Questions) == 0 {
			return ErrEmptyArtifactBody
		}
	case ArtifactPodcastScript:
		if len(a.Segments) == 0 {
			return ErrEmptyArtifactBody
		}
	default:
		if len(a.Sections) == 0 {
			return ErrEmptyArtifactBody
		}
	}

	return nil
}

// Text returns the artifact's prose flattened into a single string, in
// reading order. Quality assessment operates on this view so that the
// dimension scorers do not need per-type traversal logic.
func (a *Artifact) Text() string {
	var b strings.Builder

	appendLine := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(s)
	}

	appendLine(a.Title)
	appendLine(a.Summary)
	for _, o := range a.Objectives {
		appendLine(o)
	}
	for _, s := range a.Sections {
		appendLine(s.Title)
		appendLine(s.Body)
	}
	for _, c := range a.Cards {
		appendLine(c.Front)
		appendLine(c.Back)
	}
	for _, q := range a.Questions {
		appendLine(q.Prompt)
		for _, ch := range q.Choices {
			appendLine(ch)
		}
		appendLine(q.Answer)
	}
	for _, s := range a.Segments {
		appendLine(s.Text)
	}

	return b.String()
}

// Units returns the number of content units the artifact carries: cards
// for flashcards, questions for quizzes, segments for scripts, sections
// otherwise.
func (a *Artifact) Units() int {
	switch a.Type {
	case ArtifactFlashcards:
		return len(a.Cards)
	case ArtifactQuiz:
		return len(a.Questions)
	case ArtifactPodcastScript:
		return len(a.Segments)
	default:
		return len(a.Sections)
	}
}
