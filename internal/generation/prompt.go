package generation

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/lessonforge/lessonforge/internal/domain"
)

// audienceDescriptions phrase each audience level for the prompt.
var audienceDescriptions = map[domain.AudienceLevel]string{
	domain.AudienceElementary:    "elementary school students (ages 6-10); use short sentences and everyday words",
	domain.AudienceMiddleSchool:  "middle school students (ages 11-13); use clear explanations with relatable examples",
	domain.AudienceHighSchool:    "high school students (ages 14-18); use precise terminology with supporting context",
	domain.AudienceUndergraduate: "undergraduate students; assume introductory domain knowledge",
	domain.AudienceProfessional:  "working professionals; be rigorous and concise",
}

// artifactInstructions describe the expected JSON shape per artifact type.
// Every template asks for the shared scalar fields plus the content slice
// matching the type, mirroring the domain.Artifact schema.
var artifactInstructions = map[domain.ArtifactType]string{
	domain.ArtifactOutline: `Produce a topic outline as JSON with fields:
"title", "summary", "objectives" (array of learning objectives), and
"sections" (array of {"title","body"}, at least 4 sections ordered from
fundamentals to advanced material).`,

	domain.ArtifactStudyGuide: `Produce a study guide as JSON with fields:
"title", "summary", "objectives" (array of learning objectives), and
"sections" (array of {"title","body"}, at least 4 sections; include worked
examples and end with review questions).`,

	domain.ArtifactFlashcards: `Produce flashcards as JSON with fields:
"title", "summary", "objectives" (array of learning objectives), and
"cards" (array of {"front","back"}, at least 8 cards; fronts are questions
or terms, backs are concise answers or definitions).`,

	domain.ArtifactPodcastScript: `Produce a podcast script as JSON with fields:
"title", "summary", "objectives" (array of learning objectives), and
"segments" (array of {"speaker","text"}, at least 6 segments alternating
between "Host" and "Expert"; open with a hook and close with a recap).`,

	domain.ArtifactQuiz: `Produce a quiz as JSON with fields:
"title", "summary", "objectives" (array of learning objectives), and
"questions" (array of {"prompt","choices","answer"}, at least 6 questions;
use 4 choices for multiple-choice, empty choices for open-ended).`,
}

// promptTemplate is the shared frame around the per-type instructions.
const promptTemplate = `You are an experienced educator creating educational material.

Topic: {{.Topic}}
Audience: {{.Audience}}

{{.Instructions}}

Requirements:
- State explicit learning objectives.
- Include concrete examples and at least one question that invites the learner to think.
- Order the material progressively, from foundations to application.
- Prefer verifiable statements; cite sources or note uncertainty where appropriate.
- Respond with a single JSON object and nothing else.
{{- if .Notes}}

A previous draft was rejected. Address each of these issues:
{{- range .Notes}}
- {{.}}
{{- end}}
{{- end}}
{{- range .Extra}}
- {{.Key}}: {{.Value}}
{{- end}}
`

// promptData is the template input.
type promptData struct {
	Topic        string
	Audience     string
	Instructions string
	Notes        []string
	Extra        []domain.Param
}

// PromptBuilder renders generation prompts per artifact type.
type PromptBuilder struct {
	tmpl *template.Template
}

// NewPromptBuilder parses the prompt template. The template is a
// compile-time constant, so an error here is a programming mistake.
func NewPromptBuilder() (*PromptBuilder, error) {
	tmpl, err := template.New("artifact").Parse(promptTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse prompt template: %w", err)
	}

	return &PromptBuilder{tmpl: tmpl}, nil
}

// Build renders the prompt for a request. notes carries the improvement
// notes from a rejected previous attempt and is empty on the first
// attempt; extra parameters are appended verbatim as generation hints.
func (b *PromptBuilder) Build(req *domain.GenerationRequest, notes []string) (string, error) {
	instructions, ok := artifactInstructions[req.ArtifactType]
	if !ok {
		return "", fmt.Errorf("%w: no prompt for artifact type %q", ErrInvalidConfig, req.ArtifactType)
	}

	audience, ok := audienceDescriptions[req.AudienceLevel]
	if !ok {
		return "", fmt.Errorf("%w: no prompt for audience level %q", ErrInvalidConfig, req.AudienceLevel)
	}

	var buf bytes.Buffer
	err := b.tmpl.Execute(&buf, promptData{
		Topic:        req.Topic,
		Audience:     audience,
		Instructions: instructions,
		Notes:        notes,
		Extra:        req.ExtraParams,
	})
	if err != nil {
		return "", fmt.Errorf("execute prompt template: %w", err)
	}

	return buf.String(), nil
}
