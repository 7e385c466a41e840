package quality

import (
	"fmt"

	"github.com/lessonforge/lessonforge/internal/domain"
)

// unitNoun names the content unit of an artifact type for note text.
func unitNoun(t domain.ArtifactType) string {
	switch t {
	case domain.ArtifactFlashcards:
		return "cards"
	case domain.ArtifactQuiz:
		return "questions"
	case domain.ArtifactPodcastScript:
		return "segments"
	default:
		return "sections"
	}
}

// improvementNotes produces one concrete suggestion per failed dimension,
// in the fixed dimension order. The notes are appended to the
// regeneration prompt, so they are written as instructions to the model,
// not diagnostics for an operator.
func improvementNotes(failed []Dimension, a *domain.Artifact) []string {
	notes := make([]string, 0, len(failed))
	for _, dim := range failed {
		switch dim {
		case DimStructure:
			min := minUnits[a.Type]
			if min == 0 {
				min = 4
			}
			notes = append(notes, fmt.Sprintf(
				"Include at least %d complete %s, each with every field filled in, plus a summary and learning objectives.",
				min, unitNoun(a.Type)))
		case DimReadability:
			notes = append(notes, fmt.Sprintf(
				"Adjust sentence length and vocabulary to suit a %s audience.",
				string(a.AudienceLevel)))
		case DimPedagogy:
			notes = append(notes,
				"State explicit learning objectives, include at least two worked examples, and add prompts that ask the learner to recall or practice the material.")
		case DimEngagement:
			notes = append(notes,
				"Address the reader directly, pose questions to them, and use concrete examples or imagery.")
		case DimFactuality:
			notes = append(notes,
				"Remove self-contradictory statements, state facts plainly instead of hedging, and ground claims in named sources where possible.")
		}
	}
	return notes
}
