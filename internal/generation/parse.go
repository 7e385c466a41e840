package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lessonforge/lessonforge/internal/domain"
)

// ParseArtifact converts raw provider output into a validated artifact.
// Providers frequently wrap JSON in markdown code fences despite being
// told not to; fences are stripped before unmarshaling. Any parse or
// validation failure maps to ErrMalformedArtifact so the orchestrator
// treats it as a failed attempt and fails over.
func ParseArtifact(
	text string,
	req *domain.GenerationRequest,
) (*domain.Artifact, error) {
	cleaned := stripCodeFences(text)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: empty response", ErrMalformedArtifact)
	}

	var artifact domain.Artifact
	if err := json.Unmarshal([]byte(cleaned), &artifact); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}

	// The provider echoes content; the request is authoritative for the
	// classification fields.
	artifact.Type = req.ArtifactType
	artifact.Topic = req.Topic
	artifact.AudienceLevel = req.AudienceLevel

	if err := artifact.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArtifact, err)
	}

	return &artifact, nil
}

// stripCodeFences removes a surrounding markdown code fence, with or
// without a language tag, and trims whitespace.
func stripCodeFences(text string) string {
	s := strings.TrimSpace(text)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}

	return strings.TrimSpace(s)
}
