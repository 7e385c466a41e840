package domain

import (
	"errors"
	"strings"
)

// ArtifactType identifies the kind of educational artifact a request asks for.
type ArtifactType string

// Supported artifact types.
const (
	ArtifactOutline       ArtifactType = "outline"
	ArtifactStudyGuide    ArtifactType = "study_guide"
	ArtifactFlashcards    ArtifactType = "flashcards"
	ArtifactPodcastScript ArtifactType = "podcast_script"
	ArtifactQuiz          ArtifactType = "quiz"
)

// AudienceLevel identifies the audience an artifact is written for.
type AudienceLevel string

// Supported audience levels, ordered from youngest to most advanced.
const (
	AudienceElementary    AudienceLevel = "elementary"
	AudienceMiddleSchool  AudienceLevel = "middle_school"
	AudienceHighSchool    AudienceLevel = "high_school"
	AudienceUndergraduate AudienceLevel = "undergraduate"
	AudienceProfessional  AudienceLevel = "professional"
)

// Common validation errors for GenerationRequest.
var (
	ErrEmptyCallerID        = errors.New("caller ID cannot be empty")
	ErrEmptyEndpointClass   = errors.New("endpoint class cannot be empty")
	ErrEmptyTopic           = errors.New("topic cannot be empty")
	ErrInvalidArtifactType  = errors.New("invalid artifact type")
	ErrInvalidAudienceLevel = errors.New("invalid audience level")
)

// Param is a single extra generation parameter. Parameters are ordered;
// the order supplied by the caller is preserved and participates in
// cache key derivation.
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GenerationRequest describes one request for a generated educational
// artifact. It is immutable once constructed: both the cache key and the
// admission subject key are derived from its fields, so mutation after
// construction would silently change routing decisions.
type GenerationRequest struct {
	CallerID      string        `json:"caller_id"`
	EndpointClass string        `json:"endpoint_class"`
	Topic         string        `json:"topic"`
	ArtifactType  ArtifactType  `json:"artifact_type"`
	AudienceLevel AudienceLevel `json:"audience_level"`
	ExtraParams   []Param       `json:"extra_params,omitempty"`
}

// NewGenerationRequest creates a validated GenerationRequest. The topic is
// trimmed of surrounding whitespace; deeper normalization (case folding,
// internal whitespace collapse) happens at cache key derivation so the
// request keeps the caller's original wording for prompt construction.
func NewGenerationRequest(
	callerID string,
	endpointClass string,
	topic string,
	artifactType ArtifactType,
	audienceLevel AudienceLevel,
	extraParams []Param,
) (*GenerationRequest, error) {
	req := &GenerationRequest{
		CallerID:      callerID,
		EndpointClass: endpointClass,
		Topic:         strings.TrimSpace(topic),
		ArtifactType:  artifactType,
		AudienceLevel: audienceLevel,
		ExtraParams:   extraParams,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks that the request has valid data.
// Returns an error if any field fails validation.
func (r *GenerationRequest) Validate() error {
	if r.CallerID == "" {
		return ErrEmptyCallerID
	}

	if r.EndpointClass == "" {
		return ErrEmptyEndpointClass
	}

	if r.Topic == "" {
		return ErrEmptyTopic
	}

	if !r.ArtifactType.Valid() {
		return ErrInvalidArtifactType
	}

	if !r.AudienceLevel.Valid() {
		return ErrInvalidAudienceLevel
	}

	return nil
}

// SubjectKey returns the admission-control key for this request. Caller
// identity is always part of the subject key, unlike the cache key which
// deliberately excludes it.
func (r *GenerationRequest) SubjectKey() string {
	return r.CallerID + "|" + r.EndpointClass
}

// Valid reports whether the artifact type is one of the supported values.
func (t ArtifactType) Valid() bool {
	switch t {
	case ArtifactOutline, ArtifactStudyGuide, ArtifactFlashcards,
		ArtifactPodcastScript, ArtifactQuiz:
		return true
	default:
		return false
	}
}

// Valid reports whether the audience level is one of the supported values.
func (l AudienceLevel) Valid() bool {
	switch l {
	case AudienceElementary, AudienceMiddleSchool, AudienceHighSchool,
		AudienceUndergraduate, AudienceProfessional:
		return true
	default:
		return false
	}
}

// ArtifactTypes returns all supported artifact types.
func ArtifactTypes() []ArtifactType {
	return []ArtifactType{
		ArtifactOutline,
		ArtifactStudyGuide,
		ArtifactFlashcards,
		ArtifactPodcastScript,
		ArtifactQuiz,
	}
}
