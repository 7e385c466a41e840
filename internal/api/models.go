package api

import (
	"time"

	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/quality"
)

// Common request/response structures

// ParamDTO is one ordered extra generation parameter.
type ParamDTO struct {
	Key   string `json:"key"   validate:"required,min=1,max=64"`
	Value string `json:"value" validate:"required,max=512"`
}

// GenerateRequest defines the payload for the artifact generation endpoint.
type GenerateRequest struct {
	Topic         string     `json:"topic"          validate:"required,min=1,max=500"`
	ArtifactType  string     `json:"artifact_type"  validate:"required,oneof=outline study_guide flashcards podcast_script quiz"`
	AudienceLevel string     `json:"audience_level" validate:"required,oneof=elementary middle_school high_school undergraduate professional"`
	ExtraParams   []ParamDTO `json:"extra_params,omitempty" validate:"omitempty,max=16,dive"`
}

// GenerateResponse defines the successful response for the generation
// endpoint, covering both cache hits and fresh generations.
type GenerateResponse struct {
	Artifact *domain.Artifact `json:"artifact"`

	// QualityScore is the overall score that admitted the artifact.
	QualityScore float64 `json:"quality_score"`

	// Report is the full assessment for freshly generated artifacts.
	// Omitted for cache hits, which carry only the stored score.
	Report *quality.Report `json:"report,omitempty"`

	// CacheKey is the content-addressed key of the artifact.
	CacheKey string `json:"cache_key"`

	// ProviderID names the provider that generated the artifact. Empty
	// for cache hits.
	ProviderID string `json:"provider_id,omitempty"`
}

// QualityRejectionDetail is the structured detail attached to a
// QUALITY_REJECTED error response.
type QualityRejectionDetail struct {
	Report   *quality.Report  `json:"report"`
	Artifact *domain.Artifact `json:"last_draft,omitempty"`
}

// HealthResponse defines the health endpoint payload.
type HealthResponse struct {
	Status string `json:"status"`

	// Store reports the shared store's reachability.
	Store StoreHealthDTO `json:"store"`

	// ProvidersCoolingDown lists providers currently skipped by the
	// failover breaker, with the time each is re-admitted.
	ProvidersCoolingDown map[string]time.Time `json:"providers_cooling_down,omitempty"`
}

// StoreHealthDTO mirrors the store handle's health snapshot.
type StoreHealthDTO struct {
	Primary   string    `json:"primary"`
	Degraded  bool      `json:"degraded"`
	LastError string    `json:"last_error,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}
