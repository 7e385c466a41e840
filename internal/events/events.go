package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the generation pipeline.
const (
	// TypeGenerationCompleted is emitted after a generated artifact passes
	// quality assessment and is written to the cache.
	TypeGenerationCompleted = "generation_completed"

	// TypeGenerationFailed is emitted when generation exhausts its
	// regeneration budget or all providers fail.
	TypeGenerationFailed = "generation_failed"
)

// ArtifactEvent carries the outcome of one generation attempt for
// downstream consumers (usage accounting, audit, notifications). It
// holds only serialized data so handlers take no dependency on the
// pipeline packages.
type ArtifactEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type is one of the Type* constants above
	Type string `json:"type"`

	// Payload contains the event-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *ArtifactEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewArtifactEvent creates a new ArtifactEvent with the specified type and payload.
func NewArtifactEvent(eventType string, payload interface{}) (*ArtifactEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &ArtifactEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now(),
	}, nil
}

// GenerationCompletedPayload is the payload for TypeGenerationCompleted.
type GenerationCompletedPayload struct {
	CallerID     string  `json:"caller_id"`
	CacheKey     string  `json:"cache_key"`
	ArtifactType string  `json:"artifact_type"`
	Topic        string  `json:"topic"`
	ProviderID   string  `json:"provider_id"`
	QualityScore float64 `json:"quality_score"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	Attempts     int     `json:"attempts"`
}

// GenerationFailedPayload is the payload for TypeGenerationFailed.
type GenerationFailedPayload struct {
	CallerID     string  `json:"caller_id"`
	ArtifactType string  `json:"artifact_type"`
	Topic        string  `json:"topic"`
	Reason       string  `json:"reason"`
	TotalTokens  int     `json:"total_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	Attempts     int     `json:"attempts"`
}

// EventHandler defines an interface for components that can handle events.
// Handlers are responsible for processing events and taking appropriate actions.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *ArtifactEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows the pipeline to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	// Returns an error if the event cannot be emitted.
	EmitEvent(ctx context.Context, event *ArtifactEvent) error
}
