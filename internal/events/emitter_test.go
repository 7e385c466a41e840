package events

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	events []*ArtifactEvent
	err    error
}

func (h *recordingHandler) HandleEvent(_ context.Context, e *ArtifactEvent) error {
	h.events = append(h.events, e)
	return h.err
}

func completedEvent(t *testing.T) *ArtifactEvent {
	t.Helper()

	event, err := NewArtifactEvent(TypeGenerationCompleted, GenerationCompletedPayload{
		CallerID:     "caller-1",
		CacheKey:     "art:abc",
		ArtifactType: "flashcards",
		Topic:        "mitosis",
		ProviderID:   "gemini-flash",
		QualityScore: 0.81,
		TotalTokens:  300,
		CostUSD:      0.007,
		Attempts:     1,
	})
	require.NoError(t, err)
	return event
}

func TestEmitEvent_DispatchesToAllHandlers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(slog.Default())
	first := &recordingHandler{}
	second := &recordingHandler{}
	emitter.RegisterHandler(first)
	emitter.RegisterHandler(second)

	event := completedEvent(t)
	require.NoError(t, emitter.EmitEvent(context.Background(), event))

	require.Len(t, first.events, 1)
	require.Len(t, second.events, 1)
	assert.Equal(t, event.ID, first.events[0].ID)

	var payload GenerationCompletedPayload
	require.NoError(t, first.events[0].UnmarshalPayload(&payload))
	assert.Equal(t, "mitosis", payload.Topic)
	assert.InDelta(t, 0.81, payload.QualityScore, 1e-9)
}

func TestEmitEvent_HandlerErrorDoesNotBlockOthers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(slog.Default())
	failErr := errors.New("handler down")
	failing := &recordingHandler{err: failErr}
	healthy := &recordingHandler{}
	emitter.RegisterHandler(failing)
	emitter.RegisterHandler(healthy)

	err := emitter.EmitEvent(context.Background(), completedEvent(t))
	assert.ErrorIs(t, err, failErr)
	assert.Len(t, healthy.events, 1)
}

func TestEmitEvent_NoHandlers(t *testing.T) {
	t.Parallel()

	emitter := NewInMemoryEventEmitter(slog.Default())
	assert.NoError(t, emitter.EmitEvent(context.Background(), completedEvent(t)))
}
