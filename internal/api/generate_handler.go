package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/lessonforge/lessonforge/internal/api/shared"
	"github.com/lessonforge/lessonforge/internal/domain"
	"github.com/lessonforge/lessonforge/internal/gateway"
	"github.com/lessonforge/lessonforge/internal/orchestrator"
)

// EndpointClassGenerate is the admission endpoint class for the
// generation endpoint.
const EndpointClassGenerate = "generate"

// GenerationGateway is the pipeline surface the handler drives.
type GenerationGateway interface {
	Handle(ctx context.Context, req *domain.GenerationRequest) (*gateway.Result, gateway.Meta, error)
}

// GenerateHandler handles artifact generation HTTP requests.
type GenerateHandler struct {
	gateway GenerationGateway
}

// NewGenerateHandler creates a new GenerateHandler.
func NewGenerateHandler(gw GenerationGateway) *GenerateHandler {
	return &GenerateHandler{gateway: gw}
}

// Generate handles POST /v1/generate requests.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	callerID := shared.GetCallerID(r.Context())
	if callerID == "" {
		shared.RespondWithError(w, r, http.StatusUnauthorized,
			shared.CodeUnauthorized, "Caller identity not found")
		return
	}

	var body GenerateRequest
	if err := shared.DecodeJSON(r, &body); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			shared.CodeValidation, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(body); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			shared.CodeValidation, "Validation error: "+err.Error())
		return
	}

	params := make([]domain.Param, 0, len(body.ExtraParams))
	for _, p := range body.ExtraParams {
		params = append(params, domain.Param{Key: p.Key, Value: p.Value})
	}

	req, err := domain.NewGenerationRequest(
		callerID,
		EndpointClassGenerate,
		body.Topic,
		domain.ArtifactType(body.ArtifactType),
		domain.AudienceLevel(body.AudienceLevel),
		params,
	)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			shared.CodeValidation, "Validation error: "+err.Error())
		return
	}

	result, meta, err := h.gateway.Handle(r.Context(), req)
	writeRateLimitHeaders(w, meta)

	switch {
	case err == nil && meta.Status == gateway.StatusRejected:
		w.Header().Set("Retry-After", strconv.Itoa(int(meta.RetryAfter.Seconds())))
		shared.RespondWithError(w, r, http.StatusTooManyRequests,
			shared.CodeAdmissionDenied, "Request rate limit exceeded")
		return

	case errors.Is(err, gateway.ErrQualityRejected):
		h.respondQualityRejected(w, r, result)
		return

	case errors.Is(err, orchestrator.ErrProvidersExhausted),
		errors.Is(err, orchestrator.ErrNoProviders):
		shared.RespondWithErrorAndLog(w, r, http.StatusBadGateway,
			shared.CodeProvidersExhausted, "All providers failed", err)
		return

	case errors.Is(err, orchestrator.ErrDeadlineExceeded),
		errors.Is(err, context.DeadlineExceeded):
		shared.RespondWithErrorAndLog(w, r, http.StatusGatewayTimeout,
			shared.CodeDeadlineExceeded, "Generation did not finish in time", err)
		return

	case err != nil:
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			shared.CodeInternal, "Internal error", err)
		return
	}

	if meta.Status == gateway.StatusHit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GenerateResponse{
		Artifact:     result.Artifact,
		QualityScore: result.QualityScore,
		Report:       result.Report,
		CacheKey:     result.CacheKey,
		ProviderID:   result.ProviderID,
	})
}

// respondQualityRejected renders a 422 carrying the final report and the
// last draft, so the caller can see what was produced and why it was
// refused.
func (h *GenerateHandler) respondQualityRejected(w http.ResponseWriter, r *http.Request, result *gateway.Result) {
	detail := &QualityRejectionDetail{}
	if result != nil {
		detail.Report = result.Report
		detail.Artifact = result.Artifact
	}

	shared.RespondWithJSON(w, r, http.StatusUnprocessableEntity, shared.ErrorResponse{
		Code:    shared.CodeQualityRejected,
		Error:   "Generated content did not meet the quality bar",
		TraceID: shared.GetTraceID(r.Context()),
		Detail:  detail,
	})
}

// writeRateLimitHeaders renders the admission window onto the response.
// The headers appear on every outcome, success included, so well-behaved
// clients can pace themselves before hitting the limit.
func writeRateLimitHeaders(w http.ResponseWriter, meta gateway.Meta) {
	if meta.Limit == 0 {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(meta.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(meta.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(meta.ResetAt.Unix(), 10))
	if meta.Degraded {
		w.Header().Set("X-Degraded", "true")
	}
}
