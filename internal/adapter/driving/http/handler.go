// Package httphandler implements the JSON API driving adapter.
package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ericfisherdev/tinkerstudio/internal/application"
	"github.com/ericfisherdev/tinkerstudio/internal/domain/port/driven"
)

// apiKeyHeader carries the caller's upstream API key. It is forwarded upstream
// and never logged.
const apiKeyHeader = "X-API-Key"

// Handler is the HTTP driving adapter that serves the JSON API.
type Handler struct {
	catalogSvc *application.CatalogService
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(catalogSvc *application.CatalogService, logger *slog.Logger) *Handler {
	return &Handler{
		catalogSvc: catalogSvc,
		logger:     logger,
	}
}

// RegisterAPIRoutes registers all JSON API routes on the provided mux.
func RegisterAPIRoutes(mux *http.ServeMux, h *Handler) {
	mux.HandleFunc("GET /api/supported-models", h.SupportedModels)
	mux.HandleFunc("POST /api/training-clients", h.CreateTrainingClient)
	mux.HandleFunc("GET /api/v1/health", h.Health)
}

// RegisterMetricsRoute exposes the collectors of gatherer at /metrics.
func RegisterMetricsRoute(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}

// SupportedModels returns the upstream's supported models as
// [{"model_name": ...}] using the caller's X-API-Key.
func (h *Handler) SupportedModels(w http.ResponseWriter, r *http.Request) {
	apiKey := r.Header.Get(apiKeyHeader)
	if apiKey == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing X-API-Key header")
		return
	}

	models, err := h.catalogSvc.SupportedModels(r.Context(), apiKey)
	if err != nil {
		h.writeUpstreamError(w, "failed to list supported models", err)
		return
	}

	resp := make([]SupportedModelResponse, 0, len(models))
	for _, m := range models {
		resp = append(resp, SupportedModelResponse{ModelName: m.Name})
	}

	writeJSON(w, http.StatusOK, resp)
}

// CreateTrainingClient creates a LoRA training client for the requested base
// model using the caller's X-API-Key.
func (h *Handler) CreateTrainingClient(w http.ResponseWriter, r *http.Request) {
	apiKey := r.Header.Get(apiKeyHeader)
	if apiKey == "" {
		writeError(w, http.StatusUnprocessableEntity, "missing X-API-Key header")
		return
	}

	var req CreateTrainingClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if msg := validateRequest(req); msg != "" {
		writeError(w, http.StatusUnprocessableEntity, msg)
		return
	}

	created, err := h.catalogSvc.CreateTrainingClient(r.Context(), apiKey, req.BaseModel)
	if err != nil {
		h.writeUpstreamError(w, "failed to create training client", err)
		return
	}

	writeJSON(w, http.StatusOK, TrainingClientResponse{
		Status:    created.Status,
		BaseModel: created.BaseModel,
	})
}

// Health returns a simple health check response.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// writeUpstreamError maps an upstream failure to a response status. The
// upstream body is never echoed to the caller.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, application.ErrUpstreamNotConfigured) {
		writeError(w, http.StatusServiceUnavailable, "upstream service not configured")
		return
	}

	var statusErr *driven.UpstreamStatusError
	if errors.As(err, &statusErr) && statusErr.Unauthorized() {
		writeError(w, http.StatusUnauthorized, "invalid API key")
		return
	}

	h.logger.Error(msg, "error", err)
	writeError(w, http.StatusBadGateway, "upstream request failed")
}
