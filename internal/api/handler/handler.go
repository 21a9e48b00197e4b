// Package handler provides HTTP handlers for all API endpoints.
// Writes go through the ingest service; reads come straight from the store
// or the activity service, cached with ETags where the data is hot.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/albapepper/petcare-telemetry/internal/activity"
	"github.com/albapepper/petcare-telemetry/internal/api/respond"
	"github.com/albapepper/petcare-telemetry/internal/cache"
	"github.com/albapepper/petcare-telemetry/internal/ingest"
	"github.com/albapepper/petcare-telemetry/internal/store"
)

// maxBodyBytes bounds request bodies; profile photos arrive inline.
const maxBodyBytes = 8 << 20

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	store  store.Store
	ingest *ingest.Service
	stats  *activity.Service
	cache  *cache.Cache
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Handler with shared dependencies.
func New(s store.Store, ing *ingest.Service, c *cache.Cache, logger *slog.Logger) *Handler {
	return &Handler{
		store:  s,
		ingest: ing,
		stats:  activity.NewService(s),
		cache:  c,
		logger: logger,
		now:    time.Now,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version and status.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"name":    "Smart Pet Care API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Description Returns basic health status and timestamp.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Description Verifies storage connectivity.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		h.logger.Warn("database health check failed", "error", err)
		respond.WriteJSONObject(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":    "unhealthy",
			"database":  "disconnected",
			"error":     "Database connection check failed",
			"timestamp": h.now().UTC().Format(time.RFC3339),
		})
		return
	}
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"database":  "connected",
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckCache returns cache statistics.
// @Summary Cache health check
// @Description Returns in-memory cache statistics (active keys, expired keys).
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health/cache [get]
func (h *Handler) HealthCheckCache(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"cache":     h.cache.Stats(),
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// decodeJSON reads the request body into v, writing INVALID_JSON on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, respond.CodeInvalidJSON, "Request body is not valid JSON", err.Error())
		return false
	}
	return true
}

// writeError maps service and store errors onto the API error codes.
// Unexpected errors are logged in full and reported generically.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var verr *ingest.ValidationError
	switch {
	case errors.As(err, &verr):
		respond.WriteErrorDetail(w, http.StatusBadRequest, respond.CodeValidation, verr.Error(), verr.Field)
	case errors.Is(err, store.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, respond.CodeNotFound, notFound)
	case errors.Is(err, store.ErrConflict):
		respond.WriteError(w, http.StatusConflict, respond.CodeConflict, "The pet was updated concurrently, retry the request")
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err)
		respond.WriteError(w, http.StatusInternalServerError, respond.CodeStorage, "Storage operation failed")
	}
}

// serveCached serves key from the cache, or loads, caches and serves it.
// If-None-Match is honored either way.
func (h *Handler) serveCached(w http.ResponseWriter, r *http.Request, key, notFound string, load func() (interface{}, error)) {
	ifNoneMatch := r.Header.Get("If-None-Match")

	if data, etag, ok := h.cache.Get(key); ok {
		if cache.CheckETagMatch(ifNoneMatch, etag) {
			respond.WriteNotModified(w, etag)
			return
		}
		respond.WriteJSON(w, data, etag, h.cache.TTL(), true)
		return
	}

	gen := h.cache.Generation()
	v, err := load()
	if err != nil {
		h.writeError(w, r, err, notFound)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		h.writeError(w, r, err, notFound)
		return
	}
	etag := h.cache.Set(key, data, gen)
	if cache.CheckETagMatch(ifNoneMatch, etag) {
		respond.WriteNotModified(w, etag)
		return
	}
	respond.WriteJSON(w, data, etag, h.cache.TTL(), false)
}
