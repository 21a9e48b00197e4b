package handler

import (
	"net/http"

	"github.com/albapepper/petcare-telemetry/internal/api/respond"
	"github.com/albapepper/petcare-telemetry/internal/cache"
)

// GetActivityStats returns today's activity and the trailing week.
// @Summary Activity statistics
// @Description Today's event count and last event time, plus seven UTC daily buckets, oldest first.
// @Tags activity
// @Produce json
// @Success 200 {object} activity.Stats
// @Success 304 "Not Modified"
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/activity/stats [get]
func (h *Handler) GetActivityStats(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	h.serveCached(w, r, cache.StatsKey(now), "No pet registered to compute statistics for", func() (interface{}, error) {
		return h.stats.Stats(r.Context(), now)
	})
}

// PurgeActivity deletes the whole activity log.
// @Summary Purge activity log
// @Tags activity
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/activity [delete]
func (h *Handler) PurgeActivity(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.PurgeEvents(r.Context())
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.cache.Invalidate()
	h.logger.Info("Activity log purged", "deleted", n)
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"message": "Activity log cleared",
		"deleted": n,
	})
}
