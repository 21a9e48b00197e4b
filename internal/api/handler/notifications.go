package handler

import (
	"net/http"

	"github.com/albapepper/petcare-telemetry/internal/api/respond"
	"github.com/albapepper/petcare-telemetry/internal/model"
	"github.com/albapepper/petcare-telemetry/internal/store"
)

// MarkReadRequest marks one (id) or several (ids) notifications. IsRead
// defaults to true.
type MarkReadRequest struct {
	ID     string   `json:"id,omitempty"`
	IDs    []string `json:"ids,omitempty"`
	IsRead *bool    `json:"isRead,omitempty"`
}

// ListNotifications returns the most recent notifications, newest first.
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Success 200 {array} model.Notification
// @Router /api/notifications [get]
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.ListNotifications(r.Context(), store.MaxNotifications)
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	if notes == nil {
		notes = []model.Notification{}
	}
	respond.WriteJSONObject(w, http.StatusOK, notes)
}

// MarkNotifications sets the read flag of one or several notifications.
// @Summary Mark notifications read or unread
// @Description Send id for one notification (404 if unknown) or ids for several (unknown ids are ignored).
// @Tags notifications
// @Accept json
// @Produce json
// @Param body body MarkReadRequest true "Selection"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/notifications [post]
func (h *Handler) MarkNotifications(w http.ResponseWriter, r *http.Request) {
	var req MarkReadRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	isRead := true
	if req.IsRead != nil {
		isRead = *req.IsRead
	}

	switch {
	case req.ID != "":
		n, err := h.store.MarkNotificationRead(r.Context(), req.ID, isRead)
		if err != nil {
			h.writeError(w, r, err, "Notification not found")
			return
		}
		respond.WriteJSONObject(w, http.StatusOK, n)

	case len(req.IDs) > 0:
		n, err := h.store.MarkNotificationsRead(r.Context(), req.IDs, isRead)
		if err != nil {
			h.writeError(w, r, err, "")
			return
		}
		respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
			"message": "Notifications updated",
			"updated": n,
		})

	default:
		respond.WriteErrorDetail(w, http.StatusBadRequest, respond.CodeValidation, "id or ids is required", "id")
	}
}

// PurgeNotifications deletes the whole notification history.
// @Summary Clear notifications
// @Tags notifications
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/notifications [delete]
func (h *Handler) PurgeNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.PurgeNotifications(r.Context())
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.logger.Info("Notifications purged", "deleted", n)
	respond.WriteJSONObject(w, http.StatusOK, map[string]interface{}{
		"message": "All notifications deleted",
		"deleted": n,
	})
}
