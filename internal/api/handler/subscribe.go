package handler

import (
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/albapepper/petcare-telemetry/internal/api/respond"
	"github.com/albapepper/petcare-telemetry/internal/model"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Subscribe registers a push subscription, replacing the keys of an
// existing one with the same endpoint.
// @Summary Register push subscription
// @Tags notifications
// @Accept json
// @Produce json
// @Param body body model.Subscription true "Web Push subscription"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/subscribe [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var sub model.Subscription
	if !decodeJSON(w, r, &sub) {
		return
	}
	if err := validate.Struct(&sub); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, respond.CodeValidation,
			"endpoint and keys.p256dh, keys.auth are required", err.Error())
		return
	}

	if err := h.store.UpsertSubscription(r.Context(), sub); err != nil {
		h.writeError(w, r, err, "")
		return
	}
	h.logger.Info("Push subscription saved", "endpoint", sub.Endpoint)
	respond.WriteJSONObject(w, http.StatusCreated, map[string]interface{}{
		"message": "Subscription saved",
	})
}
