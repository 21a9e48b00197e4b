package handler

import (
	"net/http"

	"github.com/albapepper/petcare-telemetry/internal/api/respond"
	"github.com/albapepper/petcare-telemetry/internal/ingest"
	"github.com/albapepper/petcare-telemetry/internal/model"
)

// ReadingResponse is returned after a reading is committed.
type ReadingResponse struct {
	Pet           PetView               `json:"pet"`
	Events        []model.ActivityEvent `json:"events"`
	Notifications []model.Notification  `json:"notifications"`
}

// PostReading ingests one telemetry reading.
// @Summary Ingest telemetry reading
// @Description Applies a sensor reading. recordedAt is required; other fields are optional and null clears them.
// @Tags telemetry
// @Accept json
// @Produce json
// @Param body body ingest.Reading true "Reading"
// @Success 200 {object} ReadingResponse
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/readings [post]
func (h *Handler) PostReading(w http.ResponseWriter, r *http.Request) {
	var reading ingest.Reading
	if !decodeJSON(w, r, &reading) {
		return
	}

	res, err := h.ingest.Ingest(r.Context(), &reading)
	if err != nil {
		h.writeError(w, r, err, msgNoPet)
		return
	}

	resp := ReadingResponse{
		Pet:           newPetView(res.Entity),
		Events:        res.Events,
		Notifications: res.Notifications,
	}
	if resp.Events == nil {
		resp.Events = []model.ActivityEvent{}
	}
	if resp.Notifications == nil {
		resp.Notifications = []model.Notification{}
	}
	respond.WriteJSONObject(w, http.StatusOK, resp)
}
