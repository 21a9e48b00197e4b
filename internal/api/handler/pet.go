package handler

import (
	"net/http"
	"time"

	"github.com/albapepper/petcare-telemetry/internal/api/respond"
	"github.com/albapepper/petcare-telemetry/internal/cache"
	"github.com/albapepper/petcare-telemetry/internal/ingest"
	"github.com/albapepper/petcare-telemetry/internal/model"
)

const msgNoPet = "No pet registered"

// PetView is the JSON shape of the pet snapshot.
type PetView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Photo       *string   `json:"photo"`     // data URL
	BirthDate   *string   `json:"birthDate"` // YYYY-MM-DD
	Weight      *float64  `json:"weight"`
	Breed       *string   `json:"breed"`
	Meals       *int      `json:"meals"`
	Water       *float64  `json:"water"`
	Humidity    *float64  `json:"humidity"`
	Temperature *float64  `json:"temperature"`
	Activity    int       `json:"activity"`
	RecordedAt  time.Time `json:"recordedAt"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func newPetView(e *model.Entity) PetView {
	v := PetView{
		ID:          e.ID,
		Name:        e.Name,
		Photo:       ingest.PhotoDataURL(e.Photo),
		Weight:      e.Weight,
		Breed:       e.Breed,
		Meals:       e.Meals,
		Water:       e.Water,
		Humidity:    e.Humidity,
		Temperature: e.Temperature,
		Activity:    e.Activity,
		RecordedAt:  e.RecordedAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.BirthDate != nil {
		d := e.BirthDate.UTC().Format(time.DateOnly)
		v.BirthDate = &d
	}
	return v
}

// GetPet returns the current pet snapshot.
// @Summary Get pet snapshot
// @Description Returns the profile and last-known telemetry of the registered pet.
// @Tags pet
// @Produce json
// @Success 200 {object} PetView
// @Success 304 "Not Modified"
// @Failure 404 {object} respond.ErrorResponse
// @Router /api/data [get]
func (h *Handler) GetPet(w http.ResponseWriter, r *http.Request) {
	h.serveCached(w, r, cache.KeyPet, msgNoPet, func() (interface{}, error) {
		pet, err := h.store.GetEntity(r.Context())
		if err != nil {
			return nil, err
		}
		return newPetView(pet), nil
	})
}

// SavePet creates the pet or updates its profile.
// @Summary Create or update pet profile
// @Description Fields omitted are left untouched; null clears them. name is required.
// @Tags pet
// @Accept json
// @Produce json
// @Param body body ingest.Profile true "Profile"
// @Success 200 {object} PetView
// @Success 201 {object} PetView
// @Failure 400 {object} respond.ErrorResponse
// @Router /api/data [post]
func (h *Handler) SavePet(w http.ResponseWriter, r *http.Request) {
	var p ingest.Profile
	if !decodeJSON(w, r, &p) {
		return
	}

	res, err := h.ingest.UpdateProfile(r.Context(), &p)
	if err != nil {
		h.writeError(w, r, err, msgNoPet)
		return
	}

	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	respond.WriteJSONObject(w, status, newPetView(res.Entity))
}
