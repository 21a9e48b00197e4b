package ingest

import (
	"encoding/base64"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/albapepper/petcare-telemetry/internal/model"
)

// validate is the validator instance for ingestion payloads.
// Initialized in init() with Field unwrapping and JSON field names.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Report errors under the JSON key the client sent.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// Validate the carried value of a Field; absent and null fields are
	// skipped by omitempty.
	validate.RegisterCustomTypeFunc(unwrapField[int], model.Field[int]{})
	validate.RegisterCustomTypeFunc(unwrapField[float64], model.Field[float64]{})
	validate.RegisterCustomTypeFunc(unwrapField[string], model.Field[string]{})
}

func unwrapField[T any](v reflect.Value) interface{} {
	f, ok := v.Interface().(model.Field[T])
	if !ok || !f.HasValue() {
		return nil
	}
	return f.Value
}

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

// ValidationError reports a payload the service refuses to apply.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	reason := fe.Tag()
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "gte":
		reason = "must be at least " + fe.Param()
	case "lte":
		reason = "must be at most " + fe.Param()
	}
	return &ValidationError{Field: fe.Field(), Reason: reason}
}

// --------------------------------------------------------------------------
// Telemetry reading
// --------------------------------------------------------------------------

// Instants outside these bounds are rejected; the SQLite backend stores
// them as Unix nanoseconds, which overflow after April 2262.
var (
	minRecordedAt = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	minBirthDate  = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)
	maxInstant    = time.Date(2262, 1, 1, 0, 0, 0, 0, time.UTC)
)

func inRange(t, lo, hi time.Time) bool {
	return !t.Before(lo) && t.Before(hi)
}

// Reading is one telemetry sample. Only the fields present are applied;
// recordedAt is mandatory.
type Reading struct {
	Meals            model.Field[int]     `json:"meals" validate:"omitempty,gte=0"`
	Water            model.Field[float64] `json:"water" validate:"omitempty,gte=0,lte=100"`
	Humidity         model.Field[float64] `json:"humidity" validate:"omitempty,gte=0,lte=100"`
	Temperature      model.Field[float64] `json:"temperature"`
	ActivityDetected *bool                `json:"activityDetected"`
	RecordedAt       *time.Time           `json:"recordedAt" validate:"required"`
}

// Validate checks field presence and ranges.
func (r *Reading) Validate() error {
	if err := validate.Struct(r); err != nil {
		return toValidationError(err)
	}
	if !inRange(*r.RecordedAt, minRecordedAt, maxInstant) {
		return &ValidationError{Field: "recordedAt", Reason: "must be between 1970-01-01 and 2262-01-01"}
	}
	return nil
}

// Patch converts the reading into an entity patch.
func (r *Reading) Patch() model.Patch {
	return model.Patch{
		Meals:            r.Meals,
		Water:            r.Water,
		Humidity:         r.Humidity,
		Temperature:      r.Temperature,
		ActivityDetected: r.ActivityDetected,
		RecordedAt:       r.RecordedAt,
	}
}

// --------------------------------------------------------------------------
// Profile
// --------------------------------------------------------------------------

// Profile is a create-or-update of the pet's descriptive fields. Photo is a
// base64 data URL; BirthDate is YYYY-MM-DD or an RFC 3339 instant.
type Profile struct {
	Name      string               `json:"name" validate:"required"`
	Photo     model.Field[string]  `json:"photo"`
	BirthDate model.Field[string]  `json:"birthDate"`
	Weight    model.Field[float64] `json:"weight" validate:"omitempty,gte=0"`
	Breed     model.Field[string]  `json:"breed"`
}

// Validate checks the profile and returns a *ValidationError on failure.
func (p *Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return toValidationError(err)
	}
	_, err := p.Patch()
	return err
}

// Patch converts the profile into an entity patch, decoding the photo and
// the birth date.
func (p *Profile) Patch() (model.Patch, error) {
	patch := model.Patch{
		Name:   model.Some(p.Name),
		Weight: p.Weight,
		Breed:  p.Breed,
	}

	switch {
	case p.Photo.HasValue():
		photo, err := ParsePhotoDataURL(p.Photo.Value)
		if err != nil {
			return model.Patch{}, &ValidationError{Field: "photo", Reason: err.Error()}
		}
		patch.Photo = model.Some(photo)
	case p.Photo.Set:
		patch.Photo = model.Null[model.Photo]()
	}

	switch {
	case p.BirthDate.HasValue():
		d, err := parseDate(p.BirthDate.Value)
		if err != nil {
			return model.Patch{}, &ValidationError{Field: "birthDate", Reason: "must be YYYY-MM-DD"}
		}
		if !inRange(d, minBirthDate, maxInstant) {
			return model.Patch{}, &ValidationError{Field: "birthDate", Reason: "must be between 1900-01-01 and 2262-01-01"}
		}
		patch.BirthDate = model.Some(d)
	case p.BirthDate.Set:
		patch.BirthDate = model.Null[time.Time]()
	}

	return patch, nil
}

// ParsePhotoDataURL decodes "data:<mime>;base64,<payload>".
func ParsePhotoDataURL(s string) (model.Photo, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return model.Photo{}, errors.New("must be a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return model.Photo{}, errors.New("data URL has no payload")
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok || mime == "" {
		return model.Photo{}, errors.New("data URL must be base64 with a media type")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return model.Photo{}, errors.New("invalid base64 payload")
	}
	if len(data) == 0 {
		return model.Photo{}, errors.New("empty photo")
	}
	return model.Photo{Data: data, MIME: mime}, nil
}

// PhotoDataURL encodes a photo back into a data URL.
func PhotoDataURL(p *model.Photo) *string {
	if p == nil {
		return nil
	}
	mime := p.MIME
	if mime == "" {
		mime = "image/png"
	}
	s := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(p.Data)
	return &s
}

func parseDate(s string) (time.Time, error) {
	if d, err := time.Parse(time.DateOnly, s); err == nil {
		return d, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}
