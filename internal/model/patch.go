package model

import (
	"bytes"
	"encoding/json"
	"time"
)

// Field is an optional value with an explicit clear state.
//
//	Set=false            field omitted, leave the attribute untouched
//	Set=true, Null=true  clear the attribute
//	Set=true, Null=false overwrite the attribute with Value
//
// Decoded from JSON, a missing key yields the zero Field, a literal null
// yields a clear, and anything else yields an overwrite.
type Field[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a Field that overwrites with v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

// Null returns a Field that clears the attribute.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// HasValue reports whether the field carries a value to write.
func (f Field[T]) HasValue() bool {
	return f.Set && !f.Null
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		var zero T
		f.Null = true
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

func (f Field[T]) applyTo(dst **T) {
	if !f.Set {
		return
	}
	if f.Null {
		*dst = nil
		return
	}
	v := f.Value
	*dst = &v
}

// Patch is a partial update of the singleton entity. Profile fields and
// telemetry scalars use three-way Field semantics; ActivityDetected is a
// pulse that only counts when true.
type Patch struct {
	Name      Field[string]
	Photo     Field[Photo]
	BirthDate Field[time.Time]
	Weight    Field[float64]
	Breed     Field[string]

	Meals       Field[int]
	Water       Field[float64]
	Humidity    Field[float64]
	Temperature Field[float64]

	ActivityDetected *bool
	RecordedAt       *time.Time
}

// ActivityPulse reports whether the patch carries a positive activity flag.
func (p Patch) ActivityPulse() bool {
	return p.ActivityDetected != nil && *p.ActivityDetected
}

// Apply returns the entity produced by applying p on top of prev. A nil prev
// yields a fresh entity whose omitted telemetry scalars take the creation
// defaults; the caller assigns its ID. prev is never modified.
func Apply(prev *Entity, p Patch, now time.Time) Entity {
	now = now.UTC()

	var next Entity
	if prev == nil {
		meals, water, humidity, temp := DefaultMeals, DefaultWater, DefaultHumidity, DefaultTemperature
		next = Entity{
			Meals:       &meals,
			Water:       &water,
			Humidity:    &humidity,
			Temperature: &temp,
			RecordedAt:  now,
			CreatedAt:   now,
		}
	} else {
		next = *prev
	}

	if p.Name.Set {
		next.Name = p.Name.Value
	}
	p.Photo.applyTo(&next.Photo)
	p.BirthDate.applyTo(&next.BirthDate)
	p.Weight.applyTo(&next.Weight)
	p.Breed.applyTo(&next.Breed)

	p.Meals.applyTo(&next.Meals)
	p.Water.applyTo(&next.Water)
	p.Humidity.applyTo(&next.Humidity)
	p.Temperature.applyTo(&next.Temperature)

	if p.ActivityPulse() {
		next.Activity++
	}
	if p.RecordedAt != nil {
		next.RecordedAt = p.RecordedAt.UTC()
	}
	next.UpdatedAt = now
	return next
}
