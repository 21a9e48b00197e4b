package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldUnmarshal(t *testing.T) {
	var body struct {
		Water    Field[float64] `json:"water"`
		Humidity Field[float64] `json:"humidity"`
		Breed    Field[string]  `json:"breed"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"water": 42.5, "breed": null}`), &body))

	assert.True(t, body.Water.HasValue())
	assert.Equal(t, 42.5, body.Water.Value)

	assert.False(t, body.Humidity.Set, "omitted key must stay absent")

	assert.True(t, body.Breed.Set)
	assert.True(t, body.Breed.Null)
	assert.False(t, body.Breed.HasValue())
}

func TestApply_CreateUsesDefaults(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)
	next := Apply(nil, Patch{Temperature: Some(25.0)}, now)

	require.NotNil(t, next.Meals)
	require.NotNil(t, next.Water)
	require.NotNil(t, next.Humidity)
	require.NotNil(t, next.Temperature)
	assert.Equal(t, DefaultMeals, *next.Meals)
	assert.Equal(t, DefaultWater, *next.Water)
	assert.Equal(t, DefaultHumidity, *next.Humidity)
	assert.Equal(t, 25.0, *next.Temperature)
	assert.Equal(t, 0, next.Activity)
	assert.Equal(t, now, next.CreatedAt)
}

func TestApply_ThreeWaySemantics(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 30, 0, 0, time.UTC)
	breed := "beagle"
	weight := 12.0
	water := 80.0
	prev := &Entity{ID: "p1", Name: "Toby", Breed: &breed, Weight: &weight, Water: &water, Activity: 4, Version: 3}

	next := Apply(prev, Patch{
		Breed:  Null[string](),
		Weight: Some(12.5),
	}, now)

	assert.Nil(t, next.Breed, "explicit null clears")
	require.NotNil(t, next.Weight)
	assert.Equal(t, 12.5, *next.Weight, "value overwrites")
	require.NotNil(t, next.Water)
	assert.Equal(t, 80.0, *next.Water, "omitted field untouched")
	assert.Equal(t, "Toby", next.Name)
	assert.Equal(t, 4, next.Activity)

	assert.Equal(t, "beagle", *prev.Breed, "prev must not be modified")
	assert.Equal(t, 12.0, *prev.Weight)
}

func TestApply_ActivityPulse(t *testing.T) {
	now := time.Now().UTC()
	yes, no := true, false

	created := Apply(nil, Patch{ActivityDetected: &yes}, now)
	assert.Equal(t, 1, created.Activity)

	again := Apply(&created, Patch{ActivityDetected: &yes}, now)
	assert.Equal(t, 2, again.Activity)

	unchanged := Apply(&again, Patch{ActivityDetected: &no}, now)
	assert.Equal(t, 2, unchanged.Activity, "false flag never decrements")
}

func TestApply_RecordedAt(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	at := time.Date(2026, 10, 16, 9, 15, 0, 0, time.FixedZone("CST", -6*3600))

	next := Apply(nil, Patch{RecordedAt: &at}, now)
	assert.Equal(t, time.UTC, next.RecordedAt.Location())
	assert.True(t, at.Equal(next.RecordedAt))
}
