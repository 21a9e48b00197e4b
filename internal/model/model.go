// Package model defines the records shared by the ingestion, storage,
// aggregation and notification layers.
package model

import "time"

// --------------------------------------------------------------------------
// Creation defaults
// --------------------------------------------------------------------------

// Values substituted for telemetry scalars the first reading omits.
const (
	DefaultMeals       = 0
	DefaultWater       = 100.0 // percent, full bowl
	DefaultHumidity    = 50.0  // percent
	DefaultTemperature = 22.0  // °C
)

// EventMovement is the only event type the sensors currently emit.
const EventMovement = "movement"

// --------------------------------------------------------------------------
// Entity
// --------------------------------------------------------------------------

// Photo is an uploaded profile image.
type Photo struct {
	Data []byte
	MIME string
}

// Entity is the singleton monitored pet and its last-known telemetry.
// Version increases by one on every committed change and is used for
// compare-and-swap updates.
type Entity struct {
	ID        string
	Name      string
	Photo     *Photo
	BirthDate *time.Time
	Weight    *float64
	Breed     *string

	Meals       *int
	Water       *float64
	Humidity    *float64
	Temperature *float64
	Activity    int

	RecordedAt      time.Time
	LowWaterAlertAt *time.Time
	HighTempAlertAt *time.Time

	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MealsOrZero returns the meal counter, treating an unknown value as zero.
func (e *Entity) MealsOrZero() int {
	if e == nil || e.Meals == nil {
		return 0
	}
	return *e.Meals
}

// --------------------------------------------------------------------------
// Events, notifications, subscriptions
// --------------------------------------------------------------------------

// ActivityEvent is an immutable discrete occurrence. ID is assigned by the
// store in insertion order and breaks timestamp ties.
type ActivityEvent struct {
	ID        int64     `json:"id"`
	EntityID  string    `json:"petId"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"activityType"`
}

// Kind classifies a notification for display.
type Kind string

const (
	KindActivity    Kind = "activity"
	KindConsumable  Kind = "consumable"
	KindEnvironment Kind = "environment"
	KindAlert       Kind = "alert"
	KindInfo        Kind = "info"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindActivity, KindConsumable, KindEnvironment, KindAlert, KindInfo:
		return true
	}
	return false
}

// Notification is a stored, user-facing message.
type Notification struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	IsRead    bool      `json:"isRead"`
}

// SubscriptionKeys is the opaque credential material of a push subscription.
type SubscriptionKeys struct {
	P256dh string `json:"p256dh" validate:"required"`
	Auth   string `json:"auth" validate:"required"`
}

// Subscription is a registered push endpoint. Endpoint is the unique key.
type Subscription struct {
	Endpoint  string           `json:"endpoint" validate:"required,url"`
	Keys      SubscriptionKeys `json:"keys" validate:"required"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}
