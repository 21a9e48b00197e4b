// Package notifications decides which state transitions deserve a
// notification and fans stored notifications out to push subscribers.
//
// Pipeline: evaluate rules → persist with the state change → enqueue →
// dispatch to every subscriber → prune gone subscriptions.
// A background Worker drains the queue so ingestion never waits on delivery.
package notifications

import (
	"time"

	"github.com/albapepper/petcare-telemetry/internal/model"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

const (
	DefaultLowWaterMark    = 30.0 // percent
	DefaultHighTemperature = 28.0 // °C

	fallbackName = "Your pet"
	titlePrefix  = "Smart Pet Care: "
)

// Rule identifies which check produced a notification.
type Rule string

const (
	RuleMeal            Rule = "meal"
	RuleLowWater        Rule = "low_water"
	RuleHighTemperature Rule = "high_temperature"
	RuleActivity        Rule = "activity"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Rules holds the thresholds the engine evaluates against.
type Rules struct {
	LowWaterMark    float64 // alert when water < mark
	HighTemperature float64 // alert when temperature > threshold

	// Cooldown suppresses a repeated alert of the same rule while the
	// previous one is younger than this. Zero fires on every reading.
	Cooldown time.Duration
}

// DefaultRules returns the stock thresholds with no cooldown.
func DefaultRules() Rules {
	return Rules{
		LowWaterMark:    DefaultLowWaterMark,
		HighTemperature: DefaultHighTemperature,
	}
}

// Pending is a notification produced by a rule, not yet stored.
type Pending struct {
	Rule    Rule
	Kind    model.Kind
	Title   string
	Message string
}

// Notification materializes p with an id and timestamp.
func (p Pending) Notification(id string, at time.Time) model.Notification {
	return model.Notification{
		ID:        id,
		Kind:      p.Kind,
		Title:     p.Title,
		Message:   p.Message,
		Timestamp: at.UTC(),
	}
}
