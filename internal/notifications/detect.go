package notifications

import (
	"fmt"
	"strconv"
	"time"

	"github.com/albapepper/petcare-telemetry/internal/model"
)

// Evaluate compares the state before and after a reading and returns the
// notifications it triggers, in emission order: meals, low water, high
// temperature, activity. prev is nil when the reading creates the entity.
// Evaluate has no side effects; see MarkAlerts for cooldown bookkeeping.
func Evaluate(prev, next *model.Entity, p model.Patch, r Rules) []Pending {
	if next == nil {
		return nil
	}
	name := displayName(next)
	now := next.UpdatedAt

	var out []Pending

	if meals := next.MealsOrZero(); meals > prev.MealsOrZero() {
		out = append(out, Pending{
			Rule:    RuleMeal,
			Kind:    model.KindConsumable,
			Title:   titlePrefix + "Meal Recorded",
			Message: fmt.Sprintf("%s has eaten. Meals today: %d.", name, meals),
		})
	}

	if next.Water != nil && *next.Water < r.LowWaterMark && !coolingDown(lastAlert(prev, RuleLowWater), now, r.Cooldown) {
		out = append(out, Pending{
			Rule:    RuleLowWater,
			Kind:    model.KindAlert,
			Title:   titlePrefix + "Low Water!",
			Message: fmt.Sprintf("%s's water level is critically low: %s%%. Refill the bowl.", name, formatValue(*next.Water)),
		})
	}

	if next.Temperature != nil && *next.Temperature > r.HighTemperature && !coolingDown(lastAlert(prev, RuleHighTemperature), now, r.Cooldown) {
		out = append(out, Pending{
			Rule:    RuleHighTemperature,
			Kind:    model.KindAlert,
			Title:   titlePrefix + "High Temperature!",
			Message: fmt.Sprintf("It is too hot around %s: %s °C.", name, formatValue(*next.Temperature)),
		})
	}

	if p.ActivityPulse() {
		out = append(out, Pending{
			Rule:    RuleActivity,
			Kind:    model.KindActivity,
			Title:   titlePrefix + "Activity Detected!",
			Message: fmt.Sprintf("%s has been active! Motion detected at %s UTC.", name, next.RecordedAt.UTC().Format("15:04")),
		})
	}

	return out
}

// MarkAlerts records on next the instant of every alert in pending, so a
// later Evaluate can honor Rules.Cooldown.
func MarkAlerts(next *model.Entity, pending []Pending, now time.Time) {
	for _, p := range pending {
		t := now.UTC()
		switch p.Rule {
		case RuleLowWater:
			next.LowWaterAlertAt = &t
		case RuleHighTemperature:
			next.HighTempAlertAt = &t
		}
	}
}

func lastAlert(prev *model.Entity, rule Rule) *time.Time {
	if prev == nil {
		return nil
	}
	switch rule {
	case RuleLowWater:
		return prev.LowWaterAlertAt
	case RuleHighTemperature:
		return prev.HighTempAlertAt
	}
	return nil
}

func coolingDown(last *time.Time, now time.Time, cooldown time.Duration) bool {
	if cooldown <= 0 || last == nil {
		return false
	}
	return now.Sub(*last) < cooldown
}

func displayName(e *model.Entity) string {
	if e.Name == "" {
		return fallbackName
	}
	return e.Name
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
