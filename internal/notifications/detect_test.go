package notifications

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/petcare-telemetry/internal/model"
)

func ptr[T any](v T) *T { return &v }

func entity(name string, meals int, water, temp float64, at time.Time) *model.Entity {
	return &model.Entity{
		ID:          "pet-1",
		Name:        name,
		Meals:       ptr(meals),
		Water:       ptr(water),
		Temperature: ptr(temp),
		RecordedAt:  at,
		UpdatedAt:   at,
	}
}

func rulesOf(pending []Pending) []Rule {
	out := make([]Rule, 0, len(pending))
	for _, p := range pending {
		out = append(out, p.Rule)
	}
	return out
}

func TestEvaluate_EmissionOrder(t *testing.T) {
	at := time.Date(2026, 10, 16, 14, 7, 0, 0, time.UTC)
	prev := entity("Toby", 1, 80, 22, at.Add(-time.Hour))
	next := entity("Toby", 2, 20, 31.5, at)

	got := Evaluate(prev, next, model.Patch{ActivityDetected: ptr(true)}, DefaultRules())
	require.Equal(t, []Rule{RuleMeal, RuleLowWater, RuleHighTemperature, RuleActivity}, rulesOf(got))

	assert.Equal(t, model.KindConsumable, got[0].Kind)
	assert.Equal(t, "Toby has eaten. Meals today: 2.", got[0].Message)
	assert.Equal(t, model.KindAlert, got[1].Kind)
	assert.Contains(t, got[1].Message, "20%")
	assert.Equal(t, model.KindAlert, got[2].Kind)
	assert.Contains(t, got[2].Message, "31.5 °C")
	assert.Equal(t, model.KindActivity, got[3].Kind)
	assert.Equal(t, "Toby has been active! Motion detected at 14:07 UTC.", got[3].Message)
}

func TestEvaluate_NothingToReport(t *testing.T) {
	at := time.Now().UTC()
	prev := entity("Toby", 3, 80, 22, at)
	next := entity("Toby", 3, 80, 22, at)

	assert.Empty(t, Evaluate(prev, next, model.Patch{ActivityDetected: ptr(false)}, DefaultRules()))
}

func TestEvaluate_MealIncreaseFiresOnce(t *testing.T) {
	at := time.Now().UTC()
	prev := entity("Toby", 3, 80, 22, at)

	got := Evaluate(prev, entity("Toby", 5, 80, 22, at), model.Patch{}, DefaultRules())
	require.Len(t, got, 1)
	assert.Equal(t, model.KindConsumable, got[0].Kind)
	assert.Equal(t, "Toby has eaten. Meals today: 5.", got[0].Message)

	assert.Empty(t, Evaluate(prev, entity("Toby", 3, 80, 22, at), model.Patch{}, DefaultRules()))
}

func TestEvaluate_ThresholdBoundaries(t *testing.T) {
	at := time.Now().UTC()
	r := DefaultRules()

	// Exactly on the thresholds does not alert.
	next := entity("Toby", 0, r.LowWaterMark, r.HighTemperature, at)
	assert.Empty(t, Evaluate(nil, next, model.Patch{}, r))

	next = entity("Toby", 0, r.LowWaterMark-0.1, r.HighTemperature+0.1, at)
	assert.Equal(t, []Rule{RuleLowWater, RuleHighTemperature}, rulesOf(Evaluate(nil, next, model.Patch{}, r)))
}

func TestEvaluate_MealsAgainstMissingPrevious(t *testing.T) {
	at := time.Now().UTC()

	got := Evaluate(nil, entity("", 1, 90, 22, at), model.Patch{}, DefaultRules())
	require.Len(t, got, 1)
	assert.Equal(t, "Your pet has eaten. Meals today: 1.", got[0].Message)

	// A decrease (daily reset) is not a meal.
	got = Evaluate(entity("", 4, 90, 22, at), entity("", 0, 90, 22, at), model.Patch{}, DefaultRules())
	assert.Empty(t, got)
}

func TestEvaluate_UnknownLevelsNeverAlert(t *testing.T) {
	next := &model.Entity{Name: "Toby", UpdatedAt: time.Now()}
	assert.Empty(t, Evaluate(nil, next, model.Patch{}, DefaultRules()))
}

func TestEvaluate_RefiresWithoutCooldown(t *testing.T) {
	at := time.Now().UTC()
	r := DefaultRules()
	prev := entity("Toby", 0, 10, 22, at)
	prev.LowWaterAlertAt = ptr(at)

	for i := 0; i < 3; i++ {
		next := entity("Toby", 0, 10, 22, at.Add(time.Duration(i)*time.Second))
		assert.Equal(t, []Rule{RuleLowWater}, rulesOf(Evaluate(prev, next, model.Patch{}, r)))
	}
}

func TestEvaluate_Cooldown(t *testing.T) {
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	r := DefaultRules()
	r.Cooldown = 10 * time.Minute

	prev := entity("Toby", 0, 10, 35, at)
	prev.LowWaterAlertAt = ptr(at)
	prev.HighTempAlertAt = ptr(at.Add(-time.Hour))

	next := entity("Toby", 0, 10, 35, at.Add(5*time.Minute))
	got := Evaluate(prev, next, model.Patch{}, r)
	assert.Equal(t, []Rule{RuleHighTemperature}, rulesOf(got), "low water is still cooling down")

	next = entity("Toby", 0, 10, 35, at.Add(10*time.Minute))
	got = Evaluate(prev, next, model.Patch{}, r)
	assert.Equal(t, []Rule{RuleLowWater, RuleHighTemperature}, rulesOf(got))
}

func TestMarkAlerts(t *testing.T) {
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	next := &model.Entity{}

	MarkAlerts(next, []Pending{{Rule: RuleMeal}, {Rule: RuleHighTemperature}}, now)
	assert.Nil(t, next.LowWaterAlertAt)
	require.NotNil(t, next.HighTempAlertAt)
	assert.True(t, now.Equal(*next.HighTempAlertAt))
}

func TestPendingNotification(t *testing.T) {
	at := time.Date(2026, 10, 16, 12, 0, 0, 0, time.FixedZone("X", 3600))
	n := Pending{Kind: model.KindAlert, Title: "t", Message: "m"}.Notification("id-1", at)

	assert.Equal(t, "id-1", n.ID)
	assert.Equal(t, model.KindAlert, n.Kind)
	assert.Equal(t, time.UTC, n.Timestamp.Location())
	assert.False(t, n.IsRead)
}
