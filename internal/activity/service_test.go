package activity

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/petcare-telemetry/internal/model"
	"github.com/albapepper/petcare-telemetry/internal/sqlitedb"
	"github.com/albapepper/petcare-telemetry/internal/store"
)

func openStore(t *testing.T) *sqlitedb.Service {
	t.Helper()
	s, err := sqlitedb.New(context.Background(), &sqlitedb.Config{
		DBPath:       filepath.Join(t.TempDir(), "pets.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStats_NoPet(t *testing.T) {
	svc := NewService(openStore(t))
	_, err := svc.Stats(context.Background(), time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestStats_PetWithoutEvents(t *testing.T) {
	db := openStore(t)
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	pet := model.Apply(nil, model.Patch{Name: model.Some("Toby")}, now)
	pet.ID = "pet-1"
	require.NoError(t, db.Commit(context.Background(), &store.Commit{Next: &pet}))

	stats, err := NewService(db).Stats(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "Toby", stats.PetName)
	assert.Zero(t, stats.TotalActivityEvents)
	assert.Nil(t, stats.LastActivityTimestamp)
	assert.Len(t, stats.DailyActivity, WeekDays)
}

func TestStats_CountsStoredEvents(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

	pet := model.Apply(nil, model.Patch{Name: model.Some("Toby")}, now)
	pet.ID = "pet-1"
	require.NoError(t, db.Commit(ctx, &store.Commit{Next: &pet}))

	// Arrive out of order: today, three days ago, today earlier, last week.
	prev := &pet
	for _, ts := range []time.Time{
		now.Add(-time.Hour),
		now.AddDate(0, 0, -3),
		now.Add(-5 * time.Hour),
		now.AddDate(0, 0, -8),
	} {
		next := model.Apply(prev, model.Patch{}, now)
		require.NoError(t, db.Commit(ctx, &store.Commit{
			Prev:   prev,
			Next:   &next,
			Events: []model.ActivityEvent{{Timestamp: ts, Type: model.EventMovement}},
		}))
		prev = &next
	}

	stats, err := NewService(db).Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalActivityEvents)
	require.NotNil(t, stats.LastActivityTimestamp)
	assert.True(t, now.Add(-time.Hour).Equal(*stats.LastActivityTimestamp))

	counts := make([]int, 0, WeekDays)
	for _, b := range stats.DailyActivity {
		counts = append(counts, b.Count)
	}
	assert.Equal(t, []int{0, 0, 0, 1, 0, 0, 2}, counts)
}
