package sqlitedb

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/petcare-telemetry/internal/model"
	"github.com/albapepper/petcare-telemetry/internal/store"
)

func openTestDB(t *testing.T) *Service {
	t.Helper()
	s, err := New(context.Background(), &Config{
		DBPath:       filepath.Join(t.TempDir(), "pets.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func createPet(t *testing.T, s *Service, now time.Time) *model.Entity {
	t.Helper()
	next := model.Apply(nil, model.Patch{Name: model.Some("Toby")}, now)
	next.ID = uuid.NewString()
	require.NoError(t, s.Commit(context.Background(), &store.Commit{Next: &next}))
	return &next
}

func TestGetEntity_NotFound(t *testing.T) {
	s := openTestDB(t)
	_, err := s.GetEntity(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCommit_CreateAndRoundTrip(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	birth := time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)

	next := model.Apply(nil, model.Patch{
		Name:      model.Some("Toby"),
		Photo:     model.Some(model.Photo{Data: []byte{0x89, 0x50}, MIME: "image/png"}),
		BirthDate: model.Some(birth),
		Breed:     model.Some("beagle"),
	}, now)
	next.ID = uuid.NewString()
	require.NoError(t, s.Commit(ctx, &store.Commit{Next: &next}))
	assert.Equal(t, int64(1), next.Version)

	got, err := s.GetEntity(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.ID, got.ID)
	assert.Equal(t, "Toby", got.Name)
	require.NotNil(t, got.Photo)
	assert.Equal(t, "image/png", got.Photo.MIME)
	assert.Equal(t, []byte{0x89, 0x50}, got.Photo.Data)
	require.NotNil(t, got.BirthDate)
	assert.True(t, birth.Equal(*got.BirthDate))
	require.NotNil(t, got.Water)
	assert.Equal(t, model.DefaultWater, *got.Water)
	assert.Nil(t, got.Weight)
	assert.True(t, now.Equal(got.RecordedAt))
}

func TestCommit_SecondCreateConflicts(t *testing.T) {
	s := openTestDB(t)
	now := time.Now().UTC()
	createPet(t, s, now)

	other := model.Apply(nil, model.Patch{}, now)
	other.ID = uuid.NewString()
	err := s.Commit(context.Background(), &store.Commit{Next: &other})
	assert.ErrorIs(t, err, store.ErrConflict, "singleton must reject a second row")
}

func TestCommit_StaleVersionConflicts(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	createPet(t, s, now)

	prev, err := s.GetEntity(ctx)
	require.NoError(t, err)

	first := model.Apply(prev, model.Patch{Meals: model.Some(1)}, now)
	require.NoError(t, s.Commit(ctx, &store.Commit{Prev: prev, Next: &first}))
	assert.Equal(t, int64(2), first.Version)

	stale := model.Apply(prev, model.Patch{Meals: model.Some(7)}, now)
	assert.ErrorIs(t, s.Commit(ctx, &store.Commit{Prev: prev, Next: &stale}), store.ErrConflict)

	got, err := s.GetEntity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, *got.Meals)
}

func TestCommit_RollsBackOnFailure(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()
	pet := createPet(t, s, now)

	note := model.Notification{ID: "dup", Kind: model.KindInfo, Message: "x", Timestamp: now}
	next := model.Apply(pet, model.Patch{Meals: model.Some(3)}, now)
	// Duplicate notification ids violate the unique constraint mid-transaction.
	err := s.Commit(ctx, &store.Commit{
		Prev:          pet,
		Next:          &next,
		Events:        []model.ActivityEvent{{Timestamp: now, Type: model.EventMovement}},
		Notifications: []model.Notification{note, note},
	})
	require.Error(t, err)

	got, err := s.GetEntity(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, *got.Meals, "state must not change without its notifications")

	events, err := s.QueryEvents(ctx, pet.ID, now.Add(-time.Hour), now.Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestQueryEvents_HalfOpenAndOrdered(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	pet := createPet(t, s, day)

	prev := pet
	stamps := []time.Time{
		day.Add(10 * time.Hour),
		day,                       // exactly on the lower bound
		day.Add(24 * time.Hour),   // exactly on the upper bound
		day.Add(-time.Nanosecond), // previous day
		day.Add(10 * time.Hour),   // tie with the first
	}
	for _, ts := range stamps {
		next := model.Apply(prev, model.Patch{}, ts)
		c := &store.Commit{Prev: prev, Next: &next, Events: []model.ActivityEvent{{Timestamp: ts, Type: model.EventMovement}}}
		require.NoError(t, s.Commit(ctx, c))
		prev = &next
	}

	events, err := s.QueryEvents(ctx, pet.ID, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.True(t, day.Equal(events[0].Timestamp))
	assert.True(t, events[1].Timestamp.Equal(events[2].Timestamp))
	assert.Less(t, events[1].ID, events[2].ID, "ties keep insertion order")

	n, err := s.PurgeEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestNotifications_ListMarkPurge(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	pet := createPet(t, s, base)

	var notes []model.Notification
	for i := 0; i < store.MaxNotifications+5; i++ {
		notes = append(notes, model.Notification{
			ID:        uuid.NewString(),
			Kind:      model.KindActivity,
			Message:   fmt.Sprintf("n%d", i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}
	next := model.Apply(pet, model.Patch{}, base)
	require.NoError(t, s.Commit(ctx, &store.Commit{Prev: pet, Next: &next, Notifications: notes}))

	list, err := s.ListNotifications(ctx, store.MaxNotifications)
	require.NoError(t, err)
	require.Len(t, list, store.MaxNotifications)
	assert.Equal(t, fmt.Sprintf("n%d", store.MaxNotifications+4), list[0].Message, "newest first")

	_, err = s.MarkNotificationRead(ctx, "missing", true)
	assert.ErrorIs(t, err, store.ErrNotFound)

	one, err := s.MarkNotificationRead(ctx, notes[0].ID, true)
	require.NoError(t, err)
	assert.True(t, one.IsRead)

	ids := []string{notes[1].ID, notes[2].ID, notes[3].ID, "unknown"}
	for i := 0; i < 2; i++ {
		n, err := s.MarkNotificationsRead(ctx, ids, true)
		require.NoError(t, err, "marking again must be idempotent")
		assert.Equal(t, int64(3), n)
	}

	list, err = s.ListNotifications(ctx, 500)
	require.NoError(t, err)
	read := 0
	for _, n := range list {
		if n.IsRead {
			read++
		}
	}
	assert.Equal(t, 4, read)

	purged, err := s.PurgeNotifications(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(notes)), purged)
}

func TestSubscriptions_UpsertListDelete(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	sub := model.Subscription{Endpoint: "https://push.example/a", Keys: model.SubscriptionKeys{P256dh: "k1", Auth: "a1"}}
	require.NoError(t, s.UpsertSubscription(ctx, sub))

	sub.Keys.P256dh = "k2"
	require.NoError(t, s.UpsertSubscription(ctx, sub))
	require.NoError(t, s.UpsertSubscription(ctx, model.Subscription{
		Endpoint: "https://push.example/b", Keys: model.SubscriptionKeys{P256dh: "k", Auth: "a"},
	}))

	subs, err := s.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 2, "re-registration must not duplicate")

	byEndpoint := map[string]model.Subscription{}
	for _, s := range subs {
		byEndpoint[s.Endpoint] = s
	}
	assert.Equal(t, "k2", byEndpoint["https://push.example/a"].Keys.P256dh)

	require.NoError(t, s.DeleteSubscription(ctx, "https://push.example/a"))
	require.NoError(t, s.DeleteSubscription(ctx, "https://push.example/a"))

	subs, err = s.ListSubscriptions(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "https://push.example/b", subs[0].Endpoint)
}

func TestRetention_PrunesOnlyAgedRows(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)
	pet := createPet(t, s, now)

	old, fresh := cutoff.Add(-time.Minute), cutoff.Add(time.Minute)
	notes := []model.Notification{
		{ID: "old-read", Kind: model.KindAlert, Message: "a", Timestamp: old},
		{ID: "old-unread", Kind: model.KindAlert, Message: "b", Timestamp: old},
		{ID: "fresh-read", Kind: model.KindAlert, Message: "c", Timestamp: fresh},
	}
	next := model.Apply(pet, model.Patch{}, now)
	require.NoError(t, s.Commit(ctx, &store.Commit{
		Prev: pet, Next: &next,
		Events: []model.ActivityEvent{
			{Timestamp: old, Type: model.EventMovement},
			{Timestamp: cutoff, Type: model.EventMovement},
			{Timestamp: fresh, Type: model.EventMovement},
		},
		Notifications: notes,
	}))
	_, err := s.MarkNotificationsRead(ctx, []string{"old-read", "fresh-read"}, true)
	require.NoError(t, err)

	n, err := s.PruneEvents(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "the event on the cutoff is kept")

	n, err = s.PruneReadNotifications(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	list, err := s.ListNotifications(ctx, store.MaxNotifications)
	require.NoError(t, err)
	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.ID)
	}
	assert.ElementsMatch(t, []string{"old-unread", "fresh-read"}, ids)
}
