package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/albapepper/petcare-telemetry/internal/model"
	"github.com/albapepper/petcare-telemetry/internal/store"
)

// --------------------------------------------------------------------------
// Pet state
// --------------------------------------------------------------------------

// GetEntity returns the singleton pet or store.ErrNotFound.
func (p *Pool) GetEntity(ctx context.Context) (*model.Entity, error) {
	e, err := scanPet(p.QueryRow(ctx, "pet_get"))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pet: %w", err)
	}
	return e, nil
}

// Commit writes the state transition, its events and its notifications in
// one transaction. A lost compare-and-swap returns store.ErrConflict.
func (p *Pool) Commit(ctx context.Context, c *store.Commit) error {
	var (
		version  int64
		eventIDs = make([]int64, len(c.Events))
	)

	err := pgx.BeginFunc(ctx, p.Pool, func(tx pgx.Tx) error {
		e := c.Next
		var photo []byte
		var mime *string
		if e.Photo != nil {
			photo, mime = e.Photo.Data, &e.Photo.MIME
		}

		if c.Prev == nil {
			tag, err := tx.Exec(ctx, "pet_insert",
				e.ID, e.Name, photo, mime, e.BirthDate, e.Weight, e.Breed,
				e.Meals, e.Water, e.Humidity, e.Temperature, e.Activity,
				e.RecordedAt, e.LowWaterAlertAt, e.HighTempAlertAt,
				e.CreatedAt, e.UpdatedAt)
			if err != nil {
				return fmt.Errorf("insert pet: %w", err)
			}
			if tag.RowsAffected() == 0 {
				return store.ErrConflict
			}
			version = 1
		} else {
			err := tx.QueryRow(ctx, "pet_update",
				e.ID, e.Name, photo, mime, e.BirthDate, e.Weight, e.Breed,
				e.Meals, e.Water, e.Humidity, e.Temperature, e.Activity,
				e.RecordedAt, e.LowWaterAlertAt, e.HighTempAlertAt,
				e.UpdatedAt, c.Prev.Version,
			).Scan(&version)
			if errors.Is(err, pgx.ErrNoRows) {
				return store.ErrConflict
			}
			if err != nil {
				return fmt.Errorf("update pet: %w", err)
			}
		}

		for i, ev := range c.Events {
			if err := tx.QueryRow(ctx, "event_insert", e.ID, ev.Timestamp, ev.Type).Scan(&eventIDs[i]); err != nil {
				return fmt.Errorf("insert activity event: %w", err)
			}
		}

		for _, n := range c.Notifications {
			if _, err := tx.Exec(ctx, "notification_insert",
				n.ID, string(n.Kind), n.Title, n.Message, n.Timestamp, n.IsRead); err != nil {
				return fmt.Errorf("insert notification: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.Next.Version = version
	for i := range c.Events {
		c.Events[i].ID = eventIDs[i]
		c.Events[i].EntityID = c.Next.ID
	}
	return nil
}

func scanPet(row pgx.Row) (*model.Entity, error) {
	var (
		e     model.Entity
		photo []byte
		mime  *string
	)
	if err := row.Scan(
		&e.ID, &e.Name, &photo, &mime, &e.BirthDate, &e.Weight, &e.Breed,
		&e.Meals, &e.Water, &e.Humidity, &e.Temperature, &e.Activity,
		&e.RecordedAt, &e.LowWaterAlertAt, &e.HighTempAlertAt,
		&e.Version, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if photo != nil {
		e.Photo = &model.Photo{Data: photo}
		if mime != nil {
			e.Photo.MIME = *mime
		}
	}
	e.RecordedAt = e.RecordedAt.UTC()
	e.CreatedAt = e.CreatedAt.UTC()
	e.UpdatedAt = e.UpdatedAt.UTC()
	e.LowWaterAlertAt = utcPtr(e.LowWaterAlertAt)
	e.HighTempAlertAt = utcPtr(e.HighTempAlertAt)
	return &e, nil
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// --------------------------------------------------------------------------
// Activity log
// --------------------------------------------------------------------------

// QueryEvents returns the events of entityID in [from, to), oldest first.
func (p *Pool) QueryEvents(ctx context.Context, entityID string, from, to time.Time) ([]model.ActivityEvent, error) {
	rows, err := p.Query(ctx, "events_in_range", entityID, from.UTC(), to.UTC())
	if err != nil {
		return nil, fmt.Errorf("query activity events: %w", err)
	}
	defer rows.Close()

	var events []model.ActivityEvent
	for rows.Next() {
		var ev model.ActivityEvent
		if err := rows.Scan(&ev.ID, &ev.EntityID, &ev.Timestamp, &ev.Type); err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		ev.Timestamp = ev.Timestamp.UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

// PurgeEvents deletes the whole activity log.
func (p *Pool) PurgeEvents(ctx context.Context) (int64, error) {
	tag, err := p.Exec(ctx, "events_purge")
	if err != nil {
		return 0, fmt.Errorf("purge activity events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneEvents deletes activity events older than before.
func (p *Pool) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	tag, err := p.Exec(ctx, "events_prune", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune activity events: %w", err)
	}
	return tag.RowsAffected(), nil
}

// --------------------------------------------------------------------------
// Notifications
// --------------------------------------------------------------------------

// ListNotifications returns the newest notifications first.
func (p *Pool) ListNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	rows, err := p.Query(ctx, "notifications_recent", limit)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Notification, 0, limit)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

// MarkNotificationRead sets the read flag of one notification.
func (p *Pool) MarkNotificationRead(ctx context.Context, id string, isRead bool) (*model.Notification, error) {
	n, err := scanNotification(p.QueryRow(ctx, "notification_mark", id, isRead))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return n, err
}

// MarkNotificationsRead sets the read flag of every listed notification.
func (p *Pool) MarkNotificationsRead(ctx context.Context, ids []string, isRead bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := p.Exec(ctx, "notifications_mark_many", ids, isRead)
	if err != nil {
		return 0, fmt.Errorf("mark notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PurgeNotifications deletes the whole notification history.
func (p *Pool) PurgeNotifications(ctx context.Context) (int64, error) {
	tag, err := p.Exec(ctx, "notifications_purge")
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// PruneReadNotifications deletes read notifications older than before.
func (p *Pool) PruneReadNotifications(ctx context.Context, before time.Time) (int64, error) {
	tag, err := p.Exec(ctx, "notifications_prune", before.UTC())
	if err != nil {
		return 0, fmt.Errorf("prune notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(row pgx.Row) (*model.Notification, error) {
	var (
		n    model.Notification
		kind string
	)
	if err := row.Scan(&n.ID, &kind, &n.Title, &n.Message, &n.Timestamp, &n.IsRead); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	n.Kind = model.Kind(kind)
	n.Timestamp = n.Timestamp.UTC()
	return &n, nil
}

// --------------------------------------------------------------------------
// Push subscriptions
// --------------------------------------------------------------------------

// UpsertSubscription inserts the subscription or replaces its keys.
func (p *Pool) UpsertSubscription(ctx context.Context, sub model.Subscription) error {
	now := time.Now().UTC()
	if _, err := p.Exec(ctx, "subscription_upsert", sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, now); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns every registered subscription.
func (p *Pool) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := p.Query(ctx, "subscriptions_all")
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var s model.Subscription
		if err := rows.Scan(&s.Endpoint, &s.Keys.P256dh, &s.Keys.Auth, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// DeleteSubscription removes a subscription. Deleting an unknown endpoint
// is not an error.
func (p *Pool) DeleteSubscription(ctx context.Context, endpoint string) error {
	if _, err := p.Exec(ctx, "subscription_delete", endpoint); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

var _ store.Store = (*Pool)(nil)
