package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/albapepper/petcare-telemetry/internal/model"
	"github.com/albapepper/petcare-telemetry/internal/store"
)

const petColumns = `id, name, photo, photo_mime, birth_date, weight, breed,
	meals, water, humidity, temperature, activity,
	recorded_at, low_water_alert_at, high_temp_alert_at,
	version, created_at, updated_at`

const notificationColumns = "id, type, title, message, created_at, is_read"

// --------------------------------------------------------------------------
// Pet state
// --------------------------------------------------------------------------

// GetEntity returns the singleton pet or store.ErrNotFound.
func (s *Service) GetEntity(ctx context.Context) (*model.Entity, error) {
	e, err := scanPet(s.DB.QueryRowContext(ctx, "SELECT "+petColumns+" FROM pets LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get pet: %w", err)
	}
	return e, nil
}

// Commit writes the state transition, its events and its notifications in
// one transaction. A lost compare-and-swap returns store.ErrConflict.
func (s *Service) Commit(ctx context.Context, c *store.Commit) error {
	var (
		version  int64
		eventIDs = make([]int64, len(c.Events))
	)

	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		e := c.Next
		var photo []byte
		var mime *string
		if e.Photo != nil {
			photo, mime = e.Photo.Data, &e.Photo.MIME
		}

		if c.Prev == nil {
			res, err := tx.ExecContext(ctx, `INSERT INTO pets (
					id, name, photo, photo_mime, birth_date, weight, breed,
					meals, water, humidity, temperature, activity,
					recorded_at, low_water_alert_at, high_temp_alert_at,
					created_at, updated_at
				) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
				ON CONFLICT (singleton) DO NOTHING`,
				e.ID, e.Name, photo, mime, nullNanos(e.BirthDate), e.Weight, e.Breed,
				e.Meals, e.Water, e.Humidity, e.Temperature, e.Activity,
				nanos(e.RecordedAt), nullNanos(e.LowWaterAlertAt), nullNanos(e.HighTempAlertAt),
				nanos(e.CreatedAt), nanos(e.UpdatedAt))
			if err != nil {
				return fmt.Errorf("insert pet: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return store.ErrConflict
			}
			version = 1
		} else {
			res, err := tx.ExecContext(ctx, `UPDATE pets SET
					name = ?, photo = ?, photo_mime = ?, birth_date = ?, weight = ?, breed = ?,
					meals = ?, water = ?, humidity = ?, temperature = ?, activity = ?,
					recorded_at = ?, low_water_alert_at = ?, high_temp_alert_at = ?,
					updated_at = ?, version = version + 1
				WHERE id = ? AND version = ?`,
				e.Name, photo, mime, nullNanos(e.BirthDate), e.Weight, e.Breed,
				e.Meals, e.Water, e.Humidity, e.Temperature, e.Activity,
				nanos(e.RecordedAt), nullNanos(e.LowWaterAlertAt), nullNanos(e.HighTempAlertAt),
				nanos(e.UpdatedAt), e.ID, c.Prev.Version)
			if err != nil {
				return fmt.Errorf("update pet: %w", err)
			}
			if n, _ := res.RowsAffected(); n == 0 {
				return store.ErrConflict
			}
			version = c.Prev.Version + 1
		}

		for i, ev := range c.Events {
			res, err := tx.ExecContext(ctx,
				"INSERT INTO activity_events (pet_id, occurred_at, activity_type) VALUES (?, ?, ?)",
				e.ID, nanos(ev.Timestamp), ev.Type)
			if err != nil {
				return fmt.Errorf("insert activity event: %w", err)
			}
			if eventIDs[i], err = res.LastInsertId(); err != nil {
				return fmt.Errorf("activity event id: %w", err)
			}
		}

		for _, n := range c.Notifications {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO notifications ("+notificationColumns+") VALUES (?, ?, ?, ?, ?, ?)",
				n.ID, string(n.Kind), n.Title, n.Message, nanos(n.Timestamp), n.IsRead); err != nil {
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

func scanPet(row *sql.Row) (*model.Entity, error) {
	var (
		e                                model.Entity
		photo                            []byte
		mime                             *string
		birth, lowWater, highTemp        sql.NullInt64
		recordedAt, createdAt, updatedAt int64
	)
	if err := row.Scan(
		&e.ID, &e.Name, &photo, &mime, &birth, &e.Weight, &e.Breed,
		&e.Meals, &e.Water, &e.Humidity, &e.Temperature, &e.Activity,
		&recordedAt, &lowWater, &highTemp,
		&e.Version, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	if photo != nil {
		e.Photo = &model.Photo{Data: photo}
		if mime != nil {
			e.Photo.MIME = *mime
		}
	}
	e.BirthDate = fromNullNanos(birth)
	e.LowWaterAlertAt = fromNullNanos(lowWater)
	e.HighTempAlertAt = fromNullNanos(highTemp)
	e.RecordedAt = fromNanos(recordedAt)
	e.CreatedAt = fromNanos(createdAt)
	e.UpdatedAt = fromNanos(updatedAt)
	return &e, nil
}

// --------------------------------------------------------------------------
// Activity log
// --------------------------------------------------------------------------

// QueryEvents returns the events of entityID in [from, to), oldest first.
func (s *Service) QueryEvents(ctx context.Context, entityID string, from, to time.Time) ([]model.ActivityEvent, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT id, pet_id, occurred_at, activity_type
		FROM activity_events
		WHERE pet_id = ? AND occurred_at >= ? AND occurred_at < ?
		ORDER BY occurred_at, id`, entityID, nanos(from), nanos(to))
	if err != nil {
		return nil, fmt.Errorf("query activity events: %w", err)
	}
	defer rows.Close()

	var events []model.ActivityEvent
	for rows.Next() {
		var (
			ev model.ActivityEvent
			ts int64
		)
		if err := rows.Scan(&ev.ID, &ev.EntityID, &ts, &ev.Type); err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		ev.Timestamp = fromNanos(ts)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// PurgeEvents deletes the whole activity log.
func (s *Service) PurgeEvents(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM activity_events")
	if err != nil {
		return 0, fmt.Errorf("purge activity events: %w", err)
	}
	return res.RowsAffected()
}

// PruneEvents deletes activity events older than before.
func (s *Service) PruneEvents(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM activity_events WHERE occurred_at < ?", nanos(before))
	if err != nil {
		return 0, fmt.Errorf("prune activity events: %w", err)
	}
	return res.RowsAffected()
}

// --------------------------------------------------------------------------
// Notifications
// --------------------------------------------------------------------------

// ListNotifications returns the newest notifications first.
func (s *Service) ListNotifications(ctx context.Context, limit int) ([]model.Notification, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+notificationColumns+" FROM notifications ORDER BY created_at DESC, seq DESC LIMIT ?", limit)
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
func (s *Service) MarkNotificationRead(ctx context.Context, id string, isRead bool) (*model.Notification, error) {
	var n *model.Notification
	err := s.Transaction(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "UPDATE notifications SET is_read = ? WHERE id = ?", isRead, id)
		if err != nil {
			return fmt.Errorf("mark notification: %w", err)
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			return store.ErrNotFound
		}
		n, err = scanNotification(tx.QueryRowContext(ctx,
			"SELECT "+notificationColumns+" FROM notifications WHERE id = ?", id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return n, nil
}

// MarkNotificationsRead sets the read flag of every listed notification.
func (s *Service) MarkNotificationsRead(ctx context.Context, ids []string, isRead bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, isRead)
	for _, id := range ids {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	res, err := s.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read = ? WHERE id IN ("+placeholders+")", args...)
	if err != nil {
		return 0, fmt.Errorf("mark notifications: %w", err)
	}
	return res.RowsAffected()
}

// PurgeNotifications deletes the whole notification history.
func (s *Service) PurgeNotifications(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, "DELETE FROM notifications")
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	return res.RowsAffected()
}

// PruneReadNotifications deletes read notifications older than before.
func (s *Service) PruneReadNotifications(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		"DELETE FROM notifications WHERE is_read = 1 AND created_at < ?", nanos(before))
	if err != nil {
		return 0, fmt.Errorf("prune notifications: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row rowScanner) (*model.Notification, error) {
	var (
		n       model.Notification
		kind    string
		created int64
	)
	if err := row.Scan(&n.ID, &kind, &n.Title, &n.Message, &created, &n.IsRead); err != nil {
		return nil, fmt.Errorf("scan notification: %w", err)
	}
	n.Kind = model.Kind(kind)
	n.Timestamp = fromNanos(created)
	return &n, nil
}

// --------------------------------------------------------------------------
// Push subscriptions
// --------------------------------------------------------------------------

// UpsertSubscription inserts the subscription or replaces its keys.
func (s *Service) UpsertSubscription(ctx context.Context, sub model.Subscription) error {
	now := nanos(time.Now())
	_, err := s.DB.ExecContext(ctx, `INSERT INTO push_subscriptions (endpoint, p256dh, auth, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (endpoint) DO UPDATE SET p256dh = excluded.p256dh, auth = excluded.auth, updated_at = excluded.updated_at`,
		sub.Endpoint, sub.Keys.P256dh, sub.Keys.Auth, now, now)
	if err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// ListSubscriptions returns every registered subscription.
func (s *Service) ListSubscriptions(ctx context.Context) ([]model.Subscription, error) {
	rows, err := s.DB.QueryContext(ctx,
		"SELECT endpoint, p256dh, auth, created_at, updated_at FROM push_subscriptions ORDER BY created_at, endpoint")
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []model.Subscription
	for rows.Next() {
		var (
			sub              model.Subscription
			created, updated int64
		)
		if err := rows.Scan(&sub.Endpoint, &sub.Keys.P256dh, &sub.Keys.Auth, &created, &updated); err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		sub.CreatedAt, sub.UpdatedAt = fromNanos(created), fromNanos(updated)
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// DeleteSubscription removes a subscription. Deleting an unknown endpoint
// is not an error.
func (s *Service) DeleteSubscription(ctx context.Context, endpoint string) error {
	if _, err := s.DB.ExecContext(ctx, "DELETE FROM push_subscriptions WHERE endpoint = ?", endpoint); err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	return nil
}

// --------------------------------------------------------------------------
// Time encoding
// --------------------------------------------------------------------------

func nanos(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func nullNanos(t *time.Time) any {
	if t == nil {
		return nil
	}
	return nanos(*t)
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func fromNullNanos(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := fromNanos(n.Int64)
	return &t
}

var _ store.Store = (*Service)(nil)
