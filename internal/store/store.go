// Package store defines the persistence contract shared by the Postgres and
// SQLite backends: the singleton entity, the append-only activity log, the
// notification history and the push subscription registry.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/albapepper/petcare-telemetry/internal/model"
)

var (
	// ErrNotFound is returned when no entity (or no row with the given key)
	// exists.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned by Commit when the entity changed since Prev
	// was read. The caller re-reads and retries.
	ErrConflict = errors.New("entity version conflict")
)

// Commit is one ingestion unit: the state transition plus every event and
// notification it produced. Backends write all of it in one transaction.
type Commit struct {
	// Prev is the snapshot Next was derived from; nil means create.
	Prev *model.Entity
	// Next is the new state. On success its Version is updated.
	Next *model.Entity

	// Events are appended; on success their IDs are filled in.
	Events        []model.ActivityEvent
	Notifications []model.Notification
}

// EntityStore holds the singleton entity.
type EntityStore interface {
	GetEntity(ctx context.Context) (*model.Entity, error)
	Commit(ctx context.Context, c *Commit) error
}

// EventStore is the read side of the activity log.
type EventStore interface {
	// QueryEvents returns events with from <= timestamp < to, ascending by
	// timestamp then insertion order.
	QueryEvents(ctx context.Context, entityID string, from, to time.Time) ([]model.ActivityEvent, error)
	PurgeEvents(ctx context.Context) (int64, error)
}

// NotificationStore holds generated notifications.
type NotificationStore interface {
	// ListNotifications returns at most limit rows, newest first.
	ListNotifications(ctx context.Context, limit int) ([]model.Notification, error)
	// MarkNotificationRead returns ErrNotFound for an unknown id.
	MarkNotificationRead(ctx context.Context, id string, isRead bool) (*model.Notification, error)
	// MarkNotificationsRead ignores unknown ids and returns the matched count.
	MarkNotificationsRead(ctx context.Context, ids []string, isRead bool) (int64, error)
	PurgeNotifications(ctx context.Context) (int64, error)
}

// SubscriptionRegistry holds push endpoints keyed by endpoint URL.
type SubscriptionRegistry interface {
	UpsertSubscription(ctx context.Context, sub model.Subscription) error
	ListSubscriptions(ctx context.Context) ([]model.Subscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// Retention removes rows that have aged out.
type Retention interface {
	// PruneEvents deletes activity events older than before.
	PruneEvents(ctx context.Context, before time.Time) (int64, error)
	// PruneReadNotifications deletes read notifications older than before.
	// Unread ones are kept regardless of age.
	PruneReadNotifications(ctx context.Context, before time.Time) (int64, error)
}

// Store is the full persistence surface.
type Store interface {
	EntityStore
	EventStore
	NotificationStore
	SubscriptionRegistry
	Retention

	Ping(ctx context.Context) error
	Close() error
}

// MaxNotifications caps the notification list endpoint.
const MaxNotifications = 100
