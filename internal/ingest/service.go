// Package ingest applies telemetry readings and profile updates to the
// singleton pet: it validates the payload, evaluates notification rules,
// commits state, events and notifications atomically, and hands the
// notifications to the delivery worker.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/albapepper/petcare-telemetry/internal/model"
	"github.com/albapepper/petcare-telemetry/internal/notifications"
	"github.com/albapepper/petcare-telemetry/internal/store"
)

// DefaultMaxAttempts bounds compare-and-swap retries per ingestion.
const DefaultMaxAttempts = 5

// Enqueuer accepts committed notifications for delivery without blocking.
type Enqueuer interface {
	Enqueue(notes ...model.Notification)
}

// Invalidator drops cached reads after a commit.
type Invalidator interface {
	Invalidate()
}

// Options configures a Service. Zero values select defaults.
type Options struct {
	Rules       notifications.Rules
	MaxAttempts int
	Queue       Enqueuer
	Cache       Invalidator
	Logger      *slog.Logger

	// Clock and NewID are overridable for tests.
	Clock func() time.Time
	NewID func() string
}

// Service applies patches to the pet with optimistic concurrency.
type Service struct {
	store       store.EntityStore
	rules       notifications.Rules
	maxAttempts int
	queue       Enqueuer
	cache       Invalidator
	logger      *slog.Logger
	clock       func() time.Time
	newID       func() string
}

// NewService creates an ingestion service over s.
func NewService(s store.EntityStore, opts Options) *Service {
	svc := &Service{
		store:       s,
		rules:       opts.Rules,
		maxAttempts: opts.MaxAttempts,
		queue:       opts.Queue,
		cache:       opts.Cache,
		logger:      opts.Logger,
		clock:       opts.Clock,
		newID:       opts.NewID,
	}
	if svc.rules == (notifications.Rules{}) {
		svc.rules = notifications.DefaultRules()
	}
	if svc.maxAttempts <= 0 {
		svc.maxAttempts = DefaultMaxAttempts
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.clock == nil {
		svc.clock = time.Now
	}
	if svc.newID == nil {
		svc.newID = uuid.NewString
	}
	return svc
}

// Result describes a committed change.
type Result struct {
	Entity        *model.Entity
	Created       bool
	Events        []model.ActivityEvent
	Notifications []model.Notification
	Attempts      int
}

// Ingest validates and applies a telemetry reading. A *ValidationError is
// returned for bad input; nothing is stored in that case.
func (s *Service) Ingest(ctx context.Context, r *Reading) (*Result, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	res, err := s.apply(ctx, r.Patch(), true)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Reading ingested",
		"recorded_at", res.Entity.RecordedAt,
		"events", len(res.Events),
		"notifications", len(res.Notifications),
		"attempts", res.Attempts)
	return res, nil
}

// UpdateProfile creates the pet or updates its descriptive fields. Profile
// changes never trigger notification rules.
func (s *Service) UpdateProfile(ctx context.Context, p *Profile) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	patch, err := p.Patch()
	if err != nil {
		return nil, err
	}
	res, err := s.apply(ctx, patch, false)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Profile saved", "pet_id", res.Entity.ID, "created", res.Created)
	return res, nil
}

// apply runs read → derive → compare-and-swap until it commits or runs
// out of attempts. Everything derived from prev is rebuilt on each attempt.
func (s *Service) apply(ctx context.Context, patch model.Patch, evaluate bool) (*Result, error) {
	for attempt := 1; ; attempt++ {
		prev, err := s.store.GetEntity(ctx)
		switch {
		case errors.Is(err, store.ErrNotFound):
			prev = nil
		case err != nil:
			return nil, fmt.Errorf("load pet: %w", err)
		}

		now := s.clock().UTC()
		next := model.Apply(prev, patch, now)
		if prev == nil {
			next.ID = s.newID()
		}

		c := &store.Commit{Prev: prev, Next: &next}
		var pending []notifications.Pending
		if evaluate {
			pending = notifications.Evaluate(prev, &next, patch, s.rules)
			notifications.MarkAlerts(&next, pending, now)

			if patch.ActivityPulse() {
				c.Events = append(c.Events, model.ActivityEvent{
					EntityID:  next.ID,
					Timestamp: next.RecordedAt,
					Type:      model.EventMovement,
				})
			}
			for _, p := range pending {
				c.Notifications = append(c.Notifications, p.Notification(s.newID(), now))
			}
		}

		err = s.store.Commit(ctx, c)
		if errors.Is(err, store.ErrConflict) && attempt < s.maxAttempts {
			commitRetries.Inc()
			s.logger.Debug("Pet changed concurrently, retrying", "attempt", attempt)
			continue
		}
		if err != nil {
			commitFailures.Inc()
			return nil, fmt.Errorf("commit after %d attempt(s): %w", attempt, err)
		}

		notifications.RecordEmitted(pending)
		if s.cache != nil {
			s.cache.Invalidate()
		}
		if s.queue != nil && len(c.Notifications) > 0 {
			s.queue.Enqueue(c.Notifications...)
		}

		return &Result{
			Entity:        &next,
			Created:       prev == nil,
			Events:        c.Events,
			Notifications: c.Notifications,
			Attempts:      attempt,
		}, nil
	}
}
