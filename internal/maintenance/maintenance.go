// Package maintenance runs periodic retention tasks as Go tickers. The API
// server is long-running, so scheduled cleanup lives in-process rather than
// in a database scheduler.
package maintenance

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/albapepper/petcare-telemetry/internal/config"
	"github.com/albapepper/petcare-telemetry/internal/store"
)

// Config controls the retention ticker. A zero retention disables that
// task; a zero Interval disables the ticker altogether.
type Config struct {
	Interval              time.Duration
	EventRetention        time.Duration // activity events older than this are deleted
	NotificationRetention time.Duration // read notifications older than this are deleted
}

// ConfigFrom extracts the retention settings from the service config.
func ConfigFrom(cfg *config.Config) Config {
	return Config{
		Interval:              cfg.MaintenanceInterval,
		EventRetention:        cfg.EventRetention,
		NotificationRetention: cfg.NotificationRetention,
	}
}

// Invalidator drops cached read models after rows are removed.
type Invalidator interface {
	Invalidate()
}

// Result counts the rows one pass removed.
type Result struct {
	Events        int64
	Notifications int64
}

// Start runs Prune on every tick until ctx is cancelled. Intended to be
// called with `go`. cache may be nil.
func Start(ctx context.Context, s store.Retention, cache Invalidator, cfg Config, logger *slog.Logger) {
	if cfg.Interval <= 0 {
		logger.Info("Maintenance ticker disabled")
		return
	}
	logger.Info("Maintenance ticker started",
		"interval", cfg.Interval,
		"event_retention", cfg.EventRetention,
		"notification_retention", cfg.NotificationRetention)

	t := time.NewTicker(cfg.Interval)
	defer t.Stop()

	runLoop(ctx, t.C, func() {
		res, err := Prune(ctx, s, cfg, time.Now())
		if err != nil {
			logger.Warn("Maintenance: prune failed", "error", err)
		}
		if res.Events > 0 && cache != nil {
			cache.Invalidate()
		}
		if res.Events > 0 || res.Notifications > 0 {
			logger.Info("Maintenance: pruned expired rows",
				"events", res.Events,
				"notifications", res.Notifications)
		}
	})
	logger.Info("Maintenance ticker stopped")
}

func runLoop(ctx context.Context, ch <-chan time.Time, fn func()) {
	for {
		select {
		case <-ch:
			fn()
		case <-ctx.Done():
			return
		}
	}
}

// --------------------------------------------------------------------------
// Task implementations
// --------------------------------------------------------------------------

// Prune deletes rows that aged out as of now. Both tasks run even if one
// fails; the errors are joined.
func Prune(ctx context.Context, s store.Retention, cfg Config, now time.Time) (Result, error) {
	var (
		res  Result
		errs []error
	)

	if cfg.EventRetention > 0 {
		n, err := s.PruneEvents(ctx, now.Add(-cfg.EventRetention))
		if err != nil {
			errs = append(errs, err)
		}
		res.Events = n
	}

	// Unread notifications are kept regardless of age.
	if cfg.NotificationRetention > 0 {
		n, err := s.PruneReadNotifications(ctx, now.Add(-cfg.NotificationRetention))
		if err != nil {
			errs = append(errs, err)
		}
		res.Notifications = n
	}

	return res, errors.Join(errs...)
}
