package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/albapepper/petcare-telemetry/internal/store"
)

// Stats is the activity summary shown on the dashboard.
type Stats struct {
	PetName               string     `json:"petName"`
	TotalActivityEvents   int        `json:"totalActivityEvents"`
	LastActivityTimestamp *time.Time `json:"lastActivityTimestamp"`
	DailyActivity         []Bucket   `json:"dailyActivity"`
}

// Reader is the storage the statistics are computed from.
type Reader interface {
	store.EntityStore
	store.EventStore
}

// Service computes statistics from stored events.
type Service struct {
	store Reader
}

// NewService creates a statistics service.
func NewService(s Reader) *Service {
	return &Service{store: s}
}

// Stats returns today's summary and the trailing week for the registered
// pet. It returns store.ErrNotFound when no pet exists, which is distinct
// from a pet with zero events.
func (s *Service) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	pet, err := s.store.GetEntity(ctx)
	if err != nil {
		return nil, err
	}

	// One query covers both today and the week.
	events, err := s.store.QueryEvents(ctx, pet.ID, WindowStart(now), WindowEnd(now))
	if err != nil {
		return nil, fmt.Errorf("activity stats: %w", err)
	}

	today := Today(events, now)
	return &Stats{
		PetName:               pet.Name,
		TotalActivityEvents:   today.Count,
		LastActivityTimestamp: today.Last,
		DailyActivity:         Week(events, now),
	}, nil
}
