package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/albapepper/petcare-telemetry/internal/model"
	"github.com/albapepper/petcare-telemetry/internal/store"
)

const defaultTitle = "Smart Pet Care Notification"

// Outcome classifies one delivery attempt.
type Outcome string

const (
	OutcomeDelivered Outcome = "delivered"
	OutcomeTransient Outcome = "transient"
	OutcomeGone      Outcome = "gone"
)

// Payload is the JSON body pushed to subscribers.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Result is the outcome for a single subscriber.
type Result struct {
	Endpoint string
	Outcome  Outcome
	Err      error
}

// Report summarizes one fan-out.
type Report struct {
	Results   []Result
	Delivered int
	Transient int
	Gone      int
	Pruned    int // gone subscriptions actually deleted
}

// Dispatcher fans a notification out to every registered subscription.
// One subscriber's failure never affects delivery to the others.
type Dispatcher struct {
	subs        store.SubscriptionRegistry
	sender      Sender
	timeout     time.Duration
	concurrency int
	logger      *slog.Logger
}

// DefaultPushTimeout bounds a push attempt when no positive timeout is given.
const DefaultPushTimeout = 10 * time.Second

// NewDispatcher creates a dispatcher. A nil sender disables delivery;
// timeout bounds each attempt and concurrency bounds parallel attempts
// (0 means unbounded). Every attempt has a deadline: a timeout <= 0 falls
// back to DefaultPushTimeout.
func NewDispatcher(subs store.SubscriptionRegistry, sender Sender, timeout time.Duration, concurrency int, logger *slog.Logger) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultPushTimeout
	}
	return &Dispatcher{
		subs:        subs,
		sender:      sender,
		timeout:     timeout,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Dispatch sends n to all subscribers, waits for every attempt, then deletes
// the subscriptions the push service reported gone. Only a failure to list
// subscriptions is returned; per-subscriber failures are in the Report.
func (d *Dispatcher) Dispatch(ctx context.Context, n model.Notification) (Report, error) {
	start := time.Now()
	defer func() { dispatchDuration.Observe(time.Since(start).Seconds()) }()

	subs, err := d.subs.ListSubscriptions(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 || d.sender == nil {
		return Report{}, nil
	}

	title := n.Title
	if title == "" {
		title = defaultTitle
	}
	payload, err := json.Marshal(Payload{Title: title, Body: n.Message})
	if err != nil {
		return Report{}, fmt.Errorf("encode push payload: %w", err)
	}

	results := make([]Result, len(subs))
	var g errgroup.Group
	if d.concurrency > 0 {
		g.SetLimit(d.concurrency)
	}
	for i, sub := range subs {
		g.Go(func() error {
			results[i] = d.deliver(ctx, sub, payload)
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Results: results}
	for _, r := range results {
		deliveryOutcomes.WithLabelValues(string(r.Outcome)).Inc()
		switch r.Outcome {
		case OutcomeDelivered:
			report.Delivered++
		case OutcomeTransient:
			report.Transient++
			d.logger.Warn("push delivery failed", "endpoint", r.Endpoint, "error", r.Err)
		case OutcomeGone:
			report.Gone++
		}
	}

	// Prune only after every attempt has finished.
	for _, r := range results {
		if r.Outcome != OutcomeGone {
			continue
		}
		if err := d.subs.DeleteSubscription(ctx, r.Endpoint); err != nil {
			d.logger.Warn("prune subscription failed", "endpoint", r.Endpoint, "error", err)
			continue
		}
		report.Pruned++
		d.logger.Info("Pruned gone subscription", "endpoint", r.Endpoint)
	}
	return report, nil
}

// deliver makes one attempt bounded by the dispatcher timeout, even if the
// sender ignores its context.
func (d *Dispatcher) deliver(ctx context.Context, sub model.Subscription, payload []byte) Result {
	attemptCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- d.sender.Send(attemptCtx, sub, payload) }()

	var err error
	select {
	case err = <-done:
	case <-attemptCtx.Done():
		err = fmt.Errorf("push attempt: %w", attemptCtx.Err())
	}

	res := Result{Endpoint: sub.Endpoint, Err: err}
	switch {
	case err == nil:
		res.Outcome = OutcomeDelivered
	case errors.Is(err, ErrSubscriptionGone):
		res.Outcome = OutcomeGone
	default:
		res.Outcome = OutcomeTransient
	}
	return res
}
