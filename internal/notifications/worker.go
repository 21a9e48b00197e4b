package notifications

import (
	"context"
	"log/slog"
	"sync"

	"github.com/albapepper/petcare-telemetry/internal/model"
)

// Publisher announces stored notifications to other processes.
type Publisher interface {
	PublishNotification(ctx context.Context, n model.Notification) error
}

// Worker delivers notifications in the background from an in-memory queue.
// The queue does not survive a restart; stored notifications do.
type Worker struct {
	dispatcher *Dispatcher
	publisher  Publisher
	logger     *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan model.Notification
}

// NewWorker creates a worker with a queue of the given capacity. publisher
// may be nil.
func NewWorker(d *Dispatcher, publisher Publisher, size int, logger *slog.Logger) *Worker {
	if size <= 0 {
		size = 1
	}
	return &Worker{
		dispatcher: d,
		publisher:  publisher,
		logger:     logger,
		queue:      make(chan model.Notification, size),
	}
}

// Enqueue hands notifications to the worker without blocking. When the
// queue is full the delivery is dropped and logged.
func (w *Worker) Enqueue(notes ...model.Notification) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return
	}
	for _, n := range notes {
		select {
		case w.queue <- n:
		default:
			queueDropped.Inc()
			w.logger.Warn("dispatch queue full, dropping delivery", "notification_id", n.ID)
		}
	}
}

// Run processes the queue until Close has been called and the queue is
// drained, or ctx is cancelled. Intended to be called with `go`.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("Notification dispatch worker started", "queue_size", cap(w.queue))
	for {
		select {
		case n, ok := <-w.queue:
			if !ok {
				w.logger.Info("Notification dispatch worker stopped")
				return
			}
			w.handle(ctx, n)
		case <-ctx.Done():
			w.logger.Info("Notification dispatch worker cancelled", "pending", len(w.queue))
			return
		}
	}
}

// Close stops accepting notifications. Run returns once the queue drains.
func (w *Worker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	close(w.queue)
}

func (w *Worker) handle(ctx context.Context, n model.Notification) {
	if w.publisher != nil {
		if err := w.publisher.PublishNotification(ctx, n); err != nil {
			w.logger.Warn("publish notification failed", "notification_id", n.ID, "error", err)
		}
	}

	report, err := w.dispatcher.Dispatch(ctx, n)
	if err != nil {
		w.logger.Error("dispatch error", "notification_id", n.ID, "error", err)
		return
	}
	if len(report.Results) > 0 {
		w.logger.Info("dispatch complete",
			"notification_id", n.ID,
			"delivered", report.Delivered,
			"transient", report.Transient,
			"gone", report.Gone,
			"pruned", report.Pruned)
	}
}
