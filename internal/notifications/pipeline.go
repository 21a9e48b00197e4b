package notifications

import (
	"context"
	"log/slog"

	"github.com/albapepper/petcare-telemetry/internal/bus"
	"github.com/albapepper/petcare-telemetry/internal/config"
	"github.com/albapepper/petcare-telemetry/internal/store"
)

// Pipeline is the background delivery stack shared by the API server and
// the CLI. The worker publishes to NATS when NATS_URL is set.
type Pipeline struct {
	Worker *Worker

	publisher *bus.Publisher
	done      chan struct{}
	logger    *slog.Logger
}

// StartPipeline builds the delivery stack from cfg and starts the worker.
// An unreachable NATS server is logged and delivery continues without it.
func StartPipeline(cfg *config.Config, subs store.SubscriptionRegistry, logger *slog.Logger) *Pipeline {
	var publisher Publisher
	natsPub, err := bus.Connect(cfg.NATSURL, cfg.NATSSubject, logger)
	if err != nil {
		logger.Warn("NATS unavailable, continuing without event bus", "error", err)
		natsPub = nil
	} else if natsPub != nil {
		publisher = natsPub
	}

	var sender Sender
	if ws := NewWebPushSender(cfg, logger); ws != nil {
		sender = ws
	} else {
		logger.Info("Web Push delivery disabled (no VAPID keys)")
	}

	dispatcher := NewDispatcher(subs, sender, cfg.PushTimeout, cfg.PushConcurrency, logger)
	p := &Pipeline{
		Worker:    NewWorker(dispatcher, publisher, cfg.PushQueueSize, logger),
		publisher: natsPub,
		done:      make(chan struct{}),
		logger:    logger,
	}
	go func() {
		// Not tied to a request or signal context so queued deliveries
		// drain on shutdown.
		p.Worker.Run(context.Background())
		close(p.done)
	}()
	return p
}

// Publishing reports whether stored notifications are announced on NATS.
func (p *Pipeline) Publishing() bool {
	return p.publisher != nil
}

// Stop closes the queue and waits for pending deliveries until ctx is done,
// then drains the NATS connection.
func (p *Pipeline) Stop(ctx context.Context) error {
	p.Worker.Close()

	var err error
	select {
	case <-p.done:
	case <-ctx.Done():
		err = ctx.Err()
		p.logger.Warn("Notification queue not drained before shutdown deadline")
	}

	if cerr := p.publisher.Close(); cerr != nil {
		p.logger.Warn("NATS drain failed", "error", cerr)
	}
	return err
}
