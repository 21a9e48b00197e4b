// Package bus publishes stored notifications to NATS so other processes
// (dashboards, bridges) can follow them without polling the database.
package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/albapepper/petcare-telemetry/internal/model"
)

// Subject patterns, relative to the configured prefix.
const (
	SubjectNotificationKind = "%s.%s" // prefix, notification kind
	SubjectNotificationsAll = "%s.>"  // prefix
)

// NotificationSubject returns the subject a notification of kind is
// published on.
func NotificationSubject(prefix string, kind model.Kind) string {
	return fmt.Sprintf(SubjectNotificationKind, prefix, kind)
}

// AllNotificationsSubject returns the wildcard matching every notification.
func AllNotificationsSubject(prefix string) string {
	return fmt.Sprintf(SubjectNotificationsAll, prefix)
}

// Publisher sends notifications to NATS.
// Nil-safe: when not configured, all methods are no-ops.
type Publisher struct {
	nc     *nats.Conn
	prefix string
	logger *slog.Logger
}

// Connect dials the NATS server at url. Returns nil if url is empty
// (bus disabled).
func Connect(url, prefix string, logger *slog.Logger) (*Publisher, error) {
	if url == "" {
		return nil, nil
	}

	nc, err := nats.Connect(url,
		nats.Name("petcare-api"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.ErrorHandler(func(_ *nats.Conn, _ *nats.Subscription, err error) {
			logger.Error("NATS error", "error", err)
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	logger.Info("NATS publisher connected", "url", nc.ConnectedUrl(), "prefix", prefix)
	return &Publisher{nc: nc, prefix: prefix, logger: logger}, nil
}

// PublishNotification publishes n as JSON on its kind subject. The
// notification id is set as the message id so JetStream consumers can
// deduplicate.
func (p *Publisher) PublishNotification(_ context.Context, n model.Notification) error {
	if p == nil {
		return nil
	}

	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	msg := nats.NewMsg(NotificationSubject(p.prefix, n.Kind))
	msg.Header.Set(nats.MsgIdHdr, n.ID)
	msg.Data = data
	if err := p.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.nc.Drain()
}
