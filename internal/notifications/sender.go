package notifications

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/albapepper/petcare-telemetry/internal/config"
	"github.com/albapepper/petcare-telemetry/internal/model"
)

// ErrSubscriptionGone marks a subscription the push service has permanently
// rejected. The dispatcher deletes such subscriptions.
var ErrSubscriptionGone = errors.New("push subscription gone")

// Sender delivers one payload to one subscription. Errors wrapping
// ErrSubscriptionGone are permanent; any other error is transient.
type Sender interface {
	Send(ctx context.Context, sub model.Subscription, payload []byte) error
}

// WebPushSender sends notifications with the Web Push protocol using VAPID.
// Nil-safe: when not configured, Send is a no-op.
type WebPushSender struct {
	publicKey  string
	privateKey string
	subject    string
	ttl        int
	client     *http.Client
	logger     *slog.Logger
}

// NewWebPushSender creates a sender from the VAPID settings in cfg.
// Returns nil if no key pair is configured (push disabled).
func NewWebPushSender(cfg *config.Config, logger *slog.Logger) *WebPushSender {
	if !cfg.PushEnabled() {
		return nil
	}
	return &WebPushSender{
		publicKey:  cfg.VAPIDPublicKey,
		privateKey: cfg.VAPIDPrivateKey,
		subject:    cfg.VAPIDSubject,
		ttl:        cfg.PushTTL,
		client:     &http.Client{},
		logger:     logger,
	}
}

// Send encrypts payload for sub and posts it to the subscription endpoint.
// HTTP 404 and 410 map to ErrSubscriptionGone.
func (s *WebPushSender) Send(ctx context.Context, sub model.Subscription, payload []byte) error {
	if s == nil {
		return nil // no-op when not configured
	}

	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.Keys.P256dh,
			Auth:   sub.Keys.Auth,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      s.subject,
		TTL:             s.ttl,
		Urgency:         webpush.UrgencyNormal,
		VAPIDPublicKey:  s.publicKey,
		VAPIDPrivateKey: s.privateKey,
	})
	if err != nil {
		return fmt.Errorf("send web push: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return fmt.Errorf("%w: push service returned %d", ErrSubscriptionGone, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}

	s.logger.Debug("Web push delivered", "endpoint", sub.Endpoint, "status", resp.StatusCode)
	return nil
}
