// Package listener subscribes to an MQTT topic on which sensors publish
// telemetry readings and feeds each one through the ingest service. The
// payload is the same JSON document POST /api/readings accepts.
package listener

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/albapepper/petcare-telemetry/internal/config"
	"github.com/albapepper/petcare-telemetry/internal/ingest"
)

const (
	reconnectBackoff  = 5 * time.Second
	maxReconnect      = 30 * time.Second
	messageTimeout    = 15 * time.Second
	disconnectQuiesce = 250 // ms
)

// Ingester applies one reading.
type Ingester interface {
	Ingest(ctx context.Context, r *ingest.Reading) (*ingest.Result, error)
}

// Listener consumes readings from MQTT.
type Listener struct {
	ingester Ingester
	broker   string
	topic    string
	qos      byte
	logger   *slog.Logger
	opts     *mqtt.ClientOptions
}

// New creates a listener from cfg. Returns nil if no broker is configured
// (listener disabled).
func New(cfg *config.Config, ing Ingester, logger *slog.Logger) *Listener {
	if cfg.MQTTBrokerURL == "" {
		return nil
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBrokerURL).
		SetClientID(cfg.MQTTClientID).
		SetOrderMatters(false).
		SetCleanSession(false).
		SetKeepAlive(30 * time.Second).
		SetPingTimeout(10 * time.Second).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(maxReconnect)

	if cfg.MQTTUsername != "" {
		opts.SetUsername(cfg.MQTTUsername)
	}
	if cfg.MQTTPassword != "" {
		opts.SetPassword(cfg.MQTTPassword)
	}

	return &Listener{
		ingester: ing,
		broker:   cfg.MQTTBrokerURL,
		topic:    cfg.MQTTTopic,
		qos:      cfg.MQTTQoS,
		logger:   logger,
		opts:     opts,
	}
}

// Start connects to the broker, retrying with backoff, and subscribes on
// every (re)connect. Blocks until ctx is cancelled. Intended to be called
// with `go`.
func (l *Listener) Start(ctx context.Context) {
	handler := func(_ mqtt.Client, msg mqtt.Message) {
		msgCtx, cancel := context.WithTimeout(ctx, messageTimeout)
		defer cancel()
		if err := l.HandlePayload(msgCtx, msg.Topic(), msg.Payload()); err != nil {
			l.logger.Warn("reading rejected", "topic", msg.Topic(), "error", err)
		}
	}

	l.opts.OnConnect = func(c mqtt.Client) {
		l.logger.Info("MQTT listener connected", "broker", l.broker)
		if token := c.Subscribe(l.topic, l.qos, handler); token.Wait() && token.Error() != nil {
			l.logger.Error("MQTT subscribe failed", "topic", l.topic, "error", token.Error())
			return
		}
		l.logger.Info("MQTT subscribed", "topic", l.topic, "qos", l.qos)
	}
	l.opts.OnConnectionLost = func(_ mqtt.Client, err error) {
		l.logger.Warn("MQTT connection lost, reconnecting...", "error", err)
	}

	client := mqtt.NewClient(l.opts)
	if !connectWithBackoff(ctx, client, l.logger) {
		l.logger.Info("MQTT listener stopped (context cancelled)")
		return
	}

	<-ctx.Done()
	client.Disconnect(disconnectQuiesce)
	l.logger.Info("MQTT listener stopped")
}

// connectWithBackoff retries the initial connection until it succeeds or
// ctx is cancelled. Later reconnects are handled by the client itself.
func connectWithBackoff(ctx context.Context, client mqtt.Client, logger *slog.Logger) bool {
	backoff := reconnectBackoff
	for {
		token := client.Connect()
		if token.Wait() && token.Error() == nil {
			return true
		}
		logger.Error("MQTT connect failed, retrying...", "error", token.Error(), "backoff", backoff)

		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxReconnect)
		case <-ctx.Done():
			return false
		}
	}
}

// HandlePayload decodes one message and ingests it.
func (l *Listener) HandlePayload(ctx context.Context, topic string, payload []byte) error {
	var r ingest.Reading
	if err := json.Unmarshal(payload, &r); err != nil {
		return fmt.Errorf("decode reading: %w", err)
	}

	res, err := l.ingester.Ingest(ctx, &r)
	if err != nil {
		var verr *ingest.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("invalid reading: %w", err)
		}
		return fmt.Errorf("ingest reading: %w", err)
	}

	l.logger.Debug("MQTT reading ingested",
		"topic", topic,
		"bytes", len(payload),
		"notifications", len(res.Notifications))
	return nil
}
