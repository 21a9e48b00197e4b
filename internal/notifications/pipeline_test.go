package notifications

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/petcare-telemetry/internal/bus"
	"github.com/albapepper/petcare-telemetry/internal/config"
	"github.com/albapepper/petcare-telemetry/internal/model"
)

func pipelineConfig(natsURL string) *config.Config {
	return &config.Config{
		NATSURL:         natsURL,
		NATSSubject:     "petcare.test",
		PushTimeout:     time.Second,
		PushConcurrency: 2,
		PushQueueSize:   8,
	}
}

func TestStartPipeline_WithoutNATS(t *testing.T) {
	p := StartPipeline(pipelineConfig(""), newMemSubs(), discardLogger())
	assert.False(t, p.Publishing())

	p.Worker.Enqueue(model.Notification{ID: "a", Message: "m"})
	assert.NoError(t, p.Stop(context.Background()))
}

func TestStartPipeline_UnreachableNATSStillDelivers(t *testing.T) {
	p := StartPipeline(pipelineConfig("nats://127.0.0.1:1"), newMemSubs(), discardLogger())
	assert.False(t, p.Publishing())

	p.Worker.Enqueue(model.Notification{ID: "a", Message: "m"})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, p.Stop(ctx))
}

func TestStartPipeline_PublishesToNATS(t *testing.T) {
	url := os.Getenv("NATS_URL")
	if url == "" {
		t.Skip("NATS_URL not set")
	}
	cfg := pipelineConfig(url)

	nc, err := nats.Connect(url)
	require.NoError(t, err)
	defer nc.Close()
	sub, err := nc.SubscribeSync(bus.AllNotificationsSubject(cfg.NATSSubject))
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	p := StartPipeline(cfg, newMemSubs(), discardLogger())
	require.True(t, p.Publishing())
	p.Worker.Enqueue(model.Notification{ID: "n1", Kind: model.KindAlert, Message: "Water low"})
	require.NoError(t, p.Stop(context.Background()))

	msg, err := sub.NextMsg(5 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, bus.NotificationSubject(cfg.NATSSubject, model.KindAlert), msg.Subject)
	assert.Equal(t, "n1", msg.Header.Get(nats.MsgIdHdr))

	var got model.Notification
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, "Water low", got.Message)
}
