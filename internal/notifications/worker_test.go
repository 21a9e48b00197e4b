package notifications

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/petcare-telemetry/internal/model"
)

type recordingPublisher struct {
	mu  sync.Mutex
	ids []string
}

func (p *recordingPublisher) PublishNotification(_ context.Context, n model.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ids = append(p.ids, n.ID)
	return nil
}

func TestWorker_DrainsOnClose(t *testing.T) {
	sender := &fakeSender{}
	pub := &recordingPublisher{}
	d := NewDispatcher(newMemSubs("https://push/1"), sender, time.Second, 0, discardLogger())
	w := NewWorker(d, pub, 8, discardLogger())

	w.Enqueue(model.Notification{ID: "a"}, model.Notification{ID: "b"})
	w.Close()

	done := make(chan struct{})
	go func() {
		w.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop after Close")
	}

	assert.Equal(t, []string{"a", "b"}, pub.ids)
	assert.Equal(t, int32(2), sender.calls.Load())

	// Enqueue after Close is ignored rather than panicking.
	w.Enqueue(model.Notification{ID: "c"})
}

func TestWorker_FullQueueDrops(t *testing.T) {
	sender := &fakeSender{}
	d := NewDispatcher(newMemSubs("https://push/1"), sender, time.Second, 0, discardLogger())
	w := NewWorker(d, nil, 1, discardLogger())

	w.Enqueue(model.Notification{ID: "a"}, model.Notification{ID: "b"}, model.Notification{ID: "c"})
	w.Close()
	w.Run(context.Background())

	assert.Equal(t, int32(1), sender.calls.Load())
}

func TestWorker_StopsOnCancel(t *testing.T) {
	d := NewDispatcher(newMemSubs(), nil, time.Second, 0, discardLogger())
	w := NewWorker(d, nil, 4, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)
}
