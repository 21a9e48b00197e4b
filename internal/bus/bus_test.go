package bus

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/petcare-telemetry/internal/model"
)

func TestSubjects(t *testing.T) {
	assert.Equal(t, "petcare.notifications.alert", NotificationSubject("petcare.notifications", model.KindAlert))
	assert.Equal(t, "petcare.notifications.>", AllNotificationsSubject("petcare.notifications"))
}

func TestConnect_DisabledWithoutURL(t *testing.T) {
	p, err := Connect("", "petcare", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Nil(t, p)

	// A nil publisher is usable.
	assert.NoError(t, p.PublishNotification(context.Background(), model.Notification{ID: "x"}))
	assert.NoError(t, p.Close())
}
