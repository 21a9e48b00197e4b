package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/petcare-telemetry/internal/cache"
	"github.com/albapepper/petcare-telemetry/internal/ingest"
	"github.com/albapepper/petcare-telemetry/internal/sqlitedb"
)

func newTestHandler(t *testing.T) (*Handler, *ingest.Service) {
	t.Helper()
	db, err := sqlitedb.New(context.Background(), &sqlitedb.Config{
		DBPath:       filepath.Join(t.TempDir(), "pets.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := cache.New(true, time.Hour)
	svc := ingest.NewService(db, ingest.Options{Cache: c, Logger: logger})
	return New(db, svc, c, logger), svc
}

type statsBody struct {
	TotalActivityEvents   int        `json:"totalActivityEvents"`
	LastActivityTimestamp *time.Time `json:"lastActivityTimestamp"`
	DailyActivity         []struct {
		Day   string `json:"day"`
		Count int    `json:"count"`
	} `json:"dailyActivity"`
}

func getStats(t *testing.T, h *Handler) (*httptest.ResponseRecorder, statsBody) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.GetActivityStats(rec, httptest.NewRequest(http.MethodGet, "/api/activity/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body statsBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestGetActivityStats_RecomputedAfterUTCMidnight(t *testing.T) {
	h, svc := newTestHandler(t)
	ctx := context.Background()

	late := time.Date(2026, 10, 16, 23, 59, 50, 0, time.UTC)
	_, err := svc.UpdateProfile(ctx, &ingest.Profile{Name: "Toby"})
	require.NoError(t, err)
	at, active := late.Add(-time.Minute), true
	_, err = svc.Ingest(ctx, &ingest.Reading{ActivityDetected: &active, RecordedAt: &at})
	require.NoError(t, err)

	h.now = func() time.Time { return late }
	rec, stats := getStats(t, h)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, stats.TotalActivityEvents)
	require.Len(t, stats.DailyActivity, 7)
	assert.Equal(t, "2026-10-16", stats.DailyActivity[6].Day)

	rec, _ = getStats(t, h)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))

	// No write happens across midnight; the previous day's entry must not
	// be served for the new day.
	h.now = func() time.Time { return late.Add(20 * time.Second) }
	rec, stats = getStats(t, h)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Zero(t, stats.TotalActivityEvents)
	assert.Nil(t, stats.LastActivityTimestamp)
	require.Len(t, stats.DailyActivity, 7)
	assert.Equal(t, "2026-10-17", stats.DailyActivity[6].Day)
	assert.Equal(t, 1, stats.DailyActivity[5].Count)
}
