package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/notify-engine/internal/analytics"
	"github.com/albapepper/notify-engine/internal/api/handler"
	"github.com/albapepper/notify-engine/internal/cache"
	"github.com/albapepper/notify-engine/internal/config"
	"github.com/albapepper/notify-engine/internal/delivery"
	"github.com/albapepper/notify-engine/internal/scheduler"
	"github.com/albapepper/notify-engine/internal/settings"
)

var noon = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router   http.Handler
	sink     *delivery.Recorder
	store    *analytics.MemoryStore
	settings *settings.Manager
}

type fakePinger struct{ err error }

func (p fakePinger) HealthCheck(context.Context) error { return p.err }

func newTestServer(t *testing.T, db handler.HealthChecker) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ts := &testServer{
		sink:     &delivery.Recorder{},
		store:    analytics.NewMemoryStore(),
		settings: settings.NewManager(nil),
	}
	engine := scheduler.New(scheduler.Options{
		Settings: ts.settings,
		Sink:     ts.sink,
		Recorder: ts.store,
		Source:   ts.store,
		Location: time.UTC,
		Logger:   logger,
		Clock:    func() time.Time { return noon },
	})
	cfg := &config.Config{CORSAllowOrigins: []string{"*"}}
	ts.router = NewRouter(engine, cache.New(ctx, true), db, cfg, logger)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestScheduleBatchesLowPriority(t *testing.T) {
	ts := newTestServer(t, nil)

	for i, want := range []float64{1, 2, 0} {
		rec := ts.do(t, http.MethodPost, "/api/v1/notifications",
			`{"category":"daily_reward","title":"Reward","body":"coins"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		d := decode(t, rec)
		assert.Equal(t, "batched", d["outcome"], "request %d", i)
		assert.Equal(t, "low", d["priority"])
		assert.Equal(t, want, d["pending"])
	}

	require.Len(t, ts.sink.Deliveries, 1)
	assert.Equal(t, "Rewards Updates", ts.sink.Deliveries[0].Title)
	assert.Equal(t, 3, ts.sink.Deliveries[0].Size())
}

func TestScheduleDeliversImmediately(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/notifications",
		`{"category":"tournament","id":"t-1","title":"Finals","body":"Starting now"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode(t, rec)
	assert.Equal(t, "delivered", d["outcome"])
	assert.Equal(t, "t-1", d["request_id"])
	assert.Equal(t, map[string]any{"allowed": true, "reason": "ok"}, d["admit"])
	require.Len(t, ts.sink.Deliveries, 1)
	assert.Equal(t, "Finals", ts.sink.Deliveries[0].Title)
}

func TestScheduleBadRequests(t *testing.T) {
	ts := newTestServer(t, nil)
	tests := []struct {
		name string
		body string
		code string
	}{
		{"unknown category", `{"category":"weather"}`, "UNKNOWN_CATEGORY"},
		{"unknown field", `{"category":"challenge","priority":"critical"}`, "INVALID_BODY"},
		{"empty body", ``, "INVALID_BODY"},
		{"not json", `hello`, "INVALID_BODY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/notifications", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
	assert.Empty(t, ts.sink.Deliveries)
}

func TestAdmitIsDryRun(t *testing.T) {
	ts := newTestServer(t, nil)

	for range 3 {
		rec := ts.do(t, http.MethodPost, "/api/v1/notifications/admit", `{"category":"challenge"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, map[string]any{"allowed": true, "reason": "ok"}, decode(t, rec))
	}
	assert.Empty(t, ts.sink.Deliveries)

	rec := ts.do(t, http.MethodGet, "/api/v1/throttle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["hour_count"])

	counters, err := ts.store.Snapshot(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Zero(t, counters.Get(analytics.KeyTotal), "dry runs are not analytics attempts")
}

func TestThrottleStateAfterFire(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPost, "/api/v1/notifications", `{"category":"challenge"}`)

	rec := ts.do(t, http.MethodPost, "/api/v1/notifications", `{"category":"challenge"}`)
	d := decode(t, rec)
	assert.Equal(t, "throttled", d["outcome"])

	st := decode(t, ts.do(t, http.MethodGet, "/api/v1/throttle", ""))
	assert.Equal(t, map[string]any{"medium": float64(1)}, st["hour_count"])
	assert.Contains(t, st["last_fire"], "challenge")
}

func TestBatchEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)
	for range 2 {
		ts.do(t, http.MethodPost, "/api/v1/notifications", `{"category":"friend_activity","body":"hi"}`)
	}

	rec := ts.do(t, http.MethodGet, "/api/v1/batches/social", "")
	require.Equal(t, http.StatusOK, rec.Code)
	b := decode(t, rec)
	assert.Equal(t, "social", b["group"])
	assert.Equal(t, float64(2), b["pending"])
	assert.Equal(t, "Social Updates", b["title"])
	assert.Equal(t, noon.Add(settings.DefaultBatchConfig().BatchDelay).Format(time.RFC3339), b["deadline"])

	rec = ts.do(t, http.MethodGet, "/api/v1/batches", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var all []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	assert.Len(t, all, 4)

	rec = ts.do(t, http.MethodPost, "/api/v1/batches/social", "")
	require.Equal(t, http.StatusOK, rec.Code)
	d := decode(t, rec)
	assert.Equal(t, "digest", d["kind"])
	assert.Equal(t, "force", d["trigger"])
	require.Len(t, ts.sink.Deliveries, 1)

	rec = ts.do(t, http.MethodPost, "/api/v1/batches/social", "")
	assert.Equal(t, http.StatusNoContent, rec.Code, "nothing pending")

	ts.do(t, http.MethodPost, "/api/v1/notifications", `{"category":"inactivity"}`)
	rec = ts.do(t, http.MethodDelete, "/api/v1/batches/gameplay", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode(t, rec)["dropped"])
	rec = ts.do(t, http.MethodDelete, "/api/v1/batches/gameplay", "")
	assert.Equal(t, float64(0), decode(t, rec)["dropped"])

	rec = ts.do(t, http.MethodGet, "/api/v1/batches/weather", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "UNKNOWN_GROUP", errorCode(t, rec))
}

func TestEngagement(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPost, "/api/v1/engagements", `{"notification_id":"n1","group":"rewards"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/engagements",
		`{"notification_id":"n2","group":"events","at":"2026-03-02T09:30:00Z"}`)
	require.Equal(t, http.StatusNoContent, rec.Code)

	counters, err := ts.store.Snapshot(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, counters.Get(analytics.EngagedHourKey(12)))
	assert.Equal(t, 1, counters.Get(analytics.EngagedHourKey(9)))

	rec = ts.do(t, http.MethodPost, "/api/v1/engagements", `{"group":"rewards"}`)
	assert.Equal(t, "MISSING_ID", errorCode(t, rec))
	rec = ts.do(t, http.MethodPost, "/api/v1/engagements", `{"notification_id":"n3","group":"weather"}`)
	assert.Equal(t, "UNKNOWN_GROUP", errorCode(t, rec))
}

func TestOptimizationCaching(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/optimization", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	r := decode(t, rec)
	assert.Equal(t, false, r["sufficient_data"])
	assert.Equal(t, float64(7*24*3600), r["timeframe_seconds"])

	rec = ts.do(t, http.MethodGet, "/api/v1/optimization", "")
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, etag, rec.Header().Get("ETag"))

	rec = ts.do(t, http.MethodGet, "/api/v1/optimization", "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/config/schedule", `{"quiet_start":23}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ts.do(t, http.MethodGet, "/api/v1/optimization", "")
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"), "config writes invalidate reports")

	for _, days := range []string{"0", "91", "week"} {
		rec = ts.do(t, http.MethodGet, "/api/v1/optimization?days="+days, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, days)
		assert.Equal(t, "INVALID_DAYS", errorCode(t, rec))
	}
}

func TestOptimizationWithoutAnalytics(t *testing.T) {
	engine := scheduler.New(scheduler.Options{Clock: func() time.Time { return noon }})
	router := NewRouter(engine, cache.New(context.Background(), false), nil,
		&config.Config{CORSAllowOrigins: []string{"*"}}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/optimization", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "NO_ANALYTICS", errorCode(t, rec))
}

func TestScheduleConfigEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodGet, "/api/v1/config/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode(t, rec)
	assert.Equal(t, float64(22), c["quiet_start"])
	assert.Equal(t, "high", c["priority_threshold"])
	assert.Equal(t, "sun,mon,tue,wed,thu,fri,sat", c["active_days"])

	rec = ts.do(t, http.MethodPut, "/api/v1/config/schedule",
		`{"quiet_start":25,"priority_threshold":"medium","active_days":"mon,fri"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	c = decode(t, rec)
	assert.Equal(t, float64(1), c["quiet_start"], "hours fold into 0-23")
	assert.Equal(t, float64(8), c["quiet_end"], "omitted fields keep their value")
	assert.Equal(t, "medium", c["priority_threshold"])
	assert.Equal(t, "mon,fri", c["active_days"])
	assert.Equal(t, 1, ts.settings.Schedule().QuietStart)

	tests := []struct {
		body string
		code string
	}{
		{`{"priority_threshold":"urgent"}`, "INVALID_PRIORITY"},
		{`{"active_days":"mon,someday"}`, "INVALID_DAYS"},
		{`{"quiet_start":"late"}`, "INVALID_BODY"},
	}
	for _, tt := range tests {
		rec = ts.do(t, http.MethodPut, "/api/v1/config/schedule", tt.body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, tt.body)
		assert.Equal(t, tt.code, errorCode(t, rec))
	}

	rec = ts.do(t, http.MethodPost, "/api/v1/config/schedule/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, settings.DefaultScheduleConfig(), ts.settings.Schedule())
}

func TestBatchConfigEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)

	rec := ts.do(t, http.MethodPut, "/api/v1/config/batch", `{"max_batch_size":4,"min_batch_size":9}`)
	require.Equal(t, http.StatusOK, rec.Code)
	c := decode(t, rec)
	assert.Equal(t, float64(4), c["max_batch_size"])
	assert.Equal(t, float64(4), c["min_batch_size"], "min is clamped to max")

	rec = ts.do(t, http.MethodPut, "/api/v1/config/batch", `{"batch_delay_seconds":0,"enabled":false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	c = decode(t, rec)
	assert.Equal(t, float64(1), c["batch_delay_seconds"])
	assert.Equal(t, false, c["enabled"])

	rec = ts.do(t, http.MethodGet, "/api/v1/config/batch", "")
	assert.Equal(t, false, decode(t, rec)["enabled"])

	rec = ts.do(t, http.MethodPut, "/api/v1/config/batch",
		`{"batch_delay_seconds":10000000000,"max_batch_age_seconds":10000000000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	c = decode(t, rec)
	assert.Equal(t, float64(9223372036), c["batch_delay_seconds"], "out-of-range seconds saturate")
	assert.Equal(t, float64(9223372036), c["max_batch_age_seconds"])
	assert.Equal(t, settings.Seconds(9223372036), ts.settings.Batch().MaxBatchAge)

	rec = ts.do(t, http.MethodPost, "/api/v1/config/batch/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, settings.DefaultBatchConfig(), ts.settings.Batch())
}

type failingStore struct{ settings.MemoryStore }

func (*failingStore) Set(context.Context, string, string) error { return errors.New("read-only replica") }

func TestConfigPersistFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mgr := settings.NewManager(&failingStore{})
	engine := scheduler.New(scheduler.Options{Settings: mgr, Logger: logger})
	router := NewRouter(engine, cache.New(context.Background(), false), nil,
		&config.Config{CORSAllowOrigins: []string{"*"}}, logger)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/v1/config/schedule",
		bytes.NewBufferString(`{"quiet_hours_enabled":false}`)))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "PERSIST_FAILED", errorCode(t, rec))
	assert.False(t, mgr.Schedule().QuietHoursEnabled, "memory is updated even when the store fails")
}

func TestHealthEndpoints(t *testing.T) {
	tests := []struct {
		name     string
		db       handler.HealthChecker
		status   int
		database string
	}{
		{"no database", nil, http.StatusOK, "disabled"},
		{"connected", fakePinger{}, http.StatusOK, "connected"},
		{"down", fakePinger{err: errors.New("refused")}, http.StatusServiceUnavailable, "disconnected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.db)
			rec := ts.do(t, http.MethodGet, "/health/db", "")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.database, decode(t, rec)["database"])
		})
	}

	ts := newTestServer(t, nil)
	rec := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Process-Time"))

	rec = ts.do(t, http.MethodGet, "/health/cache", "")
	assert.Equal(t, true, decode(t, rec)["cache"].(map[string]any)["enabled"])

	rec = ts.do(t, http.MethodGet, "/", "")
	assert.Equal(t, "UTC", decode(t, rec)["timezone"])
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPost, "/api/v1/notifications", `{"category":"tournament"}`)

	rec := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "notify_engine_attempts_total")
}
