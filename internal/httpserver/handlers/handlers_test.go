package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/therawatch/internal/domain"
	"github.com/MrSnakeDoc/therawatch/internal/engine"
	"github.com/MrSnakeDoc/therawatch/internal/httpserver/deps"
	"github.com/MrSnakeDoc/therawatch/internal/logger"
	"github.com/MrSnakeDoc/therawatch/internal/metrics"
	redisstore "github.com/MrSnakeDoc/therawatch/internal/store/redis"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeMonitor struct {
	report  engine.Report
	ran     bool
	conns   []domain.Connection
	tracked int
	crit    domain.Criteria
}

func (f *fakeMonitor) LastReport() (engine.Report, bool) { return f.report, f.ran }
func (f *fakeMonitor) Connections() []domain.Connection  { return f.conns }
func (f *fakeMonitor) TrackedPairs() int                 { return f.tracked }
func (f *fakeMonitor) Criteria() domain.Criteria         { return f.crit }

type fakeHistory struct {
	alerts  []redisstore.AlertRecord
	hits    map[string]int64
	pingErr error
	asked   int64
}

func (f *fakeHistory) RecentAlerts(_ context.Context, n int64) ([]redisstore.AlertRecord, error) {
	f.asked = n
	return f.alerts, nil
}

func (f *fakeHistory) DestinationHits(context.Context) (map[string]int64, error) {
	return f.hits, nil
}

func (f *fakeHistory) Ping(context.Context) error { return f.pingErr }

func newDeps(mon *fakeMonitor) deps.Deps {
	return deps.Deps{
		Logger:       logger.NewNop(),
		StartTime:    now.Add(-time.Minute),
		TimeNow:      func() time.Time { return now },
		Monitor:      mon,
		PollInterval: 5 * time.Minute,
		HubSystemID:  31000005,
		Metrics:      metrics.New(),
		CheckTrigger: make(chan struct{}, 1),
	}
}

func sampleMonitor() *fakeMonitor {
	return &fakeMonitor{
		ran: true,
		conns: []domain.Connection{
			{ID: "c1", TheraSignature: "ABC-123", ExitSignature: "XYZ-789", ExitSystemID: 30001234, ExitSystemName: "Dodixie", Size: domain.SizeLarge, ExpiresAt: now.Add(10 * time.Hour)},
			{ID: "c2", TheraSignature: "DEF-456", ExitSignature: "UVW-000", ExitSystemID: 30002053, ExitSystemName: "Hek", Size: domain.SizeMedium, ExpiresAt: now.Add(2 * time.Hour)},
		},
		tracked: 3,
		crit: domain.Criteria{
			Origins:      []domain.Origin{{Name: "Amarr", SystemID: 30002187}},
			Destinations: []domain.Destination{{Name: "Jita", SystemID: 30000142, MaxJumps: 10}},
			MinSize:      domain.SizeMedium,
			Cooldown:     time.Hour,
			Preference:   domain.PreferShortest,
		},
	}
}

func serve(h http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestHealthz(t *testing.T) {
	w := serve(Healthz(newDeps(sampleMonitor())), http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var body healthzResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.InDelta(t, 60, body.UptimeSeconds, 0.001)
}

func TestReadyz(t *testing.T) {
	mon := sampleMonitor()
	mon.ran = false
	d := newDeps(mon)

	assert.Equal(t, http.StatusServiceUnavailable, serve(Readyz(d), http.MethodGet, "/readyz").Code)

	mon.ran = true
	assert.Equal(t, http.StatusOK, serve(Readyz(d), http.MethodGet, "/readyz").Code)
}

func TestStatus(t *testing.T) {
	mon := sampleMonitor()
	d := newDeps(mon)
	d.History = &fakeHistory{hits: map[string]int64{"Jita": 4}}

	w := serve(Status(d), http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, w.Code)

	var body statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Mode)
	require.Len(t, body.Departures, 1)
	assert.Equal(t, "Amarr", body.Departures[0].Name)
	assert.Equal(t, int64(3600), body.CooldownSeconds)
	assert.Equal(t, "medium", body.MinWormholeSize)
	assert.Equal(t, "shortest", body.RoutePreference)
	assert.Equal(t, 3, body.TrackedPairs)
	require.Len(t, body.Destinations, 1)
	require.NotNil(t, body.Destinations[0].Alerts)
	assert.Equal(t, int64(4), *body.Destinations[0].Alerts)
}

func TestStatusModes(t *testing.T) {
	tests := []struct {
		name    string
		report  engine.Report
		ran     bool
		history deps.AlertHistory
		want    string
	}{
		{"no cycle yet", engine.Report{}, false, nil, "critical"},
		{"feed failing", engine.Report{FeedError: "boom"}, true, nil, "critical"},
		{"redis down", engine.Report{}, true, &fakeHistory{pingErr: errors.New("refused")}, "degraded"},
		{"redis disabled", engine.Report{}, true, nil, "healthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mon := sampleMonitor()
			mon.report, mon.ran = tt.report, tt.ran
			d := newDeps(mon)
			d.History = tt.history

			var body statusResponse
			require.NoError(t, json.Unmarshal(serve(Status(d), http.MethodGet, "/status").Body.Bytes(), &body))
			assert.Equal(t, tt.want, body.Mode)
		})
	}
}

func TestConnections(t *testing.T) {
	d := newDeps(sampleMonitor())

	var body connectionsResponse
	w := serve(Connections(d), http.MethodGet, "/connections")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	require.Len(t, body.Connections, 2)
	assert.Equal(t, "Dodixie", body.Connections[0].ExitSystem)
	assert.Equal(t, "large", body.Connections[0].Size)

	w = serve(Connections(d), http.MethodGet, "/connections?limit=1")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Total)
	assert.Len(t, body.Connections, 1)

	assert.Equal(t, http.StatusBadRequest, serve(Connections(d), http.MethodGet, "/connections?limit=x").Code)
}

func TestAlerts(t *testing.T) {
	d := newDeps(sampleMonitor())
	assert.Equal(t, http.StatusNotFound, serve(Alerts(d), http.MethodGet, "/alerts").Code)

	hist := &fakeHistory{alerts: []redisstore.AlertRecord{{AlertID: "01J", Destination: "Jita", TotalJumps: 7}}}
	d.History = hist

	w := serve(Alerts(d), http.MethodGet, "/alerts")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(defaultAlertsLimit), hist.asked)

	var body alertsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Alerts, 1)
	assert.Equal(t, 7, body.Alerts[0].TotalJumps)

	serve(Alerts(d), http.MethodGet, "/alerts?limit=5000")
	assert.Equal(t, int64(maxAlertsLimit), hist.asked)

	assert.Equal(t, http.StatusBadRequest, serve(Alerts(d), http.MethodGet, "/alerts?limit=0").Code)
}

func TestMetrics(t *testing.T) {
	d := newDeps(sampleMonitor())
	d.Metrics.ObserveCycle(metrics.CycleObservation{Start: now, Duration: time.Second, Connections: 2})

	w := serve(Metrics(d), http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, metrics.ContentType, w.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(w.Body.String(), metrics.CyclesTotal))
}

func TestCheck(t *testing.T) {
	d := newDeps(sampleMonitor())

	assert.Equal(t, http.StatusAccepted, serve(Check(d), http.MethodPost, "/check").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(Check(d), http.MethodPost, "/check").Code)

	<-d.CheckTrigger
	assert.Equal(t, http.StatusAccepted, serve(Check(d), http.MethodPost, "/check").Code)
}
