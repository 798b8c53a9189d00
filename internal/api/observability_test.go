package api

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breachline/internal/game"
)

func TestMetricsObserver(t *testing.T) {
	var m Metrics

	saved := testutil.ToFloat64(recordingsSaved.WithLabelValues("ok"))
	failed := testutil.ToFloat64(recordingsSaved.WithLabelValues("error"))
	m.RunSaved(nil)
	m.RunSaved(errors.New("disk full"))
	assert.Equal(t, saved+1, testutil.ToFloat64(recordingsSaved.WithLabelValues("ok")))
	assert.Equal(t, failed+1, testutil.ToFloat64(recordingsSaved.WithLabelValues("error")))

	active := testutil.ToFloat64(activeSessions.WithLabelValues("arena"))
	m.SessionStarted("arena")
	assert.Equal(t, active+1, testutil.ToFloat64(activeSessions.WithLabelValues("arena")))
	ended := testutil.ToFloat64(sessionsEnded.WithLabelValues("arena", "died"))
	m.SessionEnded("arena", "died")
	assert.Equal(t, active, testutil.ToFloat64(activeSessions.WithLabelValues("arena")))
	assert.Equal(t, ended+1, testutil.ToFloat64(sessionsEnded.WithLabelValues("arena", "died")))

	fired := testutil.ToFloat64(eventsTotal.WithLabelValues(game.EventDryFire.String()))
	w := &game.World{Events: []game.Event{
		{Kind: game.EventDryFire, Payload: game.DryFire{Weapon: "pistol"}},
		{Kind: game.EventDryFire, Payload: game.DryFire{Weapon: "pistol"}},
	}}
	m.TickObserved("arena", time.Millisecond, w)
	assert.Equal(t, fired+2, testutil.ToFloat64(eventsTotal.WithLabelValues(game.EventDryFire.String())))
}

func TestDebugHandler(t *testing.T) {
	Metrics{}.TickObserved("extraction", time.Millisecond, &game.World{})

	ts := httptest.NewServer(DebugHandler(DefaultObservabilityConfig()))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "breachline_tick_duration_seconds")

	health, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestDebugHandlerBasicAuth(t *testing.T) {
	cfg := DefaultObservabilityConfig()
	cfg.BasicAuthUser, cfg.BasicAuthPass = "ops", "secret"
	ts := httptest.NewServer(DebugHandler(cfg))
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/health", nil)
	req.SetBasicAuth("ops", "secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestIsLoopback(t *testing.T) {
	assert.True(t, isLoopback("localhost"))
	assert.True(t, isLoopback("127.0.0.1"))
	assert.True(t, isLoopback("::1"))
	assert.False(t, isLoopback("0.0.0.0"))
	assert.False(t, isLoopback(""))
}
