package api

import (
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breachline/internal/config"
	"breachline/internal/game"
	"breachline/internal/session"
	"breachline/internal/store"
)

type testEnv struct {
	ts    *httptest.Server
	mgr   *session.Manager
	store *store.Store
}

func newTestEnv(t *testing.T, mutate func(*RouterConfig, *config.SessionConfig)) *testEnv {
	t.Helper()

	st, err := store.Open(filepath.Join(t.TempDir(), "api.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	scfg := config.DefaultSession()
	rcfg := RouterConfig{
		Recordings:      st,
		RateLimitConfig: &RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
		DisableLogging:  true,
		Logger:          zerolog.Nop(),
	}
	if mutate != nil {
		mutate(&rcfg, &scfg)
	}

	mgr := session.NewManager(scfg, config.SimConfig{}, zerolog.Nop(), session.WithPersister(st))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		mgr.Shutdown(ctx)
	})
	rcfg.Sessions = mgr

	ts := httptest.NewServer(NewRouter(rcfg))
	t.Cleanup(ts.Close)

	return &testEnv{ts: ts, mgr: mgr, store: st}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.ts.URL+path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) create(t *testing.T, body string) session.Info {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/sessions", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[session.Info](t, resp)
}

func (e *testEnv) waitTick(t *testing.T, id string, tick uint64) {
	t.Helper()
	require.Eventually(t, func() bool {
		s, err := e.mgr.Get(id)
		return err == nil && s.Info().Tick >= tick
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSessionLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	info := env.create(t, `{"seed":42,"mode":"extraction"}`)
	assert.Equal(t, "extraction", info.Mode)
	assert.Equal(t, int64(42), info.Seed)
	assert.Equal(t, session.StatusRunning, info.Status)

	list := decode[[]session.Info](t, env.do(t, http.MethodGet, "/api/sessions", ""))
	require.Len(t, list, 1)
	assert.Equal(t, info.ID, list[0].ID)

	resp := env.do(t, http.MethodPost, "/api/sessions/"+info.ID+"/input", `{"move":{"x":1,"y":0},"aim":{"x":0,"y":1},"fireHeld":true}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(t, http.MethodPost, "/api/sessions/"+info.ID+"/input", `{"inventory":[{"op":"bind","hotbar":5,"def":"frag"}]}`)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	env.waitTick(t, info.ID, 5)

	resp = env.do(t, http.MethodGet, "/api/sessions/"+info.ID+"/snapshot", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, resp.Header.Get("X-State-Hash"), 64)
	snap := decode[game.Snapshot](t, resp)
	assert.Equal(t, game.SnapshotVersion, snap.Version)
	require.NotNil(t, snap.World)
	assert.Equal(t, game.ModeExtraction, snap.World.Mode)
	assert.Equal(t, "frag", snap.World.Player.Inventory.Hotbar[4], "inventory commands reach the run")

	resp = env.do(t, http.MethodPost, "/api/sessions/"+info.ID+"/stop", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	stopped := decode[session.Info](t, resp)
	assert.Equal(t, session.StatusStopped, stopped.Status)
	require.NotZero(t, stopped.RecordingID)

	resp = env.do(t, http.MethodPost, "/api/sessions/"+info.ID+"/input", `{"dodge":true}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	recs := decode[[]recordingView](t, env.do(t, http.MethodGet, "/api/recordings?mode=extraction", ""))
	require.Len(t, recs, 1)
	assert.Equal(t, stopped.RecordingID, recs[0].ID)
	assert.Equal(t, info.ID, recs[0].SessionID)
	assert.Equal(t, stopped.Tick, recs[0].FinalTick)

	rec := decode[recordingView](t, env.do(t, http.MethodGet, fmt.Sprintf("/api/recordings/%d", recs[0].ID), ""))
	assert.Equal(t, recs[0].StateHash, rec.StateHash)

	resp = env.do(t, http.MethodGet, fmt.Sprintf("/api/recordings/%d/verify", recs[0].ID), "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[map[string]interface{}](t, resp)
	assert.Equal(t, true, res["match"])
	assert.Equal(t, rec.StateHash, res["hash"])
	assert.Equal(t, "running", res["outcome"])
}

func TestNotFound(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/api/sessions/nope", "", http.StatusNotFound},
		{http.MethodGet, "/api/sessions/nope/snapshot", "", http.StatusNotFound},
		{http.MethodGet, "/api/sessions/nope/frame.png", "", http.StatusNotFound},
		{http.MethodPost, "/api/sessions/nope/input", `{}`, http.StatusNotFound},
		{http.MethodPost, "/api/sessions/nope/stop", "", http.StatusNotFound},
		{http.MethodGet, "/api/recordings/999", "", http.StatusNotFound},
		{http.MethodGet, "/api/recordings/999/verify", "", http.StatusNotFound},
		{http.MethodGet, "/api/recordings/abc", "", http.StatusBadRequest},
		{http.MethodGet, "/ws/sessions/nope", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			resp := env.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		})
	}
}

func TestCreateRejects(t *testing.T) {
	env := newTestEnv(t, func(_ *RouterConfig, s *config.SessionConfig) {
		s.MaxSessions = 1
	})

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/sessions", `{"mode":"deathmatch"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/sessions", `{"modes":"arena"}`).StatusCode)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/sessions", `{`).StatusCode)

	info := env.create(t, "")
	assert.Equal(t, "arena", info.Mode, "an empty body picks defaults")
	assert.NotZero(t, info.Seed)

	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodPost, "/api/sessions", `{}`).StatusCode)
}

func TestFramePNG(t *testing.T) {
	env := newTestEnv(t, nil)
	info := env.create(t, `{"seed":3}`)

	resp := env.do(t, http.MethodGet, "/api/sessions/"+info.ID+"/frame.png?w=200&h=100&follow=true", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 200, img.Bounds().Dx())
	assert.Equal(t, 100, img.Bounds().Dy())

	resp = env.do(t, http.MethodGet, "/api/sessions/"+info.ID+"/frame.png?w=1", "")
	img, err = png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, minFrameSide, img.Bounds().Dx(), "sizes are clamped")
}

func TestRewindEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	info := env.create(t, `{"seed":5}`)
	env.waitTick(t, info.ID, 30)

	resp := env.do(t, http.MethodPost, "/api/sessions/"+info.ID+"/rewind?tick=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rewound := decode[session.Info](t, resp)
	assert.Less(t, rewound.Tick, uint64(30))
	assert.GreaterOrEqual(t, rewound.Tick, uint64(2))

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/sessions/"+info.ID+"/rewind?tick=-1", "").StatusCode)
	assert.Equal(t, http.StatusConflict, env.do(t, http.MethodPost, "/api/sessions/"+info.ID+"/rewind?tick=1000000", "").StatusCode)
}

func TestLeaderboardEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	env.mgr.Seed([]session.RunResult{
		{Key: "rec-1", Mode: "arena", Score: 50, Outcome: "died"},
		{Key: "rec-2", Mode: "arena", Score: 90, Outcome: "died"},
		{Key: "rec-3", Mode: "arena", Score: 10, Outcome: "died"},
		{Key: "rec-4", Mode: "extraction", Score: 500, Outcome: "extracted"},
	})

	type board struct {
		Mode    string                     `json:"mode"`
		Total   int                        `json:"total"`
		Entries []session.LeaderboardEntry `json:"entries"`
	}

	b := decode[board](t, env.do(t, http.MethodGet, "/api/leaderboard?mode=arena&limit=2", ""))
	assert.Equal(t, "arena", b.Mode)
	assert.Equal(t, 3, b.Total)
	require.Len(t, b.Entries, 2)
	assert.Equal(t, "rec-2", b.Entries[0].Key)
	assert.Equal(t, 1, b.Entries[0].Rank)
	assert.Equal(t, "rec-1", b.Entries[1].Key)

	b = decode[board](t, env.do(t, http.MethodGet, "/api/leaderboard?mode=arena&around=rec-3&limit=2", ""))
	require.Len(t, b.Entries, 2)
	assert.Equal(t, "rec-1", b.Entries[0].Key)
	assert.Equal(t, 3, b.Entries[1].Rank)

	b = decode[board](t, env.do(t, http.MethodGet, "/api/leaderboard?mode=extraction", ""))
	require.Len(t, b.Entries, 1)
	assert.Equal(t, 500, b.Entries[0].Score)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/leaderboard?mode=ctf", "").StatusCode)
}

func TestRecordingsDisabled(t *testing.T) {
	env := newTestEnv(t, func(r *RouterConfig, _ *config.SessionConfig) {
		r.Recordings = nil
	})
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/api/recordings", "").StatusCode)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(t, http.MethodGet, "/api/recordings/1/verify", "").StatusCode)
}

func TestRouterRateLimit(t *testing.T) {
	env := newTestEnv(t, func(r *RouterConfig, _ *config.SessionConfig) {
		r.RateLimitConfig = &RateLimitConfig{RequestsPerSecond: 0.001, Burst: 2}
	})

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "").StatusCode)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "").StatusCode)
	resp := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t, func(r *RouterConfig, _ *config.SessionConfig) {
		r.CORSOrigins = []string{"https://play.example.com"}
	})

	preflight := func(origin string) *http.Response {
		req, err := http.NewRequest(http.MethodOptions, env.ts.URL+"/api/sessions", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := preflight("https://play.example.com")
	assert.Equal(t, "https://play.example.com", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = preflight("https://evil.example.com")
	assert.Empty(t, resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", session.ErrSessionNotFound), http.StatusNotFound},
		{store.ErrRecordingNotFound, http.StatusNotFound},
		{session.ErrTooManySessions, http.StatusServiceUnavailable},
		{session.ErrSessionNotActive, http.StatusConflict},
		{session.ErrRewindUnavailable, http.StatusConflict},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
