package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"breachline/internal/config"
	"breachline/internal/session"
)

type wsFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func wsURL(ts string, id string) string {
	return "ws" + strings.TrimPrefix(ts, "http") + "/ws/sessions/" + id
}

func readFrame(t *testing.T, conn *websocket.Conn) wsFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f wsFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func TestWebSocketStream(t *testing.T) {
	env := newTestEnv(t, nil)
	info := env.create(t, `{"seed":8}`)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(env.ts.URL, info.ID), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	hello := readFrame(t, conn)
	require.Equal(t, EventHello, hello.Event)
	var hi session.Info
	require.NoError(t, json.Unmarshal(hello.Data, &hi))
	assert.Equal(t, info.ID, hi.ID)

	tick := readFrame(t, conn)
	require.Equal(t, EventTick, tick.Event)
	var u session.TickUpdate
	require.NoError(t, json.Unmarshal(tick.Data, &u))
	assert.NotZero(t, u.Tick)

	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"type":  "input",
		"input": map[string]interface{}{"reload": true, "move": map[string]float64{"x": 0, "y": 1}},
	}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	s, err := env.mgr.Get(info.ID)
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		p := s.Snapshot().World.Player
		return p != nil && p.Moving
	}, 5*time.Second, 10*time.Millisecond, "input sent over the socket reaches the session")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.mgr.Stop(ctx, info.ID))

	for {
		f := readFrame(t, conn)
		if f.Event == EventTick {
			continue
		}
		require.Equal(t, EventEnd, f.Event)
		var end session.Info
		require.NoError(t, json.Unmarshal(f.Data, &end))
		assert.Equal(t, session.StatusStopped, end.Status)
		assert.NotZero(t, end.RecordingID)
		break
	}

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "got %v", err)
}

func TestWebSocketPerIPLimit(t *testing.T) {
	env := newTestEnv(t, func(r *RouterConfig, _ *config.SessionConfig) {
		r.MaxWSPerIP = 1
	})
	info := env.create(t, `{"seed":2}`)

	first, _, err := websocket.DefaultDialer.Dial(wsURL(env.ts.URL, info.ID), nil)
	require.NoError(t, err)
	defer first.Close()
	readFrame(t, first)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(env.ts.URL, info.ID), nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestWebSocketRejectsOrigin(t *testing.T) {
	env := newTestEnv(t, nil)
	info := env.create(t, `{"seed":2}`)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(env.ts.URL, info.ID), http.Header{
		"Origin": {"https://evil.example.com"},
	})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(env.ts.URL, info.ID), http.Header{
		"Origin": {"http://localhost:5173"},
	})
	require.NoError(t, err)
	conn.Close()
}

func TestWebSocketFinishedSession(t *testing.T) {
	env := newTestEnv(t, nil)
	info := env.create(t, `{"seed":6}`)
	env.waitTick(t, info.ID, 1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, env.mgr.Stop(ctx, info.ID))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(env.ts.URL, info.ID), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, EventHello, readFrame(t, conn).Event)
	assert.Equal(t, EventEnd, readFrame(t, conn).Event)
}
