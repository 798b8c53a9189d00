package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"breachline/internal/game"
	"breachline/internal/session"
)

const (
	// MaxWSConnectionsTotal is the maximum number of WebSocket connections allowed
	MaxWSConnectionsTotal = 500

	wsWriteTimeout = 5 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingPeriod   = wsPongWait * 9 / 10
	wsMaxMessage   = 4096
)

// Outbound events.
const (
	EventHello = "hello" // data: session.Info, sent once on connect
	EventTick  = "tick"  // data: session.TickUpdate
	EventEnd   = "end"   // data: session.Info, sent when the session finishes
)

// wsMessage is every server-to-client frame.
type wsMessage struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// wsInbound is a client-to-server frame. Only "input" is understood.
type wsInbound struct {
	Type  string     `json:"type"`
	Input game.Input `json:"input"`
}

// wsClient tracks a WebSocket connection with its source IP
type wsClient struct {
	conn    *websocket.Conn
	ip      string
	session string
}

// WebSocketHub streams session ticks to clients and forwards their input.
type WebSocketHub struct {
	sessions Sessions
	upgrader websocket.Upgrader
	limiter  *WebSocketRateLimiter

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool

	log zerolog.Logger
}

// NewWebSocketHub creates a hub. Origins follow IsAllowedOrigin; requests
// without an Origin header (non-browser clients) are accepted.
func NewWebSocketHub(sessions Sessions, origins []string, maxPerIP int, log zerolog.Logger) *WebSocketHub {
	h := &WebSocketHub{
		sessions: sessions,
		limiter:  NewWebSocketRateLimiter(maxPerIP),
		clients:  make(map[*wsClient]struct{}),
		log:      log,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || IsAllowedOrigin(origin, origins) {
				return true
			}
			h.log.Warn().Str("origin", origin).Msg("WebSocket connection rejected")
			RecordConnectionRejected("origin")
			return false
		},
	}
	return h
}

// ClientCount returns the number of connected clients
func (h *WebSocketHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *WebSocketHub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*wsClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.conn.Close()
	}
}

func (h *WebSocketHub) register(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	wsConnectionsActive.Set(float64(len(h.clients)))
	return true
}

func (h *WebSocketHub) unregister(c *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		h.limiter.Release(c.ip)
	}
	n := len(h.clients)
	h.mu.Unlock()

	c.conn.Close()
	wsConnectionsActive.Set(float64(n))
	h.log.Debug().Str("ip", c.ip).Str("session", c.session).Int("remaining", n).Msg("WebSocket client disconnected")
}

// HandleSession upgrades the request and streams the session's ticks until it
// finishes or the client goes away.
func (h *WebSocketHub) HandleSession(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.sessions.Get(id)
	if err != nil {
		writeFailure(w, err)
		return
	}

	ip := GetClientIP(r)
	if h.ClientCount() >= MaxWSConnectionsTotal {
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "too many connections", http.StatusServiceUnavailable)
		return
	}
	if !h.limiter.Acquire(ip) {
		h.log.Warn().Str("ip", ip).Msg("WebSocket connection rejected: per-IP limit reached")
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.limiter.Release(ip)
		return
	}

	c := &wsClient{conn: conn, ip: ip, session: s.ID}
	if !h.register(c) {
		h.limiter.Release(ip)
		conn.Close()
		return
	}
	defer h.unregister(c)
	h.log.Debug().Str("ip", ip).Str("session", s.ID).Msg("WebSocket client connected")

	updates, cancel := s.Subscribe()
	defer cancel()

	readerDone := make(chan struct{})
	go h.readLoop(c, readerDone)

	if err := c.write(wsMessage{Event: EventHello, Data: s.Info()}); err != nil {
		return
	}

	ping := time.NewTicker(wsPingPeriod)
	defer ping.Stop()

	for {
		select {
		case u, ok := <-updates:
			if !ok {
				c.write(wsMessage{Event: EventEnd, Data: s.Info()})
				c.conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session finished"),
					time.Now().Add(wsWriteTimeout))
				return
			}
			if err := c.write(wsMessage{Event: EventTick, Data: u}); err != nil {
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case <-readerDone:
			return
		}
	}
}

// readLoop forwards input frames to the session until the connection fails.
func (h *WebSocketHub) readLoop(c *wsClient, done chan<- struct{}) {
	defer close(done)

	c.conn.SetReadLimit(wsMaxMessage)
	c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		wsMessagesTotal.WithLabelValues("in").Inc()

		var msg wsInbound
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != "input" {
			h.log.Debug().Str("session", c.session).Msg("Ignoring malformed WebSocket message")
			continue
		}
		if err := h.sessions.Input(c.session, msg.Input); err != nil {
			if errors.Is(err, session.ErrSessionNotActive) {
				continue // The writer will send the end event.
			}
			h.log.Warn().Err(err).Str("session", c.session).Msg("WebSocket input rejected")
		}
	}
}

// write sends one frame. Only the HandleSession goroutine writes.
func (c *wsClient) write(m wsMessage) error {
	c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := c.conn.WriteJSON(m); err != nil {
		return err
	}
	wsMessagesTotal.WithLabelValues("out").Inc()
	return nil
}

func (h *routerHandlers) handleWS(w http.ResponseWriter, r *http.Request) {
	h.hub.HandleSession(w, r, chi.URLParam(r, "id"))
}
