package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"breachline/internal/game"
	"breachline/internal/render"
	"breachline/internal/replay"
	"breachline/internal/session"
	"breachline/internal/store"
)

// Sessions is the session host the API drives. *session.Manager implements it.
type Sessions interface {
	Create(opts session.CreateOptions) (*session.Session, error)
	Get(id string) (*session.Session, error)
	Input(id string, in game.Input) error
	Stop(ctx context.Context, id string) error
	List() []session.Info
	Leaderboard(mode game.Mode) *session.Leaderboard
}

// Recordings is the replay store the API reads. *store.Store implements it.
type Recordings interface {
	List(ctx context.Context, f store.ListFilter) ([]store.Recording, error)
	Get(ctx context.Context, id uint) (*store.Recording, error)
	Verify(ctx context.Context, id uint) (replay.Result, error)
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Sessions: mgr,
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	    DisableLogging: true,
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Sessions is the session host (required)
	Sessions Sessions

	// Recordings is optional; without it the recording routes answer 503.
	Recordings Recordings

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is only used if RateLimiter is nil. If both are nil,
	// uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins also governs WebSocket origins. Nil uses DefaultOrigins.
	CORSOrigins []string

	// Hub serves the WebSocket route. If nil, one is created with MaxWSPerIP.
	Hub        *WebSocketHub
	MaxWSPerIP int

	// Frame is the default render size for frame.png.
	Frame render.Options

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool

	Logger zerolog.Logger
}

// routerHandlers holds the handler functions for the router.
type routerHandlers struct {
	sessions   Sessions
	recordings Recordings
	hub        *WebSocketHub
	frame      render.Options
	log        zerolog.Logger
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// IMPORTANT: This function is PURE - it has no side effects:
//   - No goroutines are started
//   - No network listeners are opened
//   - No background workers are launched
//
// This makes it safe to use in tests with httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	if !cfg.DisableLogging {
		r.Use(requestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	origins := cfg.CORSOrigins
	if origins == nil {
		origins = DefaultOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-State-Hash"},
		MaxAge:         300,
	}))

	frame := cfg.Frame
	if frame.Width <= 0 || frame.Height <= 0 {
		frame = render.DefaultOptions()
	}
	hub := cfg.Hub
	if hub == nil {
		hub = NewWebSocketHub(cfg.Sessions, origins, cfg.MaxWSPerIP, cfg.Logger)
	}

	h := &routerHandlers{
		sessions:   cfg.Sessions,
		recordings: cfg.Recordings,
		hub:        hub,
		frame:      frame,
		log:        cfg.Logger,
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.handleCreateSession)
			r.Get("/", h.handleListSessions)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetSession)
				r.Get("/snapshot", h.handleSnapshot)
				r.Get("/frame.png", h.handleFrame)
				r.Post("/input", h.handleInput)
				r.Post("/stop", h.handleStop)
				r.Post("/rewind", h.handleRewind)
			})
		})

		r.Get("/recordings", h.handleListRecordings)
		r.Get("/recordings/{id}", h.handleGetRecording)
		r.Get("/recordings/{id}/verify", h.handleVerifyRecording)

		r.Get("/leaderboard", h.handleLeaderboard)
	})

	r.Get("/ws/sessions/{id}", h.handleWS)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return r
}

// requestLogger logs each request with zerolog and records its metrics under
// the matched route pattern.
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)

			pattern := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				pattern = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			RecordRequest(r.Method, pattern, status, elapsed)

			ev := log.Debug()
			if status >= 500 {
				ev = log.Warn()
			}
			ev.Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", elapsed).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("HTTP request")
		})
	}
}
