package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/pprof"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"breachline/internal/game"
	"breachline/internal/session"
)

// Metrics with bounded cardinality: labels are modes, outcomes, event kinds
// and route patterns, never session ids.
var (
	tickDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "breachline_tick_duration_seconds",
		Help:    "Time spent in one simulation tick",
		Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
	}, []string{"mode"})

	activeSessions = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "breachline_sessions_active",
		Help: "Currently running sessions",
	}, []string{"mode"})

	sessionsEnded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breachline_sessions_ended_total",
		Help: "Finished sessions by outcome",
	}, []string{"mode", "outcome"})

	enemiesAlive = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "breachline_enemies_alive",
		Help:    "Enemies alive after each tick",
		Buckets: []float64{0, 2, 5, 10, 20, 40, 80},
	}, []string{"mode"})

	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breachline_events_total",
		Help: "Simulation events emitted by kind",
	}, []string{"kind"})

	recordingsSaved = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breachline_recordings_saved_total",
		Help: "Finished runs written to the store",
	}, []string{"result"}) // "ok", "error"

	// DoS detection metrics - use ONLY bounded label values
	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breachline_connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // "rate_limit", "origin", "ws_ip_limit", "ws_total_limit"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "breachline_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"}) // endpoint is the route pattern, not the URL

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breachline_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "breachline_websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "breachline_websocket_messages_total",
		Help: "WebSocket messages by direction",
	}, []string{"direction"}) // "in", "out"
)

// Metrics reports session activity to Prometheus.
type Metrics struct{}

var _ session.Observer = Metrics{}

func (Metrics) SessionStarted(mode string) {
	activeSessions.WithLabelValues(mode).Inc()
}

func (Metrics) SessionEnded(mode, outcome string) {
	activeSessions.WithLabelValues(mode).Dec()
	sessionsEnded.WithLabelValues(mode, outcome).Inc()
}

// TickObserved runs under the session lock; keep it allocation-free.
func (Metrics) TickObserved(mode string, elapsed time.Duration, w *game.World) {
	tickDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
	enemiesAlive.WithLabelValues(mode).Observe(float64(len(w.Enemies)))
	for _, ev := range w.Events {
		eventsTotal.WithLabelValues(ev.Kind.String()).Inc()
	}
}

func (Metrics) RunSaved(err error) {
	if err != nil {
		recordingsSaved.WithLabelValues("error").Inc()
		return
	}
	recordingsSaved.WithLabelValues("ok").Inc()
}

// RegisterEventLog exposes event log counters. Call at most once per process.
func RegisterEventLog(el *session.EventLog) {
	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "breachline_event_log_total",
		Help: "Events written to the event log",
	}, func() float64 { return float64(el.Stats().Total) })
	promauto.NewCounterFunc(prometheus.CounterOpts{
		Name: "breachline_event_log_dropped_total",
		Help: "Events dropped by rate limiting or a full buffer",
	}, func() float64 { return float64(el.Stats().Dropped) })
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
}

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string // Loopback only unless AllowExternal
	AllowExternal bool
	BasicAuthUser string // Optional basic auth
	BasicAuthPass string
}

// DefaultObservabilityConfig returns safe defaults
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// DebugHandler serves pprof, /metrics and /health.
func DebugHandler(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// StartDebugServer starts the internal observability server. The returned
// server is nil when disabled.
// CRITICAL: binds to loopback unless AllowExternal, pprof is a DoS vector.
func StartDebugServer(cfg ObservabilityConfig, log zerolog.Logger) *http.Server {
	if !cfg.Enabled {
		log.Info().Msg("Debug server disabled")
		return nil
	}

	addr := cfg.ListenAddr
	if host, port, err := net.SplitHostPort(addr); err != nil || !isLoopback(host) {
		if !cfg.AllowExternal {
			if port == "" {
				port = "6060"
			}
			addr = net.JoinHostPort("127.0.0.1", port)
			log.Warn().Str("requested", cfg.ListenAddr).Str("addr", addr).Msg("Debug server forced to localhost")
		}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           DebugHandler(cfg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", addr).Msg("Debug server listening (pprof, /metrics)")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Debug server error")
		}
	}()
	return srv
}

// StopDebugServer shuts down a server returned by StartDebugServer.
func StopDebugServer(ctx context.Context, srv *http.Server) error {
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func isLoopback(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// basicAuthMiddleware adds basic authentication to the handler
func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
