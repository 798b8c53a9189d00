package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"breachline/internal/api"
	"breachline/internal/config"
	"breachline/internal/session"
	"breachline/internal/store"
)

// seedRuns is how many stored runs per mode are loaded into the leaderboards.
const seedRuns = 100

func main() {
	log := newLogger(os.Getenv("LOG_LEVEL"))

	// Load .env file from parent directory, then the current one
	if err := godotenv.Load("../.env"); err != nil {
		if err := godotenv.Load(".env"); err != nil {
			log.Info().Msg("No .env file found, using environment variables only")
		}
	} else {
		log.Info().Msg("Loaded environment from ../.env")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	log = newLogger(appConfig.LogLevel)
	log.Info().
		Int("tps", appConfig.Sim.TickRate).
		Int("max_sessions", appConfig.Session.MaxSessions).
		Int("checkpoint_interval", appConfig.Session.CheckpointInterval).
		Str("store", appConfig.Store.Path).
		Msg("Breachline server starting")

	st, err := store.Open(appConfig.Store.Path, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	opts := []session.ManagerOption{
		session.WithPersister(st),
		session.WithObserver(api.Metrics{}),
	}

	var eventLog *session.EventLog
	if path := appConfig.Session.EventLogPath; path != "" {
		eventLog = session.NewEventLog(appConfig.Limits.MaxEventsPerSec, log)
		if err := eventLog.Start(path); err != nil {
			log.Warn().Err(err).Msg("Event log disabled")
			eventLog = nil
		} else {
			api.RegisterEventLog(eventLog)
			opts = append(opts, session.WithEventLog(eventLog))
			log.Info().Str("path", path).Msg("Event log enabled")
		}
	}

	mgr := session.NewManager(appConfig.Session, appConfig.Sim, log, opts...)
	if err := seedLeaderboards(mgr, st); err != nil {
		log.Warn().Err(err).Msg("Leaderboards start empty")
	}

	debugSrv := api.StartDebugServer(debugConfig(appConfig.Server), log)

	server := api.NewServer(mgr, st, appConfig.Server, appConfig.Limits, log)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start(":" + strconv.Itoa(appConfig.Server.Port))
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("API server stopped")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("API server shutdown")
	}
	// Sessions still running are stopped and persisted before the store closes.
	if err := mgr.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("Session shutdown incomplete")
	}
	if eventLog != nil {
		eventLog.Stop()
	}
	if err := api.StopDebugServer(ctx, debugSrv); err != nil {
		log.Warn().Err(err).Msg("Debug server shutdown")
	}
	log.Info().Msg("Goodbye")
}

// seedLeaderboards ranks previously stored finished runs.
func seedLeaderboards(mgr *session.Manager, st *store.Store) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var runs []session.RunResult
	for _, mode := range []string{"arena", "extraction"} {
		recs, err := st.Top(ctx, mode, seedRuns)
		if err != nil {
			return fmt.Errorf("seed %s leaderboard: %w", mode, err)
		}
		for _, r := range recs {
			runs = append(runs, session.RunResult{
				Key:         fmt.Sprintf("rec-%d", r.ID),
				RecordingID: r.ID,
				Mode:        r.Mode,
				Score:       r.Score,
				Kills:       r.Kills,
				Cash:        r.Cash,
				Outcome:     r.Outcome,
				Ticks:       r.FinalTick,
			})
		}
	}
	mgr.Seed(runs)
	return nil
}

func debugConfig(srv config.ServerConfig) api.ObservabilityConfig {
	cfg := api.DefaultObservabilityConfig()
	cfg.Enabled = os.Getenv("DISABLE_DEBUG_SERVER") != "true"
	if srv.DebugAddr != "" {
		cfg.ListenAddr = srv.DebugAddr
	}
	cfg.AllowExternal = os.Getenv("ALLOW_DEBUG_EXTERNAL") == "true"
	cfg.BasicAuthUser = os.Getenv("DEBUG_USER")
	cfg.BasicAuthPass = os.Getenv("DEBUG_PASS")
	return cfg
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if os.Getenv("LOG_FORMAT") == "json" {
		return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger()
}
