// Package config provides centralized configuration management.
// This is the single source of truth for host settings (config.go) and for
// every gameplay tunable of the simulation (sim.go).
//
// All optional fields fall back to the documented defaults returned by the
// Default* constructors; nothing in here fails on a missing value.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port        int      // Public API port
	DebugAddr   string   // pprof + /metrics listener, localhost only
	CORSOrigins []string // nil means the router's built-in list
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port:      3000,
		DebugAddr: "127.0.0.1:6060",
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	if addr := os.Getenv("DEBUG_ADDR"); addr != "" {
		cfg.DebugAddr = addr
	}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, o)
			}
		}
	}

	return cfg
}

// =============================================================================
// SESSION CONFIGURATION
// =============================================================================

// SessionConfig controls the real-time host that drives simulations.
type SessionConfig struct {
	MaxSessions        int    // Concurrent running games
	RingCapacity       int    // Inputs kept by the ring recorder
	CheckpointInterval int    // Ticks between ring checkpoints
	EventLogPath       string // JSONL event log, empty disables it
	SubscriberBuffer   int    // Per-subscriber event channel size
}

// DefaultSession returns the default session configuration.
func DefaultSession() SessionConfig {
	return SessionConfig{
		MaxSessions:        16,
		RingCapacity:       1200, // 20s at 60 TPS
		CheckpointInterval: 300,  // 5s at 60 TPS
		SubscriberBuffer:   256,
	}
}

// SessionFromEnv returns session configuration with environment variable overrides.
func SessionFromEnv() SessionConfig {
	cfg := DefaultSession()

	if n := getEnvInt("MAX_SESSIONS", 0); n > 0 {
		cfg.MaxSessions = n
	}
	if n := getEnvInt("RING_CAPACITY", 0); n > 0 {
		cfg.RingCapacity = n
	}
	if n := getEnvInt("CHECKPOINT_INTERVAL", 0); n > 0 {
		cfg.CheckpointInterval = n
	}
	cfg.EventLogPath = os.Getenv("EVENT_LOG_PATH")

	return cfg
}

// =============================================================================
// STORE CONFIGURATION
// =============================================================================

// StoreConfig holds replay storage settings.
type StoreConfig struct {
	Path string // SQLite file, ":memory:" for ephemeral runs
}

// DefaultStore returns the default store configuration.
func DefaultStore() StoreConfig {
	return StoreConfig{Path: "breachline.db"}
}

// StoreFromEnv returns store configuration with environment variable overrides.
func StoreFromEnv() StoreConfig {
	cfg := DefaultStore()
	if p := os.Getenv("STORE_PATH"); p != "" {
		cfg.Path = p
	}
	return cfg
}

// =============================================================================
// RATE LIMITS
// =============================================================================

// RateLimits controls API abuse protection.
type RateLimits struct {
	RequestsPerSecond float64
	Burst             int
	CleanupInterval   time.Duration
	MaxWSPerIP        int
	MaxEventsPerSec   int // Event log write budget
}

// DefaultLimits returns the default rate limits.
func DefaultLimits() RateLimits {
	return RateLimits{
		RequestsPerSecond: 20,
		Burst:             40,
		CleanupInterval:   5 * time.Minute,
		MaxWSPerIP:        8,
		MaxEventsPerSec:   5000,
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server   ServerConfig
	Session  SessionConfig
	Store    StoreConfig
	Limits   RateLimits
	LogLevel string
	Sim      SimConfig
}

// Load returns the complete configuration with environment overrides.
// When SIM_CONFIG points at a file it is layered over DefaultSim.
func Load() (AppConfig, error) {
	cfg := AppConfig{
		Server:   ServerFromEnv(),
		Session:  SessionFromEnv(),
		Store:    StoreFromEnv(),
		Limits:   DefaultLimits(),
		LogLevel: getEnvString("LOG_LEVEL", "info"),
		Sim:      DefaultSim(),
	}

	if path := os.Getenv("SIM_CONFIG"); path != "" {
		sim, err := LoadSim(path)
		if err != nil {
			return cfg, err
		}
		cfg.Sim = sim
	}

	return cfg, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
