// Package config provides configuration management for the Stepcut Agent.
// Configuration is loaded from environment variables (optionally seeded
// from a .env file) with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	// Default values
	DefaultPort       = 8687
	DefaultLogLevel   = "info"
	DefaultDataDir    = ".stepcut"
	DefaultDebounceMs = 300
	DefaultSettleMs   = 250
	DefaultThumbCount = 10

	// Environment variable names
	EnvPort       = "STEPCUT_PORT"
	EnvLogLevel   = "STEPCUT_LOG_LEVEL"
	EnvDataDir    = "STEPCUT_DATA_DIR"
	EnvDebounceMs = "STEPCUT_DEBOUNCE_MS"
	EnvSettleMs   = "STEPCUT_SETTLE_MS"
	EnvThumbCount = "STEPCUT_THUMB_COUNT"
	EnvCloudURL   = "STEPCUT_CLOUD_URL"
	EnvCloudToken = "STEPCUT_CLOUD_TOKEN"
	EnvHeadless   = "STEPCUT_HEADLESS"

	// Database filename
	DBFilename = "stepcut.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ThumbsDir() string
	DebounceWindow() time.Duration
	SettleFallback() time.Duration
	ThumbCount() int
	CloudURL() string
	CloudToken() string
	Headless() bool
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port       int
	logLevel   string
	dataDir    string
	debounceMs int
	settleMs   int
	thumbCount int
	cloudURL   string
	cloudToken string
	headless   bool
}

// New creates a new EnvConfig with defaults and environment variable
// overrides. A .env file in the working directory is loaded first if
// present; real environment variables win over it.
func New() (*EnvConfig, error) {
	_ = godotenv.Load()

	cfg := &EnvConfig{
		port:       DefaultPort,
		logLevel:   DefaultLogLevel,
		dataDir:    defaultDataDir(),
		debounceMs: DefaultDebounceMs,
		settleMs:   DefaultSettleMs,
		thumbCount: DefaultThumbCount,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if v := os.Getenv(EnvDebounceMs); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("invalid %s: must be a non-negative integer", EnvDebounceMs)
		}
		cfg.debounceMs = ms
	}

	if v := os.Getenv(EnvSettleMs); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvSettleMs)
		}
		cfg.settleMs = ms
	}

	if v := os.Getenv(EnvThumbCount); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvThumbCount)
		}
		cfg.thumbCount = n
	}

	cfg.cloudURL = os.Getenv(EnvCloudURL)
	cfg.cloudToken = os.Getenv(EnvCloudToken)
	cfg.headless = os.Getenv(EnvHeadless) == "1" || os.Getenv(EnvHeadless) == "true"

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ThumbsDir returns the thumbnail cache directory path
func (c *EnvConfig) ThumbsDir() string {
	return filepath.Join(c.dataDir, "thumbs")
}

// DebounceWindow returns how long trim input is coalesced before commit
func (c *EnvConfig) DebounceWindow() time.Duration {
	return time.Duration(c.debounceMs) * time.Millisecond
}

// SettleFallback returns how long a step transition may stay open before
// the agent settles it itself
func (c *EnvConfig) SettleFallback() time.Duration {
	return time.Duration(c.settleMs) * time.Millisecond
}

// ThumbCount returns the thumbnail strip size
func (c *EnvConfig) ThumbCount() int {
	return c.thumbCount
}

// CloudURL returns the recipe service base URL; empty means offline stub
func (c *EnvConfig) CloudURL() string {
	return c.cloudURL
}

// CloudToken returns the recipe service API token
func (c *EnvConfig) CloudToken() string {
	return c.cloudToken
}

// Headless reports whether the tray icon should be skipped
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
