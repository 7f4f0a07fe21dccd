package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig
	Logging       LogConfig
	RateLimit     RateLimitConfig
	Storage       StorageConfig
	Boot          BootConfig
	Session       SessionConfig
	Notifications NotificationConfig
	Catalog       CatalogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
	// GlobalRPS caps requests across all clients. Zero disables the cap.
	GlobalRPS int `envconfig:"RATE_LIMIT_GLOBAL_RPS" default:"0"`
}

// StorageConfig selects where preference blobs live.
// Driver is "sqlite" or "memory".
type StorageConfig struct {
	Driver string `envconfig:"STORAGE_DRIVER" default:"sqlite"`
	Path   string `envconfig:"STORAGE_PATH" default:"/tmp/nexus-os/preferences.db"`
}

// BootConfig holds the simulated boot timings.
type BootConfig struct {
	// BIOSDuration covers the memory test and the settle pause
	BIOSDuration time.Duration `envconfig:"BOOT_BIOS_DURATION" default:"2100ms"`
}

// SessionConfig holds desktop session hub limits.
type SessionConfig struct {
	MaxSessions      int           `envconfig:"SESSION_MAX" default:"1000"`
	SubscriberBuffer int           `envconfig:"SESSION_SUBSCRIBER_BUFFER" default:"64"`
	IdleTTL          time.Duration `envconfig:"SESSION_IDLE_TTL" default:"30m"`
	// Timezone decides local time for time-of-day achievements
	Timezone string `envconfig:"SESSION_TIMEZONE" default:"Local"`
}

// NotificationConfig holds notification queue limits.
type NotificationConfig struct {
	DefaultDuration time.Duration `envconfig:"NOTIFY_DEFAULT_DURATION" default:"5s"`
	MaxQueued       int           `envconfig:"NOTIFY_MAX_QUEUED" default:"20"`
}

// CatalogConfig points at optional extra application manifests.
type CatalogConfig struct {
	AppsDir string `envconfig:"CATALOG_APPS_DIR" default:""`
}

// Load loads configuration from a .env file (when present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// Location resolves the session timezone, falling back to the local zone.
func (c SessionConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local, fmt.Errorf("invalid session timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "/tmp/nexus-os/preferences.db",
		},
		Boot: BootConfig{
			BIOSDuration: 2100 * time.Millisecond,
		},
		Session: SessionConfig{
			MaxSessions:      1000,
			SubscriberBuffer: 64,
			IdleTTL:          30 * time.Minute,
			Timezone:         "Local",
		},
		Notifications: NotificationConfig{
			DefaultDuration: 5 * time.Second,
			MaxQueued:       20,
		},
	}
}
