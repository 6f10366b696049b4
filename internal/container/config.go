// Package container provides dependency injection and lifecycle management
// for the merchant onboarding service.
package container

import (
	"fmt"
	"time"
)

// Database drivers
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Auth       AuthConfig
	Storage    StorageConfig
	RateLimit  RateLimitConfig
	Messaging  MessagingConfig
	Redis      RedisConfig
	Scheduler  SchedulerConfig
	Onboarding OnboardingConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Driver is "sqlite" or "memory"
	Driver string

	// Path to SQLite database file
	Path string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
}

// AuthConfig holds bearer token settings.
type AuthConfig struct {
	JWTSecret   string
	Issuer      string
	TokenExpiry time.Duration
}

// StorageConfig holds uploaded object settings.
type StorageConfig struct {
	// BaseDir is where uploaded objects are written
	BaseDir string

	// PublicBaseURL is the externally reachable address of this server
	PublicBaseURL string

	// UploadSecret signs presigned upload URLs
	UploadSecret string

	PresignExpiry time.Duration
	PutTimeout    time.Duration
}

// RateLimitConfig holds presign and upload throttling settings.
type RateLimitConfig struct {
	Enabled  bool
	Requests int
	Window   time.Duration
}

// MessagingConfig holds domain event publishing settings.
type MessagingConfig struct {
	// URL of the AMQP broker; empty logs events instead
	URL         string
	Exchange    string
	DialTimeout time.Duration
}

// RedisConfig holds the shared rate limiter backend.
type RedisConfig struct {
	// Addr of the redis server; empty keeps limits in memory
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// SchedulerConfig holds background sweep settings.
type SchedulerConfig struct {
	SessionSweepSchedule string
	SessionIdleTimeout   time.Duration
	LimiterSweepSchedule string
	LimiterIdleTimeout   time.Duration
}

// OnboardingConfig holds wizard behavior switches.
type OnboardingConfig struct {
	ResumeKYCAtFinalStep bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       DriverSQLite,
			Path:         "data/merchants.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Server: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			MaxUploadBytes: 10 << 20,
		},
		Auth: AuthConfig{
			Issuer:      "merchantd",
			TokenExpiry: 7 * 24 * time.Hour,
		},
		Storage: StorageConfig{
			BaseDir:       "data/uploads",
			PublicBaseURL: "http://localhost:8080",
			PresignExpiry: 5 * time.Minute,
			PutTimeout:    60 * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Requests: 30,
			Window:   time.Minute,
		},
		Messaging: MessagingConfig{
			Exchange:    "merchant.events",
			DialTimeout: 5 * time.Second,
		},
		Redis: RedisConfig{
			KeyPrefix: "merchant:rate_limit",
		},
		Scheduler: SchedulerConfig{
			SessionSweepSchedule: "@every 5m",
			SessionIdleTimeout:   2 * time.Hour,
			LimiterSweepSchedule: "@every 10m",
			LimiterIdleTimeout:   30 * time.Minute,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}
	if c.Storage.UploadSecret == "" {
		return fmt.Errorf("storage.upload_secret is required")
	}

	if c.Scheduler.SessionSweepSchedule == "" {
		return fmt.Errorf("scheduler.session_sweep_schedule is required")
	}

	return nil
}
