package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// EnvPrefix prefixes every environment override, e.g. MERCHANT_SERVER_PORT
const EnvPrefix = "MERCHANT"

// Database drivers
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Logger     LoggerConfig     `mapstructure:"logger"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Storage    StorageConfig    `mapstructure:"storage"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"`
	RabbitMQ   RabbitMQConfig   `mapstructure:"rabbitmq"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Onboarding OnboardingConfig `mapstructure:"onboarding"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// AuthConfig holds bearer token configuration
type AuthConfig struct {
	JWTSecret   string        `mapstructure:"jwt_secret"`
	Issuer      string        `mapstructure:"issuer"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
}

// StorageConfig holds uploaded object storage configuration
type StorageConfig struct {
	BaseDir       string        `mapstructure:"base_dir"`
	PublicBaseURL string        `mapstructure:"public_base_url"`
	UploadSecret  string        `mapstructure:"upload_secret"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
	PutTimeout    time.Duration `mapstructure:"put_timeout"`
}

// RateLimitConfig holds presign and upload throttling configuration
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// RabbitMQConfig holds domain event publishing configuration. An empty URL
// logs events instead of publishing them.
type RabbitMQConfig struct {
	URL         string        `mapstructure:"url"`
	Exchange    string        `mapstructure:"exchange"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// RedisConfig holds the shared rate limiter backend. An empty address keeps
// limits in process memory.
type RedisConfig struct {
	Addr      string `mapstructure:"addr"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// SchedulerConfig holds background sweep configuration
type SchedulerConfig struct {
	SessionSweepSchedule string        `mapstructure:"session_sweep_schedule"`
	SessionIdleTimeout   time.Duration `mapstructure:"session_idle_timeout"`
	LimiterSweepSchedule string        `mapstructure:"limiter_sweep_schedule"`
	LimiterIdleTimeout   time.Duration `mapstructure:"limiter_idle_timeout"`
}

// OnboardingConfig holds wizard behavior switches
type OnboardingConfig struct {
	ResumeKYCAtFinalStep bool `mapstructure:"resume_kyc_at_final_step"`
}

// Load reads configPath (optional, YAML), a .env file in the working
// directory (optional) and MERCHANT_* environment variables, in increasing
// precedence.
func Load(configPath string) (*Config, error) {
	if err := gotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.max_upload_bytes", 10<<20)

	// Database defaults
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "data/merchants.db")
	v.SetDefault("database.max_open_conns", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.conn_max_lifetime", 0)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")

	// Auth defaults
	v.SetDefault("auth.issuer", "merchantd")
	v.SetDefault("auth.token_expiry", 7*24*time.Hour)

	// Storage defaults
	v.SetDefault("storage.base_dir", "data/uploads")
	v.SetDefault("storage.public_base_url", "http://localhost:8080")
	v.SetDefault("storage.presign_expiry", 5*time.Minute)
	v.SetDefault("storage.put_timeout", 60*time.Second)

	// Rate limit defaults
	v.SetDefault("ratelimit.enabled", true)
	v.SetDefault("ratelimit.requests", 30)
	v.SetDefault("ratelimit.window", time.Minute)

	// Messaging defaults
	v.SetDefault("rabbitmq.exchange", "merchant.events")
	v.SetDefault("rabbitmq.dial_timeout", 5*time.Second)

	// Redis defaults
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "merchant:rate_limit")

	// Scheduler defaults
	v.SetDefault("scheduler.session_sweep_schedule", "@every 5m")
	v.SetDefault("scheduler.session_idle_timeout", 2*time.Hour)
	v.SetDefault("scheduler.limiter_sweep_schedule", "@every 10m")
	v.SetDefault("scheduler.limiter_idle_timeout", 30*time.Minute)

	// Onboarding defaults
	v.SetDefault("onboarding.resume_kyc_at_final_step", false)
}

// bindEnvVars binds credentials that are conventionally set without the prefix
func bindEnvVars(v *viper.Viper) {
	_ = v.BindEnv("auth.jwt_secret", EnvPrefix+"_AUTH_JWT_SECRET", "JWT_SECRET")
	_ = v.BindEnv("storage.upload_secret", EnvPrefix+"_STORAGE_UPLOAD_SECRET", "UPLOAD_SECRET")
	_ = v.BindEnv("rabbitmq.url", EnvPrefix+"_RABBITMQ_URL", "RABBITMQ_URL")
	_ = v.BindEnv("redis.addr", EnvPrefix+"_REDIS_ADDR", "REDIS_ADDR")
	_ = v.BindEnv("redis.password", EnvPrefix+"_REDIS_PASSWORD", "REDIS_PASSWORD")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q", DriverSQLite, DriverMemory)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if c.Storage.UploadSecret == "" {
		return fmt.Errorf("storage.upload_secret is required")
	}
	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	if c.RateLimit.Enabled && (c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("ratelimit.requests and ratelimit.window must be positive")
	}

	if c.Scheduler.SessionIdleTimeout <= 0 {
		return fmt.Errorf("scheduler.session_idle_timeout must be positive")
	}

	return nil
}
