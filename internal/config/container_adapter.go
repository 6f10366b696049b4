package config

import (
	"github.com/garyjia/merchant-onboarding/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Driver:          c.Database.Driver,
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Server: container.ServerConfig{
			Host:           c.Server.Host,
			Port:           c.Server.Port,
			ReadTimeout:    c.Server.ReadTimeout,
			WriteTimeout:   c.Server.WriteTimeout,
			MaxUploadBytes: c.Server.MaxUploadBytes,
		},
		Auth: container.AuthConfig{
			JWTSecret:   c.Auth.JWTSecret,
			Issuer:      c.Auth.Issuer,
			TokenExpiry: c.Auth.TokenExpiry,
		},
		Storage: container.StorageConfig{
			BaseDir:       c.Storage.BaseDir,
			PublicBaseURL: c.Storage.PublicBaseURL,
			UploadSecret:  c.Storage.UploadSecret,
			PresignExpiry: c.Storage.PresignExpiry,
			PutTimeout:    c.Storage.PutTimeout,
		},
		RateLimit: container.RateLimitConfig{
			Enabled:  c.RateLimit.Enabled,
			Requests: c.RateLimit.Requests,
			Window:   c.RateLimit.Window,
		},
		Messaging: container.MessagingConfig{
			URL:         c.RabbitMQ.URL,
			Exchange:    c.RabbitMQ.Exchange,
			DialTimeout: c.RabbitMQ.DialTimeout,
		},
		Redis: container.RedisConfig{
			Addr:      c.Redis.Addr,
			Password:  c.Redis.Password,
			DB:        c.Redis.DB,
			KeyPrefix: c.Redis.KeyPrefix,
		},
		Scheduler: container.SchedulerConfig{
			SessionSweepSchedule: c.Scheduler.SessionSweepSchedule,
			SessionIdleTimeout:   c.Scheduler.SessionIdleTimeout,
			LimiterSweepSchedule: c.Scheduler.LimiterSweepSchedule,
			LimiterIdleTimeout:   c.Scheduler.LimiterIdleTimeout,
		},
		Onboarding: container.OnboardingConfig{
			ResumeKYCAtFinalStep: c.Onboarding.ResumeKYCAtFinalStep,
		},
	}
}
