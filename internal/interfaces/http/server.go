// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/application/review"
	"github.com/garyjia/merchant-onboarding/internal/application/service"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// UploadVerifier checks signed upload tokens
type UploadVerifier interface {
	Verify(token, key, contentType string) error
}

// Authenticator resolves a bearer token to the calling user
type Authenticator interface {
	Parse(token string) (entity.Actor, error)
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxUploadBytes int64
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:           "0.0.0.0",
		Port:           8080,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxUploadBytes: 10 << 20,
	}
}

// Dependencies are the application services the routes call into
type Dependencies struct {
	Onboarding service.OnboardingService
	Merchants  service.MerchantService
	Leads      service.LeadService
	Uploads    service.UploadService
	Board      *review.Board
	Objects    port.ObjectStore
	Verifier   UploadVerifier
	Auth       Authenticator
	// Limiter throttles presign and upload routes; nil disables throttling
	Limiter port.RateLimiter
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	deps       Dependencies
	logger     Logger
}

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, deps Dependencies, logger Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultServerConfig().MaxUploadBytes
	}

	server := &Server{
		config: config,
		router: gin.New(),
		deps:   deps,
		logger: logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(corsMiddleware())
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	h := NewHandlers(s.deps, s.config.MaxUploadBytes, s.logger)
	throttle := s.rateLimitMiddleware()

	s.router.GET("/health", h.HealthCheck)

	// Signed upload targets authenticate by token, not bearer
	uploads := s.router.Group(UploadRoutePrefix)
	{
		uploads.PUT("/*key", throttle, h.PutObject)
		uploads.GET("/*key", h.GetObject)
	}

	api := s.router.Group("/api", s.authMiddleware())
	{
		sessions := api.Group("/onboarding/sessions")
		sessions.POST("", h.StartSession)
		sessions.POST("/resume/:merchantId", h.ResumeSession)
		sessions.GET("/:id", h.GetSession)
		sessions.PATCH("/:id/draft", h.UpdateDraft)
		sessions.POST("/:id/next", h.NextStep)
		sessions.POST("/:id/back", h.PreviousStep)
		sessions.POST("/:id/submit", h.Submit)
		sessions.POST("/:id/reset", h.ResetSession)
		sessions.POST("/:id/documents/:field", throttle, h.UploadDocument)
		sessions.DELETE("/:id", h.EndSession)

		merchants := api.Group("/merchants")
		merchants.GET("", h.ListMerchants)
		merchants.GET("/export", h.ExportMerchants)
		merchants.GET("/:id", h.GetMerchant)
		merchants.PATCH("/:id", h.PatchMerchant)
		merchants.DELETE("/:id", h.DeleteMerchant)
		merchants.GET("/:id/status-options", h.StatusOptions)
		merchants.POST("/:id/status", h.UpdateStatus)
		merchants.GET("/:id/history", h.StatusHistory)

		api.GET("/dashboard", h.Dashboard)
		api.POST("/uploads/presign", throttle, h.Presign)

		leads := api.Group("/leads")
		leads.GET("", h.ListLeads)
		leads.POST("", h.CreateLead)
		leads.GET("/:id", h.GetLead)
		leads.DELETE("/:id", h.DeleteLead)
		leads.POST("/:id/notes", h.AddLeadNote)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := s.Address()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
