package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/application/service"
	"github.com/garyjia/merchant-onboarding/internal/domain/onboarding"
	domainwf "github.com/garyjia/merchant-onboarding/internal/domain/workflow"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	deps           Dependencies
	maxUploadBytes int64
	logger         Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies, maxUploadBytes int64, logger Logger) *Handlers {
	return &Handlers{
		deps:           deps,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

func ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, Response{
		Success: true,
		Data:    data,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   message,
	})
}

// badRequestErrors are caller mistakes reported verbatim with 400
var badRequestErrors = []error{
	service.ErrFinalStep,
	service.ErrNotAtFinalStep,
	service.ErrUnknownSection,
	service.ErrInvalidDocumentField,
	service.ErrInvalidPresign,
	service.ErrEmptyPatch,
	service.ErrInvalidLead,
	service.ErrEmptyNote,
	service.ErrMerchantNotBound,
	onboarding.ErrInvalidStep,
	domainwf.ErrInvalidState,
}

// errorStatus maps an application error to its HTTP status and client message
func errorStatus(err error) (int, string) {
	var validationErr *onboarding.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Message
	}
	if errors.Is(err, port.ErrNotFound) || errors.Is(err, port.ErrSessionNotFound) {
		return http.StatusNotFound, err.Error()
	}
	if errors.Is(err, domainwf.ErrInvalidTransition) || errors.Is(err, service.ErrUploadSuperseded) {
		return http.StatusConflict, err.Error()
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, err.Error()
		}
	}

	var uploadErr *service.UploadError
	var persistenceErr *service.PersistenceError
	if errors.As(err, &uploadErr) || errors.As(err, &persistenceErr) {
		return http.StatusInternalServerError, err.Error()
	}
	return http.StatusInternalServerError, "internal server error"
}

// fail writes err as an error envelope
func (h *Handlers) fail(c *gin.Context, op string, err error) {
	status, message := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", "op", op, "error", err)
	}
	c.JSON(status, Response{
		Success: false,
		Error:   message,
	})
}
