package http

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

const actorKey = "actor"

var errUnauthenticated = errors.New("authentication required")

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		s.logger.Info("HTTP request",
			"method", method,
			"path", path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
		)
	}
}

// corsMiddleware adds CORS headers for the browser dashboard
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, Retry-After")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// authMiddleware requires a valid bearer token and stores the caller's actor
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.deps.Auth == nil {
			c.Set(actorKey, entity.SystemActor)
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abort(c, http.StatusUnauthorized, errUnauthenticated.Error())
			return
		}

		actor, err := s.deps.Auth.Parse(strings.TrimSpace(token))
		if err != nil {
			abort(c, http.StatusUnauthorized, err.Error())
			return
		}

		c.Set(actorKey, actor)
		c.Next()
	}
}

// rateLimitMiddleware throttles per caller and route
func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.deps.Limiter == nil {
			c.Next()
			return
		}

		caller := c.ClientIP()
		if actor, ok := actorFrom(c); ok && actor.UserID != entity.SystemActor.UserID {
			caller = actor.UserID
		}
		key := fmt.Sprintf("%s:%s", c.FullPath(), caller)

		allowed, retryAfter, err := s.deps.Limiter.Allow(c.Request.Context(), key)
		if err != nil {
			// Fail open when the limiter backend is unavailable
			s.logger.Error("Rate limiter unavailable", "error", err, "key", key)
			c.Next()
			return
		}
		if !allowed {
			if retryAfter > 0 {
				c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			}
			abort(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		c.Next()
	}
}

func actorFrom(c *gin.Context) (entity.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return entity.Actor{}, false
	}
	actor, ok := v.(entity.Actor)
	return actor, ok
}

// currentActor returns the authenticated caller or the system actor
func currentActor(c *gin.Context) entity.Actor {
	if actor, ok := actorFrom(c); ok {
		return actor
	}
	return entity.SystemActor
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Response{
		Success: false,
		Error:   message,
	})
}
