package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
)

// HTTPTransport performs direct uploads to presigned URLs
type HTTPTransport struct {
	client *http.Client
	logger *zap.Logger
}

// NewHTTPTransport creates a transport with the given request timeout
func NewHTTPTransport(timeout time.Duration, logger *zap.Logger) *HTTPTransport {
	return &HTTPTransport{
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Put implements port.UploadTransport
func (t *HTTPTransport) Put(ctx context.Context, uploadURL, contentType string, body io.Reader, size int64) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, body)
	if err != nil {
		return fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if size > 0 {
		req.ContentLength = size
	}

	resp, err := t.client.Do(req)
	if err != nil {
		t.logger.Error("Upload request failed", zap.Error(err))
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

// Verify interface compliance
var _ port.UploadTransport = (*HTTPTransport)(nil)
