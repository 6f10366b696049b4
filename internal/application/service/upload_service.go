package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
)

// UploadService issues direct-upload URLs for merchant documents
type UploadService interface {
	Presign(ctx context.Context, req port.PresignRequest) (*port.PresignedUpload, error)
}

type uploadServiceImpl struct {
	presigner port.UploadPresigner
	logger    Logger
}

// NewUploadService creates a new UploadService
func NewUploadService(presigner port.UploadPresigner, logger Logger) UploadService {
	return &uploadServiceImpl{
		presigner: presigner,
		logger:    logger,
	}
}

// Presign validates the request and asks the presigner for an upload target
func (s *uploadServiceImpl) Presign(ctx context.Context, req port.PresignRequest) (*port.PresignedUpload, error) {
	req.FileName = strings.TrimSpace(req.FileName)
	req.FileType = strings.TrimSpace(req.FileType)
	req.Prefix = strings.Trim(strings.TrimSpace(req.Prefix), "/")
	if req.FileName == "" || req.FileType == "" {
		return nil, ErrInvalidPresign
	}

	upload, err := s.presigner.Presign(ctx, req)
	if err != nil {
		s.logger.Error("Failed to presign upload", "file_name", req.FileName, "error", err)
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}

	s.logger.Info("Upload presigned", "key", upload.Key, "file_type", req.FileType)
	return upload, nil
}
