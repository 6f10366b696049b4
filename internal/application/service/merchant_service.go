package service

import (
	"context"
	"fmt"
	"io"

	"github.com/garyjia/merchant-onboarding/internal/application/dispatcher"
	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	"github.com/garyjia/merchant-onboarding/internal/domain/event"
	"github.com/garyjia/merchant-onboarding/internal/domain/onboarding"
	"github.com/garyjia/merchant-onboarding/internal/domain/validation"
)

// DashboardStats summarizes merchants by review status
type DashboardStats struct {
	Total    int                   `json:"total"`
	ByStatus map[entity.Status]int `json:"byStatus"`
}

// MerchantDetail is a record with its advisory format issues and the first
// wizard step it does not satisfy
type MerchantDetail struct {
	*entity.Merchant
	Issues     []validation.FieldIssue `json:"issues,omitempty"`
	Incomplete string                  `json:"incomplete,omitempty"`
}

// MerchantService manages persisted merchant records outside the wizard
type MerchantService interface {
	Get(ctx context.Context, id string) (*MerchantDetail, error)
	List(ctx context.Context, filter entity.MerchantFilter) ([]*entity.Merchant, error)
	Patch(ctx context.Context, id string, patch entity.MerchantPatch) (*entity.Merchant, error)
	Delete(ctx context.Context, id string) error
	History(ctx context.Context, id string) ([]*entity.StatusHistory, error)
	DashboardStats(ctx context.Context) (*DashboardStats, error)
	Export(ctx context.Context, filter entity.MerchantFilter, w io.Writer) error
	// ExportFormat returns the content type and file extension Export writes
	ExportFormat() (contentType, extension string)
}

type merchantServiceImpl struct {
	merchantRepo port.MerchantRepository
	historyRepo  port.StatusHistoryRepository
	exporter     port.MerchantExporter
	dispatcher   dispatcher.Dispatcher
	logger       Logger
}

// NewMerchantService creates a new MerchantService. dispatcher may be nil.
func NewMerchantService(
	merchantRepo port.MerchantRepository,
	historyRepo port.StatusHistoryRepository,
	exporter port.MerchantExporter,
	dispatcher dispatcher.Dispatcher,
	logger Logger,
) MerchantService {
	return &merchantServiceImpl{
		merchantRepo: merchantRepo,
		historyRepo:  historyRepo,
		exporter:     exporter,
		dispatcher:   dispatcher,
		logger:       logger,
	}
}

func (s *merchantServiceImpl) load(ctx context.Context, id string) (*entity.Merchant, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistence("get", err)
	}
	if merchant == nil {
		return nil, fmt.Errorf("merchant %s: %w", id, port.ErrNotFound)
	}
	return merchant, nil
}

// Get returns one merchant with its field report
func (s *merchantServiceImpl) Get(ctx context.Context, id string) (*MerchantDetail, error) {
	merchant, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &MerchantDetail{
		Merchant: merchant,
		Issues:   validation.Report(merchant.Draft),
	}
	if err := onboarding.ValidateAll(merchant.Draft); err != nil {
		detail.Incomplete = err.Error()
	}
	return detail, nil
}

// List returns merchants matching filter, newest first
func (s *merchantServiceImpl) List(ctx context.Context, filter entity.MerchantFilter) ([]*entity.Merchant, error) {
	merchants, err := s.merchantRepo.List(ctx, filter)
	if err != nil {
		return nil, persistence("list", err)
	}
	return merchants, nil
}

// Patch applies a shallow top-level update
func (s *merchantServiceImpl) Patch(ctx context.Context, id string, patch entity.MerchantPatch) (*entity.Merchant, error) {
	if patch.IsEmpty() {
		return nil, ErrEmptyPatch
	}
	for section := range patch.Sections {
		if !section.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
		}
	}

	merchant, err := s.merchantRepo.Patch(ctx, id, patch)
	if err != nil {
		return nil, persistence("patch", err)
	}

	sections := make([]string, 0, len(patch.Sections))
	for _, section := range entity.Sections {
		if _, ok := patch.Sections[section]; ok {
			sections = append(sections, string(section))
		}
	}
	s.logger.Info("Merchant patched", "merchant_id", id, "sections", sections)
	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeMerchantPatched, id, map[string]interface{}{
			"sections": sections,
		}))
	}
	return merchant, nil
}

// Delete removes a merchant record
func (s *merchantServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.merchantRepo.Delete(ctx, id); err != nil {
		return persistence("delete", err)
	}
	s.logger.Info("Merchant deleted", "merchant_id", id)
	return nil
}

// History returns the status transitions of a merchant, oldest first
func (s *merchantServiceImpl) History(ctx context.Context, id string) ([]*entity.StatusHistory, error) {
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}
	history, err := s.historyRepo.GetByMerchantID(ctx, id)
	if err != nil {
		return nil, persistence("history", err)
	}
	return history, nil
}

// DashboardStats counts merchants per status. Every status is present.
func (s *merchantServiceImpl) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	counts, err := s.merchantRepo.CountByStatus(ctx)
	if err != nil {
		return nil, persistence("count", err)
	}

	stats := &DashboardStats{ByStatus: make(map[entity.Status]int, len(entity.AllStatuses))}
	for _, status := range entity.AllStatuses {
		stats.ByStatus[status] = counts[status]
		stats.Total += counts[status]
	}
	return stats, nil
}

// Export writes the filtered listing through the configured exporter
func (s *merchantServiceImpl) Export(ctx context.Context, filter entity.MerchantFilter, w io.Writer) error {
	merchants, err := s.List(ctx, filter)
	if err != nil {
		return err
	}
	if err := s.exporter.Export(ctx, merchants, w); err != nil {
		s.logger.Error("Failed to export merchants", "count", len(merchants), "error", err)
		return fmt.Errorf("failed to export merchants: %w", err)
	}
	s.logger.Info("Merchants exported", "count", len(merchants))
	return nil
}

// ExportFormat implements MerchantService
func (s *merchantServiceImpl) ExportFormat() (string, string) {
	return s.exporter.ContentType(), s.exporter.FileExtension()
}
