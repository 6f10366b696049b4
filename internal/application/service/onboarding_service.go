package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/garyjia/merchant-onboarding/internal/application/dispatcher"
	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	"github.com/garyjia/merchant-onboarding/internal/domain/event"
	"github.com/garyjia/merchant-onboarding/internal/domain/onboarding"
)

// DraftUpdate carries operator edits to a session draft
type DraftUpdate struct {
	BusinessEntityType *string
	Sections           map[entity.Section]entity.Fields
}

// DocumentUpload is one KYC file to store and reference from the draft
type DocumentUpload struct {
	Field       string
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// OnboardingService drives the merchant onboarding wizard
type OnboardingService interface {
	StartSession(ctx context.Context) (*onboarding.Snapshot, error)
	ResumeSession(ctx context.Context, merchantID string) (*onboarding.Snapshot, error)
	GetSession(ctx context.Context, sessionID string) (*onboarding.Snapshot, error)
	UpdateDraft(ctx context.Context, sessionID string, update DraftUpdate) (*onboarding.Snapshot, error)
	// Next validates and persists the current step, then advances
	Next(ctx context.Context, sessionID string) (*onboarding.Snapshot, error)
	Back(ctx context.Context, sessionID string) (*onboarding.Snapshot, error)
	// Submit persists the whole draft from the final step and ends the session
	Submit(ctx context.Context, sessionID string) (*entity.Merchant, error)
	Reset(ctx context.Context, sessionID string) (*onboarding.Snapshot, error)
	UploadDocument(ctx context.Context, sessionID string, upload DocumentUpload) (*onboarding.Snapshot, error)
	EndSession(ctx context.Context, sessionID string) error
}

type onboardingServiceImpl struct {
	merchantRepo port.MerchantRepository
	sessions     port.SessionStore
	uploads      UploadService
	transport    port.UploadTransport
	dispatcher   dispatcher.Dispatcher
	policy       onboarding.ResumePolicy
	logger       Logger
}

// NewOnboardingService creates a new OnboardingService. dispatcher may be nil.
func NewOnboardingService(
	merchantRepo port.MerchantRepository,
	sessions port.SessionStore,
	uploads UploadService,
	transport port.UploadTransport,
	dispatcher dispatcher.Dispatcher,
	policy onboarding.ResumePolicy,
	logger Logger,
) OnboardingService {
	return &onboardingServiceImpl{
		merchantRepo: merchantRepo,
		sessions:     sessions,
		uploads:      uploads,
		transport:    transport,
		dispatcher:   dispatcher,
		policy:       policy,
		logger:       logger,
	}
}

// StartSession creates an empty wizard session
func (s *onboardingServiceImpl) StartSession(ctx context.Context) (*onboarding.Snapshot, error) {
	session := onboarding.NewSession(uuid.NewString())
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("Onboarding session started", "session_id", session.ID)
	snap := session.Snapshot()
	return &snap, nil
}

// ResumeSession opens a session over an existing merchant record
func (s *onboardingServiceImpl) ResumeSession(ctx context.Context, merchantID string) (*onboarding.Snapshot, error) {
	merchant, err := s.merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		return nil, persistence("get", err)
	}
	if merchant == nil {
		return nil, fmt.Errorf("merchant %s: %w", merchantID, port.ErrNotFound)
	}

	session := onboarding.NewSession(uuid.NewString())
	session.LoadExistingRecord(merchant, s.policy)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.Info("Onboarding session resumed",
		"session_id", session.ID,
		"merchant_id", merchantID,
		"step", session.CurrentStep,
	)
	snap := session.Snapshot()
	return &snap, nil
}

// GetSession returns the current session state
func (s *onboardingServiceImpl) GetSession(ctx context.Context, sessionID string) (*onboarding.Snapshot, error) {
	return s.withSnapshot(ctx, sessionID, func(*onboarding.Session) error { return nil })
}

// UpdateDraft applies sanitized field edits. Any section may be edited at any step.
func (s *onboardingServiceImpl) UpdateDraft(ctx context.Context, sessionID string, update DraftUpdate) (*onboarding.Snapshot, error) {
	for section := range update.Sections {
		if !section.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSection, section)
		}
	}

	return s.withSnapshot(ctx, sessionID, func(session *onboarding.Session) error {
		if update.BusinessEntityType != nil {
			session.SetBusinessEntityType(strings.TrimSpace(*update.BusinessEntityType))
		}
		for _, section := range entity.Sections {
			for field, value := range update.Sections[section] {
				session.SetField(section, field, value)
			}
		}
		return nil
	})
}

// Next runs the step commit: validate the current step, create or patch the
// record, then advance. Nothing moves on failure.
func (s *onboardingServiceImpl) Next(ctx context.Context, sessionID string) (*onboarding.Snapshot, error) {
	return s.withSnapshot(ctx, sessionID, func(session *onboarding.Session) error {
		step := session.Step()
		if step.IsLast() {
			return ErrFinalStep
		}
		if err := onboarding.Validate(step, session.Draft); err != nil {
			return err
		}
		if err := s.commitStep(ctx, session, step); err != nil {
			return err
		}
		session.Advance()
		return nil
	})
}

func (s *onboardingServiceImpl) commitStep(ctx context.Context, session *onboarding.Session, step onboarding.StepKind) error {
	if step == onboarding.StepEntityType && !session.HasMerchant() {
		return s.createRecord(ctx, session)
	}
	if !session.HasMerchant() {
		return ErrMerchantNotBound
	}

	if _, err := s.merchantRepo.Patch(ctx, session.MerchantID, step.OwnedPatch(session.Draft)); err != nil {
		s.logger.Error("Failed to commit step",
			"session_id", session.ID,
			"merchant_id", session.MerchantID,
			"step", step.String(),
			"error", err,
		)
		return persistence("patch", err)
	}

	s.logger.Info("Step committed", "merchant_id", session.MerchantID, "step", step.String())
	s.emit(ctx, event.TypeStepCommitted, session.MerchantID, map[string]interface{}{
		"step":       step.Index(),
		"session_id": session.ID,
	})
	return nil
}

func (s *onboardingServiceImpl) createRecord(ctx context.Context, session *onboarding.Session) error {
	merchant := &entity.Merchant{
		Draft:  entity.Draft{BusinessEntityType: session.Draft.BusinessEntityType},
		Status: entity.StatusPending,
	}
	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		s.logger.Error("Failed to create merchant", "session_id", session.ID, "error", err)
		return persistence("create", err)
	}
	if err := session.BindMerchant(merchant.ID); err != nil {
		return err
	}

	s.logger.Info("Merchant created", "merchant_id", merchant.ID, "session_id", session.ID)
	s.emit(ctx, event.TypeMerchantCreated, merchant.ID, map[string]interface{}{
		"business_entity_type": merchant.BusinessEntityType,
		"session_id":           session.ID,
	})
	return nil
}

// Back moves one step backward without persisting
func (s *onboardingServiceImpl) Back(ctx context.Context, sessionID string) (*onboarding.Snapshot, error) {
	return s.withSnapshot(ctx, sessionID, func(session *onboarding.Session) error {
		session.Back()
		return nil
	})
}

// Submit re-validates the final step, then writes every section in one patch.
// Earlier steps are not re-checked.
func (s *onboardingServiceImpl) Submit(ctx context.Context, sessionID string) (*entity.Merchant, error) {
	var submitted *entity.Merchant

	err := s.sessions.WithSession(ctx, sessionID, func(session *onboarding.Session) error {
		step := session.Step()
		if !step.IsLast() {
			return ErrNotAtFinalStep
		}
		if err := onboarding.Validate(step, session.Draft); err != nil {
			return err
		}
		if !session.HasMerchant() {
			return ErrMerchantNotBound
		}

		merchant, err := s.merchantRepo.Patch(ctx, session.MerchantID, entity.NewDraftPatch(session.Draft))
		if err != nil {
			s.logger.Error("Failed to submit application",
				"session_id", session.ID,
				"merchant_id", session.MerchantID,
				"error", err,
			)
			return persistence("patch", err)
		}
		submitted = merchant
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		s.logger.Error("Failed to end submitted session", "session_id", sessionID, "error", err)
	}

	s.logger.Info("Application submitted", "merchant_id", submitted.ID)
	s.emit(ctx, event.TypeMerchantSubmitted, submitted.ID, map[string]interface{}{
		"status": submitted.Status.String(),
	})
	return submitted, nil
}

// Reset restores the empty form and unbinds the merchant record
func (s *onboardingServiceImpl) Reset(ctx context.Context, sessionID string) (*onboarding.Snapshot, error) {
	return s.withSnapshot(ctx, sessionID, func(session *onboarding.Session) error {
		session.Reset()
		return nil
	})
}

// UploadDocument stores a KYC file and merges its URL into the draft once the
// upload has fully completed.
func (s *onboardingServiceImpl) UploadDocument(ctx context.Context, sessionID string, upload DocumentUpload) (*onboarding.Snapshot, error) {
	if !onboarding.IsDocumentField(upload.Field) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDocumentField, upload.Field)
	}

	var (
		prefix     string
		merchantID string
		generation uint64
	)
	if err := s.sessions.WithSession(ctx, sessionID, func(session *onboarding.Session) error {
		prefix = "merchant-uploads/" + session.ID
		if session.HasMerchant() {
			prefix = "merchant-uploads/" + session.MerchantID
		}
		merchantID = session.MerchantID
		generation = session.Generation
		return nil
	}); err != nil {
		return nil, err
	}

	target, err := s.uploads.Presign(ctx, port.PresignRequest{
		FileName: upload.FileName,
		FileType: upload.ContentType,
		Prefix:   prefix,
	})
	if err != nil {
		return nil, &UploadError{Field: upload.Field, Err: err}
	}

	if err := s.transport.Put(ctx, target.UploadURL, upload.ContentType, upload.Body, upload.Size); err != nil {
		s.logger.Error("Document upload failed", "session_id", sessionID, "field", upload.Field, "error", err)
		return nil, &UploadError{Field: upload.Field, Err: err}
	}

	snap, err := s.withSnapshot(ctx, sessionID, func(session *onboarding.Session) error {
		if session.Generation != generation || session.MerchantID != merchantID {
			return &UploadError{Field: upload.Field, Err: ErrUploadSuperseded}
		}
		session.SetField(entity.SectionKYCDocs, upload.Field, target.URL)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Document uploaded", "session_id", sessionID, "field", upload.Field, "key", target.Key)
	s.emit(ctx, event.TypeDocumentUploaded, snap.MerchantID, map[string]interface{}{
		"field": upload.Field,
		"key":   target.Key,
	})
	return snap, nil
}

// EndSession discards a session
func (s *onboardingServiceImpl) EndSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.logger.Info("Onboarding session ended", "session_id", sessionID)
	return nil
}

func (s *onboardingServiceImpl) withSnapshot(ctx context.Context, sessionID string, fn func(*onboarding.Session) error) (*onboarding.Snapshot, error) {
	var snap onboarding.Snapshot
	err := s.sessions.WithSession(ctx, sessionID, func(session *onboarding.Session) error {
		if err := fn(session); err != nil {
			return err
		}
		snap = session.Snapshot()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

func (s *onboardingServiceImpl) emit(ctx context.Context, eventType event.Type, aggregateID string, payload map[string]interface{}) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.DispatchAsync(ctx, event.NewEvent(eventType, aggregateID, payload))
}
