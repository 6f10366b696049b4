package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/merchant-onboarding/internal/application/dispatcher"
	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	"github.com/garyjia/merchant-onboarding/internal/domain/event"
)

// LeadInput holds the editable fields of a lead
type LeadInput struct {
	Name             string `json:"name"`
	NatureOfBusiness string `json:"natureOfBusiness"`
	Phone            string `json:"phone"`
	CompanyName      string `json:"companyName"`
	Date             string `json:"date"`
}

// LeadService manages inbound leads and their notes
type LeadService interface {
	Create(ctx context.Context, input LeadInput) (*entity.Lead, error)
	Get(ctx context.Context, id string) (*entity.Lead, error)
	List(ctx context.Context, search string) ([]*entity.Lead, error)
	Delete(ctx context.Context, id string) error
	// AddNote appends a note attributed to actor
	AddNote(ctx context.Context, leadID, text string, actor entity.Actor) (*entity.Lead, error)
}

type leadServiceImpl struct {
	leadRepo   port.LeadRepository
	dispatcher dispatcher.Dispatcher
	logger     Logger
}

// NewLeadService creates a new LeadService. dispatcher may be nil.
func NewLeadService(leadRepo port.LeadRepository, dispatcher dispatcher.Dispatcher, logger Logger) LeadService {
	return &leadServiceImpl{
		leadRepo:   leadRepo,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Create stores a new lead
func (s *leadServiceImpl) Create(ctx context.Context, input LeadInput) (*entity.Lead, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, ErrInvalidLead
	}

	lead := &entity.Lead{
		Name:             name,
		NatureOfBusiness: strings.TrimSpace(input.NatureOfBusiness),
		Phone:            strings.TrimSpace(input.Phone),
		CompanyName:      strings.TrimSpace(input.CompanyName),
		Date:             strings.TrimSpace(input.Date),
		Notes:            []entity.Note{},
	}
	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, persistence("create", err)
	}

	s.logger.Info("Lead created", "lead_id", lead.ID)
	return lead, nil
}

// Get returns one lead with its notes
func (s *leadServiceImpl) Get(ctx context.Context, id string) (*entity.Lead, error) {
	lead, err := s.leadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistence("get", err)
	}
	if lead == nil {
		return nil, fmt.Errorf("lead %s: %w", id, port.ErrNotFound)
	}
	return lead, nil
}

// List returns leads matching search, newest first
func (s *leadServiceImpl) List(ctx context.Context, search string) ([]*entity.Lead, error) {
	leads, err := s.leadRepo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, persistence("list", err)
	}
	return leads, nil
}

// Delete removes a lead and its notes
func (s *leadServiceImpl) Delete(ctx context.Context, id string) error {
	if err := s.leadRepo.Delete(ctx, id); err != nil {
		return persistence("delete", err)
	}
	s.logger.Info("Lead deleted", "lead_id", id)
	return nil
}

// AddNote appends a note and returns the updated lead
func (s *leadServiceImpl) AddNote(ctx context.Context, leadID, text string, actor entity.Actor) (*entity.Lead, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyNote
	}

	note := &entity.Note{
		Text:      text,
		UserID:    actor.UserID,
		UserEmail: actor.Email,
		CreatedAt: time.Now(),
	}
	if err := s.leadRepo.AddNote(ctx, leadID, note); err != nil {
		return nil, persistence("add note", err)
	}

	s.logger.Info("Lead note added", "lead_id", leadID, "user_id", actor.UserID)
	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(ctx, event.NewEvent(event.TypeLeadNoteAdded, leadID, map[string]interface{}{
			"note_id": note.ID,
			"user_id": actor.UserID,
		}))
	}
	return s.Get(ctx, leadID)
}
