package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/merchant-onboarding/internal/application/port"
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

// LeadRepository stores leads and their notes in a map
type LeadRepository struct {
	mu    sync.RWMutex
	leads map[string]*entity.Lead
}

// NewLeadRepository creates an empty lead repository
func NewLeadRepository() *LeadRepository {
	return &LeadRepository{leads: make(map[string]*entity.Lead)}
}

func cloneLead(l *entity.Lead) *entity.Lead {
	if l == nil {
		return nil
	}
	c := *l
	c.Notes = append([]entity.Note{}, l.Notes...)
	return &c
}

// Create stores a new lead
func (r *LeadRepository) Create(ctx context.Context, lead *entity.Lead) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	now := time.Now()
	lead.CreatedAt = now
	lead.UpdatedAt = now
	r.leads[lead.ID] = cloneLead(lead)
	return nil
}

// GetByID returns a lead, or nil when missing
func (r *LeadRepository) GetByID(ctx context.Context, id string) (*entity.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneLead(r.leads[id]), nil
}

// List returns leads whose name, phone or company contain search, newest first
func (r *LeadRepository) List(ctx context.Context, search string) ([]*entity.Lead, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]*entity.Lead, 0, len(r.leads))
	for _, l := range r.leads {
		if term == "" ||
			strings.Contains(strings.ToLower(l.Name), term) ||
			strings.Contains(strings.ToLower(l.Phone), term) ||
			strings.Contains(strings.ToLower(l.CompanyName), term) {
			out = append(out, cloneLead(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Delete removes a lead and its notes
func (r *LeadRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.leads[id]; !ok {
		return port.ErrNotFound
	}
	delete(r.leads, id)
	return nil
}

// AddNote appends a note to a lead
func (r *LeadRepository) AddNote(ctx context.Context, leadID string, note *entity.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.leads[leadID]
	if !ok {
		return port.ErrNotFound
	}
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	l.Notes = append(l.Notes, *note)
	l.UpdatedAt = time.Now()
	return nil
}

var _ port.LeadRepository = (*LeadRepository)(nil)
