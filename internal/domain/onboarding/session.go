package onboarding

import (
	"errors"
	"time"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
	"github.com/garyjia/merchant-onboarding/internal/domain/validation"
)

// ErrMerchantAlreadyBound is returned when binding a second record to a session
var ErrMerchantAlreadyBound = errors.New("session already bound to a merchant")

// ResumePolicy decides where a session resumes when the loaded record
// already carries KYC documents.
type ResumePolicy int

const (
	// ResumeKYCResetsToStart sends a record with KYC documents back to step 0.
	ResumeKYCResetsToStart ResumePolicy = iota
	// ResumeKYCAtFinalStep resumes a record with KYC documents at the KYC step.
	ResumeKYCAtFinalStep
)

// Session holds one operator's in-progress wizard state. It is not safe for
// concurrent use; callers serialize access per session.
type Session struct {
	ID          string
	Draft       entity.Draft
	CurrentStep int
	MerchantID  string
	// Generation changes whenever the draft is replaced wholesale
	Generation uint64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewSession creates an empty session at step 0
func NewSession(id string) *Session {
	now := time.Now()
	return &Session{
		ID:        id,
		Draft:     entity.NewDraft(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Step returns the kind of the current step
func (s *Session) Step() StepKind {
	return StepKind(ClampStep(s.CurrentStep))
}

// HasMerchant reports whether a merchant record is bound
func (s *Session) HasMerchant() bool {
	return s.MerchantID != ""
}

// Update applies mutate to a copy of the draft and stores the result.
// No step or validation coupling.
func (s *Session) Update(mutate func(d *entity.Draft)) {
	next := s.Draft.Clone()
	mutate(&next)
	next.Normalize()
	s.Draft = next
	s.touch()
}

// SetField stores a sanitized value into one section field
func (s *Session) SetField(section entity.Section, field, value string) {
	clean := validation.Sanitize(section, field, value)
	s.Update(func(d *entity.Draft) {
		fields := d.Section(section)
		if fields == nil {
			return
		}
		fields[field] = clean
	})
}

// SetBusinessEntityType stores the step 0 selection
func (s *Session) SetBusinessEntityType(v string) {
	s.Update(func(d *entity.Draft) {
		d.BusinessEntityType = v
	})
}

// SetCurrentStep moves the pointer unconditionally, clamped to 0..6
func (s *Session) SetCurrentStep(n int) {
	s.CurrentStep = ClampStep(n)
	s.touch()
}

// Advance moves one step forward, stopping at the last step
func (s *Session) Advance() {
	s.SetCurrentStep(s.CurrentStep + 1)
}

// Back moves one step backward without persisting anything
func (s *Session) Back() {
	s.SetCurrentStep(s.CurrentStep - 1)
}

// BindMerchant records the identity of the backing merchant record. Once set
// it is never cleared except by Reset.
func (s *Session) BindMerchant(id string) error {
	if s.MerchantID != "" && s.MerchantID != id {
		return ErrMerchantAlreadyBound
	}
	s.MerchantID = id
	s.touch()
	return nil
}

// LoadExistingRecord hydrates the draft from a persisted record and derives
// the step to resume at.
func (s *Session) LoadExistingRecord(m *entity.Merchant, policy ResumePolicy) {
	d := m.Draft.Clone()
	d.Normalize()
	if d.Product.IsEmpty() {
		d.Product = entity.DefaultProduct()
	}
	s.Draft = d
	s.MerchantID = m.ID
	s.CurrentStep = ResumeStep(m, policy)
	s.Generation++
	s.touch()
}

// Reset restores the initial empty state and unbinds the merchant record
func (s *Session) Reset() {
	s.Draft = entity.NewDraft()
	s.CurrentStep = FirstStep
	s.MerchantID = ""
	s.Generation++
	s.touch()
}

// ResumeStep scans the record sections in wizard order and returns the step
// after the last populated one. Populated KYC documents override the scan
// according to policy.
func ResumeStep(m *entity.Merchant, policy ResumePolicy) int {
	step := FirstStep
	if m.BusinessEntityType != "" {
		step = 1
	}
	checks := []entity.Fields{m.Business, m.Personal, m.Product, m.Bank, m.VPA}
	for i, f := range checks {
		if !f.IsEmpty() {
			step = i + 2
		}
	}
	if !m.KYCDocs.IsEmpty() {
		if policy == ResumeKYCAtFinalStep {
			return LastStep
		}
		return FirstStep
	}
	return ClampStep(step)
}

func (s *Session) touch() {
	s.UpdatedAt = time.Now()
}

// Snapshot is a read-only view of a session
type Snapshot struct {
	ID          string                  `json:"id"`
	MerchantID  string                  `json:"merchantId,omitempty"`
	CurrentStep int                     `json:"currentStep"`
	StepTitle   string                  `json:"stepTitle"`
	TotalSteps  int                     `json:"totalSteps"`
	Draft       entity.Draft            `json:"draft"`
	Issues      []validation.FieldIssue `json:"issues,omitempty"`
	UpdatedAt   time.Time               `json:"updatedAt"`
}

// Snapshot copies the session state
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		ID:          s.ID,
		MerchantID:  s.MerchantID,
		CurrentStep: s.CurrentStep,
		StepTitle:   s.Step().String(),
		TotalSteps:  StepCount,
		Draft:       s.Draft.Clone(),
		Issues:      validation.Report(s.Draft),
		UpdatedAt:   s.UpdatedAt,
	}
}
