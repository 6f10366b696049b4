// Package onboarding models the seven-step merchant onboarding wizard: the
// step kinds, their required-field schema and the session that carries a
// draft across steps.
package onboarding

import (
	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

// StepKind tags one of the seven wizard steps
type StepKind int

const (
	StepEntityType StepKind = iota
	StepBusiness
	StepPersonal
	StepProduct
	StepBank
	StepVPA
	StepKYCDocuments
)

// StepCount is the number of wizard steps
const StepCount = 7

// FirstStep and LastStep bound the step pointer
const (
	FirstStep = 0
	LastStep  = StepCount - 1
)

var stepTitles = [StepCount]string{
	"Business Entity Type",
	"Business Information",
	"Personal Information",
	"Product Information",
	"Bank Information",
	"VPA",
	"KYC Documents",
}

// StepForIndex maps a step index to its kind
func StepForIndex(i int) (StepKind, bool) {
	if i < FirstStep || i > LastStep {
		return 0, false
	}
	return StepKind(i), true
}

// Index returns the zero-based step index
func (k StepKind) Index() int {
	return int(k)
}

// String returns the step title
func (k StepKind) String() string {
	if k < 0 || int(k) >= StepCount {
		return "Unknown"
	}
	return stepTitles[k]
}

// Section returns the draft section owned by the step. The entity-type step
// owns the top-level businessEntityType value instead and reports false.
func (k StepKind) Section() (entity.Section, bool) {
	switch k {
	case StepBusiness:
		return entity.SectionBusiness, true
	case StepPersonal:
		return entity.SectionPersonal, true
	case StepProduct:
		return entity.SectionProduct, true
	case StepBank:
		return entity.SectionBank, true
	case StepVPA:
		return entity.SectionVPA, true
	case StepKYCDocuments:
		return entity.SectionKYCDocs, true
	}
	return "", false
}

// IsLast reports whether the step is the final (submit) step
func (k StepKind) IsLast() bool {
	return int(k) == LastStep
}

// OwnedPatch returns the patch that persists only what this step owns
func (k StepKind) OwnedPatch(d entity.Draft) entity.MerchantPatch {
	if section, ok := k.Section(); ok {
		return entity.NewSectionPatch(section, d.Section(section))
	}
	return entity.NewEntityTypePatch(d.BusinessEntityType)
}

// ClampStep bounds n to the valid step range
func ClampStep(n int) int {
	if n < FirstStep {
		return FirstStep
	}
	if n > LastStep {
		return LastStep
	}
	return n
}
