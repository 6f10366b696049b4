// Package validation holds the format predicates and input sanitizers for
// merchant onboarding fields. Predicates are advisory: they flag a field but
// never block a step commit.
package validation

import (
	"regexp"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

var (
	mobileRegex        = regexp.MustCompile(`^[6-9][0-9]{9}$`)
	pinCodeRegex       = regexp.MustCompile(`^[0-9]{6}$`)
	mccRegex           = regexp.MustCompile(`^[0-9]{4}$`)
	yearRegex          = regexp.MustCompile(`^(19|20)[0-9]{2}$`)
	panRegex           = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]{1}$`)
	gstinRegex         = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[1-9A-Z]{1}Z[0-9A-Z]{1}$`)
	ifscRegex          = regexp.MustCompile(`^[A-Z]{4}0[0-9A-Z]{6}$`)
	accountNumberRegex = regexp.MustCompile(`^[0-9]{9,18}$`)
	turnoverRegex      = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)
	emailRegex         = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Predicate checks the format of a single field value
type Predicate func(value string) bool

// IsMobile validates a 10-digit Indian mobile number
func IsMobile(v string) bool { return mobileRegex.MatchString(v) }

// IsPinCode validates a 6-digit PIN code
func IsPinCode(v string) bool { return pinCodeRegex.MatchString(v) }

// IsMCC validates a 4-digit merchant category code
func IsMCC(v string) bool { return mccRegex.MatchString(v) }

// IsEstablishmentYear validates a year in 1900..2099
func IsEstablishmentYear(v string) bool { return yearRegex.MatchString(v) }

// IsPAN validates a permanent account number. Case-sensitive.
func IsPAN(v string) bool { return panRegex.MatchString(v) }

// IsGSTIN validates a GST identification number
func IsGSTIN(v string) bool { return gstinRegex.MatchString(v) }

// IsIFSC validates a bank branch IFSC code
func IsIFSC(v string) bool { return ifscRegex.MatchString(v) }

// IsAccountNumber validates a 9 to 18 digit bank account number
func IsAccountNumber(v string) bool { return accountNumberRegex.MatchString(v) }

// IsTurnoverAmount validates a decimal amount with at most two fraction digits
func IsTurnoverAmount(v string) bool { return turnoverRegex.MatchString(v) }

// IsEmail validates an email address
func IsEmail(v string) bool { return emailRegex.MatchString(v) }

// fieldKey addresses one field inside one section
type fieldKey struct {
	section entity.Section
	field   string
}

var predicates = map[fieldKey]Predicate{
	{entity.SectionBusiness, "pinCode"}:           IsPinCode,
	{entity.SectionBusiness, "establishmentYear"}: IsEstablishmentYear,
	{entity.SectionBusiness, "registeredMobile"}:  IsMobile,
	{entity.SectionBusiness, "registeredEmail"}:   IsEmail,
	{entity.SectionBusiness, "pan"}:               IsPAN,
	{entity.SectionBusiness, "turnoverAmount"}:    IsTurnoverAmount,
	{entity.SectionBusiness, "mcc"}:               IsMCC,
	{entity.SectionBusiness, "gstin"}:             IsGSTIN,
	{entity.SectionPersonal, "pinCode"}:           IsPinCode,
	{entity.SectionPersonal, "mobile"}:            IsMobile,
	{entity.SectionPersonal, "email"}:             IsEmail,
	{entity.SectionPersonal, "pan"}:               IsPAN,
	{entity.SectionBank, "accountNumber"}:         IsAccountNumber,
	{entity.SectionBank, "ifsc"}:                  IsIFSC,
	{entity.SectionBank, "bankPinCode"}:           IsPinCode,
}

// PredicateFor returns the format predicate of a field, if it has one
func PredicateFor(section entity.Section, field string) (Predicate, bool) {
	p, ok := predicates[fieldKey{section, field}]
	return p, ok
}

// IsFlagged reports whether a field should be shown as invalid: non-empty and
// failing its predicate. Empty values are never flagged.
func IsFlagged(section entity.Section, field, value string) bool {
	if value == "" {
		return false
	}
	p, ok := PredicateFor(section, field)
	if !ok {
		return false
	}
	return !p(value)
}

// FieldIssue is an advisory format problem on one field
type FieldIssue struct {
	Section entity.Section `json:"section"`
	Field   string         `json:"field"`
	Value   string         `json:"value"`
}

// Report lists every flagged field of the draft in section order
func Report(d entity.Draft) []FieldIssue {
	var issues []FieldIssue
	for _, s := range entity.Sections {
		fields := d.Section(s)
		for _, name := range sortedKeys(fields) {
			if IsFlagged(s, name, fields[name]) {
				issues = append(issues, FieldIssue{Section: s, Field: name, Value: fields[name]})
			}
		}
	}
	return issues
}
