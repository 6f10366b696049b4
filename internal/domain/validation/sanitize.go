package validation

import (
	"regexp"
	"sort"
	"strings"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

var (
	nonDigitRegex   = regexp.MustCompile(`\D`)
	nonDecimalRegex = regexp.MustCompile(`[^0-9.]`)
)

// Sanitizer rewrites raw input before it is stored in the draft
type Sanitizer func(value string) string

// DigitsOnly strips every non-digit character
func DigitsOnly(v string) string { return nonDigitRegex.ReplaceAllString(v, "") }

// DecimalOnly strips everything except digits and dots
func DecimalOnly(v string) string { return nonDecimalRegex.ReplaceAllString(v, "") }

// Upper forces upper case
func Upper(v string) string { return strings.ToUpper(v) }

var sanitizers = map[fieldKey]Sanitizer{
	{entity.SectionBusiness, "pinCode"}:           DigitsOnly,
	{entity.SectionBusiness, "establishmentYear"}: DigitsOnly,
	{entity.SectionBusiness, "registeredMobile"}:  DigitsOnly,
	{entity.SectionBusiness, "mcc"}:               DigitsOnly,
	{entity.SectionBusiness, "turnoverAmount"}:    DecimalOnly,
	{entity.SectionBusiness, "pan"}:               Upper,
	{entity.SectionBusiness, "gstin"}:             Upper,
	{entity.SectionPersonal, "pinCode"}:           DigitsOnly,
	{entity.SectionPersonal, "mobile"}:            DigitsOnly,
	{entity.SectionPersonal, "pan"}:               Upper,
	{entity.SectionBank, "accountNumber"}:         DigitsOnly,
	{entity.SectionBank, "bankPinCode"}:           DigitsOnly,
	{entity.SectionBank, "ifsc"}:                  Upper,
}

// Sanitize applies the field's sanitizer; fields without one pass through unchanged
func Sanitize(section entity.Section, field, value string) string {
	if s, ok := sanitizers[fieldKey{section, field}]; ok {
		return s(value)
	}
	return value
}

func sortedKeys(f entity.Fields) []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
