package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/garyjia/merchant-onboarding/internal/domain/entity"
)

func TestPredicates(t *testing.T) {
	tests := []struct {
		name  string
		pred  Predicate
		value string
		want  bool
	}{
		{"mobile ok", IsMobile, "9876543210", true},
		{"mobile leading 5", IsMobile, "5876543210", false},
		{"mobile short", IsMobile, "987654321", false},
		{"pin ok", IsPinCode, "560001", true},
		{"pin letters", IsPinCode, "56000A", false},
		{"mcc ok", IsMCC, "5411", true},
		{"mcc long", IsMCC, "54111", false},
		{"year ok", IsEstablishmentYear, "1999", true},
		{"year 2000s", IsEstablishmentYear, "2024", true},
		{"year 1800s", IsEstablishmentYear, "1899", false},
		{"pan ok", IsPAN, "ABCDE1234F", true},
		{"pan lower", IsPAN, "abcde1234f", false},
		{"gstin ok", IsGSTIN, "27ABCDE1234F1Z5", true},
		{"gstin missing Z", IsGSTIN, "27ABCDE1234F1X5", false},
		{"gstin zero entity digit", IsGSTIN, "27ABCDE1234F0Z5", false},
		{"ifsc ok", IsIFSC, "HDFC0001234", true},
		{"ifsc fifth not zero", IsIFSC, "HDFC1001234", false},
		{"account 9 digits", IsAccountNumber, "123456789", true},
		{"account 18 digits", IsAccountNumber, "123456789012345678", true},
		{"account 8 digits", IsAccountNumber, "12345678", false},
		{"turnover integer", IsTurnoverAmount, "1500000", true},
		{"turnover two decimals", IsTurnoverAmount, "1500000.50", true},
		{"turnover three decimals", IsTurnoverAmount, "1.505", false},
		{"turnover trailing dot", IsTurnoverAmount, "15.", false},
		{"email ok", IsEmail, "ops@example.com", true},
		{"email missing domain", IsEmail, "ops@", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred(tt.value))
		})
	}
}

func TestIsFlagged(t *testing.T) {
	assert.False(t, IsFlagged(entity.SectionBusiness, "pan", ""), "empty is never flagged")
	assert.True(t, IsFlagged(entity.SectionBusiness, "pan", "ABC"))
	assert.False(t, IsFlagged(entity.SectionBusiness, "pan", "ABCDE1234F"))
	assert.False(t, IsFlagged(entity.SectionBusiness, "storeName", "anything"), "fields without a predicate pass")
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		section entity.Section
		field   string
		in      string
		want    string
	}{
		{entity.SectionPersonal, "mobile", "98abc76543", "9876543"},
		{entity.SectionBusiness, "registeredMobile", "+91 98765-43210", "919876543210"},
		{entity.SectionBusiness, "turnoverAmount", "1,50,000.75 INR", "150000.75"},
		{entity.SectionBusiness, "pan", "abcde1234f", "ABCDE1234F"},
		{entity.SectionBusiness, "gstin", "27abcde1234f1z5", "27ABCDE1234F1Z5"},
		{entity.SectionBank, "ifsc", "hdfc0001234", "HDFC0001234"},
		{entity.SectionBank, "accountNumber", "1234 5678 9012", "123456789012"},
		{entity.SectionBusiness, "legalName", "Acme  Pvt Ltd", "Acme  Pvt Ltd"},
	}

	for _, tt := range tests {
		t.Run(string(tt.section)+"."+tt.field, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.section, tt.field, tt.in))
		})
	}
}

func TestReport(t *testing.T) {
	d := entity.NewDraft()
	d.Business["pan"] = "BAD"
	d.Business["gstin"] = ""
	d.Personal["mobile"] = "9876543210"
	d.Bank["ifsc"] = "NOPE"

	issues := Report(d)

	assert.Equal(t, []FieldIssue{
		{Section: entity.SectionBusiness, Field: "pan", Value: "BAD"},
		{Section: entity.SectionBank, Field: "ifsc", Value: "NOPE"},
	}, issues)
}
