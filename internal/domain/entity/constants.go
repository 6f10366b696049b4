package entity

// Status is the review-workflow stage of a merchant record.
type Status string

// Merchant status constants
const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
	StatusOnboarded  Status = "onboarded"
)

// AllStatuses lists every merchant status in display order.
var AllStatuses = []Status{
	StatusPending,
	StatusProcessing,
	StatusApproved,
	StatusRejected,
	StatusOnboarded,
}

// IsValid returns true if the status is one of the five merchant statuses
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusApproved, StatusRejected, StatusOnboarded:
		return true
	default:
		return false
	}
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}

// ParseStatus converts a query value into a Status. Invalid or empty input yields ok=false.
func ParseStatus(raw string) (Status, bool) {
	s := Status(raw)
	if !s.IsValid() {
		return "", false
	}
	return s, true
}

// Business entity types (step 0)
const (
	EntitySoleProprietary = "sole_proprietary"
	EntityPartnership     = "partnership"
	EntityPublicLimited   = "public_limited"
	EntityPrivateLimited  = "private_limited"
)

// Personal KYC document types
const (
	KYCDocPassport       = "passport"
	KYCDocDrivingLicense = "driving_license"
	KYCDocAadhar         = "aadhar"
	KYCDocVoterID        = "voter_id"
)

// Bank account types
const (
	AccountTypeSavings = "savings"
	AccountTypeCurrent = "current"
)

// ITR filed answers
const (
	ITRFiledYes = "YES"
	ITRFiledNo  = "NO"
)

// Platform product defaults. Displayed read-only in the wizard.
const (
	DefaultProductType = "UPI"
	DefaultMaxDaily    = "500000"
	DefaultMinPerTxn   = "1"
	DefaultMaxPerTxn   = "100000"
	DefaultCreditLimit = "15000000"
)

// VPAHandleSuffix is the bank handle suffix shown beside the VPA input.
const VPAHandleSuffix = "@nsdlpbma"
