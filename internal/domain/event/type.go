package event

// Type identifies the type of domain event
type Type string

const (
	TypeMerchantCreated   Type = "merchant.created"
	TypeStepCommitted     Type = "merchant.step_committed"
	TypeMerchantSubmitted Type = "merchant.submitted"
	TypeMerchantPatched   Type = "merchant.patched"
	TypeStatusChanged     Type = "merchant.status_changed"
	TypeDocumentUploaded  Type = "merchant.document_uploaded"
	TypeLeadNoteAdded     Type = "lead.note_added"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeMerchantCreated,
		TypeStepCommitted,
		TypeMerchantSubmitted,
		TypeMerchantPatched,
		TypeStatusChanged,
		TypeDocumentUploaded,
		TypeLeadNoteAdded:
		return true
	default:
		return false
	}
}
