package workflow

// Trigger represents an event that can cause a state transition
type Trigger string

const (
	TriggerStartProcessing Trigger = "START_PROCESSING"
	TriggerApprove         Trigger = "APPROVE"
	TriggerReject          Trigger = "REJECT"
	TriggerOnboard         Trigger = "ONBOARD"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// TriggerFor returns the trigger that moves a record into the target state
func TriggerFor(target State) (Trigger, bool) {
	switch target {
	case StateProcessing:
		return TriggerStartProcessing, true
	case StateApproved:
		return TriggerApprove, true
	case StateRejected:
		return TriggerReject, true
	case StateOnboarded:
		return TriggerOnboard, true
	}
	return "", false
}
