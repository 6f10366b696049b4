package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestType_IsValid(t *testing.T) {
	tests := []struct {
		name      string
		eventType Type
		want      bool
	}{
		{"merchant created", TypeMerchantCreated, true},
		{"step committed", TypeStepCommitted, true},
		{"status changed", TypeStatusChanged, true},
		{"lead note", TypeLeadNoteAdded, true},
		{"unknown", Type("instance.created"), false},
		{"empty", Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.eventType.IsValid(); got != tt.want {
				t.Errorf("Type.IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewEvent(t *testing.T) {
	evt := NewEvent(TypeStatusChanged, "m-1", map[string]interface{}{"to": "approved"})

	require.NotEmpty(t, evt.ID)
	assert.Equal(t, evt.ID, evt.CorrelationID)
	assert.Equal(t, "m-1", evt.AggregateID)
	assert.False(t, evt.Timestamp.IsZero())
	assert.Equal(t, "merchant.status_changed", evt.RoutingKey())

	other := NewEvent(TypeStatusChanged, "m-1", nil)
	assert.NotEqual(t, evt.ID, other.ID)
}

func TestNewEventWithCorrelation(t *testing.T) {
	evt := NewEventWithCorrelation(TypeStepCommitted, "m-1", nil, "corr-1")
	assert.Equal(t, "corr-1", evt.CorrelationID)
	assert.NotEqual(t, "corr-1", evt.ID)
}

func TestEvent_WithPayloadIsImmutable(t *testing.T) {
	original := NewEvent(TypeStepCommitted, "m-1", map[string]interface{}{"step": 1})

	updated := original.WithPayload("section", "business")

	assert.Len(t, original.Payload, 1)
	assert.Len(t, updated.Payload, 2)
	assert.Equal(t, original.ID, updated.ID)
	assert.Equal(t, "business", updated.GetPayloadString("section"))
	assert.Equal(t, int64(1), updated.GetPayloadInt("step"))
}

func TestEvent_PayloadGettersDefault(t *testing.T) {
	evt := NewEvent(TypeMerchantCreated, "m-1", map[string]interface{}{"n": "not a number"})

	assert.Equal(t, "", evt.GetPayloadString("missing"))
	assert.Equal(t, int64(0), evt.GetPayloadInt("n"))
}
