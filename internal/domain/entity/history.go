package entity

import "time"

// StatusHistory is one applied status transition of a merchant
type StatusHistory struct {
	ID             string    `json:"id"`
	MerchantID     string    `json:"merchantId"`
	PreviousStatus Status    `json:"previousStatus"`
	NewStatus      Status    `json:"newStatus"`
	ActorID        string    `json:"actorId"`
	ActorEmail     string    `json:"actorEmail,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Actor identifies the user behind an audited operation
type Actor struct {
	UserID string `json:"userId"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
}

// SystemActor is recorded when no authenticated user is attached
var SystemActor = Actor{UserID: "system"}
