package entity

import "time"

// Lead is an inbound sales lead tracked by staff
type Lead struct {
	ID               string    `json:"_id"`
	Name             string    `json:"name"`
	NatureOfBusiness string    `json:"natureOfBusiness"`
	Phone            string    `json:"phone"`
	CompanyName      string    `json:"companyName"`
	Date             string    `json:"date"`
	Notes            []Note    `json:"notes"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Note is an append-only comment on a lead
type Note struct {
	ID        string    `json:"_id"`
	Text      string    `json:"text"`
	UserID    string    `json:"userId"`
	UserEmail string    `json:"userEmail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
