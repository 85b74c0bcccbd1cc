package models

import (
	"time"

	"github.com/google/uuid"
)

// Lead is a contact form submission from a prospective client.
type Lead struct {
	ID               uuid.UUID  `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Phone            *string    `json:"phone,omitempty"`
	PropertyInterest *string    `json:"property_interest,omitempty"`
	Message          *string    `json:"message,omitempty"`
	NotifiedAt       *time.Time `json:"notified_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// Notified reports whether the thank-you email went out.
func (l *Lead) Notified() bool {
	return l.NotifiedAt != nil
}
