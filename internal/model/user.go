package model

import "time"

// Provider identifies how a user signed in.
type Provider string

const (
	ProviderGoogle    Provider = "google"
	ProviderAnonymous Provider = "anonymous"
)

// User is an authenticated identity that owns books.
type User struct {
	ID          string    `json:"id"`
	Provider    Provider  `json:"provider"`
	Subject     string    `json:"-"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
