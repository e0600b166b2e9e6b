package models

import "time"

// User is an account. PasswordHash is never serialized.
type User struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Photo        *string   `json:"photo,omitempty"`
	Verified     bool      `json:"verified"`
	Sessions     []Session `json:"sessions"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public subset returned for the logged-in user.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
