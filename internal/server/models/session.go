package models

import "time"

// Session records one successful login.
type Session struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"-"`
	Device    string    `json:"device"`
	IP        string    `json:"ip"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}
