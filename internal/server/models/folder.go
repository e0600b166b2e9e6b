package models

import "time"

type Folder struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	LastUpdated time.Time `json:"lastUpdated"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
