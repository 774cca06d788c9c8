package models

import "time"

// Notification is a broadcast announcement. Rows are never updated.
type Notification struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
