package models

import "time"

// View is one successful unlock of a message.
type View struct {
	ID        string    `json:"id,omitempty"`
	MessageID string    `json:"message_id"`
	Nickname  string    `json:"nickname"`
	ViewedAt  time.Time `json:"viewed_at"`
}

// Totals counts rows per table for the heartbeat log.
type Totals struct {
	Users    int
	Drops    int
	Messages int
	Views    int
}
