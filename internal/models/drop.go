package models

import "time"

// Drop is a sender's public share page. A user owns at most one.
type Drop struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	GenericMessage string    `json:"generic_message"`
	CreatedAt      time.Time `json:"created_at"`
}

// PublicDrop is the only drop projection served to anonymous visitors.
type PublicDrop struct {
	Username       string    `json:"username"`
	GenericMessage string    `json:"genericMessage"`
	MessageCount   int       `json:"messageCount"`
	CreatedAt      time.Time `json:"createdAt"`
}
