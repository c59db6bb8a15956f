package models

import "time"

// Message is a nickname-keyed secret inside a drop.
type Message struct {
	ID           string    `json:"id"`
	DropID       string    `json:"drop_id"`
	Nickname     string    `json:"nickname"`
	Question     string    `json:"question"`
	Hint         *string   `json:"hint"`
	PasscodeHash string    `json:"-"` // Never expose this to the client
	Content      string    `json:"content"`
	CreatedAt    time.Time `json:"created_at"`
	ViewCount    int       `json:"view_count"`
}

// NewMessage holds the sender-supplied fields for a message.
type NewMessage struct {
	Nickname string `json:"nickname"`
	Question string `json:"question"`
	Hint     string `json:"hint"`
	Passcode string `json:"passcode"`
	Content  string `json:"content"`
}

// UnlockStage is where a visitor stands in the unlock flow.
type UnlockStage int

const (
	AwaitingNickname UnlockStage = iota
	AwaitingPasscode
	Resolved
)

func (s UnlockStage) String() string {
	switch s {
	case AwaitingNickname:
		return "awaiting_nickname"
	case AwaitingPasscode:
		return "awaiting_passcode"
	case Resolved:
		return "resolved"
	}
	return "unknown"
}

// UnlockResult is the outcome of a nickname + passcode check. Content is nil
// unless the passcode matched.
type UnlockResult struct {
	Found    bool        `json:"found"`
	Question string      `json:"question"`
	Hint     *string     `json:"hint"`
	Content  *string     `json:"content"`
	Stage    UnlockStage `json:"-"`
}
