package state

import "time"

// State identifies a finite-state-machine step used in conversations.
type State string

const (
	// StateIdle indicates there is no active conversation with the user.
	StateIdle State = "idle"
)

// Session stores conversation state for a user.
type Session struct {
	State State `json:"state"`
	// PendingCategory is the category chosen in the add-product flow.
	PendingCategory string    `json:"pending_category,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Manager orchestrates user sessions and FSM state transitions.
type Manager interface {
	// Get returns a copy of the user's session or an idle one.
	Get(userID int64) Session
	Put(userID int64, s Session)
	GetState(userID int64) State
	Clear(userID int64)
	InProgress(userID int64) bool
	Len() int
}
