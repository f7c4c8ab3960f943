package models

import "time"

// SessionStatus is the lifecycle state of a training session row.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// Session is a row of the sessions table: one training-session recording
// tied to a user and a linked device.
//
// Invariant: for a given user, at most one row with status "active" may
// exist at any time. EndTime is set only when the session completes.
type Session struct {
	ID          string        `json:"id"`
	UserID      string        `json:"user_id"`
	DeviceID    string        `json:"device_id"`
	SessionType string        `json:"session_type"`
	StartTime   time.Time     `json:"start_time"`
	EndTime     *time.Time    `json:"end_time,omitempty"`
	Status      SessionStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at,omitzero"`
	UpdatedAt   time.Time     `json:"updated_at,omitzero"`
}

// Active reports whether the session is still recording.
func (s *Session) Active() bool {
	return s.Status == SessionStatusActive
}
