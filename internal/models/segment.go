package models

import "time"

// StateSegment is a maximal run of samples sharing one operational-state code.
// For a session the segment list is contiguous, ordered, non-overlapping and
// no two adjacent segments carry the same state.
type StateSegment struct {
	ID              int64     `json:"id" db:"id"`
	SessionID       int64     `json:"sessionId" db:"session_id"`
	State           string    `json:"state" db:"state"`
	StartTime       time.Time `json:"startTime" db:"start_time"`
	EndTime         time.Time `json:"endTime" db:"end_time"`
	DurationSeconds int64     `json:"durationSeconds" db:"duration_seconds"`
}

// Operational-state constants
const (
	StateWorkshop    = "WORKSHOP"
	StatePark        = "PARK"
	StateOutbound    = "OUTBOUND"
	StateOnScene     = "ON_SCENE"
	StateWithdrawing = "WITHDRAWING"
	StateReturning   = "RETURNING"
)
