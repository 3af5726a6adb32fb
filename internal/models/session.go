package models

import "time"

// Session is the one-per-vehicle-per-day container for a day's measurements
type Session struct {
	ID             int64     `json:"id" db:"id"`
	VehicleID      string    `json:"vehicleId" db:"vehicle_id"`
	OrganizationID int64     `json:"organizationId" db:"organization_id"`
	UserID         int64     `json:"userId" db:"user_id"`
	SessionDate    string    `json:"sessionDate" db:"session_date"` // Format: 2006-01-02
	StartTime      time.Time `json:"startTime" db:"start_time"`     // Nominal day anchor, not sensor-derived
	EndTime        time.Time `json:"endTime" db:"end_time"`
	Status         string    `json:"status" db:"status"`
	Provenance     string    `json:"provenance" db:"provenance"` // Pipeline run UUID that created the session
	Sequence       int       `json:"sequence" db:"sequence"`     // Always 1: one session per day
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

// SessionStatusOpen is the status sessions are created with. The pipeline
// never mutates a session after creation.
const SessionStatusOpen = "OPEN"

// User represents an organization member able to own sessions
type User struct {
	ID             int64  `json:"id" db:"id"`
	OrganizationID int64  `json:"organizationId" db:"organization_id"`
	Name           string `json:"name" db:"name"`
	Role           string `json:"role" db:"role"`
}
