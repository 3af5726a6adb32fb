package repository

import (
	"database/sql"
	"fmt"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

// SessionRepository handles database operations for sessions
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, vehicle_id, organization_id, user_id, session_date,
	start_time, end_time, status, provenance, sequence, created_at`

// GetByVehicleAndDate retrieves the session for a vehicle and calendar date.
// Returns nil when none exists.
func (r *SessionRepository) GetByVehicleAndDate(vehicleID, date string) (*models.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions
		WHERE vehicle_id = ? AND session_date = ?`

	var s models.Session
	err := r.db.QueryRow(query, vehicleID, date).Scan(
		&s.ID, &s.VehicleID, &s.OrganizationID, &s.UserID, &s.SessionDate,
		&s.StartTime, &s.EndTime, &s.Status, &s.Provenance, &s.Sequence, &s.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	return &s, nil
}

// Insert creates a session, tolerating a concurrent create of the same
// (vehicle, date). The UNIQUE constraint turns the race into a no-op insert;
// inserted reports whether this call created the row.
func (r *SessionRepository) Insert(s *models.Session) (id int64, inserted bool, err error) {
	query := `INSERT OR IGNORE INTO sessions
		(vehicle_id, organization_id, user_id, session_date, start_time, end_time, status, provenance, sequence)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.Exec(query,
		s.VehicleID, s.OrganizationID, s.UserID, s.SessionDate,
		s.StartTime, s.EndTime, s.Status, s.Provenance, s.Sequence,
	)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read insert result: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	id, err = result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read session id: %w", err)
	}
	return id, true, nil
}
