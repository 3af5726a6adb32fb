package repository

import (
	"database/sql"
	"fmt"

	"github.com/fleetwatch/fleet-ingest-go/internal/database"
	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

// SegmentRepository handles database operations for state segments
type SegmentRepository struct {
	db *sql.DB
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(db *sql.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

// ReplaceForSession deletes a session's existing segments and inserts the
// new list in one transaction. The derivation is idempotent: its output is
// fully replaced, never merged.
func (r *SegmentRepository) ReplaceForSession(sessionID int64, segments []models.StateSegment) error {
	return database.Transaction(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM state_segments WHERE session_id = ?", sessionID); err != nil {
			return fmt.Errorf("failed to clear segments: %w", err)
		}

		if len(segments) == 0 {
			return nil
		}

		stmt, err := tx.Prepare(`INSERT INTO state_segments
			(session_id, state, start_time, end_time, duration_seconds)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, s := range segments {
			_, err := stmt.Exec(sessionID, s.State, s.StartTime, s.EndTime, s.DurationSeconds)
			if err != nil {
				return fmt.Errorf("failed to insert segment %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetBySession retrieves a session's segments ordered by start time
func (r *SegmentRepository) GetBySession(sessionID int64) ([]models.StateSegment, error) {
	query := `SELECT id, session_id, state, start_time, end_time, duration_seconds
		FROM state_segments WHERE session_id = ? ORDER BY start_time`

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var segments []models.StateSegment
	for rows.Next() {
		var s models.StateSegment
		if err := rows.Scan(&s.ID, &s.SessionID, &s.State, &s.StartTime, &s.EndTime, &s.DurationSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		segments = append(segments, s)
	}

	return segments, rows.Err()
}
