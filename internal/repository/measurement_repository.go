package repository

import (
	"database/sql"
	"fmt"

	"github.com/fleetwatch/fleet-ingest-go/internal/database"
	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

// MeasurementRepository handles append-only bulk inserts into the four
// measurement tables. Rows are written once per parsed file and never
// updated; ordering within a session is carried by order_index.
type MeasurementRepository struct {
	db *sql.DB
}

// NewMeasurementRepository creates a new measurement repository
func NewMeasurementRepository(db *sql.DB) *MeasurementRepository {
	return &MeasurementRepository{db: db}
}

// InsertStabilityBatch writes one file's stability records in a single
// transaction
func (r *MeasurementRepository) InsertStabilityBatch(sessionID int64, records []models.StabilityMeasurement) error {
	if len(records) == 0 {
		return nil
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO stability_measurements
			(session_id, order_index, synthetic_time, acc_x, acc_y, acc_z, gyro_x, gyro_y, gyro_z, roll, pitch, yaw)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, m := range records {
			_, err := stmt.Exec(sessionID, m.OrderIndex, m.SyntheticTime,
				m.AccX, m.AccY, m.AccZ, m.GyroX, m.GyroY, m.GyroZ, m.Roll, m.Pitch, m.Yaw)
			if err != nil {
				return fmt.Errorf("failed to insert stability record %d: %w", m.OrderIndex, err)
			}
		}
		return nil
	})
}

// InsertCANBatch writes one file's CAN frames in a single transaction
func (r *MeasurementRepository) InsertCANBatch(sessionID int64, records []models.CANMeasurement) error {
	if len(records) == 0 {
		return nil
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO can_measurements
			(session_id, order_index, synthetic_time, frame_id, payload)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, m := range records {
			_, err := stmt.Exec(sessionID, m.OrderIndex, m.SyntheticTime, m.FrameID, m.Payload)
			if err != nil {
				return fmt.Errorf("failed to insert CAN record %d: %w", m.OrderIndex, err)
			}
		}
		return nil
	})
}

// InsertGPSBatch writes one file's GPS fixes in a single transaction
func (r *MeasurementRepository) InsertGPSBatch(sessionID int64, records []models.GPSMeasurement) error {
	if len(records) == 0 {
		return nil
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO gps_measurements
			(session_id, order_index, synthetic_time, latitude, longitude, altitude, hdop, fix_quality, satellites, speed_kmh)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, m := range records {
			_, err := stmt.Exec(sessionID, m.OrderIndex, m.SyntheticTime,
				m.Latitude, m.Longitude, m.Altitude, m.HDOP, m.FixQuality, m.Satellites, m.SpeedKmh)
			if err != nil {
				return fmt.Errorf("failed to insert GPS record %d: %w", m.OrderIndex, err)
			}
		}
		return nil
	})
}

// InsertRotaryBatch writes one file's rotary samples in a single transaction
func (r *MeasurementRepository) InsertRotaryBatch(sessionID int64, records []models.RotaryMeasurement) error {
	if len(records) == 0 {
		return nil
	}

	return database.Transaction(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(`INSERT INTO rotary_measurements
			(session_id, order_index, synthetic_time, beacon_on)
			VALUES (?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, m := range records {
			_, err := stmt.Exec(sessionID, m.OrderIndex, m.SyntheticTime, m.BeaconOn)
			if err != nil {
				return fmt.Errorf("failed to insert rotary record %d: %w", m.OrderIndex, err)
			}
		}
		return nil
	})
}

// CountBySession returns the per-table row counts for a session
func (r *MeasurementRepository) CountBySession(sessionID int64) (map[string]int64, error) {
	counts := make(map[string]int64)
	tables := []string{"stability_measurements", "can_measurements", "gps_measurements", "rotary_measurements"}

	for _, table := range tables {
		var n int64
		err := r.db.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE session_id = ?", sessionID).Scan(&n)
		if err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", table, err)
		}
		counts[table] = n
	}

	return counts, nil
}
