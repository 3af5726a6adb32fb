package database

import (
	"database/sql"
	"fmt"
)

// InitSchema creates the pipeline tables and indexes
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		organization_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'operator'
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		vehicle_id TEXT NOT NULL,
		organization_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		session_date TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME NOT NULL,
		status TEXT NOT NULL,
		provenance TEXT NOT NULL,
		sequence INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id),
		UNIQUE (vehicle_id, session_date)
	);

	CREATE TABLE IF NOT EXISTS stability_measurements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		order_index INTEGER NOT NULL,
		synthetic_time DATETIME NOT NULL,
		acc_x REAL NOT NULL, acc_y REAL NOT NULL, acc_z REAL NOT NULL,
		gyro_x REAL NOT NULL, gyro_y REAL NOT NULL, gyro_z REAL NOT NULL,
		roll REAL NOT NULL, pitch REAL NOT NULL, yaw REAL NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE TABLE IF NOT EXISTS can_measurements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		order_index INTEGER NOT NULL,
		synthetic_time DATETIME NOT NULL,
		frame_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE TABLE IF NOT EXISTS gps_measurements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		order_index INTEGER NOT NULL,
		synthetic_time DATETIME NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		altitude REAL NOT NULL,
		hdop REAL NOT NULL,
		fix_quality INTEGER NOT NULL,
		satellites INTEGER NOT NULL,
		speed_kmh REAL NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE TABLE IF NOT EXISTS rotary_measurements (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		order_index INTEGER NOT NULL,
		synthetic_time DATETIME NOT NULL,
		beacon_on INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE TABLE IF NOT EXISTS state_segments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id INTEGER NOT NULL,
		state TEXT NOT NULL,
		start_time DATETIME NOT NULL,
		end_time DATETIME NOT NULL,
		duration_seconds INTEGER NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_vehicle_date ON sessions(vehicle_id, session_date);
	CREATE INDEX IF NOT EXISTS idx_stability_session ON stability_measurements(session_id, order_index);
	CREATE INDEX IF NOT EXISTS idx_can_session ON can_measurements(session_id, order_index);
	CREATE INDEX IF NOT EXISTS idx_gps_session ON gps_measurements(session_id, order_index);
	CREATE INDEX IF NOT EXISTS idx_rotary_session ON rotary_measurements(session_id, order_index);
	CREATE INDEX IF NOT EXISTS idx_segments_session ON state_segments(session_id, start_time);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
