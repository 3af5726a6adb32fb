package models

import "time"

// StabilityMeasurement is one decoded IMU sample (accelerations, gyro rates, orientation)
type StabilityMeasurement struct {
	ID            int64     `json:"id" db:"id"`
	SessionID     int64     `json:"sessionId" db:"session_id"`
	OrderIndex    int       `json:"orderIndex" db:"order_index"`
	SyntheticTime time.Time `json:"syntheticTime" db:"synthetic_time"` // Assigned, order-preserving; not a device clock
	AccX          float64   `json:"accX" db:"acc_x"`
	AccY          float64   `json:"accY" db:"acc_y"`
	AccZ          float64   `json:"accZ" db:"acc_z"`
	GyroX         float64   `json:"gyroX" db:"gyro_x"`
	GyroY         float64   `json:"gyroY" db:"gyro_y"`
	GyroZ         float64   `json:"gyroZ" db:"gyro_z"`
	Roll          float64   `json:"roll" db:"roll"`
	Pitch         float64   `json:"pitch" db:"pitch"`
	Yaw           float64   `json:"yaw" db:"yaw"`
}

// CANMeasurement is one raw CAN bus frame
type CANMeasurement struct {
	ID            int64     `json:"id" db:"id"`
	SessionID     int64     `json:"sessionId" db:"session_id"`
	OrderIndex    int       `json:"orderIndex" db:"order_index"`
	SyntheticTime time.Time `json:"syntheticTime" db:"synthetic_time"`
	FrameID       string    `json:"frameId" db:"frame_id"`
	Payload       string    `json:"payload" db:"payload"`
}

// GPSMeasurement is one range-validated GPS fix
type GPSMeasurement struct {
	ID            int64     `json:"id" db:"id"`
	SessionID     int64     `json:"sessionId" db:"session_id"`
	OrderIndex    int       `json:"orderIndex" db:"order_index"`
	SyntheticTime time.Time `json:"syntheticTime" db:"synthetic_time"`
	Latitude      float64   `json:"latitude" db:"latitude"`
	Longitude     float64   `json:"longitude" db:"longitude"`
	Altitude      float64   `json:"altitude" db:"altitude"`
	HDOP          float64   `json:"hdop" db:"hdop"`
	FixQuality    int       `json:"fixQuality" db:"fix_quality"`
	Satellites    int       `json:"satellites" db:"satellites"`
	SpeedKmh      float64   `json:"speedKmh" db:"speed_kmh"`
}

// RotaryMeasurement is one rotary-beacon state sample
type RotaryMeasurement struct {
	ID            int64     `json:"id" db:"id"`
	SessionID     int64     `json:"sessionId" db:"session_id"`
	OrderIndex    int       `json:"orderIndex" db:"order_index"`
	SyntheticTime time.Time `json:"syntheticTime" db:"synthetic_time"`
	BeaconOn      bool      `json:"beaconOn" db:"beacon_on"`
}
