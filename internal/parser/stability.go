package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

const stabilityMinFields = 9

// ParseStability parses a stability/IMU dump: two header lines, then
// semicolon-separated rows of accX;accY;accZ;gyroX;gyroY;gyroZ;roll;pitch;yaw.
// Malformed rows are skipped.
func ParseStability(content []byte, base time.Time) ([]models.StabilityMeasurement, error) {
	lines, err := bodyLines(content, stabilityHeaderLines)
	if err != nil {
		return nil, err
	}

	var records []models.StabilityMeasurement
	for _, line := range lines {
		fields := strings.Split(strings.TrimSpace(line), ";")
		if len(fields) < stabilityMinFields {
			continue
		}

		values := make([]float64, stabilityMinFields)
		ok := true
		for i := 0; i < stabilityMinFields; i++ {
			values[i], err = strconv.ParseFloat(strings.TrimSpace(fields[i]), 64)
			if err != nil {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}

		idx := len(records)
		records = append(records, models.StabilityMeasurement{
			OrderIndex:    idx,
			SyntheticTime: base.Add(time.Duration(idx) * StabilityStep),
			AccX:          values[0],
			AccY:          values[1],
			AccZ:          values[2],
			GyroX:         values[3],
			GyroY:         values[4],
			GyroZ:         values[5],
			Roll:          values[6],
			Pitch:         values[7],
			Yaw:           values[8],
		})
	}

	return records, nil
}
