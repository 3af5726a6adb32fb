package parser

import (
	"strings"
	"time"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

const rotaryMinFields = 2

// ParseRotary parses a rotary-beacon dump: two header lines, then
// whitespace-separated rows whose last field is the beacon state (1/0 or
// ON/OFF).
func ParseRotary(content []byte, base time.Time) ([]models.RotaryMeasurement, error) {
	lines, err := bodyLines(content, rotaryHeaderLines)
	if err != nil {
		return nil, err
	}

	var records []models.RotaryMeasurement
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < rotaryMinFields {
			continue
		}

		state, ok := parseBeaconState(fields[len(fields)-1])
		if !ok {
			continue
		}

		idx := len(records)
		records = append(records, models.RotaryMeasurement{
			OrderIndex:    idx,
			SyntheticTime: base.Add(time.Duration(idx) * RotaryStep),
			BeaconOn:      state,
		})
	}

	return records, nil
}

func parseBeaconState(field string) (bool, bool) {
	switch strings.ToUpper(field) {
	case "1", "ON":
		return true, true
	case "0", "OFF":
		return false, true
	}
	return false, false
}
