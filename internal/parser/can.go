package parser

import (
	"strings"
	"time"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

const canMinFields = 2

// ParseCAN parses a CAN bus dump: one header line, then whitespace-separated
// rows of frame id followed by payload bytes.
func ParseCAN(content []byte, base time.Time) ([]models.CANMeasurement, error) {
	lines, err := bodyLines(content, canHeaderLines)
	if err != nil {
		return nil, err
	}

	var records []models.CANMeasurement
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < canMinFields {
			continue
		}

		idx := len(records)
		records = append(records, models.CANMeasurement{
			OrderIndex:    idx,
			SyntheticTime: base.Add(time.Duration(idx) * CANStep),
			FrameID:       fields[0],
			Payload:       strings.Join(fields[1:], " "),
		})
	}

	return records, nil
}
