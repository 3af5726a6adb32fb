package parser

import (
	"strconv"
	"strings"
	"time"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

const (
	gpsMinFields = 7
	gpsNoData    = "NO DATA"
)

// ParseGPS parses a GPS dump: two header lines, then comma-separated rows of
// latitude,longitude,altitude,hdop,fix,satellites,speed. Rows containing the
// receiver's no-data sentinel or coordinates outside [-90,90]/[-180,180]
// are dropped.
func ParseGPS(content []byte, base time.Time) ([]models.GPSMeasurement, error) {
	lines, err := bodyLines(content, gpsHeaderLines)
	if err != nil {
		return nil, err
	}

	var records []models.GPSMeasurement
	for _, line := range lines {
		if strings.Contains(line, gpsNoData) {
			continue
		}

		fields := strings.Split(strings.TrimSpace(line), ",")
		if len(fields) < gpsMinFields {
			continue
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			continue
		}
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			continue
		}

		alt, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			continue
		}
		hdop, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil {
			continue
		}
		fix, err := strconv.Atoi(strings.TrimSpace(fields[4]))
		if err != nil {
			continue
		}
		sats, err := strconv.Atoi(strings.TrimSpace(fields[5]))
		if err != nil {
			continue
		}
		speed, err := strconv.ParseFloat(strings.TrimSpace(fields[6]), 64)
		if err != nil {
			continue
		}

		idx := len(records)
		records = append(records, models.GPSMeasurement{
			OrderIndex:    idx,
			SyntheticTime: base.Add(time.Duration(idx) * GPSStep),
			Latitude:      lat,
			Longitude:     lon,
			Altitude:      alt,
			HDOP:          hdop,
			FixQuality:    fix,
			Satellites:    sats,
			SpeedKmh:      speed,
		})
	}

	return records, nil
}
