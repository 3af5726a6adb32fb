// Package classifier derives the operational-state timeline of a session
// from its GPS and rotary-beacon streams.
package classifier

import (
	"context"
	"fmt"

	"github.com/fleetwatch/fleet-ingest-go/internal/geofence"
	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

// Classifier assigns one of the six operational states to each GPS sample
// and collapses the per-sample classification into run-length segments.
type Classifier struct {
	oracle geofence.ZoneOracle
}

// New creates a classifier over the given zone-membership oracle
func New(oracle geofence.ZoneOracle) *Classifier {
	return &Classifier{oracle: oracle}
}

// Classify produces the session's segment list. GPS and rotary samples must
// be ordered by synthetic time. A session with zero GPS samples yields zero
// segments.
func (c *Classifier) Classify(ctx context.Context, gps []models.GPSMeasurement, rotary []models.RotaryMeasurement) ([]models.StateSegment, error) {
	if len(gps) == 0 {
		return nil, nil
	}

	states := make([]string, len(gps))

	// Reference point for direction resolution: the most recent position
	// seen inside a station zone, seeded with the first sample.
	refLat, refLon := gps[0].Latitude, gps[0].Longitude
	prevDist := 0.0

	rotaryIdx := 0
	for i := range gps {
		sample := &gps[i]

		beaconOn := false
		if len(rotary) > 0 {
			rotaryIdx = advanceNearest(rotary, rotaryIdx, sample.SyntheticTime.UnixMilli())
			beaconOn = rotary[rotaryIdx].BeaconOn
		}

		zone, err := c.oracle.Locate(ctx, sample.Latitude, sample.Longitude)
		if err != nil {
			return nil, fmt.Errorf("failed to locate sample %d: %w", i, err)
		}

		dist := geofence.HaversineDistance(refLat, refLon, sample.Latitude, sample.Longitude)
		states[i] = decide(zone, beaconOn, dist, prevDist)
		prevDist = dist

		if zone != nil && zone.Tag == models.ZoneTagStation {
			refLat, refLon = sample.Latitude, sample.Longitude
			prevDist = 0
		}
	}

	return runLengthEncode(gps, states), nil
}

// decide applies the state decision table for one sample.
// dist/prevDist are distances to the session's base reference point and
// resolve the travel direction when the beacon is on outside any zone.
func decide(zone *models.Zone, beaconOn bool, dist, prevDist float64) string {
	if zone != nil {
		if zone.Tag == models.ZoneTagWorkshop {
			return models.StateWorkshop
		}
		if beaconOn {
			return models.StateOutbound
		}
		return models.StatePark
	}

	if beaconOn {
		if dist >= prevDist {
			return models.StateOnScene
		}
		return models.StateReturning
	}

	return models.StateWithdrawing
}

// advanceNearest moves the rotary cursor to the sample nearest the given
// instant. Both streams are ordered, so the cursor only moves forward.
func advanceNearest(rotary []models.RotaryMeasurement, idx int, targetMilli int64) int {
	for idx+1 < len(rotary) {
		current := abs(rotary[idx].SyntheticTime.UnixMilli() - targetMilli)
		next := abs(rotary[idx+1].SyntheticTime.UnixMilli() - targetMilli)
		if next > current {
			break
		}
		idx++
	}
	return idx
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// runLengthEncode collapses the per-sample states into maximal contiguous
// segments. Adjacent segments never share a state, each segment ends where
// the next begins, and the list covers exactly the span between the first
// and last sample.
func runLengthEncode(gps []models.GPSMeasurement, states []string) []models.StateSegment {
	var segments []models.StateSegment

	start := 0
	for i := 1; i <= len(states); i++ {
		if i < len(states) && states[i] == states[start] {
			continue
		}

		startTime := gps[start].SyntheticTime
		endTime := gps[len(gps)-1].SyntheticTime
		if i < len(states) {
			endTime = gps[i].SyntheticTime
		}

		segments = append(segments, models.StateSegment{
			State:           states[start],
			StartTime:       startTime,
			EndTime:         endTime,
			DurationSeconds: int64(endTime.Sub(startTime).Seconds()),
		})
		start = i
	}

	return segments
}
