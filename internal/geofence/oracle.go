package geofence

import (
	"context"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

// ZoneOracle answers "which known zone, if any, contains this point".
// Two implementations exist: the remote zone directory and a local
// distance-to-center fallback with lower shape fidelity.
type ZoneOracle interface {
	Locate(ctx context.Context, lat, lon float64) (*models.Zone, error)
}

// RemoteOracle resolves membership against the cached remote zone list
type RemoteOracle struct {
	client *Client
}

// NewRemoteOracle creates a remote-backed oracle
func NewRemoteOracle(client *Client) *RemoteOracle {
	return &RemoteOracle{client: client}
}

// Locate tests the point against every known zone shape
func (o *RemoteOracle) Locate(ctx context.Context, lat, lon float64) (*models.Zone, error) {
	zones, err := o.client.GetZones(ctx, false)
	if err != nil {
		return nil, err
	}

	for i := range zones {
		if ZoneContains(&zones[i], lat, lon) {
			return &zones[i], nil
		}
	}
	return nil, nil
}

// LocalOracle resolves membership by haversine distance to configured zone
// centers with a fixed radius. No polygon support.
type LocalOracle struct {
	zones  []models.Zone
	radius float64
}

// NewLocalOracle creates a local-distance oracle over the given zone centers
func NewLocalOracle(zones []models.Zone, radiusMeters float64) *LocalOracle {
	return &LocalOracle{zones: zones, radius: radiusMeters}
}

// Locate returns the first zone whose center is within the fixed radius
func (o *LocalOracle) Locate(_ context.Context, lat, lon float64) (*models.Zone, error) {
	for i := range o.zones {
		if HaversineDistance(o.zones[i].Center.Lat, o.zones[i].Center.Lon, lat, lon) <= o.radius {
			return &o.zones[i], nil
		}
	}
	return nil, nil
}

// FallbackOracle tries the primary oracle and degrades to the fallback when
// the primary fails (unavailable or unconfigured provider)
type FallbackOracle struct {
	primary  ZoneOracle
	fallback ZoneOracle
}

// NewFallbackOracle chains two oracles
func NewFallbackOracle(primary, fallback ZoneOracle) *FallbackOracle {
	return &FallbackOracle{primary: primary, fallback: fallback}
}

// Locate resolves via the primary oracle, falling back on any provider error
func (o *FallbackOracle) Locate(ctx context.Context, lat, lon float64) (*models.Zone, error) {
	zone, err := o.primary.Locate(ctx, lat, lon)
	if err == nil {
		return zone, nil
	}
	return o.fallback.Locate(ctx, lat, lon)
}
