package geofence

import (
	"github.com/golang/geo/s2"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

// EarthRadiusMeters is Earth's mean radius
const EarthRadiusMeters = 6371000.0

// Default containment radius for point-shaped zones without an explicit one
const defaultPointRadiusMeters = 150.0

// HaversineDistance calculates the great-circle distance between two points
// in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// ZoneContains tests whether the zone contains the point, honoring the
// zone's shape
func ZoneContains(zone *models.Zone, lat, lon float64) bool {
	switch zone.Shape {
	case models.ZoneShapePolygon:
		return pointInPolygon(lat, lon, zone.Points)
	case models.ZoneShapeCircle:
		return HaversineDistance(zone.Center.Lat, zone.Center.Lon, lat, lon) <= zone.RadiusMeters
	case models.ZoneShapePoint:
		radius := zone.RadiusMeters
		if radius <= 0 {
			radius = defaultPointRadiusMeters
		}
		return HaversineDistance(zone.Center.Lat, zone.Center.Lon, lat, lon) <= radius
	}
	return false
}

// pointInPolygon checks containment using ray casting
func pointInPolygon(lat, lon float64, polygon []models.ZonePoint) bool {
	if len(polygon) < 3 {
		return false
	}

	inside := false
	j := len(polygon) - 1

	for i := 0; i < len(polygon); i++ {
		if ((polygon[i].Lat > lat) != (polygon[j].Lat > lat)) &&
			(lon < (polygon[j].Lon-polygon[i].Lon)*(lat-polygon[i].Lat)/(polygon[j].Lat-polygon[i].Lat)+polygon[i].Lon) {
			inside = !inside
		}
		j = i
	}

	return inside
}
