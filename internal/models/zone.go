package models

// Zone shape constants
const (
	ZoneShapePoint   = "POINT"
	ZoneShapeCircle  = "CIRCLE"
	ZoneShapePolygon = "POLYGON"
)

// Zone tag constants (role of the zone)
const (
	ZoneTagStation  = "STATION"
	ZoneTagWorkshop = "WORKSHOP"
)

// ZonePoint is one polygon vertex
type ZonePoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Zone is a named geofenced area fetched from the remote directory.
// Point and circle shapes use Center/RadiusMeters; polygon shapes use Points.
type Zone struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Tag          string      `json:"tag"`
	Shape        string      `json:"shape"`
	Center       ZonePoint   `json:"center"`
	RadiusMeters float64     `json:"radiusMeters"`
	Points       []ZonePoint `json:"points,omitempty"`
}
