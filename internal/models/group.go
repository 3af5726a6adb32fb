package models

// Telemetry format constants, matching the per-format subdirectory names
const (
	FormatStability = "stability"
	FormatCAN       = "CAN"
	FormatGPS       = "GPS"
	FormatRotary    = "ROTATIVO"
)

// FileGroup holds the per-format file paths found for one vehicle and date.
// A group with no stability files is returned by the scanner but is not
// session-worthy.
type FileGroup struct {
	VehicleID string   `json:"vehicleId"`
	Date      string   `json:"date"` // Format: 20060102, as embedded in filenames
	Stability []string `json:"stability"`
	CAN       []string `json:"can"`
	GPS       []string `json:"gps"`
	Rotary    []string `json:"rotary"`
}

// FileCount returns the total number of files in the group
func (g *FileGroup) FileCount() int {
	return len(g.Stability) + len(g.CAN) + len(g.GPS) + len(g.Rotary)
}

// HasStability reports whether the group qualifies for session creation
func (g *FileGroup) HasStability() bool {
	return len(g.Stability) > 0
}

// Key returns the vehicle+date identity of the group
func (g *FileGroup) Key() string {
	return g.VehicleID + "/" + g.Date
}

// AllPaths returns every file path in the group
func (g *FileGroup) AllPaths() []string {
	paths := make([]string, 0, g.FileCount())
	paths = append(paths, g.Stability...)
	paths = append(paths, g.CAN...)
	paths = append(paths, g.GPS...)
	paths = append(paths, g.Rotary...)
	return paths
}

// Filter returns a copy of the group containing only the paths the keep
// predicate accepts
func (g *FileGroup) Filter(keep func(string) bool) FileGroup {
	filtered := FileGroup{VehicleID: g.VehicleID, Date: g.Date}
	for _, p := range g.Stability {
		if keep(p) {
			filtered.Stability = append(filtered.Stability, p)
		}
	}
	for _, p := range g.CAN {
		if keep(p) {
			filtered.CAN = append(filtered.CAN, p)
		}
	}
	for _, p := range g.GPS {
		if keep(p) {
			filtered.GPS = append(filtered.GPS, p)
		}
	}
	for _, p := range g.Rotary {
		if keep(p) {
			filtered.Rotary = append(filtered.Rotary, p)
		}
	}
	return filtered
}
