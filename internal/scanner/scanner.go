package scanner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
)

// Telemetry dumps land in <root>/<vehicleID>/<format>/*.txt with an 8-digit
// YYYYMMDD token embedded in each filename.
const fileExtension = ".txt"

var dateToken = regexp.MustCompile(`\d{8}`)

// Scanner walks a telemetry drop directory and buckets files into
// per-vehicle, per-date groups. An unreadable vehicle or format directory
// is logged and skipped; it never fails the scan.
type Scanner struct {
	root   string
	logger *zap.Logger
}

// New creates a scanner over the given drop root
func New(root string, logger *zap.Logger) *Scanner {
	return &Scanner{root: root, logger: logger}
}

// Root returns the current drop root
func (s *Scanner) Root() string {
	return s.root
}

// SetRoot changes the drop root for subsequent scans
func (s *Scanner) SetRoot(root string) {
	s.root = root
}

// Scan lists vehicle directories under the root and groups each one's files.
// Groups are ordered by vehicle then date.
func (s *Scanner) Scan() ([]models.FileGroup, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read scan root %s: %w", s.root, err)
	}

	var groups []models.FileGroup
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		groups = append(groups, s.ScanVehicle(entry.Name())...)
	}

	return groups, nil
}

// ScanVehicle groups the files under one vehicle's root by the date token
// embedded in their filenames. Files without a valid token are excluded.
// A missing format subdirectory is not an error; an unreadable one is
// logged and skipped so one broken directory cannot take out the cycle.
func (s *Scanner) ScanVehicle(vehicleID string) []models.FileGroup {
	byDate := make(map[string]*models.FileGroup)

	formats := []string{
		models.FormatStability,
		models.FormatCAN,
		models.FormatGPS,
		models.FormatRotary,
	}

	for _, format := range formats {
		dir := filepath.Join(s.root, vehicleID, format)
		entries, err := os.ReadDir(dir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			s.logger.Warn("skipping unreadable format directory",
				zap.String("dir", dir), zap.Error(err))
			continue
		}

		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), fileExtension) {
				continue
			}
			date, ok := extractDate(entry.Name())
			if !ok {
				continue
			}

			group, exists := byDate[date]
			if !exists {
				group = &models.FileGroup{VehicleID: vehicleID, Date: date}
				byDate[date] = group
			}

			path := filepath.Join(dir, entry.Name())
			switch format {
			case models.FormatStability:
				group.Stability = append(group.Stability, path)
			case models.FormatCAN:
				group.CAN = append(group.CAN, path)
			case models.FormatGPS:
				group.GPS = append(group.GPS, path)
			case models.FormatRotary:
				group.Rotary = append(group.Rotary, path)
			}
		}
	}

	groups := make([]models.FileGroup, 0, len(byDate))
	for _, group := range byDate {
		sort.Strings(group.Stability)
		sort.Strings(group.CAN)
		sort.Strings(group.GPS)
		sort.Strings(group.Rotary)
		groups = append(groups, *group)
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].Date < groups[j].Date
	})

	return groups
}

// extractDate pulls the first run of 8 digits from a filename and validates
// it as a calendar date
func extractDate(name string) (string, bool) {
	token := dateToken.FindString(name)
	if token == "" {
		return "", false
	}
	if _, err := time.Parse("20060102", token); err != nil {
		return "", false
	}
	return token, true
}
