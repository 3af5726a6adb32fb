package service

import (
	"fmt"
	"time"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
	"github.com/fleetwatch/fleet-ingest-go/internal/repository"
)

// ConfigurationError means session creation is impossible as configured,
// e.g. the organization has no user to own sessions
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("session configuration error: %s", e.Reason)
}

// SessionService materializes sessions: exactly one per vehicle per calendar
// day, enforced by the storage-level unique constraint
type SessionService struct {
	sessions  *repository.SessionRepository
	users     *repository.UserRepository
	startHour int
}

// NewSessionService creates a new session service. startHour anchors the
// nominal 24-hour session window at a fixed time of day.
func NewSessionService(sessions *repository.SessionRepository, users *repository.UserRepository, startHour int) *SessionService {
	return &SessionService{sessions: sessions, users: users, startHour: startHour}
}

// Lookup returns the existing session for (vehicle, date) or nil. date uses
// the filename token format (20060102).
func (s *SessionService) Lookup(vehicleID, date string) (*models.Session, error) {
	day, err := time.ParseInLocation("20060102", date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date token %q: %w", date, err)
	}
	return s.sessions.GetByVehicleAndDate(vehicleID, day.Format("2006-01-02"))
}

// EnsureSession returns the existing session for (vehicle, date) or
// atomically creates one. date uses the filename token format (20060102);
// provenance tags the pipeline run that created the session. created
// reports whether this call created the row. A concurrent create of the
// same key resolves to reuse, not an error.
func (s *SessionService) EnsureSession(vehicleID string, organizationID int64, date, provenance string) (session *models.Session, created bool, err error) {
	day, err := time.ParseInLocation("20060102", date, time.Local)
	if err != nil {
		return nil, false, fmt.Errorf("invalid date token %q: %w", date, err)
	}
	sessionDate := day.Format("2006-01-02")

	existing, err := s.sessions.GetByVehicleAndDate(vehicleID, sessionDate)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	owner, err := s.users.GetByOrganization(organizationID)
	if err != nil {
		return nil, false, err
	}
	if owner == nil {
		return nil, false, &ConfigurationError{
			Reason: fmt.Sprintf("no user found for organization %d", organizationID),
		}
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), s.startHour, 0, 0, 0, time.Local)
	candidate := &models.Session{
		VehicleID:      vehicleID,
		OrganizationID: organizationID,
		UserID:         owner.ID,
		SessionDate:    sessionDate,
		StartTime:      start,
		EndTime:        start.Add(24 * time.Hour),
		Status:         models.SessionStatusOpen,
		Provenance:     provenance,
		Sequence:       1,
	}

	_, inserted, err := s.sessions.Insert(candidate)
	if err != nil {
		return nil, false, err
	}

	// Re-select the canonical row: either ours or the one a concurrent
	// create won with.
	session, err = s.sessions.GetByVehicleAndDate(vehicleID, sessionDate)
	if err != nil {
		return nil, false, err
	}
	if session == nil {
		return nil, false, fmt.Errorf("session for %s/%s vanished after insert", vehicleID, sessionDate)
	}

	return session, inserted, nil
}
