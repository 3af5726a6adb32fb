package pipeline

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-ingest-go/internal/classifier"
	"github.com/fleetwatch/fleet-ingest-go/internal/database"
	"github.com/fleetwatch/fleet-ingest-go/internal/geofence"
	"github.com/fleetwatch/fleet-ingest-go/internal/models"
	"github.com/fleetwatch/fleet-ingest-go/internal/repository"
	"github.com/fleetwatch/fleet-ingest-go/internal/scanner"
	"github.com/fleetwatch/fleet-ingest-go/internal/service"
)

const (
	stabilityFixture = "IMU DUMP\nfields\n0.01;0.02;9.81;0.0;0.0;0.0;0.1;0.2;0.3\n0.02;0.01;9.80;0.0;0.0;0.0;0.1;0.2;0.3\n"
	canFixture       = "CAN DUMP\n18FEF100 01 02 03 04\n18FEF200 0A 0B\n"
	gpsFixture       = "GPS DUMP\nfields\n40.000000,-3.000000,650.0,0.9,1,8,0.0\n40.000010,-3.000010,650.1,0.9,1,8,0.2\n40.000020,-3.000020,650.2,0.9,1,8,0.1\n"
	rotaryFixture    = "ROTARY DUMP\nfields\n0 0\n1 0\n2 0\n"
)

// writeGroup lays out <root>/<vehicle>/<format>/ fixtures for one day.
// Formats with an empty fixture get no directory at all.
func writeGroup(t *testing.T, root, vehicle, date string, stability, can, gps, rotary string) {
	t.Helper()
	files := map[string]string{
		models.FormatStability: stability,
		models.FormatCAN:       can,
		models.FormatGPS:       gps,
		models.FormatRotary:    rotary,
	}
	for format, content := range files {
		if content == "" {
			continue
		}
		dir := filepath.Join(root, vehicle, format)
		require.NoError(t, os.MkdirAll(dir, 0o755))
		name := format + "_" + date + ".txt"
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
}

// buildPipeline wires a full pipeline over an in-memory database and a
// purely local zone oracle, the same shape cmd/server assembles.
func buildPipeline(t *testing.T, root string) (*Orchestrator, *sql.DB) {
	t.Helper()

	db, err := database.Open(database.Config{Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.InitSchema(db))

	_, err = repository.NewUserRepository(db).Insert(&models.User{
		OrganizationID: 1,
		Name:           "dispatcher",
		Role:           "operator",
	})
	require.NoError(t, err)

	return buildOrchestrator(t, root, db), db
}

// buildOrchestrator assembles a fresh orchestrator and services over an
// existing database, as a restarted process would.
func buildOrchestrator(t *testing.T, root string, db *sql.DB) *Orchestrator {
	t.Helper()

	station := models.Zone{
		ID:     "central",
		Name:   "Central Station",
		Tag:    models.ZoneTagStation,
		Shape:  models.ZoneShapePoint,
		Center: models.ZonePoint{Lat: 40.0, Lon: -3.0},
	}
	oracle := geofence.NewLocalOracle([]models.Zone{station}, 250)

	sessions := service.NewSessionService(
		repository.NewSessionRepository(db),
		repository.NewUserRepository(db),
		8,
	)
	ingest := service.NewIngestService(
		sessions,
		repository.NewMeasurementRepository(db),
		repository.NewSegmentRepository(db),
		classifier.New(oracle),
		zap.NewNop(),
	)

	return New(scanner.New(root, zap.NewNop()), ingest, 1, time.Hour, zap.NewNop())
}

// eventRecorder is a thread safe Listener.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type
	}
	return types
}

func TestRunCycleEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeGroup(t, root, "AMB-101", "20240615", stabilityFixture, canFixture, gpsFixture, rotaryFixture)

	orch, db := buildPipeline(t, root)
	recorder := &eventRecorder{}
	orch.SetListener(recorder.record)

	stats, err := orch.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.GroupsSeen)
	assert.Equal(t, 1, stats.GroupsProcessed)
	assert.Equal(t, 0, stats.GroupsErrored)
	assert.Equal(t, 4, stats.FilesProcessed)
	assert.Equal(t, 0, stats.FilesErrored)
	assert.Equal(t, 1, stats.SessionsCreated)
	assert.Equal(t, 0, stats.SessionsReused)
	assert.Equal(t, 2+2+3+3, stats.RecordsWritten)

	var sessionCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&sessionCount))
	assert.Equal(t, 1, sessionCount)

	session, err := repository.NewSessionRepository(db).GetByVehicleAndDate("AMB-101", "2024-06-15")
	require.NoError(t, err)
	require.NotNil(t, session)

	counts, err := repository.NewMeasurementRepository(db).CountBySession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["stability_measurements"])
	assert.Equal(t, int64(2), counts["can_measurements"])
	assert.Equal(t, int64(3), counts["gps_measurements"])
	assert.Equal(t, int64(3), counts["rotary_measurements"])

	// Inside the station zone with the beacon off the whole run: one
	// PARK segment spanning the GPS stream.
	segments, err := repository.NewSegmentRepository(db).GetBySession(session.ID)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, models.StatePark, segments[0].State)

	require.Len(t, recorder.events, 1)
	assert.Equal(t, EventSessionProcessed, recorder.events[0].Type)
	assert.Equal(t, "AMB-101/20240615", recorder.events[0].Group)
	require.NotNil(t, recorder.events[0].Result)
	assert.True(t, recorder.events[0].Result.SessionCreated)
}

func TestRunCycleIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeGroup(t, root, "AMB-101", "20240615", stabilityFixture, canFixture, gpsFixture, rotaryFixture)

	orch, db := buildPipeline(t, root)

	first, err := orch.RunCycle(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, first.SessionsCreated)
	require.Equal(t, 10, first.RecordsWritten)

	// An unchanged tree has nothing pending: the group is skipped and no
	// rows are written.
	second, err := orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.SessionsCreated)
	assert.Equal(t, 0, second.SessionsReused)
	assert.Equal(t, 1, second.GroupsSkipped)
	assert.Equal(t, 0, second.FilesProcessed)
	assert.Equal(t, 0, second.RecordsWritten)

	var sessionCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&sessionCount))
	assert.Equal(t, 1, sessionCount)

	session, err := repository.NewSessionRepository(db).GetByVehicleAndDate("AMB-101", "2024-06-15")
	require.NoError(t, err)

	// Measurements are created once; a rerun must not duplicate rows or
	// collide order indexes.
	counts, err := repository.NewMeasurementRepository(db).CountBySession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["stability_measurements"])
	assert.Equal(t, int64(2), counts["can_measurements"])
	assert.Equal(t, int64(3), counts["gps_measurements"])
	assert.Equal(t, int64(3), counts["rotary_measurements"])

	var distinct int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(DISTINCT order_index) FROM gps_measurements WHERE session_id = ?", session.ID,
	).Scan(&distinct))
	assert.Equal(t, 3, distinct)

	segments, err := repository.NewSegmentRepository(db).GetBySession(session.ID)
	require.NoError(t, err)
	assert.Len(t, segments, 1)

	totals := orch.Totals()
	assert.Equal(t, 1, totals.GroupsProcessed)
	assert.Equal(t, 1, totals.GroupsSkipped)
	assert.Equal(t, 1, totals.SessionsCreated)
	assert.Equal(t, 0, totals.SessionsReused)

	orch.ResetTotals()
	assert.Zero(t, orch.Totals().GroupsProcessed)
}

func TestRunCycleIngestsLateFiles(t *testing.T) {
	root := t.TempDir()
	writeGroup(t, root, "AMB-101", "20240615", stabilityFixture, "", gpsFixture, rotaryFixture)

	orch, db := buildPipeline(t, root)

	_, err := orch.RunCycle(context.Background())
	require.NoError(t, err)

	// A GPS file dropped after the first cycle: only the new file is
	// parsed, and its rows continue the existing order index sequence.
	late := "GPS DUMP\nfields\n40.000030,-3.000030,650.3,0.9,1,8,0.3\n"
	dir := filepath.Join(root, "AMB-101", models.FormatGPS)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "GPS_20240615_late.txt"), []byte(late), 0o644))

	stats, err := orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GroupsProcessed)
	assert.Equal(t, 1, stats.FilesProcessed)
	assert.Equal(t, 1, stats.RecordsWritten)
	assert.Equal(t, 1, stats.SessionsReused)

	session, err := repository.NewSessionRepository(db).GetByVehicleAndDate("AMB-101", "2024-06-15")
	require.NoError(t, err)

	counts, err := repository.NewMeasurementRepository(db).CountBySession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["stability_measurements"])
	assert.Equal(t, int64(4), counts["gps_measurements"])

	var maxIdx int
	require.NoError(t, db.QueryRow(
		"SELECT MAX(order_index) FROM gps_measurements WHERE session_id = ?", session.ID,
	).Scan(&maxIdx))
	assert.Equal(t, 3, maxIdx)

	var distinct int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(DISTINCT order_index) FROM gps_measurements WHERE session_id = ?", session.ID,
	).Scan(&distinct))
	assert.Equal(t, 4, distinct)

	// Still one PARK segment: the late sample is inside the station zone
	// too, and reclassification covers the whole stream.
	segments, err := repository.NewSegmentRepository(db).GetBySession(session.ID)
	require.NoError(t, err)
	require.Len(t, segments, 1)
	assert.Equal(t, models.StatePark, segments[0].State)
}

func TestRunCycleAfterRestartDoesNotDuplicate(t *testing.T) {
	root := t.TempDir()
	writeGroup(t, root, "AMB-101", "20240615", stabilityFixture, canFixture, gpsFixture, rotaryFixture)

	orch, db := buildPipeline(t, root)
	_, err := orch.RunCycle(context.Background())
	require.NoError(t, err)

	// A restarted process has an empty ledger but finds the session
	// already filled; the group is skipped, not re-ingested.
	restarted := buildOrchestrator(t, root, db)
	stats, err := restarted.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GroupsSkipped)
	assert.Equal(t, 0, stats.GroupsProcessed)
	assert.Equal(t, 0, stats.RecordsWritten)

	session, err := repository.NewSessionRepository(db).GetByVehicleAndDate("AMB-101", "2024-06-15")
	require.NoError(t, err)
	counts, err := repository.NewMeasurementRepository(db).CountBySession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["stability_measurements"])
	assert.Equal(t, int64(3), counts["gps_measurements"])

	// The skip is remembered: the next tick skips without touching the
	// ingest path again.
	stats, err = restarted.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GroupsSkipped)
}

func TestConcurrentRunCyclesAreSerialized(t *testing.T) {
	root := t.TempDir()
	writeGroup(t, root, "AMB-101", "20240615", stabilityFixture, canFixture, gpsFixture, rotaryFixture)

	orch, db := buildPipeline(t, root)

	// A forced cycle racing a ticked cycle must not interleave writes;
	// one ingests, the other sees nothing pending.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := orch.RunCycle(context.Background())
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var sessionCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&sessionCount))
	assert.Equal(t, 1, sessionCount)

	session, err := repository.NewSessionRepository(db).GetByVehicleAndDate("AMB-101", "2024-06-15")
	require.NoError(t, err)
	counts, err := repository.NewMeasurementRepository(db).CountBySession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts["stability_measurements"])
	assert.Equal(t, int64(2), counts["can_measurements"])
	assert.Equal(t, int64(3), counts["gps_measurements"])
	assert.Equal(t, int64(3), counts["rotary_measurements"])

	totals := orch.Totals()
	assert.Equal(t, 1, totals.GroupsProcessed)
	assert.Equal(t, 1, totals.SessionsCreated)
}

func TestRunCycleSkipsGroupWithoutStability(t *testing.T) {
	root := t.TempDir()
	writeGroup(t, root, "AMB-202", "20240615", "", canFixture, gpsFixture, rotaryFixture)

	orch, db := buildPipeline(t, root)
	recorder := &eventRecorder{}
	orch.SetListener(recorder.record)

	stats, err := orch.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.GroupsSeen)
	assert.Equal(t, 1, stats.GroupsSkipped)
	assert.Equal(t, 0, stats.GroupsProcessed)
	assert.Equal(t, 0, stats.SessionsCreated)
	assert.Empty(t, recorder.events)

	var sessionCount, gpsCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&sessionCount))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM gps_measurements").Scan(&gpsCount))
	assert.Zero(t, sessionCount, "a group without stability files must not materialize a session")
	assert.Zero(t, gpsCount)
}

func TestRunCycleMixedGroups(t *testing.T) {
	root := t.TempDir()
	writeGroup(t, root, "AMB-101", "20240615", stabilityFixture, "", gpsFixture, rotaryFixture)
	writeGroup(t, root, "AMB-202", "20240615", "", canFixture, "", "")

	orch, _ := buildPipeline(t, root)

	stats, err := orch.RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, stats.GroupsSeen)
	assert.Equal(t, 1, stats.GroupsProcessed)
	assert.Equal(t, 1, stats.GroupsSkipped)
	assert.Equal(t, 1, stats.SessionsCreated)
}

func TestStartStopLifecycle(t *testing.T) {
	root := t.TempDir()
	orch, _ := buildPipeline(t, root)
	recorder := &eventRecorder{}
	orch.SetListener(recorder.record)

	assert.False(t, orch.Running())

	orch.Start()
	assert.True(t, orch.Running())

	// Start is idempotent while running.
	orch.Start()
	assert.True(t, orch.Running())

	orch.Stop()
	assert.False(t, orch.Running())

	// Stop after stop is a no-op.
	orch.Stop()

	types := recorder.types()
	assert.Equal(t, []EventType{EventStarted, EventStopped}, types)
}

func TestSetRootRedirectsScan(t *testing.T) {
	rootA := t.TempDir()
	rootB := t.TempDir()
	writeGroup(t, rootB, "AMB-303", "20240616", stabilityFixture, "", gpsFixture, "")

	orch, _ := buildPipeline(t, rootA)
	assert.Equal(t, rootA, orch.Root())

	stats, err := orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.GroupsSeen)

	orch.SetRoot(rootB)
	assert.Equal(t, rootB, orch.Root())

	stats, err = orch.RunCycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.GroupsSeen)
	assert.Equal(t, 1, stats.GroupsProcessed)
}
