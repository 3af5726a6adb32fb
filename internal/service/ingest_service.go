package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-ingest-go/internal/classifier"
	"github.com/fleetwatch/fleet-ingest-go/internal/models"
	"github.com/fleetwatch/fleet-ingest-go/internal/parser"
	"github.com/fleetwatch/fleet-ingest-go/internal/repository"
)

// IngestService runs the per-group pipeline: materialize the session, parse
// and write the four measurement streams, then derive the state timeline.
// Measurement rows are written exactly once: re-ingestion resumes each
// stream at its stored row count instead of restarting at zero.
type IngestService struct {
	sessions     *SessionService
	measurements *repository.MeasurementRepository
	segments     *repository.SegmentRepository
	classifier   *classifier.Classifier
	logger       *zap.Logger

	// GPS/rotary streams ingested by this process, kept per session so
	// late files can be classified with the full stream without reading
	// measurements back from storage.
	mu      sync.Mutex
	streams map[int64]*sessionStreams
}

// sessionStreams caches a session's in-memory GPS and rotary streams
type sessionStreams struct {
	start  time.Time
	gps    []models.GPSMeasurement
	rotary []models.RotaryMeasurement
}

// NewIngestService creates a new ingest service
func NewIngestService(sessions *SessionService, measurements *repository.MeasurementRepository, segments *repository.SegmentRepository, cls *classifier.Classifier, logger *zap.Logger) *IngestService {
	return &IngestService{
		sessions:     sessions,
		measurements: measurements,
		segments:     segments,
		classifier:   cls,
		logger:       logger,
		streams:      make(map[int64]*sessionStreams),
	}
}

// streamResult collects one format's parse+write outcome
type streamResult struct {
	processed int
	errored   int
	records   int
	paths     []string
	gps       []models.GPSMeasurement
	rotary    []models.RotaryMeasurement
}

// ProcessGroup handles one (vehicle, date) file group. A group without
// stability files is rejected unless its session already exists: only
// stability data makes a day session-worthy, but once the session is
// materialized, late files of any format may extend it. The four format
// streams are parsed and written concurrently (disjoint tables);
// classification starts only after all four complete, since it needs the
// full GPS and rotary streams. The group should contain only files not yet
// ingested; each stream resumes at the session's stored row count so
// repeated calls append, never duplicate.
func (s *IngestService) ProcessGroup(ctx context.Context, group models.FileGroup, organizationID int64, provenance string) (models.GroupResult, error) {
	var result models.GroupResult

	if !group.HasStability() {
		existing, err := s.sessions.Lookup(group.VehicleID, group.Date)
		if err != nil {
			return result, err
		}
		if existing == nil {
			return result, fmt.Errorf("group %s has no stability files", group.Key())
		}
	}

	session, created, err := s.sessions.EnsureSession(group.VehicleID, organizationID, group.Date, provenance)
	if err != nil {
		return result, err
	}
	result.SessionID = session.ID
	result.SessionCreated = created

	// Existing row counts set each stream's resume offset so order
	// indexes and synthetic times continue instead of colliding.
	counts, err := s.measurements.CountBySession(session.ID)
	if err != nil {
		return result, err
	}

	cache := s.touchStreams(session, created, counts)
	if cache == nil {
		// The session was filled by an earlier process run; without its
		// in-memory streams a reclassification would be partial, so the
		// group is reported as already ingested and left alone.
		result.AlreadyIngested = true
		return result, nil
	}

	var wg sync.WaitGroup
	results := make([]streamResult, 4)

	wg.Add(4)
	go func() {
		defer wg.Done()
		results[0] = s.ingestStability(session, group.Stability, int(counts["stability_measurements"]))
	}()
	go func() {
		defer wg.Done()
		results[1] = s.ingestCAN(session, group.CAN, int(counts["can_measurements"]))
	}()
	go func() {
		defer wg.Done()
		results[2] = s.ingestGPS(session, group.GPS, int(counts["gps_measurements"]))
	}()
	go func() {
		defer wg.Done()
		results[3] = s.ingestRotary(session, group.Rotary, int(counts["rotary_measurements"]))
	}()
	wg.Wait()

	for _, r := range results {
		result.FilesProcessed += r.processed
		result.FilesErrored += r.errored
		result.RecordsWritten += r.records
		result.ProcessedPaths = append(result.ProcessedPaths, r.paths...)
	}

	s.mu.Lock()
	cache.gps = append(cache.gps, results[2].gps...)
	cache.rotary = append(cache.rotary, results[3].rotary...)
	gps, rotary := cache.gps, cache.rotary
	s.mu.Unlock()

	segments, err := s.classifier.Classify(ctx, gps, rotary)
	if err != nil {
		return result, fmt.Errorf("failed to classify session %d: %w", session.ID, err)
	}

	if err := s.segments.ReplaceForSession(session.ID, segments); err != nil {
		return result, err
	}
	result.SegmentsWritten = len(segments)

	return result, nil
}

// touchStreams returns the session's stream cache, creating it on first
// contact. A reused session that already holds measurements but has no cache
// was ingested by an earlier process run; nil tells the caller to leave it
// alone. Stale caches are pruned: a session two days old no longer receives
// files.
func (s *IngestService) touchStreams(session *models.Session, created bool, counts map[string]int64) *sessionStreams {
	var total int64
	for _, n := range counts {
		total += n
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cache, ok := s.streams[session.ID]
	if ok {
		return cache
	}
	if !created && total > 0 {
		return nil
	}

	for id, c := range s.streams {
		if time.Since(c.start) > 48*time.Hour {
			delete(s.streams, id)
		}
	}

	cache = &sessionStreams{start: session.StartTime}
	s.streams[session.ID] = cache
	return cache
}

func (s *IngestService) ingestStability(session *models.Session, paths []string, offset int) streamResult {
	var res streamResult
	base := session.StartTime.Add(time.Duration(offset) * parser.StabilityStep)

	for _, path := range paths {
		records, ok := parseFile(s.logger, path, func(content []byte) ([]models.StabilityMeasurement, error) {
			return parser.ParseStability(content, base)
		})
		if !ok {
			res.errored++
			continue
		}
		shiftStability(records, offset)
		if err := s.measurements.InsertStabilityBatch(session.ID, records); err != nil {
			s.logger.Error("stability write failed", zap.String("file", path), zap.Error(err))
			res.errored++
			continue
		}
		res.processed++
		res.records += len(records)
		res.paths = append(res.paths, path)
		offset += len(records)
		base = base.Add(time.Duration(len(records)) * parser.StabilityStep)
	}

	return res
}

func (s *IngestService) ingestCAN(session *models.Session, paths []string, offset int) streamResult {
	var res streamResult
	base := session.StartTime.Add(time.Duration(offset) * parser.CANStep)

	for _, path := range paths {
		records, ok := parseFile(s.logger, path, func(content []byte) ([]models.CANMeasurement, error) {
			return parser.ParseCAN(content, base)
		})
		if !ok {
			res.errored++
			continue
		}
		shiftCAN(records, offset)
		if err := s.measurements.InsertCANBatch(session.ID, records); err != nil {
			s.logger.Error("CAN write failed", zap.String("file", path), zap.Error(err))
			res.errored++
			continue
		}
		res.processed++
		res.records += len(records)
		res.paths = append(res.paths, path)
		offset += len(records)
		base = base.Add(time.Duration(len(records)) * parser.CANStep)
	}

	return res
}

func (s *IngestService) ingestGPS(session *models.Session, paths []string, offset int) streamResult {
	res := streamResult{gps: []models.GPSMeasurement{}}
	base := session.StartTime.Add(time.Duration(offset) * parser.GPSStep)

	for _, path := range paths {
		records, ok := parseFile(s.logger, path, func(content []byte) ([]models.GPSMeasurement, error) {
			return parser.ParseGPS(content, base)
		})
		if !ok {
			res.errored++
			continue
		}
		shiftGPS(records, offset)
		if err := s.measurements.InsertGPSBatch(session.ID, records); err != nil {
			s.logger.Error("GPS write failed", zap.String("file", path), zap.Error(err))
			res.errored++
			continue
		}
		res.processed++
		res.records += len(records)
		res.paths = append(res.paths, path)
		res.gps = append(res.gps, records...)
		offset += len(records)
		base = base.Add(time.Duration(len(records)) * parser.GPSStep)
	}

	sort.SliceStable(res.gps, func(i, j int) bool {
		return res.gps[i].OrderIndex < res.gps[j].OrderIndex
	})
	return res
}

func (s *IngestService) ingestRotary(session *models.Session, paths []string, offset int) streamResult {
	res := streamResult{rotary: []models.RotaryMeasurement{}}
	base := session.StartTime.Add(time.Duration(offset) * parser.RotaryStep)

	for _, path := range paths {
		records, ok := parseFile(s.logger, path, func(content []byte) ([]models.RotaryMeasurement, error) {
			return parser.ParseRotary(content, base)
		})
		if !ok {
			res.errored++
			continue
		}
		shiftRotary(records, offset)
		if err := s.measurements.InsertRotaryBatch(session.ID, records); err != nil {
			s.logger.Error("rotary write failed", zap.String("file", path), zap.Error(err))
			res.errored++
			continue
		}
		res.processed++
		res.records += len(records)
		res.paths = append(res.paths, path)
		res.rotary = append(res.rotary, records...)
		offset += len(records)
		base = base.Add(time.Duration(len(records)) * parser.RotaryStep)
	}

	sort.SliceStable(res.rotary, func(i, j int) bool {
		return res.rotary[i].OrderIndex < res.rotary[j].OrderIndex
	})
	return res
}

// parseFile reads and parses one file. A too-short file is non-fatal: it
// counts as processed with zero records. ok is false only on read or parse
// failure.
func parseFile[T any](logger *zap.Logger, path string, parse func([]byte) ([]T, error)) ([]T, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Error("file read failed", zap.String("file", path), zap.Error(err))
		return nil, false
	}

	records, err := parse(content)
	if errors.Is(err, parser.ErrFileTooShort) {
		logger.Warn("file too short, no records", zap.String("file", path))
		return nil, true
	}
	if err != nil {
		logger.Error("parse failed", zap.String("file", path), zap.Error(err))
		return nil, false
	}

	return records, true
}

// The shift helpers renumber a file's records so order indexes continue
// across a session's files instead of restarting per file; synthetic times
// continue because each file's base instant advances past the previous one.

func shiftStability(records []models.StabilityMeasurement, offset int) {
	for i := range records {
		records[i].OrderIndex += offset
	}
}

func shiftCAN(records []models.CANMeasurement, offset int) {
	for i := range records {
		records[i].OrderIndex += offset
	}
}

func shiftGPS(records []models.GPSMeasurement, offset int) {
	for i := range records {
		records[i].OrderIndex += offset
	}
}

func shiftRotary(records []models.RotaryMeasurement, offset int) {
	for i := range records {
		records[i].OrderIndex += offset
	}
}
