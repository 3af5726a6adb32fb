// Package pipeline drives the ingestion loop: scan the drop directory,
// group files, and run each session-worthy group through materialization,
// parsing, measurement writes and state classification.
package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fleetwatch/fleet-ingest-go/internal/models"
	"github.com/fleetwatch/fleet-ingest-go/internal/scanner"
	"github.com/fleetwatch/fleet-ingest-go/internal/service"
)

// Orchestrator owns the scan/process cycle. Groups are processed one at a
// time within a cycle, and cycles themselves are serialized: a forced cycle
// and a ticked cycle never run concurrently. Successfully ingested files are
// remembered in an in-memory ledger so the next tick only re-attempts files
// that errored or arrived since; the pending set is recomputed from the scan
// each cycle, not persisted.
type Orchestrator struct {
	scanner        *scanner.Scanner
	ingest         *service.IngestService
	organizationID int64
	interval       time.Duration
	logger         *zap.Logger

	// cycleMu is held for the full duration of RunCycle; it also guards
	// the processed-file ledger.
	cycleMu   sync.Mutex
	processed map[string]struct{}

	mu       sync.Mutex
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	totals   models.CycleStats
	listener Listener
}

// New creates an orchestrator. interval is the watch-loop scan period.
func New(sc *scanner.Scanner, ingest *service.IngestService, organizationID int64, interval time.Duration, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		scanner:        sc,
		ingest:         ingest,
		organizationID: organizationID,
		interval:       interval,
		logger:         logger,
		processed:      make(map[string]struct{}),
	}
}

// SetListener registers the consumer of lifecycle events
func (o *Orchestrator) SetListener(l Listener) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listener = l
}

// Running reports whether the watch loop is active
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

// Totals returns the cumulative counters across cycles
func (o *Orchestrator) Totals() models.CycleStats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.totals
}

// ResetTotals clears the cumulative counters
func (o *Orchestrator) ResetTotals() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.totals = models.CycleStats{}
}

// Root returns the scan root path
func (o *Orchestrator) Root() string {
	return o.scanner.Root()
}

// SetRoot changes the scan root for subsequent cycles
func (o *Orchestrator) SetRoot(root string) {
	o.scanner.SetRoot(root)
}

// Start launches the watch loop. Idempotent: starting a running
// orchestrator is a no-op.
func (o *Orchestrator) Start() {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	o.running = true
	o.cancel = cancel
	o.done = make(chan struct{})
	o.mu.Unlock()

	o.emit(Event{Type: EventStarted})
	o.logger.Info("orchestrator started", zap.Duration("interval", o.interval))

	go o.watch(ctx)
}

// Stop cancels the watch loop and waits for the in-flight cycle to finish
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	cancel := o.cancel
	done := o.done
	o.running = false
	o.mu.Unlock()

	cancel()
	<-done

	o.emit(Event{Type: EventStopped})
	o.logger.Info("orchestrator stopped")
}

// Restart stops and starts the watch loop
func (o *Orchestrator) Restart() {
	o.Stop()
	o.Start()
}

func (o *Orchestrator) watch(ctx context.Context) {
	defer close(o.done)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	// First cycle runs immediately rather than waiting a full interval.
	if _, err := o.RunCycle(ctx); err != nil {
		o.logger.Error("scan cycle failed", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := o.RunCycle(ctx); err != nil {
				o.logger.Error("scan cycle failed", zap.Error(err))
			}
		}
	}
}

// RunCycle performs one scan/group/process pass and returns that cycle's
// stats as an owned value. Cycles are serialized: a concurrent call (the
// watch tick racing an operator's forced cycle) blocks until the running
// cycle finishes. Groups are processed sequentially in date order; a failed
// group is recorded and the cycle continues with the next one. Files already
// ingested are not re-parsed, so a rerun over an unchanged tree writes
// nothing.
func (o *Orchestrator) RunCycle(ctx context.Context) (models.CycleStats, error) {
	o.cycleMu.Lock()
	defer o.cycleMu.Unlock()

	stats := models.CycleStats{StartedAt: time.Now()}
	provenance := uuid.NewString()

	groups, err := o.scanner.Scan()
	if err != nil {
		stats.FinishedAt = time.Now()
		return stats, err
	}
	stats.GroupsSeen = len(groups)

	seen := make(map[string]struct{})
	for _, group := range groups {
		for _, p := range group.AllPaths() {
			seen[p] = struct{}{}
		}
	}

	for _, group := range groups {
		if ctx.Err() != nil {
			break
		}

		if !group.HasStability() {
			// Not session-worthy: no session, no measurements.
			stats.GroupsSkipped++
			o.logger.Debug("skipping group without stability files",
				zap.String("group", group.Key()))
			continue
		}

		pending := group.Filter(func(p string) bool {
			_, done := o.processed[p]
			return !done
		})
		if pending.FileCount() == 0 {
			stats.GroupsSkipped++
			o.logger.Debug("skipping group, all files ingested",
				zap.String("group", group.Key()))
			continue
		}

		result, err := o.ingest.ProcessGroup(ctx, pending, o.organizationID, provenance)
		for _, p := range result.ProcessedPaths {
			o.processed[p] = struct{}{}
		}

		if result.AlreadyIngested {
			// Filled by an earlier process run; remember the whole group
			// so it is not re-attempted every tick.
			for _, p := range group.AllPaths() {
				o.processed[p] = struct{}{}
			}
			stats.GroupsSkipped++
			o.logger.Debug("skipping group, session already holds measurements",
				zap.String("group", group.Key()),
				zap.Int64("session", result.SessionID))
			continue
		}

		stats.FilesProcessed += result.FilesProcessed
		stats.FilesErrored += result.FilesErrored
		stats.RecordsWritten += result.RecordsWritten
		if result.SessionCreated {
			stats.SessionsCreated++
		} else if result.SessionID != 0 {
			stats.SessionsReused++
		}

		if err != nil {
			stats.GroupsErrored++
			o.logger.Error("group processing failed",
				zap.String("group", group.Key()), zap.Error(err))
			o.emit(Event{Type: EventSessionError, Group: group.Key(), Err: err})
			continue
		}

		stats.GroupsProcessed++
		o.logger.Info("group processed",
			zap.String("group", group.Key()),
			zap.Int64("session", result.SessionID),
			zap.Int("records", result.RecordsWritten),
			zap.Int("segments", result.SegmentsWritten))
		o.emit(Event{Type: EventSessionProcessed, Group: group.Key(), Result: &result})
	}

	// Files that vanished from the tree have no retry to suppress.
	for p := range o.processed {
		if _, ok := seen[p]; !ok {
			delete(o.processed, p)
		}
	}

	stats.FinishedAt = time.Now()

	o.mu.Lock()
	o.totals.Add(stats)
	o.mu.Unlock()

	return stats, nil
}

func (o *Orchestrator) emit(event Event) {
	o.mu.Lock()
	listener := o.listener
	o.mu.Unlock()

	if listener != nil {
		listener(event)
	}
}
