package pipeline

import "github.com/fleetwatch/fleet-ingest-go/internal/models"

// EventType identifies an orchestrator lifecycle event
type EventType string

// Lifecycle event types
const (
	EventStarted          EventType = "started"
	EventStopped          EventType = "stopped"
	EventSessionProcessed EventType = "sessionProcessed"
	EventSessionError     EventType = "sessionError"
)

// Event is delivered to the registered listener once per lifecycle change
// and once per completed or failed group
type Event struct {
	Type   EventType
	Group  string // vehicle/date key, empty for lifecycle events
	Result *models.GroupResult
	Err    error
}

// Listener receives orchestrator events. Called synchronously from the
// processing goroutine; implementations must not block.
type Listener func(Event)
