package provisioning

import (
	"fmt"
	"maps"
	"sort"
	"time"

	"github.com/go-logr/logr"
)

// Observer receives structured progress events.
type Observer interface {
	// Event emits a structured event
	Event(event Event)

	// WithFields returns a new Observer with additional context fields
	WithFields(fields map[string]string) Observer
}

// Event represents a structured provisioning event.
type Event struct {
	Type      EventType         // Type of event
	Phase     string            // Phase name (e.g., "provision", "teardown")
	Message   string            // Human-readable message
	Resource  string            // Hostname if applicable
	Timestamp time.Time         // When the event occurred
	Fields    map[string]string // Additional contextual fields
	Err       error             // Set for failures
}

// EventType represents the type of provisioning event.
type EventType string

const (
	// EventPhaseStarted indicates an operation has started.
	EventPhaseStarted EventType = "phase.started"
	// EventPhaseCompleted indicates an operation completed successfully.
	EventPhaseCompleted EventType = "phase.completed"
	// EventPhaseFailed indicates an operation failed.
	EventPhaseFailed EventType = "phase.failed"

	// EventJobSubmitted indicates a request was sent to ABS.
	EventJobSubmitted EventType = "job.submitted"
	// EventJobReleased indicates ABS accepted a return request.
	EventJobReleased EventType = "job.released"

	// EventNodeRecorded indicates a host was added to the inventory.
	EventNodeRecorded EventType = "node.recorded"
	// EventNodeRemoved indicates a host was removed from the inventory.
	EventNodeRemoved EventType = "node.removed"
)

// LogObserver writes events to a logr.Logger.
type LogObserver struct {
	log    logr.Logger
	fields map[string]string
}

// NewLogObserver creates an observer that logs through log.
func NewLogObserver(log logr.Logger) *LogObserver {
	return &LogObserver{log: log, fields: map[string]string{}}
}

// Event implements Observer.
func (o *LogObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	merged := make(map[string]string, len(o.fields)+len(event.Fields))
	maps.Copy(merged, o.fields)
	maps.Copy(merged, event.Fields)

	kv := []any{"event", string(event.Type)}
	if event.Phase != "" {
		kv = append(kv, "phase", event.Phase)
	}
	if event.Resource != "" {
		kv = append(kv, "resource", event.Resource)
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		kv = append(kv, k, merged[k])
	}

	if event.Err != nil {
		o.log.Error(event.Err, event.Message, kv...)
		return
	}
	o.log.Info(event.Message, kv...)
}

// WithFields implements Observer.
func (o *LogObserver) WithFields(fields map[string]string) Observer {
	merged := make(map[string]string, len(o.fields)+len(fields))
	maps.Copy(merged, o.fields)
	maps.Copy(merged, fields)
	return &LogObserver{log: o.log, fields: merged}
}

// LogPhaseStart logs an operation start event.
func LogPhaseStart(observer Observer, phase string) {
	observer.Event(Event{
		Type:    EventPhaseStarted,
		Phase:   phase,
		Message: "starting",
	})
}

// LogPhaseComplete logs an operation completion event.
func LogPhaseComplete(observer Observer, phase string, duration time.Duration) {
	observer.Event(Event{
		Type:    EventPhaseCompleted,
		Phase:   phase,
		Message: fmt.Sprintf("completed in %v", duration.Round(time.Millisecond)),
	})
}

// LogPhaseFailed logs an operation failure event.
func LogPhaseFailed(observer Observer, phase string, err error) {
	observer.Event(Event{
		Type:    EventPhaseFailed,
		Phase:   phase,
		Message: "failed",
		Err:     err,
	})
}

// LogNodeRecorded logs a host added to an inventory group.
func LogNodeRecorded(observer Observer, phase, hostname, group string) {
	observer.Event(Event{
		Type:     EventNodeRecorded,
		Phase:    phase,
		Resource: hostname,
		Message:  "node recorded",
		Fields:   map[string]string{"group": group},
	})
}

// LogNodeRemoved logs a host removed from the inventory.
func LogNodeRemoved(observer Observer, phase, hostname string) {
	observer.Event(Event{
		Type:     EventNodeRemoved,
		Phase:    phase,
		Resource: hostname,
		Message:  "node removed",
	})
}
