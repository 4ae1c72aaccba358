package workflow

import (
	"fmt"
	"log"
	"strings"
	"time"
)

// Logger is the minimal printf-style logging surface.
type Logger interface {
	Printf(format string, v ...interface{})
}

// Observer receives structured events as a workflow progresses.
type Observer interface {
	Logger

	// Event emits a structured event.
	Event(event Event)
}

// Event represents a structured workflow event.
type Event struct {
	Type      EventType
	Kind      Kind
	Resource  string
	Message   string
	Timestamp time.Time
	Fields    map[string]string
}

// EventType represents the type of workflow event.
type EventType string

const (
	// EventStepStarted indicates a workflow step has started.
	EventStepStarted EventType = "step.started"
	// EventStepCompleted indicates a workflow step completed successfully.
	EventStepCompleted EventType = "step.completed"
	// EventStepFailed indicates a workflow step failed.
	EventStepFailed EventType = "step.failed"

	// EventResourceCreating indicates a resource is being created.
	EventResourceCreating EventType = "resource.creating"
	// EventResourceCreated indicates a creation call was issued.
	EventResourceCreated EventType = "resource.created"
	// EventResourceExists indicates a compatible resource already exists.
	EventResourceExists EventType = "resource.exists"
	// EventResourceReady indicates a resource reached ready state.
	EventResourceReady EventType = "resource.ready"
	// EventResourceFailed indicates resource creation or lookup failed.
	EventResourceFailed EventType = "resource.failed"
	// EventResourceDeleting indicates a resource is being deleted.
	EventResourceDeleting EventType = "resource.deleting"
	// EventResourceDeleted indicates a resource was deleted.
	EventResourceDeleted EventType = "resource.deleted"
)

// ConsoleObserver implements Observer using the standard log package.
type ConsoleObserver struct{}

// NewConsoleObserver creates a console-based observer.
func NewConsoleObserver() *ConsoleObserver {
	return &ConsoleObserver{}
}

// Printf implements Logger.
func (o *ConsoleObserver) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

// Event implements Observer.
func (o *ConsoleObserver) Event(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	parts := []string{string(event.Type)}
	if event.Kind != "" {
		parts = append(parts, fmt.Sprintf("[%s]", event.Kind))
	}
	if event.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", event.Resource))
	}
	parts = append(parts, event.Message)
	if len(event.Fields) > 0 {
		fieldParts := make([]string, 0, len(event.Fields))
		for k, v := range event.Fields {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%s", k, v))
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(fieldParts, ", ")))
	}

	log.Print(strings.Join(parts, " "))
}

// NopObserver discards everything. Useful in tests.
type NopObserver struct{}

func (NopObserver) Printf(string, ...interface{}) {}
func (NopObserver) Event(Event)                   {}

// Helper functions for common events

// LogStepStarted logs a step start event.
func LogStepStarted(observer Observer, spec Spec, current, total int) {
	observer.Event(Event{
		Type:     EventStepStarted,
		Kind:     spec.Kind,
		Resource: spec.Key,
		Message:  fmt.Sprintf("starting (%d/%d)", current, total),
	})
}

// LogStepCompleted logs a step completion event.
func LogStepCompleted(observer Observer, spec Spec, outcome Outcome, duration time.Duration) {
	observer.Event(Event{
		Type:     EventStepCompleted,
		Kind:     spec.Kind,
		Resource: spec.Key,
		Message:  fmt.Sprintf("%s in %v", outcome, duration.Round(time.Millisecond)),
	})
}

// LogStepFailed logs a step failure event.
func LogStepFailed(observer Observer, spec Spec, err error) {
	observer.Event(Event{
		Type:     EventStepFailed,
		Kind:     spec.Kind,
		Resource: spec.Key,
		Message:  fmt.Sprintf("failed: %v", err),
	})
}

// LogResourceCreating logs a resource creation start event.
func LogResourceCreating(observer Observer, spec Spec) {
	observer.Event(Event{
		Type:     EventResourceCreating,
		Kind:     spec.Kind,
		Resource: spec.Key,
		Message:  fmt.Sprintf("creating %s", spec.Kind),
	})
}

// LogResourceCreated logs a successful creation call.
func LogResourceCreated(observer Observer, spec Spec, id string) {
	observer.Event(Event{
		Type:     EventResourceCreated,
		Kind:     spec.Kind,
		Resource: spec.Key,
		Message:  fmt.Sprintf("%s created", spec.Kind),
		Fields:   map[string]string{"id": id},
	})
}

// LogResourceExists logs when a compatible resource already exists.
func LogResourceExists(observer Observer, spec Spec, id string) {
	observer.Event(Event{
		Type:     EventResourceExists,
		Kind:     spec.Kind,
		Resource: spec.Key,
		Message:  fmt.Sprintf("%s already exists", spec.Kind),
		Fields:   map[string]string{"id": id},
	})
}

// LogResourceReady logs when a resource reaches ready state.
func LogResourceReady(observer Observer, spec Spec, id string) {
	observer.Event(Event{
		Type:     EventResourceReady,
		Kind:     spec.Kind,
		Resource: spec.Key,
		Message:  fmt.Sprintf("%s ready", spec.Kind),
		Fields:   map[string]string{"id": id},
	})
}

// LogResourceFailed logs a resource failure event.
func LogResourceFailed(observer Observer, spec Spec, err error) {
	observer.Event(Event{
		Type:     EventResourceFailed,
		Kind:     spec.Kind,
		Resource: spec.Key,
		Message:  fmt.Sprintf("failed: %v", err),
	})
}

// LogResourceDeleting logs a resource deletion start event.
func LogResourceDeleting(observer Observer, spec Spec, id string) {
	observer.Event(Event{
		Type:     EventResourceDeleting,
		Kind:     spec.Kind,
		Resource: spec.Key,
		Message:  fmt.Sprintf("deleting %s", spec.Kind),
		Fields:   map[string]string{"id": id},
	})
}

// LogResourceDeleted logs a successful deletion event.
func LogResourceDeleted(observer Observer, spec Spec, id string) {
	observer.Event(Event{
		Type:     EventResourceDeleted,
		Kind:     spec.Kind,
		Resource: spec.Key,
		Message:  fmt.Sprintf("%s deleted", spec.Kind),
		Fields:   map[string]string{"id": id},
	})
}
