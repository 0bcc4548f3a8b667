package progress

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/codeindex-dev/codeindex/internal/errors"
)

// Status is an operation's position in its lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

func (s Status) terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusFailed:
		return true
	default:
		return false
	}
}

// Operation is a single tracked long-running unit of work: a refresh, a
// search, or any other staged task a caller wants progress/cancellation
// for.
type Operation struct {
	ID    string
	Name  string
	registry *Registry

	mu             sync.Mutex
	stages         []string
	currentStage   string
	totalItems     int
	processedItems int
	status         Status
	metadata       map[string]any
	cleanupHooks   []func()
	createdAt      time.Time
	updatedAt      time.Time

	cancelled atomic.Bool
}

func newOperation(r *Registry, name string, stages []string, totalItems int) *Operation {
	now := timeNow()
	var stage string
	if len(stages) > 0 {
		stage = stages[0]
	}
	return &Operation{
		ID:           uuid.NewString(),
		Name:         name,
		registry:     r,
		stages:       stages,
		currentStage: stage,
		totalItems:   totalItems,
		status:       StatusPending,
		metadata:     make(map[string]any),
		createdAt:    now,
		updatedAt:    now,
	}
}

// Snapshot is an immutable, lock-free view of an Operation's current state.
type Snapshot struct {
	ID             string
	Name           string
	Stages         []string
	CurrentStage   string
	TotalItems     int
	ProcessedItems int
	Status         Status
	Metadata       map[string]any
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Snapshot returns a point-in-time copy of the operation's fields.
func (o *Operation) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	meta := make(map[string]any, len(o.metadata))
	for k, v := range o.metadata {
		meta[k] = v
	}
	return Snapshot{
		ID:             o.ID,
		Name:           o.Name,
		Stages:         append([]string{}, o.stages...),
		CurrentStage:   o.currentStage,
		TotalItems:     o.totalItems,
		ProcessedItems: o.processedItems,
		Status:         o.status,
		Metadata:       meta,
		CreatedAt:      o.createdAt,
		UpdatedAt:      o.updatedAt,
	}
}

// Start transitions the operation to running and emits a started event.
func (o *Operation) Start() {
	o.mu.Lock()
	o.status = StatusRunning
	o.updatedAt = timeNow()
	o.mu.Unlock()
	o.registry.emit(Event{Type: EventStarted, Operation: o.Snapshot()})
}

// SetStage moves to a new named stage, emitting stage-changed.
func (o *Operation) SetStage(stage string) {
	o.mu.Lock()
	o.currentStage = stage
	o.updatedAt = timeNow()
	o.mu.Unlock()
	o.registry.emit(Event{Type: EventStageChanged, Operation: o.Snapshot()})
}

// Progress advances processed-items and emits a progress event.
func (o *Operation) Progress(processed int) {
	o.mu.Lock()
	o.processedItems = processed
	o.updatedAt = timeNow()
	o.mu.Unlock()
	o.registry.emit(Event{Type: EventProgress, Operation: o.Snapshot()})
}

// SetMetadata attaches a key/value pair visible in subsequent snapshots and
// events.
func (o *Operation) SetMetadata(key string, value any) {
	o.mu.Lock()
	o.metadata[key] = value
	o.mu.Unlock()
}

// OnCleanup registers a hook run before the terminal event is emitted for a
// cancellation — e.g. persisting whatever partial state is safely
// mergeable.
func (o *Operation) OnCleanup(fn func()) {
	o.mu.Lock()
	o.cleanupHooks = append(o.cleanupHooks, fn)
	o.mu.Unlock()
}

// Pause and Resume record a paused/resumed status without affecting the
// cancel flag.
func (o *Operation) Pause() {
	o.setStatus(StatusPaused)
	o.registry.emit(Event{Type: EventPaused, Operation: o.Snapshot()})
}

func (o *Operation) Resume() {
	o.setStatus(StatusRunning)
	o.registry.emit(Event{Type: EventResumed, Operation: o.Snapshot()})
}

func (o *Operation) setStatus(s Status) {
	o.mu.Lock()
	o.status = s
	o.updatedAt = timeNow()
	o.mu.Unlock()
}

// Complete marks the operation completed and emits the terminal event.
func (o *Operation) Complete() {
	o.setStatus(StatusCompleted)
	o.registry.emit(Event{Type: EventCompleted, Operation: o.Snapshot()})
}

// Fail marks the operation failed, carrying err in the terminal event.
func (o *Operation) Fail(err error) {
	o.setStatus(StatusFailed)
	o.registry.emit(Event{Type: EventFailed, Operation: o.Snapshot(), Err: err})
}

// Cancel sets the cooperative cancel flag. It does not itself transition
// status: the next CheckCancel call inside the running work does that,
// after running cleanup hooks.
func (o *Operation) Cancel() {
	o.cancelled.Store(true)
}

// IsCancelled reports whether Cancel has been called.
func (o *Operation) IsCancelled() bool {
	return o.cancelled.Load()
}

// CheckCancel is the cooperative check point workers call at file/chunk
// boundaries. If cancelled, it runs cleanup hooks (emitting
// cleanup-started/cleanup-completed around them), transitions to
// cancelled, emits the terminal event, and returns a Cancelled error; the
// caller must unwind immediately.
func (o *Operation) CheckCancel() error {
	if !o.cancelled.Load() {
		return nil
	}

	o.mu.Lock()
	hooks := append([]func(){}, o.cleanupHooks...)
	o.mu.Unlock()

	if len(hooks) > 0 {
		o.registry.emit(Event{Type: EventCleanupStarted, Operation: o.Snapshot()})
		for _, hook := range hooks {
			runCleanupHook(hook)
		}
		o.registry.emit(Event{Type: EventCleanupCompleted, Operation: o.Snapshot()})
	}

	o.setStatus(StatusCancelled)
	o.registry.emit(Event{Type: EventCancelled, Operation: o.Snapshot()})

	return errors.CancelledErr("operation " + o.ID + " was cancelled")
}

func runCleanupHook(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("progress cleanup hook panicked", "panic", r)
		}
	}()
	fn()
}

// timeNow is a seam for deterministic tests.
var timeNow = time.Now
