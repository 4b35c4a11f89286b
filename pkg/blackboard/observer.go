package blackboard

import (
	"context"
	"log/slog"
	"time"
)

// Observer receives events describing blackboard operations.
//
// Implementations must not affect the operation that emitted the event: errors
// or delays inside OnEvent are never propagated to the caller.
type Observer interface {
	OnEvent(ctx context.Context, event Event)
}

// Event describes one observable occurrence on a blackboard. Data carries
// metadata (keys, type names, counts), never stored values.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Source    string
	Data      map[string]any
}

// EventType categorizes blackboard events.
type EventType string

const (
	EventEntryCreate       EventType = "entry.create"
	EventEntrySet          EventType = "entry.set"
	EventEntryUnset        EventType = "entry.unset"
	EventEntryTypeMismatch EventType = "entry.type_mismatch"
	EventBoardClear        EventType = "board.clear"
	EventBoardRemap        EventType = "board.remap"
	EventSnapshotExport    EventType = "snapshot.export"
	EventSnapshotImport    EventType = "snapshot.import"
	EventSnapshotSkip      EventType = "snapshot.skip"
)

// NoOpObserver discards every event.
type NoOpObserver struct{}

// OnEvent does nothing.
func (NoOpObserver) OnEvent(context.Context, Event) {}

// SlogObserver writes events to a structured logger. Type mismatches are logged
// at Warn level, everything else at Debug.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates an observer logging to logger, or slog.Default() when nil.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

// OnEvent logs the event with its type, source and metadata as attributes.
func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	level := slog.LevelDebug
	if event.Type == EventEntryTypeMismatch {
		level = slog.LevelWarn
	}
	o.logger.Log(ctx, level, "blackboard event",
		"type", event.Type,
		"source", event.Source,
		"timestamp", event.Timestamp,
		"data", event.Data,
	)
}
