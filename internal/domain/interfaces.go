package domain

import (
	"context"
	"io"
	"time"
)

// RegenerationRequest carries everything the AI provider needs to produce a
// replacement narrative for a finding or the diagnosis.
type RegenerationRequest struct {
	EntityID    string     `json:"entity_id"`
	Kind        EntityKind `json:"kind"`
	Organ       string     `json:"organ,omitempty"`
	CurrentText string     `json:"current_text"`
	BaseText    string     `json:"base_text"`
	ContextText string     `json:"context_text,omitempty"`
	ImageIDs    []string   `json:"image_ids,omitempty"`
}

// RegenerationResult is the provider's replacement text. Confidence is nil
// when the provider does not return one; the entity's confidence is then left
// unchanged.
type RegenerationResult struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// RegenerationProvider produces replacement text for report entities after
// unspecified latency. Implementations must resolve exactly once per call.
type RegenerationProvider interface {
	Regenerate(ctx context.Context, req RegenerationRequest) (*RegenerationResult, error)
}

// EventAction identifies the mutation that produced a notification event.
type EventAction string

const (
	ActionAccept          EventAction = "accept"
	ActionEdit            EventAction = "edit"
	ActionAdd             EventAction = "add"
	ActionDelete          EventAction = "delete"
	ActionRegenerateStart EventAction = "regenerate_start"
	ActionRegenerateDone  EventAction = "regenerate_done"
	ActionRegenerateFail  EventAction = "regenerate_fail"
)

// Event is a human-readable notification keyed to a report mutation.
type Event struct {
	Action     EventAction `json:"action"`
	EntityKind EntityKind  `json:"entity_kind"`
	EntityID   string      `json:"entity_id"`
	Actor      string      `json:"actor,omitempty"`
	Title      string      `json:"title"`
	Message    string      `json:"message"`
	Timestamp  time.Time   `json:"timestamp"`
}

// Notifier receives mutation events for user feedback. Fire-and-forget: the
// core does not wait for acknowledgment and ignores delivery failures.
type Notifier interface {
	Notify(event Event)
}

// Journal records mutation events for the session activity feed.
type Journal interface {
	Record(ctx context.Context, event Event) error
	List(ctx context.Context, limit, offset int) ([]Event, error)
	Count(ctx context.Context) (int64, error)
	ExportJSON(ctx context.Context, w io.Writer) error
	Close() error
}

// Exporter renders a report snapshot into a paginated document. It is a pure
// read of the snapshot with no feedback into state.
type Exporter interface {
	Render(report Report) (pages []string, err error)
}
