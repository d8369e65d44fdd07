package ledger

import (
	"context"
	"time"
)

type BeginState string

const (
	BeginNew               BeginState = "new"
	BeginAlreadyProcessing BeginState = "already_processing"
	BeginAlreadyProcessed  BeginState = "already_processed"
)

const (
	StateProcessing = "processing"
	StateProcessed  = "processed"
)

// Record is what the ledger keeps per key. Records expire after the
// retention window; a redelivery older than that is treated as new, which
// the upsert semantics of the derived aggregates make safe.
type Record struct {
	EventID    string    `json:"event_id"`
	State      string    `json:"state"`
	Summary    string    `json:"summary,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Ledger is the durable record of which processing keys have completed or
// are in flight. Keys are composed by the caller; the orchestrator scopes
// them per (event id, handler) so one event fanning out to several
// handlers yields an independent record for each. Begin must be a single
// atomic test-and-set against the backing store: for a given key at most
// one caller ever observes BeginNew while a processing record exists.
type Ledger interface {
	Begin(ctx context.Context, key string) (BeginState, error)
	Commit(ctx context.Context, key, summary string) error
	// Release drops an in-flight processing mark so the event can be
	// retried later, e.g. after it was dead-lettered and republished.
	Release(ctx context.Context, key string) error
	IsProcessed(ctx context.Context, key string) (bool, error)
}
