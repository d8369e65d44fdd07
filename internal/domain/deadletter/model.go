package deadletter

import (
	"context"
	"time"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
)

const (
	ReasonInvalidPayload     = "invalid_payload"
	ReasonMaxRetriesExceeded = "max_retries_exceeded"
)

// Entry is appended after retry exhaustion or a non-retryable failure and
// consumed out-of-band by operator tooling.
type Entry struct {
	Event    event.Event `json:"original_event"`
	Reason   string      `json:"reason"`
	Error    string      `json:"error"`
	FailedAt time.Time   `json:"failed_at"`
	Service  string      `json:"service"`
}

type Store interface {
	Append(ctx context.Context, entry Entry) error
	Depth(ctx context.Context) (int64, error)
	Peek(ctx context.Context, n int64) ([]Entry, error)
}
