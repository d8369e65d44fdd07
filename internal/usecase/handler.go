package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	sonic "github.com/bytedance/sonic"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

// Handler is one per-event-type unit of business logic. Handle must be
// safely repeatable: every attempt re-runs the full body, so mutations go
// through upserts and evictions are idempotent.
type Handler interface {
	// Name identifies the handler in logs and dead-letter entries.
	Name() string
	// EventTypes is the explicit allow-list of canonical event types.
	EventTypes() []string
	Handle(ctx context.Context, evt event.Event) error
	// AlreadyApplied is the degraded-ledger fallback: when the ledger
	// store is unreachable the orchestrator asks the handler whether the
	// event's side effects are already visible in the derived state.
	AlreadyApplied(ctx context.Context, evt event.Event) (bool, error)
}

// Registry is the static dispatch table built once at startup. Dispatch is
// a plain map lookup on the normalized event type.
type Registry struct {
	handlers map[string][]Handler
	logger   *logging.Logger
}

func NewRegistry(logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default()
	}
	return &Registry{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (r *Registry) Register(h Handler) error {
	if h == nil {
		return fmt.Errorf("handler is required")
	}
	types := h.EventTypes()
	if len(types) == 0 {
		return fmt.Errorf("handler %s declares no event types", h.Name())
	}

	for _, eventType := range types {
		eventType = event.NormalizeType(eventType)
		if eventType == "" {
			return fmt.Errorf("handler %s declares an empty event type", h.Name())
		}
		r.handlers[eventType] = append(r.handlers[eventType], h)
	}
	return nil
}

// HandlersFor returns the handlers registered for an event type, accepting
// the "sports." cross-service prefix as equivalent to the unprefixed form.
func (r *Registry) HandlersFor(eventType string) []Handler {
	return r.handlers[event.NormalizeType(eventType)]
}

func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.handlers))
	for eventType := range r.handlers {
		out = append(out, eventType)
	}
	return out
}

func encodePayload(payload any) (json.RawMessage, error) {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(raw), nil
}
