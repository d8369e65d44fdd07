package eventbus

import (
	"context"
	"sync"
	"testing"

	"github.com/panjf2000/ants/v2"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	dlqmem "github.com/yared-ayele-debela/tournament-events/internal/infrastructure/deadletter"
	ledgermem "github.com/yared-ayele-debela/tournament-events/internal/infrastructure/ledger"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
	"github.com/yared-ayele-debela/tournament-events/internal/usecase"
)

// countingHandler records how often it ran; always succeeds.
type countingHandler struct {
	name  string
	types []string

	mu    sync.Mutex
	calls int
}

func (h *countingHandler) Name() string { return h.name }

func (h *countingHandler) EventTypes() []string { return h.types }

func (h *countingHandler) Handle(context.Context, event.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	return nil
}

func (h *countingHandler) AlreadyApplied(context.Context, event.Event) (bool, error) {
	return false, nil
}

func (h *countingHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func newDispatchConsumer(t *testing.T, handlers ...usecase.Handler) (*KafkaConsumer, *ants.Pool) {
	t.Helper()

	registry := usecase.NewRegistry(logging.NewNop())
	for _, h := range handlers {
		if err := registry.Register(h); err != nil {
			t.Fatalf("register handler: %v", err)
		}
	}

	orchestrator := usecase.NewOrchestrator(
		usecase.DefaultRetryPolicy(),
		ledgermem.NewMemoryLedger(),
		dlqmem.NewMemoryStore(),
		nil,
		"worker",
		logging.NewNop(),
	)

	pool, err := ants.NewPool(4)
	if err != nil {
		t.Fatalf("create pool: %v", err)
	}

	return &KafkaConsumer{
		registry:     registry,
		orchestrator: orchestrator,
		pool:         pool,
		logger:       logging.NewNop(),
	}, pool
}

func TestDispatch_RunsEveryHandlerForOneEvent(t *testing.T) {
	t.Parallel()

	persist := &countingHandler{name: "match-completed", types: []string{event.TypeMatchCompleted}}
	invalidate := &countingHandler{name: "match-cache-invalidation", types: []string{event.TypeMatchCompleted}}
	consumer, pool := newDispatchConsumer(t, persist, invalidate)
	defer pool.Release()

	evt := event.Event{ID: "evt-1", Type: event.TypeMatchCompleted, Payload: []byte(`{}`)}
	consumer.dispatch(context.Background(), evt)

	if got := persist.callCount(); got != 1 {
		t.Fatalf("first handler ran %d times, want 1", got)
	}
	if got := invalidate.callCount(); got != 1 {
		t.Fatalf("second handler ran %d times, want 1", got)
	}

	// A redelivered copy of the same event is a no-op for both.
	consumer.dispatch(context.Background(), evt)
	if persist.callCount() != 1 || invalidate.callCount() != 1 {
		t.Fatalf("redelivery reran handlers: %d/%d calls",
			persist.callCount(), invalidate.callCount())
	}
}

func TestDispatch_PoolRejectionProcessesInline(t *testing.T) {
	t.Parallel()

	handler := &countingHandler{name: "match-completed", types: []string{event.TypeMatchCompleted}}
	consumer, pool := newDispatchConsumer(t, handler)

	// A released pool rejects every submission; the event must still be
	// settled before its offset would be marked.
	pool.Release()

	evt := event.Event{ID: "evt-2", Type: event.TypeMatchCompleted, Payload: []byte(`{}`)}
	consumer.dispatch(context.Background(), evt)

	if got := handler.callCount(); got != 1 {
		t.Fatalf("handler ran %d times, want 1", got)
	}
}
