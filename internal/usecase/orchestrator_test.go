package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/deadletter"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/ledger"
	dlqmem "github.com/yared-ayele-debela/tournament-events/internal/infrastructure/deadletter"
	ledgermem "github.com/yared-ayele-debela/tournament-events/internal/infrastructure/ledger"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

var errTransient = errors.New("store briefly down")

func fastPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		BaseBackoff:    time.Millisecond,
		MaxBackoff:     8 * time.Millisecond,
		AttemptTimeout: time.Second,
	}
}

func testEvent(id string) event.Event {
	return event.Event{ID: id, Type: event.TypeMatchCompleted, Payload: []byte(`{}`)}
}

func TestOrchestrator_RetryThenSucceed(t *testing.T) {
	t.Parallel()

	idempotency := ledgermem.NewMemoryLedger()
	deadLetters := dlqmem.NewMemoryStore()
	orch := NewOrchestrator(fastPolicy(), idempotency, deadLetters, nil, "worker", logging.NewNop())
	sleeps := &sleepRecorder{}
	orch.sleep = sleeps.sleep

	handler := &scriptedHandler{failures: 2, err: errTransient}

	if err := orch.Process(context.Background(), testEvent("evt-1"), handler); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if got := handler.callCount(); got != 3 {
		t.Fatalf("handler ran %d times, want 3", got)
	}
	if got := sleeps.recorded(); len(got) != 2 || got[0] != time.Millisecond || got[1] != 2*time.Millisecond {
		t.Fatalf("unexpected backoff sequence: %v", got)
	}

	processed, err := idempotency.IsProcessed(context.Background(), "evt-1:"+handler.Name())
	if err != nil || !processed {
		t.Fatalf("event not committed: processed=%t err=%v", processed, err)
	}
	if depth, _ := deadLetters.Depth(context.Background()); depth != 0 {
		t.Fatalf("unexpected dead letters: %d", depth)
	}
}

func TestOrchestrator_ExhaustionDeadLettersOnce(t *testing.T) {
	t.Parallel()

	idempotency := ledgermem.NewMemoryLedger()
	deadLetters := dlqmem.NewMemoryStore()
	orch := NewOrchestrator(fastPolicy(), idempotency, deadLetters, nil, "worker", logging.NewNop())
	orch.sleep = (&sleepRecorder{}).sleep

	handler := &scriptedHandler{failures: 99, err: errTransient}

	err := orch.Process(context.Background(), testEvent("evt-2"), handler)
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected transient error back, got %v", err)
	}
	if got := handler.callCount(); got != 3 {
		t.Fatalf("handler ran %d times, want 3", got)
	}

	entries, _ := deadLetters.Peek(context.Background(), 10)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one dead letter, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Reason != deadletter.ReasonMaxRetriesExceeded {
		t.Fatalf("unexpected reason: %s", entry.Reason)
	}
	if entry.Service != "worker/scripted" {
		t.Fatalf("unexpected service tag: %s", entry.Service)
	}

	// The processing mark must be released so a later redelivery can retry.
	state, _ := idempotency.Begin(context.Background(), "evt-2:"+handler.Name())
	if state != ledger.BeginNew {
		t.Fatalf("expected released ledger slot, got state %s", state)
	}
}

func TestOrchestrator_FatalErrorShortCircuits(t *testing.T) {
	t.Parallel()

	idempotency := ledgermem.NewMemoryLedger()
	deadLetters := dlqmem.NewMemoryStore()
	orch := NewOrchestrator(fastPolicy(), idempotency, deadLetters, nil, "worker", logging.NewNop())

	fatal := fmt.Errorf("%w: score is negative", ErrInvalidPayload)
	handler := &scriptedHandler{failures: 99, err: fatal}

	err := orch.Process(context.Background(), testEvent("evt-3"), handler)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected invalid payload error, got %v", err)
	}
	if got := handler.callCount(); got != 1 {
		t.Fatalf("fatal error must not retry, handler ran %d times", got)
	}

	entries, _ := deadLetters.Peek(context.Background(), 10)
	if len(entries) != 1 || entries[0].Reason != deadletter.ReasonInvalidPayload {
		t.Fatalf("unexpected dead letters: %+v", entries)
	}
}

func TestOrchestrator_DuplicateDeliveryIsNoOp(t *testing.T) {
	t.Parallel()

	idempotency := ledgermem.NewMemoryLedger()
	deadLetters := dlqmem.NewMemoryStore()
	orch := NewOrchestrator(fastPolicy(), idempotency, deadLetters, nil, "worker", logging.NewNop())

	first := &scriptedHandler{}
	if err := orch.Process(context.Background(), testEvent("evt-4"), first); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}

	second := &scriptedHandler{}
	if err := orch.Process(context.Background(), testEvent("evt-4"), second); err != nil {
		t.Fatalf("duplicate delivery must be a no-op success, got %v", err)
	}
	if got := second.callCount(); got != 0 {
		t.Fatalf("duplicate delivery ran the handler %d times", got)
	}
}

func TestOrchestrator_LedgerScopesRecordsPerHandler(t *testing.T) {
	t.Parallel()

	idempotency := ledgermem.NewMemoryLedger()
	orch := NewOrchestrator(fastPolicy(), idempotency, dlqmem.NewMemoryStore(), nil, "worker", logging.NewNop())

	// One event fans out to two handlers; the second must not be
	// short-circuited by the first handler's ledger record.
	persist := &scriptedHandler{name: "match-completed"}
	invalidate := &scriptedHandler{name: "match-cache-invalidation"}

	evt := testEvent("evt-fanout")
	if err := orch.Process(context.Background(), evt, persist); err != nil {
		t.Fatalf("first handler failed: %v", err)
	}
	if err := orch.Process(context.Background(), evt, invalidate); err != nil {
		t.Fatalf("second handler failed: %v", err)
	}

	if got := persist.callCount(); got != 1 {
		t.Fatalf("first handler ran %d times, want 1", got)
	}
	if got := invalidate.callCount(); got != 1 {
		t.Fatalf("second handler ran %d times, want 1", got)
	}

	// A redelivery is still a no-op for each handler independently.
	if err := orch.Process(context.Background(), evt, invalidate); err != nil {
		t.Fatalf("redelivery must be a no-op success, got %v", err)
	}
	if got := invalidate.callCount(); got != 1 {
		t.Fatalf("redelivery reran the handler, %d calls", got)
	}
}

func TestOrchestrator_InterruptedBackoffIsNotDeadLettered(t *testing.T) {
	t.Parallel()

	idempotency := ledgermem.NewMemoryLedger()
	deadLetters := dlqmem.NewMemoryStore()
	orch := NewOrchestrator(fastPolicy(), idempotency, deadLetters, nil, "worker", logging.NewNop())
	orch.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	handler := &scriptedHandler{failures: 99, err: errTransient}

	err := orch.Process(context.Background(), testEvent("evt-8"), handler)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected the interruption back, got %v", err)
	}
	if got := handler.callCount(); got != 1 {
		t.Fatalf("handler ran %d times before the interruption, want 1", got)
	}

	// Retries were not exhausted, so no dead letter is written and the
	// processing mark is released for redelivery.
	if depth, _ := deadLetters.Depth(context.Background()); depth != 0 {
		t.Fatalf("interrupted backoff produced %d dead letters", depth)
	}
	state, _ := idempotency.Begin(context.Background(), "evt-8:"+handler.Name())
	if state != ledger.BeginNew {
		t.Fatalf("expected released ledger slot, got state %s", state)
	}
}

func TestOrchestrator_MissingEventIDDeadLetters(t *testing.T) {
	t.Parallel()

	deadLetters := dlqmem.NewMemoryStore()
	orch := NewOrchestrator(fastPolicy(), ledgermem.NewMemoryLedger(), deadLetters, nil, "worker", logging.NewNop())

	handler := &scriptedHandler{}
	err := orch.Process(context.Background(), event.Event{Type: event.TypeMatchCompleted}, handler)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected invalid payload error, got %v", err)
	}
	if got := handler.callCount(); got != 0 {
		t.Fatalf("handler must not run without an event id, ran %d times", got)
	}

	entries, _ := deadLetters.Peek(context.Background(), 1)
	if len(entries) != 1 || entries[0].Reason != deadletter.ReasonInvalidPayload {
		t.Fatalf("unexpected dead letters: %+v", entries)
	}
}

func TestOrchestrator_DegradedLedgerUsesFallbackCheck(t *testing.T) {
	t.Parallel()

	idempotency := ledgermem.NewMemoryLedger()
	idempotency.Fail = errors.New("redis down")
	orch := NewOrchestrator(fastPolicy(), idempotency, dlqmem.NewMemoryStore(), nil, "worker", logging.NewNop())

	applied := &scriptedHandler{applied: true}
	if err := orch.Process(context.Background(), testEvent("evt-5"), applied); err != nil {
		t.Fatalf("already-applied event must settle cleanly, got %v", err)
	}
	if got := applied.callCount(); got != 0 {
		t.Fatalf("already-applied event ran the handler %d times", got)
	}

	fresh := &scriptedHandler{}
	if err := orch.Process(context.Background(), testEvent("evt-6"), fresh); err != nil {
		t.Fatalf("fresh event must process despite degraded ledger, got %v", err)
	}
	if got := fresh.callCount(); got != 1 {
		t.Fatalf("fresh event ran the handler %d times, want 1", got)
	}
}

func TestOrchestrator_AlertFiresOnDeadLetter(t *testing.T) {
	t.Parallel()

	alerted := make(chan deadletter.Entry, 1)
	alert := func(entry deadletter.Entry) { alerted <- entry }
	orch := NewOrchestrator(fastPolicy(), ledgermem.NewMemoryLedger(), dlqmem.NewMemoryStore(), alert, "worker", logging.NewNop())
	orch.sleep = (&sleepRecorder{}).sleep

	handler := &scriptedHandler{failures: 99, err: errTransient}
	_ = orch.Process(context.Background(), testEvent("evt-7"), handler)

	select {
	case entry := <-alerted:
		if entry.Event.ID != "evt-7" {
			t.Fatalf("alert carries wrong event: %+v", entry)
		}
	case <-time.After(time.Second):
		t.Fatal("alert hook never fired")
	}
}

func TestRetryPolicy_BackoffDoublesAndCaps(t *testing.T) {
	t.Parallel()

	policy := RetryPolicy{BaseBackoff: time.Second, MaxBackoff: 5 * time.Second}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := policy.Backoff(i + 1); got != expected {
			t.Fatalf("backoff(%d) = %s, want %s", i+1, got, expected)
		}
	}
}
