package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/ledger"
)

// MemoryLedger is the in-process implementation used by tests and local
// runs. Begin holds the mutex across test-and-set, matching the atomicity
// the Redis implementation gets from SET NX.
type MemoryLedger struct {
	mu      sync.Mutex
	records map[string]ledger.Record

	// Fail makes every call error, simulating a degraded backing store.
	Fail error
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{records: make(map[string]ledger.Record)}
}

func (l *MemoryLedger) Begin(_ context.Context, eventID string) (ledger.BeginState, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Fail != nil {
		return "", l.Fail
	}

	if record, ok := l.records[eventID]; ok {
		if record.State == ledger.StateProcessed {
			return ledger.BeginAlreadyProcessed, nil
		}
		return ledger.BeginAlreadyProcessing, nil
	}

	l.records[eventID] = ledger.Record{
		EventID:    eventID,
		State:      ledger.StateProcessing,
		RecordedAt: time.Now().UTC(),
	}
	return ledger.BeginNew, nil
}

func (l *MemoryLedger) Commit(_ context.Context, eventID, summary string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Fail != nil {
		return l.Fail
	}

	l.records[eventID] = ledger.Record{
		EventID:    eventID,
		State:      ledger.StateProcessed,
		Summary:    summary,
		RecordedAt: time.Now().UTC(),
	}
	return nil
}

func (l *MemoryLedger) Release(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Fail != nil {
		return l.Fail
	}

	if record, ok := l.records[eventID]; ok && record.State == ledger.StateProcessing {
		delete(l.records, eventID)
	}
	return nil
}

func (l *MemoryLedger) IsProcessed(_ context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.Fail != nil {
		return false, l.Fail
	}

	record, ok := l.records[eventID]
	return ok && record.State == ledger.StateProcessed, nil
}
