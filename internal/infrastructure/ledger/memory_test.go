package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/ledger"
)

func TestMemoryLedger_BeginIsAtomicUnderConcurrency(t *testing.T) {
	t.Parallel()

	store := NewMemoryLedger()
	const workers = 64

	var wg sync.WaitGroup
	wg.Add(workers)
	states := make(chan ledger.BeginState, workers)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			state, err := store.Begin(context.Background(), "evt-1")
			if err != nil {
				t.Errorf("begin failed: %v", err)
				return
			}
			states <- state
		}()
	}
	close(start)
	wg.Wait()
	close(states)

	winners := 0
	for state := range states {
		if state == ledger.BeginNew {
			winners++
		} else if state != ledger.BeginAlreadyProcessing {
			t.Fatalf("unexpected state: %s", state)
		}
	}
	if winners != 1 {
		t.Fatalf("%d callers observed BeginNew, want exactly 1", winners)
	}
}

func TestMemoryLedger_Lifecycle(t *testing.T) {
	t.Parallel()

	store := NewMemoryLedger()
	ctx := context.Background()

	state, err := store.Begin(ctx, "evt-1")
	if err != nil || state != ledger.BeginNew {
		t.Fatalf("first begin: state=%s err=%v", state, err)
	}

	if err := store.Commit(ctx, "evt-1", "processed by worker"); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	state, err = store.Begin(ctx, "evt-1")
	if err != nil || state != ledger.BeginAlreadyProcessed {
		t.Fatalf("begin after commit: state=%s err=%v", state, err)
	}

	processed, err := store.IsProcessed(ctx, "evt-1")
	if err != nil || !processed {
		t.Fatalf("is-processed after commit: %t err=%v", processed, err)
	}
}

func TestMemoryLedger_ReleaseReopensOnlyProcessingMarks(t *testing.T) {
	t.Parallel()

	store := NewMemoryLedger()
	ctx := context.Background()

	if _, err := store.Begin(ctx, "evt-1"); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := store.Release(ctx, "evt-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	if state, _ := store.Begin(ctx, "evt-1"); state != ledger.BeginNew {
		t.Fatalf("released event must be retryable, got %s", state)
	}

	if err := store.Commit(ctx, "evt-1", "done"); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if err := store.Release(ctx, "evt-1"); err != nil {
		t.Fatalf("release after commit failed: %v", err)
	}
	if state, _ := store.Begin(ctx, "evt-1"); state != ledger.BeginAlreadyProcessed {
		t.Fatalf("release must never drop a processed mark, got %s", state)
	}
}
