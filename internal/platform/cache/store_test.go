package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestStore_Remember_SingleFlight(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var calls atomic.Int32

	compute := func(context.Context) (any, error) {
		calls.Add(1)
		time.Sleep(20 * time.Millisecond)
		return "value", nil
	}

	const workers = 32
	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(workers)
	results := make(chan any, workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			<-start
			v, err := store.Remember(context.Background(), "same-key", time.Minute, nil, compute)
			if err != nil {
				results <- err
				return
			}
			results <- v
		}()
	}

	close(start)
	wg.Wait()
	close(results)
	for v := range results {
		if got, ok := v.(string); !ok || got != "value" {
			t.Fatalf("unexpected result: %v", v)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("compute called %d times, want 1", got)
	}
}

func TestStore_Remember_ServesCachedValue(t *testing.T) {
	t.Parallel()

	store := NewStore()
	var calls atomic.Int32
	compute := func(context.Context) (any, error) {
		calls.Add(1)
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, err := store.Remember(context.Background(), "k", time.Minute, nil, compute)
		if err != nil {
			t.Fatalf("remember failed: %v", err)
		}
		if v.(int) != 42 {
			t.Fatalf("unexpected value: %v", v)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Fatalf("compute called %d times, want 1", got)
	}
}

func TestStore_Forget(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()

	if _, err := store.Remember(ctx, "k", time.Minute, nil, func(context.Context) (any, error) { return "v", nil }); err != nil {
		t.Fatalf("remember failed: %v", err)
	}

	removed, err := store.Forget(ctx, "k")
	if err != nil || !removed {
		t.Fatalf("forget existing key: removed=%t err=%v", removed, err)
	}
	removed, err = store.Forget(ctx, "k")
	if err != nil || removed {
		t.Fatalf("forget absent key: removed=%t err=%v", removed, err)
	}
}

func TestStore_ForgetByTags(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	fill := func(key string, tags []string) {
		_, err := store.Remember(ctx, key, time.Minute, tags, func(context.Context) (any, error) { return key, nil })
		if err != nil {
			t.Fatalf("remember %s: %v", key, err)
		}
	}

	fill("standings-a", []string{"tournament:t1:standings"})
	fill("standings-b", []string{"tournament:t1:standings", "teams:list"})
	fill("other", []string{"tournament:t2:standings"})

	if err := store.ForgetByTags(ctx, []string{"tournament:t1:standings"}); err != nil {
		t.Fatalf("forget by tags: %v", err)
	}

	if store.Contains("standings-a") || store.Contains("standings-b") {
		t.Fatal("tagged entries survived eviction")
	}
	if !store.Contains("other") {
		t.Fatal("entry with a different tag was evicted")
	}
}

func TestStore_ForgetByPattern(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	for _, key := range []string{"tournament:t1:matches:m1", "tournament:t1:matches:m2", "tournament:t1:standings:computed"} {
		if _, err := store.Remember(ctx, key, time.Minute, nil, func(context.Context) (any, error) { return key, nil }); err != nil {
			t.Fatalf("remember %s: %v", key, err)
		}
	}

	evicted, err := store.ForgetByPattern(ctx, "tournament:t1:matches:*")
	if err != nil {
		t.Fatalf("forget by pattern: %v", err)
	}
	if evicted != 2 {
		t.Fatalf("evicted %d entries, want 2", evicted)
	}
	if !store.Contains("tournament:t1:standings:computed") {
		t.Fatal("non-matching key was evicted")
	}
}

func TestStore_RememberExpiresByTTL(t *testing.T) {
	t.Parallel()

	store := NewStore()
	ctx := context.Background()
	var calls atomic.Int32
	compute := func(context.Context) (any, error) {
		calls.Add(1)
		return "v", nil
	}

	if _, err := store.Remember(ctx, "k", 10*time.Millisecond, nil, compute); err != nil {
		t.Fatalf("remember failed: %v", err)
	}
	time.Sleep(25 * time.Millisecond)
	if _, err := store.Remember(ctx, "k", 10*time.Millisecond, nil, compute); err != nil {
		t.Fatalf("remember after expiry failed: %v", err)
	}

	if got := calls.Load(); got != 2 {
		t.Fatalf("compute called %d times, want 2", got)
	}
}
