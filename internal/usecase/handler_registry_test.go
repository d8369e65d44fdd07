package usecase

import (
	"testing"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

func TestRegistry_DispatchByNormalizedType(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(logging.NewNop())
	handler := &scriptedHandler{name: "match-completed", types: []string{"sports.match.completed"}}
	if err := registry.Register(handler); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	for _, eventType := range []string{"match.completed", "sports.match.completed"} {
		found := registry.HandlersFor(eventType)
		if len(found) != 1 || found[0].Name() != "match-completed" {
			t.Fatalf("lookup %q returned %d handlers", eventType, len(found))
		}
	}

	if found := registry.HandlersFor("match.cancelled"); len(found) != 0 {
		t.Fatalf("unexpected handlers for unregistered type: %d", len(found))
	}
}

func TestRegistry_MultipleHandlersPerType(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(logging.NewNop())
	first := &scriptedHandler{name: "standings", types: []string{event.TypeMatchCompleted}}
	second := &scriptedHandler{name: "cache", types: []string{event.TypeMatchCompleted, event.TypeMatchCancelled}}
	for _, h := range []*scriptedHandler{first, second} {
		if err := registry.Register(h); err != nil {
			t.Fatalf("register %s failed: %v", h.name, err)
		}
	}

	if found := registry.HandlersFor(event.TypeMatchCompleted); len(found) != 2 {
		t.Fatalf("expected both handlers, got %d", len(found))
	}
	if got := registry.Types(); len(got) != 2 {
		t.Fatalf("expected 2 canonical types, got %v", got)
	}
}

func TestRegistry_RejectsEmptyTypeList(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(logging.NewNop())
	handler := &scriptedHandler{name: "broken", types: []string{" "}}
	if err := registry.Register(handler); err == nil {
		t.Fatal("expected error for blank event type")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatal("expected error for nil handler")
	}
}
