package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/tournament"
)

// capturePublisher records published events; Fail makes every publish error.
type capturePublisher struct {
	mu     sync.Mutex
	events []event.Event
	Fail   error
}

func (p *capturePublisher) Publish(_ context.Context, evt event.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Fail != nil {
		return p.Fail
	}
	p.events = append(p.events, evt)
	return nil
}

func (p *capturePublisher) published() []event.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Event, len(p.events))
	copy(out, p.events)
	return out
}

// stubReader serves a fixed tournament; Err makes every lookup fail.
type stubReader struct {
	tournament tournament.Tournament
	Err        error
}

func (r stubReader) GetMatch(context.Context, string) (tournament.Match, error) {
	return tournament.Match{}, r.Err
}

func (r stubReader) GetTeam(context.Context, string) (tournament.Team, error) {
	return tournament.Team{}, r.Err
}

func (r stubReader) GetTournament(context.Context, string) (tournament.Tournament, error) {
	if r.Err != nil {
		return tournament.Tournament{}, r.Err
	}
	return r.tournament, nil
}

// scriptedHandler fails its first failures attempts with err, then
// succeeds. Used to drive the orchestrator through its retry branches.
type scriptedHandler struct {
	name     string
	types    []string
	failures int
	err      error

	mu      sync.Mutex
	calls   int
	applied bool
}

func (h *scriptedHandler) Name() string {
	if h.name == "" {
		return "scripted"
	}
	return h.name
}

func (h *scriptedHandler) EventTypes() []string {
	if len(h.types) == 0 {
		return []string{event.TypeMatchCompleted}
	}
	return h.types
}

func (h *scriptedHandler) Handle(context.Context, event.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls++
	if h.calls <= h.failures {
		return h.err
	}
	return nil
}

func (h *scriptedHandler) AlreadyApplied(context.Context, event.Event) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.applied, nil
}

func (h *scriptedHandler) callCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

// sleepRecorder replaces real backoff waits and records the requested
// delays.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return nil
}

func (s *sleepRecorder) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.delays))
	copy(out, s.delays)
	return out
}
