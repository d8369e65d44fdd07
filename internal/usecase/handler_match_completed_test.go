package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/match"
	"github.com/yared-ayele-debela/tournament-events/internal/infrastructure/repository/memory"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

func matchCompletedEvent(id string) event.Event {
	return event.Event{
		ID:   id,
		Type: event.TypeMatchCompleted,
		Payload: []byte(`{
			"match_id": "m1",
			"tournament_id": "t1",
			"home_team_id": "team-a",
			"away_team_id": "team-b",
			"home_score": 2,
			"away_score": 1
		}`),
	}
}

func newMatchCompletedFixture() (*MatchCompletedHandler, *memory.MatchResultRepository, *memory.StandingRepository, *capturePublisher) {
	matches := memory.NewMatchResultRepository()
	standings := memory.NewStandingRepository()
	publisher := &capturePublisher{}
	service := NewStandingsService(standings, matches, nil, nil, 0, logging.NewNop())
	handler := NewMatchCompletedHandler(matches, service, publisher, logging.NewNop())
	return handler, matches, standings, publisher
}

func TestMatchCompletedHandler_Handle(t *testing.T) {
	t.Parallel()

	handler, matches, standings, publisher := newMatchCompletedFixture()
	ctx := context.Background()

	if err := handler.Handle(ctx, matchCompletedEvent("evt-1")); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	stored, found, _ := matches.GetByID(ctx, "m1")
	if !found || stored.Status != match.StatusCompleted || stored.HomeScore != 2 {
		t.Fatalf("unexpected stored result: found=%t %+v", found, stored)
	}
	if stored.CompletedAt == nil {
		t.Fatal("completed_at must default to processing time")
	}

	home, _, _ := standings.GetByTeam(ctx, "t1", "team-a")
	if home.Won != 1 || home.Points != 3 {
		t.Fatalf("home standing not applied: %+v", home)
	}

	published := publisher.published()
	if len(published) != 2 {
		t.Fatalf("expected 2 derived events, got %d", len(published))
	}
	if published[0].Type != "sports.standings.updated" || published[1].Type != "sports.statistics.updated" {
		t.Fatalf("unexpected derived event types: %s, %s", published[0].Type, published[1].Type)
	}
	if published[0].ID == "" || published[0].ID == published[1].ID {
		t.Fatalf("derived events need fresh distinct ids: %q %q", published[0].ID, published[1].ID)
	}
}

func TestMatchCompletedHandler_InvalidPayload(t *testing.T) {
	t.Parallel()

	handler, _, standings, _ := newMatchCompletedFixture()

	evt := event.Event{ID: "evt-2", Type: event.TypeMatchCompleted, Payload: []byte(`{"match_id":"m1"}`)}
	err := handler.Handle(context.Background(), evt)
	if !errors.Is(err, ErrInvalidPayload) {
		t.Fatalf("expected invalid payload error, got %v", err)
	}
	if standings.UpsertCount != 0 {
		t.Fatal("invalid payload must not touch standings")
	}
}

func TestMatchCompletedHandler_PublishFailureDoesNotFailHandler(t *testing.T) {
	t.Parallel()

	handler, matches, _, publisher := newMatchCompletedFixture()
	publisher.Fail = errors.New("broker unreachable")

	if err := handler.Handle(context.Background(), matchCompletedEvent("evt-3")); err != nil {
		t.Fatalf("lost notification must not fail the handler, got %v", err)
	}
	if _, found, _ := matches.GetByID(context.Background(), "m1"); !found {
		t.Fatal("result must be stored despite publish failure")
	}
}

func TestMatchCompletedHandler_AlreadyApplied(t *testing.T) {
	t.Parallel()

	handler, _, _, _ := newMatchCompletedFixture()
	ctx := context.Background()
	evt := matchCompletedEvent("evt-4")

	applied, err := handler.AlreadyApplied(ctx, evt)
	if err != nil || applied {
		t.Fatalf("unprocessed event reported applied=%t err=%v", applied, err)
	}

	if err := handler.Handle(ctx, evt); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	applied, err = handler.AlreadyApplied(ctx, evt)
	if err != nil || !applied {
		t.Fatalf("processed event reported applied=%t err=%v", applied, err)
	}
}
