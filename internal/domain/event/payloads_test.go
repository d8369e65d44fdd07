package event

import (
	"strings"
	"testing"
)

func TestDecodeMatchCompleted_Valid(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"match_id": " m-1 ",
		"tournament_id": "t-1",
		"home_team_id": "team-a",
		"away_team_id": "team-b",
		"home_score": 0,
		"away_score": 2
	}`)

	payload, err := DecodeMatchCompleted(raw)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if payload.MatchID != "m-1" {
		t.Fatalf("match id not trimmed: %q", payload.MatchID)
	}
	if *payload.HomeScore != 0 || *payload.AwayScore != 2 {
		t.Fatalf("unexpected scores: home=%d away=%d", *payload.HomeScore, *payload.AwayScore)
	}
}

func TestDecodeMatchCompleted_MissingScoreIsInvalid(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"match_id": "m-1",
		"tournament_id": "t-1",
		"home_team_id": "team-a",
		"away_team_id": "team-b",
		"home_score": 1
	}`)

	if _, err := DecodeMatchCompleted(raw); err == nil {
		t.Fatal("expected validation error for missing away_score")
	}
}

func TestDecodeMatchCompleted_NegativeScoreIsInvalid(t *testing.T) {
	t.Parallel()

	raw := []byte(`{
		"match_id": "m-1",
		"tournament_id": "t-1",
		"home_team_id": "team-a",
		"away_team_id": "team-b",
		"home_score": -1,
		"away_score": 0
	}`)

	if _, err := DecodeMatchCompleted(raw); err == nil {
		t.Fatal("expected validation error for negative score")
	}
}

func TestDecodeTournamentStatus_EmptyPayload(t *testing.T) {
	t.Parallel()

	if _, err := DecodeTournamentStatus(nil); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestDecodeEntityIDs_BestEffort(t *testing.T) {
	t.Parallel()

	ids := DecodeEntityIDs([]byte(`{"tournament_id":"t-9","home_team_id":"team-a"}`))
	if ids.TournamentID != "t-9" || ids.HomeTeamID != "team-a" {
		t.Fatalf("unexpected ids: %+v", ids)
	}

	if got := DecodeEntityIDs([]byte(`not json`)); got != (EntityIDs{}) {
		t.Fatalf("malformed payload must yield empty ids, got %+v", got)
	}
}

func TestNormalizeType_StripsCrossServicePrefix(t *testing.T) {
	t.Parallel()

	if got := NormalizeType(" sports.match.completed "); got != TypeMatchCompleted {
		t.Fatalf("unexpected normalized type: %q", got)
	}
	if got := NormalizeType("match.completed"); got != TypeMatchCompleted {
		t.Fatalf("unprefixed type must pass through, got %q", got)
	}
}

func TestCrossServiceType_RoundTrip(t *testing.T) {
	t.Parallel()

	got := CrossServiceType(TypeStandingsUpdated)
	if !strings.HasPrefix(got, "sports.") {
		t.Fatalf("expected sports. prefix, got %q", got)
	}
	if NormalizeType(got) != TypeStandingsUpdated {
		t.Fatalf("round trip broke the type: %q", got)
	}
}

func TestDecode_Envelope(t *testing.T) {
	t.Parallel()

	evt, err := Decode([]byte(`{"event_id":"e-1","event_type":"sports.match.completed","payload":{"match_id":"m-1"}}`))
	if err != nil {
		t.Fatalf("decode envelope failed: %v", err)
	}
	if evt.ID != "e-1" || evt.Type != "sports.match.completed" {
		t.Fatalf("unexpected envelope: %+v", evt)
	}
	if evt.ReceivedAt.IsZero() {
		t.Fatal("ReceivedAt must be stamped on decode")
	}
}
