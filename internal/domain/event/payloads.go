package event

import (
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// MatchCompletedPayload carries a final score for one match. Scores are
// pointers so a missing field is distinguishable from a legitimate zero.
type MatchCompletedPayload struct {
	MatchID      string     `json:"match_id" validate:"required"`
	TournamentID string     `json:"tournament_id" validate:"required"`
	HomeTeamID   string     `json:"home_team_id" validate:"required"`
	AwayTeamID   string     `json:"away_team_id" validate:"required"`
	HomeScore    *int       `json:"home_score" validate:"required,min=0"`
	AwayScore    *int       `json:"away_score" validate:"required,min=0"`
	CompletedAt  *time.Time `json:"completed_at"`
}

type TournamentStatusPayload struct {
	TournamentID   string `json:"tournament_id" validate:"required"`
	Status         string `json:"status" validate:"required"`
	PreviousStatus string `json:"previous_status"`
}

// StandingsUpdatedPayload is the derived event published after a match has
// been applied to the table.
type StandingsUpdatedPayload struct {
	TournamentID string    `json:"tournament_id"`
	MatchID      string    `json:"match_id,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type StatisticsUpdatedPayload struct {
	TournamentID string    `json:"tournament_id"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type TournamentRecalculatedPayload struct {
	TournamentID   string    `json:"tournament_id"`
	TeamCount      int       `json:"team_count"`
	RecalculatedAt time.Time `json:"recalculated_at"`
}

// EntityIDs is the loose projection the cache router works from. Any field
// may be empty; generators skip the tags they cannot build.
type EntityIDs struct {
	MatchID      string `json:"match_id"`
	TournamentID string `json:"tournament_id"`
	TeamID       string `json:"team_id"`
	HomeTeamID   string `json:"home_team_id"`
	AwayTeamID   string `json:"away_team_id"`
}

func DecodeMatchCompleted(raw []byte) (MatchCompletedPayload, error) {
	var payload MatchCompletedPayload
	if err := decodeInto(raw, &payload); err != nil {
		return MatchCompletedPayload{}, err
	}
	payload.MatchID = strings.TrimSpace(payload.MatchID)
	payload.TournamentID = strings.TrimSpace(payload.TournamentID)
	payload.HomeTeamID = strings.TrimSpace(payload.HomeTeamID)
	payload.AwayTeamID = strings.TrimSpace(payload.AwayTeamID)
	return payload, nil
}

func DecodeTournamentStatus(raw []byte) (TournamentStatusPayload, error) {
	var payload TournamentStatusPayload
	if err := decodeInto(raw, &payload); err != nil {
		return TournamentStatusPayload{}, err
	}
	payload.TournamentID = strings.TrimSpace(payload.TournamentID)
	return payload, nil
}

func DecodeEntityIDs(raw []byte) EntityIDs {
	var ids EntityIDs
	if len(raw) == 0 {
		return ids
	}
	// Best effort: a payload that does not decode simply yields no ids.
	_ = sonic.Unmarshal(raw, &ids)
	return ids
}

func decodeInto(raw []byte, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("payload is empty")
	}
	if err := sonic.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("validate payload: %w", err)
	}
	return nil
}
