package postgres

import (
	"database/sql"
	"time"
)

type matchResultTableModel struct {
	ID           int64        `db:"id"`
	MatchID      string       `db:"match_id"`
	TournamentID string       `db:"tournament_id"`
	HomeTeamID   string       `db:"home_team_id"`
	AwayTeamID   string       `db:"away_team_id"`
	HomeScore    int          `db:"home_score"`
	AwayScore    int          `db:"away_score"`
	Status       string       `db:"status"`
	CompletedAt  sql.NullTime `db:"completed_at"`
	CreatedAt    time.Time    `db:"created_at"`
	UpdatedAt    time.Time    `db:"updated_at"`
}

type matchResultInsertModel struct {
	MatchID      string     `db:"match_id"`
	TournamentID string     `db:"tournament_id"`
	HomeTeamID   string     `db:"home_team_id"`
	AwayTeamID   string     `db:"away_team_id"`
	HomeScore    int        `db:"home_score"`
	AwayScore    int        `db:"away_score"`
	Status       string     `db:"status"`
	CompletedAt  *time.Time `db:"completed_at"`
}

func nullTimeToTimePtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	out := value.Time
	return &out
}
