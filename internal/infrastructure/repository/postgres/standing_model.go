package postgres

import (
	"database/sql"
	"time"
)

type standingTableModel struct {
	ID           int64        `db:"id"`
	TournamentID string       `db:"tournament_id"`
	TeamID       string       `db:"team_id"`
	Played       int          `db:"played"`
	Won          int          `db:"won"`
	Drawn        int          `db:"drawn"`
	Lost         int          `db:"lost"`
	GoalsFor     int          `db:"goals_for"`
	GoalsAgainst int          `db:"goals_against"`
	Points       int          `db:"points"`
	UpdatedAt    sql.NullTime `db:"updated_at"`
	CreatedAt    time.Time    `db:"created_at"`
}

type standingInsertModel struct {
	TournamentID string     `db:"tournament_id"`
	TeamID       string     `db:"team_id"`
	Played       int        `db:"played"`
	Won          int        `db:"won"`
	Drawn        int        `db:"drawn"`
	Lost         int        `db:"lost"`
	GoalsFor     int        `db:"goals_for"`
	GoalsAgainst int        `db:"goals_against"`
	Points       int        `db:"points"`
	UpdatedAt    *time.Time `db:"updated_at"`
}
