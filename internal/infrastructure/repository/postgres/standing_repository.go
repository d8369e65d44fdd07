package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/standing"
	qb "github.com/yared-ayele-debela/tournament-events/internal/platform/querybuilder"
)

const standingUpsertSuffix = `ON CONFLICT (tournament_id, team_id)
DO UPDATE SET
    played = EXCLUDED.played,
    won = EXCLUDED.won,
    drawn = EXCLUDED.drawn,
    lost = EXCLUDED.lost,
    goals_for = EXCLUDED.goals_for,
    goals_against = EXCLUDED.goals_against,
    points = EXCLUDED.points,
    updated_at = EXCLUDED.updated_at`

type StandingRepository struct {
	db *sqlx.DB
}

func NewStandingRepository(db *sqlx.DB) *StandingRepository {
	return &StandingRepository{db: db}
}

func (r *StandingRepository) GetByTeam(ctx context.Context, tournamentID, teamID string) (standing.Standing, bool, error) {
	query, args, err := qb.Select("*").From("standings").
		Where(
			qb.Eq("tournament_id", tournamentID),
			qb.Eq("team_id", teamID),
		).
		ToSQL()
	if err != nil {
		return standing.Standing{}, false, fmt.Errorf("build get standing query: %w", err)
	}

	var row standingTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return standing.Standing{}, false, nil
		}
		return standing.Standing{}, false, fmt.Errorf("get standing: %w", err)
	}
	return toDomainStanding(row), true, nil
}

func (r *StandingRepository) Upsert(ctx context.Context, item standing.Standing) error {
	query, args, err := qb.InsertModel("standings", toInsertModel(item), standingUpsertSuffix)
	if err != nil {
		return fmt.Errorf("build upsert standing query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert standing team=%s: %w", item.TeamID, err)
	}
	return nil
}

func (r *StandingRepository) ListByTournament(ctx context.Context, tournamentID string) ([]standing.Standing, error) {
	query, args, err := qb.Select("*").From("standings").
		Where(qb.Eq("tournament_id", tournamentID)).
		OrderBy("points DESC", "goals_for - goals_against DESC", "goals_for DESC", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list standings query: %w", err)
	}

	var rows []standingTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list standings: %w", err)
	}

	out := make([]standing.Standing, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainStanding(row))
	}
	return out, nil
}

// ReplaceByTournament clears and rebuilds the tournament's table in one
// transaction so readers never observe a half-recomputed table.
func (r *StandingRepository) ReplaceByTournament(ctx context.Context, tournamentID string, standings []standing.Standing) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace standings: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM standings WHERE tournament_id = $1", tournamentID); err != nil {
		return fmt.Errorf("clear standings: %w", err)
	}

	for _, item := range standings {
		item.TournamentID = tournamentID
		query, args, err := qb.InsertModel("standings", toInsertModel(item), standingUpsertSuffix)
		if err != nil {
			return fmt.Errorf("build insert standing query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert standing team=%s: %w", item.TeamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace standings tx: %w", err)
	}
	return nil
}

func toInsertModel(item standing.Standing) standingInsertModel {
	return standingInsertModel{
		TournamentID: item.TournamentID,
		TeamID:       item.TeamID,
		Played:       item.Played,
		Won:          item.Won,
		Drawn:        item.Drawn,
		Lost:         item.Lost,
		GoalsFor:     item.GoalsFor,
		GoalsAgainst: item.GoalsAgainst,
		Points:       item.Points,
		UpdatedAt:    item.UpdatedAt,
	}
}

func toDomainStanding(row standingTableModel) standing.Standing {
	return standing.Standing{
		TournamentID: row.TournamentID,
		TeamID:       row.TeamID,
		Played:       row.Played,
		Won:          row.Won,
		Drawn:        row.Drawn,
		Lost:         row.Lost,
		GoalsFor:     row.GoalsFor,
		GoalsAgainst: row.GoalsAgainst,
		Points:       row.Points,
		UpdatedAt:    nullTimeToTimePtr(row.UpdatedAt),
	}
}
