package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/match"
	qb "github.com/yared-ayele-debela/tournament-events/internal/platform/querybuilder"
)

type MatchResultRepository struct {
	db *sqlx.DB
}

func NewMatchResultRepository(db *sqlx.DB) *MatchResultRepository {
	return &MatchResultRepository{db: db}
}

func (r *MatchResultRepository) GetByID(ctx context.Context, matchID string) (match.Result, bool, error) {
	query, args, err := qb.Select("*").From("match_results").
		Where(qb.Eq("match_id", matchID)).
		ToSQL()
	if err != nil {
		return match.Result{}, false, fmt.Errorf("build get match result query: %w", err)
	}

	var row matchResultTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Result{}, false, nil
		}
		return match.Result{}, false, fmt.Errorf("get match result: %w", err)
	}

	return toDomainResult(row), true, nil
}

// Upsert is keyed by match_id so replaying the same completed-match event,
// or applying a later correction, lands in one row.
func (r *MatchResultRepository) Upsert(ctx context.Context, result match.Result) error {
	insertModel := matchResultInsertModel{
		MatchID:      result.MatchID,
		TournamentID: result.TournamentID,
		HomeTeamID:   result.HomeTeamID,
		AwayTeamID:   result.AwayTeamID,
		HomeScore:    result.HomeScore,
		AwayScore:    result.AwayScore,
		Status:       match.NormalizeStatus(result.Status),
		CompletedAt:  result.CompletedAt,
	}

	query, args, err := qb.InsertModel("match_results", insertModel, `ON CONFLICT (match_id)
DO UPDATE SET
    tournament_id = EXCLUDED.tournament_id,
    home_team_id = EXCLUDED.home_team_id,
    away_team_id = EXCLUDED.away_team_id,
    home_score = EXCLUDED.home_score,
    away_score = EXCLUDED.away_score,
    status = EXCLUDED.status,
    completed_at = EXCLUDED.completed_at,
    updated_at = NOW()`)
	if err != nil {
		return fmt.Errorf("build upsert match result query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert match result match=%s: %w", result.MatchID, err)
	}
	return nil
}

func (r *MatchResultRepository) ListCompletedByTournament(ctx context.Context, tournamentID string) ([]match.Result, error) {
	query, args, err := qb.Select("*").From("match_results").
		Where(
			qb.Eq("tournament_id", tournamentID),
			qb.Eq("status", match.StatusCompleted),
		).
		OrderBy("completed_at", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list completed matches query: %w", err)
	}

	var rows []matchResultTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list completed matches: %w", err)
	}

	out := make([]match.Result, 0, len(rows))
	for _, row := range rows {
		out = append(out, toDomainResult(row))
	}
	return out, nil
}

func (r *MatchResultRepository) CancelByTournament(ctx context.Context, tournamentID string, fromStatuses []string) (int, error) {
	if len(fromStatuses) == 0 {
		return 0, nil
	}

	statuses := make([]any, 0, len(fromStatuses))
	for _, status := range fromStatuses {
		statuses = append(statuses, match.NormalizeStatus(status))
	}

	query, args, err := qb.Update("match_results").
		Set("status", match.StatusCancelled).
		SetExpr("updated_at", "NOW()").
		Where(
			qb.Eq("tournament_id", tournamentID),
			qb.In("status", statuses),
		).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build cancel matches query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("cancel matches tournament=%s: %w", tournamentID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cancelled matches: %w", err)
	}
	return int(affected), nil
}

func toDomainResult(row matchResultTableModel) match.Result {
	return match.Result{
		MatchID:      row.MatchID,
		TournamentID: row.TournamentID,
		HomeTeamID:   row.HomeTeamID,
		AwayTeamID:   row.AwayTeamID,
		HomeScore:    row.HomeScore,
		AwayScore:    row.AwayScore,
		Status:       row.Status,
		CompletedAt:  nullTimeToTimePtr(row.CompletedAt),
	}
}
