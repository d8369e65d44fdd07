package match

import "context"

type Repository interface {
	GetByID(ctx context.Context, matchID string) (Result, bool, error)
	Upsert(ctx context.Context, result Result) error
	ListCompletedByTournament(ctx context.Context, tournamentID string) ([]Result, error)
	// CancelByTournament moves every match currently in one of fromStatuses
	// to CANCELLED and reports how many rows changed.
	CancelByTournament(ctx context.Context, tournamentID string, fromStatuses []string) (int, error)
}
