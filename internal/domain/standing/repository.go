package standing

import "context"

type Repository interface {
	GetByTeam(ctx context.Context, tournamentID, teamID string) (Standing, bool, error)
	Upsert(ctx context.Context, item Standing) error
	ListByTournament(ctx context.Context, tournamentID string) ([]Standing, error)
	// ReplaceByTournament swaps the whole table for a tournament in one
	// transaction; used by full recomputation.
	ReplaceByTournament(ctx context.Context, tournamentID string, standings []Standing) error
}
