package memory

import (
	"context"
	"sync"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/standing"
)

type standingKey struct {
	tournamentID string
	teamID       string
}

type StandingRepository struct {
	mu   sync.RWMutex
	rows map[standingKey]standing.Standing

	// FailUpsert makes the next Upsert calls error until cleared.
	FailUpsert error
	// UpsertCount tracks write attempts for retry assertions.
	UpsertCount int
}

func NewStandingRepository() *StandingRepository {
	return &StandingRepository{rows: make(map[standingKey]standing.Standing)}
}

func (r *StandingRepository) GetByTeam(_ context.Context, tournamentID, teamID string) (standing.Standing, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[standingKey{tournamentID, teamID}]
	return row, ok, nil
}

func (r *StandingRepository) Upsert(_ context.Context, item standing.Standing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.UpsertCount++
	if r.FailUpsert != nil {
		return r.FailUpsert
	}
	r.rows[standingKey{item.TournamentID, item.TeamID}] = item
	return nil
}

func (r *StandingRepository) ListByTournament(_ context.Context, tournamentID string) ([]standing.Standing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]standing.Standing, 0)
	for key, row := range r.rows {
		if key.tournamentID == tournamentID {
			out = append(out, row)
		}
	}
	standing.SortTable(out)
	return out, nil
}

func (r *StandingRepository) ReplaceByTournament(_ context.Context, tournamentID string, standings []standing.Standing) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for key := range r.rows {
		if key.tournamentID == tournamentID {
			delete(r.rows, key)
		}
	}
	for _, item := range standings {
		item.TournamentID = tournamentID
		r.rows[standingKey{tournamentID, item.TeamID}] = item
	}
	return nil
}
