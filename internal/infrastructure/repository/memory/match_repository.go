package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/match"
)

type MatchResultRepository struct {
	mu      sync.RWMutex
	byMatch map[string]match.Result

	// FailUpsert makes Upsert error, simulating a transient store outage.
	FailUpsert error
}

func NewMatchResultRepository() *MatchResultRepository {
	return &MatchResultRepository{byMatch: make(map[string]match.Result)}
}

func (r *MatchResultRepository) GetByID(_ context.Context, matchID string) (match.Result, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result, ok := r.byMatch[matchID]
	return result, ok, nil
}

func (r *MatchResultRepository) Upsert(_ context.Context, result match.Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailUpsert != nil {
		return r.FailUpsert
	}
	result.Status = match.NormalizeStatus(result.Status)
	r.byMatch[result.MatchID] = result
	return nil
}

func (r *MatchResultRepository) ListCompletedByTournament(_ context.Context, tournamentID string) ([]match.Result, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Result, 0)
	for _, result := range r.byMatch {
		if result.TournamentID == tournamentID && result.Status == match.StatusCompleted {
			out = append(out, result)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out, nil
}

func (r *MatchResultRepository) CancelByTournament(_ context.Context, tournamentID string, fromStatuses []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	eligible := make(map[string]bool, len(fromStatuses))
	for _, status := range fromStatuses {
		eligible[match.NormalizeStatus(status)] = true
	}

	cancelled := 0
	for id, result := range r.byMatch {
		if result.TournamentID != tournamentID || !eligible[result.Status] {
			continue
		}
		result.Status = match.StatusCancelled
		r.byMatch[id] = result
		cancelled++
	}
	return cancelled, nil
}
