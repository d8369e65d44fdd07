package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/cache"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/match"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/standing"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/tournament"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

// StandingsService owns the derived standings aggregate. Only the event
// handlers mutate it; request-serving code reads it through TournamentTable.
type StandingsService struct {
	standings   standing.Repository
	matches     match.Repository
	tournaments tournament.Reader
	readCache   cache.Client
	tableTTL    time.Duration
	logger      *logging.Logger
}

func NewStandingsService(
	standings standing.Repository,
	matches match.Repository,
	tournaments tournament.Reader,
	readCache cache.Client,
	tableTTL time.Duration,
	logger *logging.Logger,
) *StandingsService {
	if logger == nil {
		logger = logging.Default()
	}
	if tableTTL <= 0 {
		tableTTL = 5 * time.Minute
	}
	return &StandingsService{
		standings:   standings,
		matches:     matches,
		tournaments: tournaments,
		readCache:   readCache,
		tableTTL:    tableTTL,
		logger:      logger,
	}
}

// ApplyMatch folds one completed result into the two involved teams' rows.
// Corrections to an already-applied match are handled by a full recompute,
// not by re-applying increments.
func (s *StandingsService) ApplyMatch(ctx context.Context, result match.Result) error {
	ctx, span := startUsecaseSpan(ctx, "StandingsService.ApplyMatch")
	defer span.End()

	if strings.TrimSpace(result.TournamentID) == "" {
		return fmt.Errorf("%w: tournament id is required", ErrInvalidPayload)
	}
	if result.HomeTeamID == "" || result.AwayTeamID == "" {
		return fmt.Errorf("%w: team ids are required", ErrInvalidPayload)
	}

	if err := s.checkMembership(ctx, result); err != nil {
		return err
	}

	now := time.Now().UTC()
	sides := []struct {
		teamID       string
		goalsFor     int
		goalsAgainst int
	}{
		{result.HomeTeamID, result.HomeScore, result.AwayScore},
		{result.AwayTeamID, result.AwayScore, result.HomeScore},
	}

	for _, side := range sides {
		row, found, err := s.standings.GetByTeam(ctx, result.TournamentID, side.teamID)
		if err != nil {
			return fmt.Errorf("get standing team=%s: %w", side.teamID, err)
		}
		if !found {
			row = standing.Standing{TournamentID: result.TournamentID, TeamID: side.teamID}
		}
		row.Apply(side.goalsFor, side.goalsAgainst)
		row.UpdatedAt = &now
		if err := s.standings.Upsert(ctx, row); err != nil {
			return fmt.Errorf("upsert standing team=%s: %w", side.teamID, err)
		}
	}

	return nil
}

// RecomputeTournament discards the tournament's table and rebuilds it from
// the full set of completed matches. Idempotent: the same match set always
// produces the same rows.
func (s *StandingsService) RecomputeTournament(ctx context.Context, tournamentID string) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "StandingsService.RecomputeTournament")
	defer span.End()

	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return 0, fmt.Errorf("%w: tournament id is required", ErrInvalidPayload)
	}

	results, err := s.matches.ListCompletedByTournament(ctx, tournamentID)
	if err != nil {
		return 0, fmt.Errorf("list completed matches: %w", err)
	}

	now := time.Now().UTC()
	rows := make(map[string]*standing.Standing)
	order := make([]string, 0, len(results)*2)
	for _, result := range results {
		for _, side := range []struct {
			teamID       string
			goalsFor     int
			goalsAgainst int
		}{
			{result.HomeTeamID, result.HomeScore, result.AwayScore},
			{result.AwayTeamID, result.AwayScore, result.HomeScore},
		} {
			row, ok := rows[side.teamID]
			if !ok {
				row = &standing.Standing{TournamentID: tournamentID, TeamID: side.teamID, UpdatedAt: &now}
				rows[side.teamID] = row
				order = append(order, side.teamID)
			}
			row.Apply(side.goalsFor, side.goalsAgainst)
		}
	}

	out := make([]standing.Standing, 0, len(order))
	for _, teamID := range order {
		out = append(out, *rows[teamID])
	}
	standing.SortTable(out)

	if err := s.standings.ReplaceByTournament(ctx, tournamentID, out); err != nil {
		return 0, fmt.Errorf("replace standings: %w", err)
	}

	return len(out), nil
}

// TournamentTable is the presentation read: sorted rows, memoized in the
// shared cache under the standings tag so the router's evictions reach it.
func (s *StandingsService) TournamentTable(ctx context.Context, tournamentID string) ([]standing.Standing, error) {
	tournamentID = strings.TrimSpace(tournamentID)
	if tournamentID == "" {
		return nil, fmt.Errorf("%w: tournament id is required", ErrInvalidPayload)
	}

	load := func(ctx context.Context) (any, error) {
		items, err := s.standings.ListByTournament(ctx, tournamentID)
		if err != nil {
			return nil, fmt.Errorf("list standings: %w", err)
		}
		standing.SortTable(items)
		return items, nil
	}

	if s.readCache == nil {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		return value.([]standing.Standing), nil
	}

	value, err := s.readCache.Remember(ctx,
		StandingsTableKey(tournamentID),
		s.tableTTL,
		[]string{StandingsTag(tournamentID)},
		load,
	)
	if err != nil {
		return nil, err
	}

	items, ok := value.([]standing.Standing)
	if !ok {
		// A shared-cache hit comes back generically decoded; map it
		// into the typed table.
		items, ok = decodeStandingsTable(value)
	}
	if !ok {
		// Stale entry from an older encoding; recompute past it.
		value, err = load(ctx)
		if err != nil {
			return nil, err
		}
		items = value.([]standing.Standing)
	}
	return items, nil
}

func decodeStandingsTable(value any) ([]standing.Standing, bool) {
	encoded, err := sonic.Marshal(value)
	if err != nil {
		return nil, false
	}
	var items []standing.Standing
	if err := sonic.Unmarshal(encoded, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (s *StandingsService) checkMembership(ctx context.Context, result match.Result) error {
	if s.tournaments == nil {
		return nil
	}

	info, err := s.tournaments.GetTournament(ctx, result.TournamentID)
	if err != nil {
		// Degraded sibling service: proceed with payload data.
		s.logger.WarnContext(ctx, "membership check skipped, sports service unavailable",
			"tournament_id", result.TournamentID,
			"error", err,
		)
		return nil
	}
	if len(info.TeamIDs) == 0 {
		return nil
	}

	for _, teamID := range []string{result.HomeTeamID, result.AwayTeamID} {
		if !info.HasTeam(teamID) {
			return fmt.Errorf("%w: team %s is not part of tournament %s", ErrBusinessRule, teamID, result.TournamentID)
		}
	}
	return nil
}

// StandingsTableKey is the directly-addressed memoization key for a
// tournament's computed table, kept outside the tag system by the cache
// invalidation handlers.
func StandingsTableKey(tournamentID string) string {
	return "tournament:" + tournamentID + ":standings:computed"
}

func StandingsTag(tournamentID string) string {
	return "tournament:" + tournamentID + ":standings"
}
