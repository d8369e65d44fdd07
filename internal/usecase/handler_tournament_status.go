package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/match"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/tournament"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

// TournamentStatusHandler cascades a tournament lifecycle change onto its
// matches and standings. Completion triggers a full table recompute under
// its own bounded retry, separate from the per-event retry, since it is a
// heavier tournament-wide operation.
type TournamentStatusHandler struct {
	matches         match.Repository
	standings       *StandingsService
	publisher       event.Publisher
	recomputePolicy RetryPolicy
	logger          *logging.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func NewTournamentStatusHandler(
	matches match.Repository,
	standings *StandingsService,
	publisher event.Publisher,
	recomputePolicy RetryPolicy,
	logger *logging.Logger,
) *TournamentStatusHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &TournamentStatusHandler{
		matches:         matches,
		standings:       standings,
		publisher:       publisher,
		recomputePolicy: NormalizeRetryPolicy(recomputePolicy),
		logger:          logger,
		sleep:           sleepContext,
	}
}

func (h *TournamentStatusHandler) Name() string {
	return "tournament-status-changed"
}

func (h *TournamentStatusHandler) EventTypes() []string {
	return []string{event.TypeTournamentStatusChanged}
}

func (h *TournamentStatusHandler) Handle(ctx context.Context, evt event.Event) error {
	ctx, span := startUsecaseSpan(ctx, "TournamentStatusHandler.Handle")
	defer span.End()

	payload, err := event.DecodeTournamentStatus(evt.Payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	switch tournament.NormalizeStatus(payload.Status) {
	case tournament.StatusCompleted:
		return h.onCompleted(ctx, payload.TournamentID)
	case tournament.StatusCancelled:
		return h.onCancelled(ctx, payload.TournamentID)
	default:
		h.logger.DebugContext(ctx, "tournament status change needs no cascade",
			"tournament_id", payload.TournamentID,
			"status", payload.Status,
		)
		return nil
	}
}

// AlreadyApplied always answers false: the cascade is built from upserts
// and a deterministic recompute, so re-running it converges.
func (h *TournamentStatusHandler) AlreadyApplied(context.Context, event.Event) (bool, error) {
	return false, nil
}

func (h *TournamentStatusHandler) onCompleted(ctx context.Context, tournamentID string) error {
	cancelled, err := h.matches.CancelByTournament(ctx, tournamentID, []string{match.StatusScheduled})
	if err != nil {
		return fmt.Errorf("cancel scheduled matches: %w", err)
	}
	if cancelled > 0 {
		h.logger.InfoContext(ctx, "cancelled unplayed matches of completed tournament",
			"tournament_id", tournamentID,
			"count", cancelled,
		)
	}

	teamCount, err := h.recomputeWithRetry(ctx, tournamentID)
	if err != nil {
		return err
	}

	h.publishRecalculated(ctx, tournamentID, teamCount)
	return nil
}

func (h *TournamentStatusHandler) onCancelled(ctx context.Context, tournamentID string) error {
	// Outright cancellation also stops matches already underway; completed
	// ones keep their results.
	cancelled, err := h.matches.CancelByTournament(ctx, tournamentID,
		[]string{match.StatusScheduled, match.StatusInProgress})
	if err != nil {
		return fmt.Errorf("cancel open matches: %w", err)
	}

	h.logger.InfoContext(ctx, "tournament cancelled, open matches closed",
		"tournament_id", tournamentID,
		"count", cancelled,
	)
	return nil
}

func (h *TournamentStatusHandler) recomputeWithRetry(ctx context.Context, tournamentID string) (int, error) {
	var lastErr error
	for attempt := 1; attempt <= h.recomputePolicy.MaxAttempts; attempt++ {
		teamCount, err := h.standings.RecomputeTournament(ctx, tournamentID)
		if err == nil {
			return teamCount, nil
		}
		lastErr = err
		if IsFatal(err) {
			return 0, err
		}

		h.logger.WarnContext(ctx, "tournament recompute attempt failed",
			"tournament_id", tournamentID,
			"attempt", attempt,
			"max_attempts", h.recomputePolicy.MaxAttempts,
			"error", err,
		)
		if attempt == h.recomputePolicy.MaxAttempts {
			break
		}
		if err := h.sleep(ctx, h.recomputePolicy.Backoff(attempt)); err != nil {
			return 0, err
		}
	}
	return 0, fmt.Errorf("recompute tournament %s: %w", tournamentID, lastErr)
}

func (h *TournamentStatusHandler) publishRecalculated(ctx context.Context, tournamentID string, teamCount int) {
	evt, err := deriveEvent(event.TypeTournamentRecalculated, event.TournamentRecalculatedPayload{
		TournamentID:   tournamentID,
		TeamCount:      teamCount,
		RecalculatedAt: time.Now().UTC(),
	})
	if err == nil {
		err = h.publisher.Publish(ctx, evt)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "publish tournament.recalculated failed",
			"tournament_id", tournamentID,
			"error", err,
		)
	}
}
