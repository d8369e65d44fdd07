package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/match"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

// MatchCompletedHandler upserts the authoritative result, folds it into the
// standings and announces the derived changes. Every step is repeat-safe.
type MatchCompletedHandler struct {
	matches   match.Repository
	standings *StandingsService
	publisher event.Publisher
	logger    *logging.Logger
}

func NewMatchCompletedHandler(
	matches match.Repository,
	standings *StandingsService,
	publisher event.Publisher,
	logger *logging.Logger,
) *MatchCompletedHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &MatchCompletedHandler{
		matches:   matches,
		standings: standings,
		publisher: publisher,
		logger:    logger,
	}
}

func (h *MatchCompletedHandler) Name() string {
	return "match-completed"
}

func (h *MatchCompletedHandler) EventTypes() []string {
	return []string{event.TypeMatchCompleted}
}

func (h *MatchCompletedHandler) Handle(ctx context.Context, evt event.Event) error {
	ctx, span := startUsecaseSpan(ctx, "MatchCompletedHandler.Handle")
	defer span.End()

	payload, err := event.DecodeMatchCompleted(evt.Payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	result := resultFromPayload(payload)
	if err := h.matches.Upsert(ctx, result); err != nil {
		return fmt.Errorf("upsert match result: %w", err)
	}

	if err := h.standings.ApplyMatch(ctx, result); err != nil {
		return fmt.Errorf("apply match to standings: %w", err)
	}

	h.publishDerived(ctx, result)
	return nil
}

// AlreadyApplied reports whether the stored result already carries this
// event's scores, the defense-in-depth check used when the ledger store is
// down.
func (h *MatchCompletedHandler) AlreadyApplied(ctx context.Context, evt event.Event) (bool, error) {
	payload, err := event.DecodeMatchCompleted(evt.Payload)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	stored, found, err := h.matches.GetByID(ctx, payload.MatchID)
	if err != nil {
		return false, fmt.Errorf("get match result: %w", err)
	}
	if !found {
		return false, nil
	}
	return stored.Status == match.StatusCompleted &&
		stored.HomeScore == *payload.HomeScore &&
		stored.AwayScore == *payload.AwayScore, nil
}

// publishDerived is best-effort: a lost notification must not retry the
// primary handler, that would duplicate the standings mutation.
func (h *MatchCompletedHandler) publishDerived(ctx context.Context, result match.Result) {
	now := time.Now().UTC()

	standingsEvt, err := deriveEvent(event.TypeStandingsUpdated, event.StandingsUpdatedPayload{
		TournamentID: result.TournamentID,
		MatchID:      result.MatchID,
		UpdatedAt:    now,
	})
	if err == nil {
		err = h.publisher.Publish(ctx, standingsEvt)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "publish standings.updated failed",
			"tournament_id", result.TournamentID,
			"match_id", result.MatchID,
			"error", err,
		)
	}

	statsEvt, err := deriveEvent(event.TypeStatisticsUpdated, event.StatisticsUpdatedPayload{
		TournamentID: result.TournamentID,
		UpdatedAt:    now,
	})
	if err == nil {
		err = h.publisher.Publish(ctx, statsEvt)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "publish statistics.updated failed",
			"tournament_id", result.TournamentID,
			"error", err,
		)
	}
}

func resultFromPayload(payload event.MatchCompletedPayload) match.Result {
	completedAt := payload.CompletedAt
	if completedAt == nil {
		now := time.Now().UTC()
		completedAt = &now
	}
	return match.Result{
		MatchID:      payload.MatchID,
		TournamentID: payload.TournamentID,
		HomeTeamID:   payload.HomeTeamID,
		AwayTeamID:   payload.AwayTeamID,
		HomeScore:    *payload.HomeScore,
		AwayScore:    *payload.AwayScore,
		Status:       match.StatusCompleted,
		CompletedAt:  completedAt,
	}
}

// deriveEvent wraps a payload in a cross-service envelope with a fresh id.
func deriveEvent(eventType string, payload any) (event.Event, error) {
	raw, err := encodePayload(payload)
	if err != nil {
		return event.Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return event.Event{
		ID:      uuid.NewString(),
		Type:    event.CrossServiceType(eventType),
		Payload: raw,
	}, nil
}
