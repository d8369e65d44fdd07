package usecase

import (
	"context"
	"fmt"

	cachedomain "github.com/yared-ayele-debela/tournament-events/internal/domain/cache"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
	"github.com/yared-ayele-debela/tournament-events/internal/platform/logging"
)

// CacheInvalidationHandler applies the router's target to the shared cache
// for one service boundary. Instances differ only in name and allow-list:
// the match-facing service and the public results service each run one.
type CacheInvalidationHandler struct {
	name       string
	eventTypes []string
	router     *CacheRouter
	cache      cachedomain.Client
	logger     *logging.Logger
}

func NewCacheInvalidationHandler(
	name string,
	eventTypes []string,
	router *CacheRouter,
	cacheClient cachedomain.Client,
	logger *logging.Logger,
) *CacheInvalidationHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &CacheInvalidationHandler{
		name:       name,
		eventTypes: eventTypes,
		router:     router,
		cache:      cacheClient,
		logger:     logger,
	}
}

func (h *CacheInvalidationHandler) Name() string {
	return h.name
}

func (h *CacheInvalidationHandler) EventTypes() []string {
	return h.eventTypes
}

func (h *CacheInvalidationHandler) Handle(ctx context.Context, evt event.Event) error {
	ctx, span := startUsecaseSpan(ctx, "CacheInvalidationHandler.Handle")
	defer span.End()

	ids := event.DecodeEntityIDs(evt.Payload)
	target, mapped := h.router.Route(evt.Type, ids)
	if !mapped {
		h.logger.DebugContext(ctx, "no cache mapping for event type",
			"event_type", evt.Type,
			"handler", h.name,
		)
		return nil
	}

	// The directly-addressed memoization keys live outside the tag system
	// and are evicted explicitly whenever the tournament is touched.
	if ids.TournamentID != "" {
		target.AddKeys(StandingsTableKey(ids.TournamentID))
		target.Normalize()
	}

	if target.IsEmpty() {
		return nil
	}
	return h.apply(ctx, evt, target)
}

// apply evicts in cost order: exact keys, then tags, then patterns. All
// three are idempotent, so a retried attempt just re-deletes nothing.
func (h *CacheInvalidationHandler) apply(ctx context.Context, evt event.Event, target cachedomain.InvalidationTarget) error {
	for _, key := range target.Keys {
		if _, err := h.cache.Forget(ctx, key); err != nil {
			return fmt.Errorf("forget key %s: %w", key, err)
		}
	}

	if len(target.Tags) > 0 {
		if err := h.cache.ForgetByTags(ctx, target.Tags); err != nil {
			return fmt.Errorf("forget tags: %w", err)
		}
	}

	evicted := 0
	for _, pattern := range target.Patterns {
		n, err := h.cache.ForgetByPattern(ctx, pattern)
		if err != nil {
			return fmt.Errorf("forget pattern %s: %w", pattern, err)
		}
		evicted += n
	}

	h.logger.DebugContext(ctx, "cache invalidated",
		"event_id", evt.ID,
		"event_type", evt.Type,
		"handler", h.name,
		"keys", len(target.Keys),
		"tags", len(target.Tags),
		"patterns", len(target.Patterns),
		"pattern_evictions", evicted,
	)
	return nil
}

// AlreadyApplied is always false: evictions are idempotent, so running the
// handler again under a degraded ledger is harmless.
func (h *CacheInvalidationHandler) AlreadyApplied(context.Context, event.Event) (bool, error) {
	return false, nil
}
