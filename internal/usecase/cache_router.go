package usecase

import (
	"github.com/yared-ayele-debela/tournament-events/internal/domain/cache"
	"github.com/yared-ayele-debela/tournament-events/internal/domain/event"
)

// CacheRouter maps an event type plus the entity ids in its payload to the
// cache keys, tags and patterns to evict. It is pure: routing the same
// input always yields the same target, and applying the target is the
// caller's job.
//
// Rule of thumb encoded below: emit an exact key whenever it is
// deterministically derivable (cheapest), tags for the bulk families, and a
// pattern only where the key set cannot be enumerated without a query.
type CacheRouter struct {
	rules map[string][]targetRule
}

// targetRule contributes one slice of a target from the payload ids.
// Generators skip themselves when the id they need is absent.
type targetRule func(ids event.EntityIDs, target *cache.InvalidationTarget)

func NewCacheRouter() *CacheRouter {
	r := &CacheRouter{rules: make(map[string][]targetRule)}

	r.register(event.TypeMatchCreated,
		matchKey, tournamentMatchListTags, tournamentDetailKey, tournamentMatchPattern)
	r.register(event.TypeMatchUpdated,
		matchKey, tournamentMatchListTags, involvedTeamMatchTags)
	r.register(event.TypeMatchCompleted,
		matchKey, tournamentMatchListTags, involvedTeamMatchTags,
		standingsTags, statisticsTags, involvedTeamStandingTags)
	r.register(event.TypeMatchCancelled,
		matchKey, tournamentMatchListTags, involvedTeamMatchTags, standingsTags)

	r.register(event.TypeTeamCreated, teamKey, teamListTags)
	r.register(event.TypeTeamUpdated,
		teamKey, teamListTags, teamStandingTag, teamMatchPattern)

	r.register(event.TypeTournamentCreated, tournamentListTags)
	r.register(event.TypeTournamentUpdated,
		tournamentDetailKey, tournamentListTags, tournamentMatchListTags)
	r.register(event.TypeTournamentStatusChanged,
		tournamentDetailKey, tournamentListTags, tournamentMatchListTags,
		standingsTags, statisticsTags, tournamentMatchPattern)
	r.register(event.TypeTournamentRecalculated,
		tournamentDetailKey, standingsTags, statisticsTags)

	r.register(event.TypeStandingsUpdated,
		standingsTags, involvedTeamStandingTags, standingsKeys)
	r.register(event.TypeStatisticsUpdated,
		statisticsTags, statisticsPattern)

	return r
}

func (r *CacheRouter) register(eventType string, rules ...targetRule) {
	r.rules[eventType] = append(r.rules[eventType], rules...)
}

// Route computes the invalidation target for one event. The second return
// reports whether the type is mapped at all; an unmapped type is not an
// error, new event types must not break delivery.
func (r *CacheRouter) Route(eventType string, ids event.EntityIDs) (cache.InvalidationTarget, bool) {
	var target cache.InvalidationTarget

	rules, ok := r.rules[event.NormalizeType(eventType)]
	if !ok {
		return target, false
	}

	for _, rule := range rules {
		rule(ids, &target)
	}
	target.Normalize()
	return target, true
}

// HandledTypes lists every mapped canonical event type, used to build the
// cache invalidation handlers' allow-lists.
func (r *CacheRouter) HandledTypes() []string {
	out := make([]string, 0, len(r.rules))
	for eventType := range r.rules {
		out = append(out, eventType)
	}
	return out
}

// ----- exact-key generators -----

func matchKey(ids event.EntityIDs, target *cache.InvalidationTarget) {
	if ids.MatchID == "" {
		return
	}
	target.AddKeys("match:" + ids.MatchID)
}

func tournamentDetailKey(ids event.EntityIDs, target *cache.InvalidationTarget) {
	if ids.TournamentID == "" {
		return
	}
	target.AddKeys("tournament:" + ids.TournamentID)
}

func teamKey(ids event.EntityIDs, target *cache.InvalidationTarget) {
	if ids.TeamID == "" {
		return
	}
	target.AddKeys("team:" + ids.TeamID)
}

func standingsKeys(ids event.EntityIDs, target *cache.InvalidationTarget) {
	if ids.TournamentID == "" {
		return
	}
	target.AddKeys("tournament:" + ids.TournamentID + ":standings:table")
}

// ----- tag generators -----

func tournamentMatchListTags(ids event.EntityIDs, target *cache.InvalidationTarget) {
	if ids.TournamentID == "" {
		return
	}
	target.AddTags("tournament:" + ids.TournamentID + ":matches")
}

func standingsTags(ids event.EntityIDs, target *cache.InvalidationTarget) {
	if ids.TournamentID == "" {
		return
	}
	target.AddTags("tournament:" + ids.TournamentID + ":standings")
}

func statisticsTags(ids event.EntityIDs, target *cache.InvalidationTarget) {
	if ids.TournamentID == "" {
		return
	}
	target.AddTags("tournament:" + ids.TournamentID + ":statistics")
}

func involvedTeamMatchTags(ids event.EntityIDs, target *cache.InvalidationTarget) {
	for _, teamID := range []string{ids.HomeTeamID, ids.AwayTeamID, ids.TeamID} {
		if teamID == "" {
			continue
		}
		target.AddTags("team:" + teamID + ":matches")
	}
}

func involvedTeamStandingTags(ids event.EntityIDs, target *cache.InvalidationTarget) {
	for _, teamID := range []string{ids.HomeTeamID, ids.AwayTeamID, ids.TeamID} {
		if teamID == "" {
			continue
		}
		target.AddTags("team:" + teamID + ":standing")
	}
}

func teamStandingTag(ids event.EntityIDs, target *cache.InvalidationTarget) {
	if ids.TeamID == "" {
		return
	}
	target.AddTags("team:" + ids.TeamID + ":standing")
}

func teamListTags(_ event.EntityIDs, target *cache.InvalidationTarget) {
	target.AddTags("teams:list")
}

func tournamentListTags(_ event.EntityIDs, target *cache.InvalidationTarget) {
	target.AddTags("tournaments:list")
}

// ----- pattern generators (scan-backed, used sparingly) -----

// tournamentMatchPattern covers the per-match detail caches for a
// tournament, whose exact key set cannot be enumerated without a query.
func tournamentMatchPattern(ids event.EntityIDs, target *cache.InvalidationTarget) {
	if ids.TournamentID == "" {
		return
	}
	target.AddPatterns("tournament:" + ids.TournamentID + ":matches:*")
}

func teamMatchPattern(ids event.EntityIDs, target *cache.InvalidationTarget) {
	if ids.TeamID == "" {
		return
	}
	target.AddPatterns("team:" + ids.TeamID + ":matches:*")
}

func statisticsPattern(ids event.EntityIDs, target *cache.InvalidationTarget) {
	if ids.TournamentID == "" {
		return
	}
	target.AddPatterns("tournament:" + ids.TournamentID + ":statistics:*")
}
