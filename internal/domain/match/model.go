package match

import (
	"strings"
	"time"
)

const (
	StatusScheduled  = "SCHEDULED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
	StatusPostponed  = "POSTPONED"
)

// Result is the authoritative outcome of one match. Keyed by MatchID and
// upserted, so reprocessing the same completed-match event is idempotent at
// the data level even without the ledger.
type Result struct {
	MatchID      string
	TournamentID string
	HomeTeamID   string
	AwayTeamID   string
	HomeScore    int
	AwayScore    int
	Status       string
	CompletedAt  *time.Time
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	if status == "" {
		return StatusScheduled
	}
	return status
}

func IsCompletedStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCompleted, "FINISHED", "FT", "AET":
		return true
	default:
		return false
	}
}

func IsCancelledStatus(status string) bool {
	switch NormalizeStatus(status) {
	case StatusCancelled, StatusPostponed, "ABANDONED":
		return true
	default:
		return false
	}
}
