package tournament

import (
	"context"
	"strings"
)

const (
	StatusUpcoming   = "UPCOMING"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusCancelled  = "CANCELLED"
)

type Tournament struct {
	ID      string
	Name    string
	Status  string
	TeamIDs []string
}

func (t Tournament) HasTeam(teamID string) bool {
	for _, id := range t.TeamIDs {
		if id == teamID {
			return true
		}
	}
	return false
}

type Team struct {
	ID   string
	Name string
}

type Match struct {
	ID           string
	TournamentID string
	HomeTeamID   string
	AwayTeamID   string
	Status       string
}

func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	status = strings.ReplaceAll(status, "-", "_")
	return status
}

// Reader is the read-only sibling-service client used to enrich or validate
// event payloads. Failures degrade to "trust the payload", never abort the
// event.
type Reader interface {
	GetMatch(ctx context.Context, id string) (Match, error)
	GetTeam(ctx context.Context, id string) (Team, error)
	GetTournament(ctx context.Context, id string) (Tournament, error)
}
