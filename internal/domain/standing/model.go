package standing

import (
	"sort"
	"time"
)

// Standing is one team's aggregated record within one tournament, derived
// entirely from the set of completed match results.
type Standing struct {
	TournamentID string
	TeamID       string
	Played       int
	Won          int
	Drawn        int
	Lost         int
	GoalsFor     int
	GoalsAgainst int
	Points       int
	UpdatedAt    *time.Time
}

func (s Standing) GoalDifference() int {
	return s.GoalsFor - s.GoalsAgainst
}

// Apply folds one completed match into the record from this team's
// perspective and refreshes the points column.
func (s *Standing) Apply(goalsFor, goalsAgainst int) {
	s.Played++
	s.GoalsFor += goalsFor
	s.GoalsAgainst += goalsAgainst
	switch {
	case goalsFor > goalsAgainst:
		s.Won++
	case goalsFor < goalsAgainst:
		s.Lost++
	default:
		s.Drawn++
	}
	s.Points = Points(s.Won, s.Drawn)
}

func Points(won, drawn int) int {
	return 3*won + drawn
}

// SortTable orders standings for presentation: points, then goal
// difference, then goals scored, all descending. Ties beyond that keep
// their existing order.
func SortTable(items []Standing) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GoalDifference() != b.GoalDifference() {
			return a.GoalDifference() > b.GoalDifference()
		}
		return a.GoalsFor > b.GoalsFor
	})
}
