package standing

import "testing"

func TestApply_WinLossArithmetic(t *testing.T) {
	t.Parallel()

	var home, away Standing
	home.Apply(3, 1)
	away.Apply(1, 3)

	if home.Played != 1 || home.Won != 1 || home.Drawn != 0 || home.Lost != 0 {
		t.Fatalf("unexpected home record: %+v", home)
	}
	if home.GoalsFor != 3 || home.GoalsAgainst != 1 || home.Points != 3 {
		t.Fatalf("unexpected home goals/points: %+v", home)
	}
	if away.Lost != 1 || away.Points != 0 {
		t.Fatalf("unexpected away record: %+v", away)
	}
}

func TestApply_DrawAwardsOnePointEach(t *testing.T) {
	t.Parallel()

	var home, away Standing
	home.Apply(2, 2)
	away.Apply(2, 2)

	if home.Drawn != 1 || home.Points != 1 {
		t.Fatalf("unexpected home draw record: %+v", home)
	}
	if away.Drawn != 1 || away.Points != 1 {
		t.Fatalf("unexpected away draw record: %+v", away)
	}
}

func TestPoints_ThreeForWinOneForDraw(t *testing.T) {
	t.Parallel()

	if got := Points(4, 2); got != 14 {
		t.Fatalf("Points(4, 2) = %d, want 14", got)
	}
}

func TestSortTable_TieBreakOrder(t *testing.T) {
	t.Parallel()

	items := []Standing{
		{TeamID: "low-points", Points: 3, GoalsFor: 9, GoalsAgainst: 1},
		{TeamID: "fewer-scored", Points: 6, GoalsFor: 4, GoalsAgainst: 2},
		{TeamID: "more-scored", Points: 6, GoalsFor: 5, GoalsAgainst: 3},
		{TeamID: "best-diff", Points: 6, GoalsFor: 6, GoalsAgainst: 1},
	}
	SortTable(items)

	want := []string{"best-diff", "more-scored", "fewer-scored", "low-points"}
	for i, teamID := range want {
		if items[i].TeamID != teamID {
			t.Fatalf("position %d: got %s, want %s (table %+v)", i, items[i].TeamID, teamID, items)
		}
	}
}

func TestSortTable_FullTieKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	items := []Standing{
		{TeamID: "first", Points: 3, GoalsFor: 2, GoalsAgainst: 1},
		{TeamID: "second", Points: 3, GoalsFor: 2, GoalsAgainst: 1},
	}
	SortTable(items)

	if items[0].TeamID != "first" || items[1].TeamID != "second" {
		t.Fatalf("stable sort reordered full ties: %+v", items)
	}
}
