package reach

import (
	"testing"

	"github.com/hexhammer/skirmish/internal/hexes"
)

func set(hs ...hexes.Hex) map[hexes.Hex]bool {
	m := make(map[hexes.Hex]bool, len(hs))
	for _, h := range hs {
		m[h] = true
	}
	return m
}

func TestOpenBoardMoveIsDistanceRings(t *testing.T) {
	q := Query{
		Origin: hexes.Hex{Col: 2, Row: 2},
		Budget: 3,
		Cols:   10, Rows: 10,
	}
	got := ForMove(q)

	want := map[hexes.Hex]bool{}
	for col := 0; col < 10; col++ {
		for row := 0; row < 10; row++ {
			h := hexes.Hex{Col: col, Row: row}
			if d := hexes.Distance(q.Origin, h); d >= 1 && d <= 3 {
				want[h] = true
			}
		}
	}
	if len(got) != len(want) {
		t.Fatalf("got %d hexes, want %d", len(got), len(want))
	}
	for h := range want {
		if !got[h] {
			t.Fatalf("missing hex %v", h)
		}
	}
	if got[q.Origin] {
		t.Fatalf("origin must not be a destination")
	}
}

func TestMoveRespectsBudgetBound(t *testing.T) {
	q := Query{
		Origin: hexes.Hex{Col: 4, Row: 4},
		Budget: 2,
		Cols:   12, Rows: 12,
		Walls: set(hexes.Hex{Col: 5, Row: 4}, hexes.Hex{Col: 4, Row: 3}),
	}
	for h := range ForMove(q) {
		if d := hexes.Distance(q.Origin, h); d < 1 || d > 2 {
			t.Fatalf("hex %v at distance %d outside budget", h, d)
		}
		if q.Walls[h] {
			t.Fatalf("wall hex %v in result", h)
		}
	}
}

func TestMoveExcludesEnemyZone(t *testing.T) {
	enemy := hexes.Hex{Col: 4, Row: 2}
	q := Query{
		Origin: hexes.Hex{Col: 2, Row: 2},
		Budget: 4,
		Cols:   10, Rows: 10,
		Occupied:      set(enemy),
		EnemyOccupied: set(enemy),
	}
	got := ForMove(q)
	if got[enemy] {
		t.Fatalf("enemy-occupied hex in result")
	}
	for _, n := range hexes.Neighbors(enemy) {
		if got[n] {
			t.Fatalf("hex %v adjacent to enemy in result", n)
		}
	}
	// The hexes past the enemy are still reachable by moving around it.
	if len(got) == 0 {
		t.Fatalf("expected non-empty reachable set")
	}
}

func TestEngagedUnitCanFleeThroughZone(t *testing.T) {
	// Mover starts adjacent to the enemy. Its own zone hexes are not
	// destinations, but the search passes through them on the way out.
	enemy := hexes.Hex{Col: 3, Row: 2}
	q := Query{
		Origin: hexes.Hex{Col: 2, Row: 2}, // adjacent to enemy
		Budget: 3,
		Cols:   10, Rows: 10,
		Occupied:      set(enemy),
		EnemyOccupied: set(enemy),
	}
	got := ForMove(q)
	if len(got) == 0 {
		t.Fatalf("engaged unit should still be able to flee")
	}
	for h := range got {
		if hexes.Adjacent(h, enemy) || h == enemy {
			t.Fatalf("flee destination %v still in enemy zone", h)
		}
	}
}

func TestOccupiedHexesBlockTraversal(t *testing.T) {
	// A friendly wall of units across the only corridor.
	friends := set(hexes.Hex{Col: 1, Row: 0}, hexes.Hex{Col: 1, Row: 1}, hexes.Hex{Col: 1, Row: 2})
	q := Query{
		Origin: hexes.Hex{Col: 0, Row: 1},
		Budget: 5,
		Cols:   6, Rows: 3,
		Occupied: friends,
	}
	got := ForMove(q)
	for h := range got {
		if h.Col > 1 {
			t.Fatalf("hex %v should be sealed off by the friendly line", h)
		}
		if friends[h] {
			t.Fatalf("occupied hex %v in result", h)
		}
	}
}

func TestZeroBudgetIsEmpty(t *testing.T) {
	q := Query{Origin: hexes.Hex{Col: 2, Row: 2}, Cols: 8, Rows: 8}
	if got := ForMove(q); len(got) != 0 {
		t.Fatalf("zero budget move should be empty, got %d", len(got))
	}
	if got := ForCharge(q); len(got.ChargeCells)+len(got.AdjacentToEnemy) != 0 {
		t.Fatalf("zero budget charge should be empty")
	}
}

func TestChargePartition(t *testing.T) {
	enemy := hexes.Hex{Col: 5, Row: 2}
	q := Query{
		Origin: hexes.Hex{Col: 2, Row: 2},
		Budget: 4,
		Cols:   10, Rows: 10,
		Occupied:      set(enemy),
		EnemyOccupied: set(enemy),
	}
	got := ForCharge(q)

	// Disjoint, and the union is exactly the raw reachable set.
	raw := q.bfs()
	if len(got.ChargeCells)+len(got.AdjacentToEnemy) != len(raw) {
		t.Fatalf("partition size %d+%d != raw %d",
			len(got.ChargeCells), len(got.AdjacentToEnemy), len(raw))
	}
	for h := range got.AdjacentToEnemy {
		if got.ChargeCells[h] {
			t.Fatalf("hex %v in both partitions", h)
		}
		if !hexes.Adjacent(h, enemy) {
			t.Fatalf("hex %v marked contact but not adjacent to the enemy", h)
		}
	}
	for h := range got.ChargeCells {
		if hexes.Adjacent(h, enemy) {
			t.Fatalf("hex %v adjacent to enemy but not marked contact", h)
		}
	}
	if len(got.AdjacentToEnemy) == 0 {
		t.Fatalf("enemy within charge distance should yield contact cells")
	}
}

func TestChargeIgnoresDistantEnemies(t *testing.T) {
	// Enemy out of charge distance: its surroundings are plain move cells.
	enemy := hexes.Hex{Col: 8, Row: 2}
	q := Query{
		Origin: hexes.Hex{Col: 2, Row: 2},
		Budget: 3,
		Cols:   12, Rows: 12,
		Occupied:      set(enemy),
		EnemyOccupied: set(enemy),
	}
	got := ForCharge(q)
	if len(got.AdjacentToEnemy) != 0 {
		t.Fatalf("no enemy within distance, but got %d contact cells", len(got.AdjacentToEnemy))
	}
}

func TestChargeMayEndBesideEnemy(t *testing.T) {
	// Unlike movement, charging is allowed to finish in the enemy zone.
	enemy := hexes.Hex{Col: 4, Row: 2}
	q := Query{
		Origin: hexes.Hex{Col: 2, Row: 2},
		Budget: 2,
		Cols:   10, Rows: 10,
		Occupied:      set(enemy),
		EnemyOccupied: set(enemy),
	}
	got := ForCharge(q)
	if len(got.AdjacentToEnemy) == 0 {
		t.Fatalf("charge should reach contact with an enemy 2 hexes away")
	}
	if got.AdjacentToEnemy[enemy] || got.ChargeCells[enemy] {
		t.Fatalf("enemy-occupied hex must never be a destination")
	}
}
