// Package reach computes the set of hexes a unit can move or charge to.
// Both answers come from one breadth-first search parametrized by predicates;
// movement and charge differ only in what blocks a step and what counts as a
// legal destination.
package reach

import "github.com/hexhammer/skirmish/internal/hexes"

// MaxChargeRange caps how far away an enemy can be and still anchor a charge,
// regardless of the rolled distance.
const MaxChargeRange = 12

// Query carries the board facts a reachability search needs. Position sets
// are keyed by hex; only membership matters.
type Query struct {
	Origin hexes.Hex
	Budget int // movement or charge distance in steps

	Cols, Rows int
	Walls      map[hexes.Hex]bool

	// Occupied holds every hex with a living unit on it, the mover's own
	// hex excluded. EnemyOccupied is the subset held by living enemies.
	Occupied      map[hexes.Hex]bool
	EnemyOccupied map[hexes.Hex]bool
}

func (q Query) inBounds(h hexes.Hex) bool {
	return h.Col >= 0 && h.Col < q.Cols && h.Row >= 0 && h.Row < q.Rows
}

// blocked is the shared step predicate: walls and occupied hexes are never
// entered, nor is anything off the board.
func (q Query) blocked(h hexes.Hex) bool {
	return !q.inBounds(h) || q.Walls[h] || q.Occupied[h]
}

// inEnemyZone reports whether h is adjacent to a living enemy.
func (q Query) inEnemyZone(h hexes.Hex) bool {
	for e := range q.EnemyOccupied {
		if hexes.Adjacent(h, e) {
			return true
		}
	}
	return false
}

// bfs runs the shared search: every hex reachable from Origin within Budget
// steps without entering a blocked hex, mapped to its step count. The origin
// itself is not part of the result.
func (q Query) bfs() map[hexes.Hex]int {
	steps := map[hexes.Hex]int{q.Origin: 0}
	frontier := []hexes.Hex{q.Origin}
	for len(frontier) > 0 {
		cur := frontier[0]
		frontier = frontier[1:]
		d := steps[cur]
		if d >= q.Budget {
			continue
		}
		for _, n := range hexes.Neighbors(cur) {
			if q.blocked(n) {
				continue
			}
			if prev, seen := steps[n]; seen && prev <= d+1 {
				continue
			}
			steps[n] = d + 1
			frontier = append(frontier, n)
		}
	}
	delete(steps, q.Origin)
	return steps
}

// ForMove returns every legal movement destination. Zone-of-control hexes
// (occupied by or adjacent to a living enemy) can be moved through, so a
// unit that starts engaged may flee, but never ended on.
func ForMove(q Query) map[hexes.Hex]bool {
	if q.Budget <= 0 {
		return map[hexes.Hex]bool{}
	}
	out := map[hexes.Hex]bool{}
	for h := range q.bfs() {
		if q.EnemyOccupied[h] || q.inEnemyZone(h) {
			continue
		}
		out[h] = true
	}
	return out
}

// ChargeResult partitions the hexes reachable during a charge.
// AdjacentToEnemy holds destinations that complete the charge: hexes next to
// a living enemy that is itself within the charge distance (and the global
// maximum) of the charger's origin. ChargeCells is everything else: still
// legal to move to, but granting no melee contact this turn.
type ChargeResult struct {
	ChargeCells     map[hexes.Hex]bool
	AdjacentToEnemy map[hexes.Hex]bool
}

// ForCharge returns the charge partition for the given rolled distance. The
// zone-of-control rule does not apply: a charging unit is allowed to end next
// to, and pass beside, contested space.
func ForCharge(q Query) ChargeResult {
	res := ChargeResult{
		ChargeCells:     map[hexes.Hex]bool{},
		AdjacentToEnemy: map[hexes.Hex]bool{},
	}
	if q.Budget <= 0 {
		return res
	}

	// Enemies close enough to the origin to anchor a completed charge.
	targets := make([]hexes.Hex, 0, len(q.EnemyOccupied))
	for e := range q.EnemyOccupied {
		d := hexes.Distance(q.Origin, e)
		if d <= q.Budget && d <= MaxChargeRange {
			targets = append(targets, e)
		}
	}

	for h := range q.bfs() {
		contact := false
		for _, e := range targets {
			if hexes.Adjacent(h, e) {
				contact = true
				break
			}
		}
		if contact {
			res.AdjacentToEnemy[h] = true
		} else {
			res.ChargeCells[h] = true
		}
	}
	return res
}
