package server

import (
	"sort"

	"github.com/hexhammer/skirmish/internal/game"
	"github.com/hexhammer/skirmish/internal/hexes"
)

// runBots plays out every bot activation currently available, advancing
// the phase machine between actions. Called with the lock held. The
// iteration cap bounds pathological loops; a full turn of a default
// scenario needs well under a hundred activations.
func (r *Room) runBots() {
	for i := 0; i < 500; i++ {
		r.state.AdvancePhaseIfNeeded()
		if _, over := r.state.GameOver(); over {
			return
		}
		acted := false
		for slot, p := range r.players {
			if p != nil && p.IsBot && r.botStep(slot) {
				acted = true
				break
			}
		}
		if !acted {
			return
		}
	}
}

// botStep takes one activation for the bot in the given seat. Returns
// false when no bot unit can act right now.
func (r *Room) botStep(slot int) bool {
	u := r.botUnit(slot)
	if u == nil {
		return false
	}
	p := r.players[slot]
	var err error
	switch r.state.Phase {
	case game.PhaseMove:
		err = r.botMove(p, u)
	case game.PhaseShoot:
		err = r.botShoot(p, u)
	case game.PhaseCharge:
		err = r.botCharge(p, u)
	case game.PhaseCombat:
		err = r.botFight(p, u)
	}
	if err != nil {
		// A stuck unit must not stall the room; pass its activation.
		r.logf("bot %s: %s stalls: %v", p.Name, u.ID, err)
		err = r.state.SkipUnit(u.ID, r.state.ActivePool())
	}
	return err == nil
}

// botUnit picks the actionable bot unit with the lowest ID so a seeded
// replay makes the same choices.
func (r *Room) botUnit(slot int) *game.Unit {
	var pick *game.Unit
	for _, u := range r.state.LivingUnits(slot) {
		if !r.state.CanActNow(u) {
			continue
		}
		if pick == nil || u.ID < pick.ID {
			pick = u
		}
	}
	return pick
}

// botMove walks toward the nearest enemy, or holds if no destination
// improves the distance.
func (r *Room) botMove(p *Player, u *game.Unit) error {
	best := u.Pos
	bestDist := nearestEnemyDistance(r.state, u.Pos, u.Player)
	for _, h := range hexList(r.state.MoveDestinations(u)) {
		if d := nearestEnemyDistance(r.state, h, u.Player); d < bestDist {
			best, bestDist = h, d
		}
	}
	if best == u.Pos {
		return r.state.SkipUnit(u.ID, game.PoolMoved)
	}
	if err := r.state.ApplyMove(u.ID, best); err != nil {
		return err
	}
	r.logf("%s moves %s to %v", p.Name, u.ID, best)
	return nil
}

// botShoot fires at the weakest visible enemy in range.
func (r *Room) botShoot(p *Player, u *game.Unit) error {
	target := ""
	bestHP := 0
	for _, e := range r.enemiesByID(u.Player) {
		if u.Ranged == nil || hexes.Distance(u.Pos, e.Pos) > u.Ranged.Range {
			continue
		}
		if !r.state.Visibility(u, e).CanSee {
			continue
		}
		if target == "" || e.HP < bestHP {
			target, bestHP = e.ID, e.HP
		}
	}
	if target == "" {
		return r.state.SkipUnit(u.ID, game.PoolMoved)
	}
	res, err := r.state.ResolveShot(r.roll, u.ID, target)
	if err != nil {
		return err
	}
	r.publishAttack(p, u.ID, target, res)
	return nil
}

// botCharge rolls once and takes the first contact cell the roll buys.
func (r *Room) botCharge(p *Player, u *game.Unit) error {
	distance := r.roll.Charge()
	cells := r.state.ChargeDestinations(u, distance)
	contact := hexList(cells.AdjacentToEnemy)
	if len(contact) == 0 {
		r.logf("%s: charge of %s failed on a %d", p.Name, u.ID, distance)
		return r.state.SkipUnit(u.ID, game.PoolCharged)
	}
	if err := r.state.ApplyCharge(u.ID, contact[0], distance); err != nil {
		return err
	}
	r.logf("%s charges %s into contact at %v", p.Name, u.ID, contact[0])
	r.recordCharge(p, u, distance)
	return nil
}

// botFight swings at the weakest enemy in reach.
func (r *Room) botFight(p *Player, u *game.Unit) error {
	target := ""
	bestHP := 0
	for _, e := range r.enemiesByID(u.Player) {
		if hexes.Distance(u.Pos, e.Pos) > u.MeleeRange() {
			continue
		}
		if target == "" || e.HP < bestHP {
			target, bestHP = e.ID, e.HP
		}
	}
	if target == "" {
		return r.state.SkipUnit(u.ID, game.PoolAttacked)
	}
	res, err := r.state.ResolveMelee(r.roll, u.ID, target)
	if err != nil {
		return err
	}
	r.publishAttack(p, u.ID, target, res)
	return nil
}

// enemiesByID returns living enemies in ID order for deterministic
// target picks.
func (r *Room) enemiesByID(player int) []*game.Unit {
	out := r.state.LivingUnits(1 - player)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
