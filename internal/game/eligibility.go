package game

import "github.com/hexhammer/skirmish/internal/hexes"

// Per-phase eligibility predicates. These are pure reads: polling them has
// no side effects, which lets both the phase machine and any UI call them
// as often as they like.

// Eligible reports whether u may still act in the current phase. During
// combat it ignores the sub-phase gating; use CanActNow for the question
// "may this unit be activated right now".
func (s *State) Eligible(u *Unit) bool {
	if u == nil || !u.Alive() {
		return false
	}
	switch s.Phase {
	case PhaseMove:
		return u.Player == s.CurrentPlayer && !s.Moved[u.ID]
	case PhaseShoot:
		return s.eligibleShoot(u)
	case PhaseCharge:
		return s.eligibleCharge(u)
	case PhaseCombat:
		return s.eligibleCombat(u)
	}
	return false
}

func (s *State) eligibleShoot(u *Unit) bool {
	if u.Player != s.CurrentPlayer || s.Moved[u.ID] || s.Fled[u.ID] {
		return false
	}
	if u.ShotsLeft <= 0 || u.Ranged == nil {
		return false
	}
	// Engaged units cannot shoot.
	if s.engaged(u) {
		return false
	}
	for _, e := range s.livingEnemies(u.Player) {
		if hexes.Distance(u.Pos, e.Pos) > u.Ranged.Range {
			continue
		}
		if s.Visibility(u, e).CanSee {
			return true
		}
	}
	return false
}

func (s *State) eligibleCharge(u *Unit) bool {
	if u.Player != s.CurrentPlayer || s.Charged[u.ID] || s.Fled[u.ID] {
		return false
	}
	// Already in melee contact, nothing to charge.
	if s.engaged(u) {
		return false
	}
	// An enemy must be close enough that some charge could reach contact.
	return len(s.ChargeDestinations(u, u.Move).AdjacentToEnemy) > 0
}

// eligibleCombat deliberately ignores CurrentPlayer: combat alternates
// between both players inside one phase.
func (s *State) eligibleCombat(u *Unit) bool {
	if s.Attacked[u.ID] {
		return false
	}
	reach := u.MeleeRange()
	for _, e := range s.livingEnemies(u.Player) {
		if hexes.Distance(u.Pos, e.Pos) <= reach {
			return true
		}
	}
	return false
}

// CanActNow reports whether u may be activated at this instant, which in
// combat also depends on the sub-phase and the active combat player.
func (s *State) CanActNow(u *Unit) bool {
	if !s.Eligible(u) {
		return false
	}
	if s.Phase != PhaseCombat {
		return true
	}
	switch s.CombatSubPhase {
	case SubPhaseChargedUnits:
		return u.Player == s.CurrentPlayer && u.ChargedThisTurn
	case SubPhaseAlternating:
		return u.Player == s.CombatActivePlayer
	}
	return false
}

// anyEligible reports whether the given player has any eligible unit left
// in the current phase.
func (s *State) anyEligible(player int) bool {
	for _, u := range s.LivingUnits(player) {
		if s.Eligible(u) {
			return true
		}
	}
	return false
}

// anyChargedEligible reports whether player still has an eligible combat
// unit that charged this turn.
func (s *State) anyChargedEligible(player int) bool {
	for _, u := range s.LivingUnits(player) {
		if u.ChargedThisTurn && s.Eligible(u) {
			return true
		}
	}
	return false
}
