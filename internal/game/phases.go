package game

// AdvancePhaseIfNeeded moves the phase machine forward until some unit is
// eligible again or the match is over. Callers invoke it after every
// command; polling eligibility never mutates anything, only this function
// does. A single call may cross several phases, for example when a player
// has nothing left to shoot or charge.
func (s *State) AdvancePhaseIfNeeded() {
	for {
		if _, over := s.GameOver(); over {
			return
		}
		if !s.advanceOnce() {
			return
		}
	}
}

// advanceOnce applies at most one transition and reports whether it did.
func (s *State) advanceOnce() bool {
	switch s.Phase {
	case PhaseMove:
		if s.anyEligible(s.CurrentPlayer) {
			return false
		}
		s.Moved = map[string]bool{}
		s.Selected = ""
		s.Phase = PhaseShoot
		return true

	case PhaseShoot:
		if s.anyEligible(s.CurrentPlayer) {
			return false
		}
		// Moved is reused as "acted this phase" during shooting, so it
		// clears again here alongside the charge pool.
		s.Moved = map[string]bool{}
		s.Charged = map[string]bool{}
		s.Selected = ""
		s.Phase = PhaseCharge
		return true

	case PhaseCharge:
		if s.anyEligible(s.CurrentPlayer) {
			return false
		}
		s.beginCombat()
		return true

	case PhaseCombat:
		return s.advanceCombat()
	}
	return false
}

func (s *State) beginCombat() {
	for _, u := range s.LivingUnits(NoActivePlayer) {
		u.AttacksLeft = u.AttacksMax
	}
	s.Attacked = map[string]bool{}
	s.Phase = PhaseCombat
	s.CombatSubPhase = SubPhaseChargedUnits
	s.CombatActivePlayer = NoActivePlayer
	s.Selected = ""
}

func (s *State) advanceCombat() bool {
	switch s.CombatSubPhase {
	case SubPhaseChargedUnits:
		if s.anyChargedEligible(s.CurrentPlayer) {
			return false
		}
		// Charged units have struck; the defender answers first in the
		// alternating round.
		s.CombatSubPhase = SubPhaseAlternating
		s.CombatActivePlayer = otherPlayer(s.CurrentPlayer)
		s.Selected = ""
		return true

	case SubPhaseAlternating:
		activeHas := s.anyEligible(s.CombatActivePlayer)
		otherHas := s.anyEligible(otherPlayer(s.CombatActivePlayer))
		switch {
		case !activeHas && !otherHas:
			s.endTurn()
			return true
		case !activeHas && otherHas:
			s.CombatActivePlayer = otherPlayer(s.CombatActivePlayer)
			s.Selected = ""
			return true
		}
		return false
	}
	return false
}

// endTurn hands play to the other player and resets every per-turn pool
// and counter. The turn number ticks up when play wraps back to player 0.
func (s *State) endTurn() {
	s.CurrentPlayer = otherPlayer(s.CurrentPlayer)
	if s.CurrentPlayer == 0 {
		s.Turn++
	}
	s.Moved = map[string]bool{}
	s.Charged = map[string]bool{}
	s.Attacked = map[string]bool{}
	s.Fled = map[string]bool{}
	for _, u := range s.Units {
		u.ChargedThisTurn = false
		u.ShotsLeft = u.ShotsMax
	}
	s.Phase = PhaseMove
	s.CombatSubPhase = SubPhaseNone
	s.CombatActivePlayer = NoActivePlayer
	s.Selected = ""
}
