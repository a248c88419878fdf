package game

import (
	"errors"
	"fmt"

	"github.com/hexhammer/skirmish/internal/hexes"
)

// Illegal commands are rejected with an error wrapping ErrIllegalAction
// and leave the state untouched. Empty reachable sets and zero eligible
// units are not errors; the phase machine consumes those as normal input.
var (
	ErrIllegalAction  = errors.New("illegal action")
	ErrUnknownUnit    = fmt.Errorf("%w: unknown unit", ErrIllegalAction)
	ErrWrongPhase     = fmt.Errorf("%w: wrong phase", ErrIllegalAction)
	ErrNotEligible    = fmt.Errorf("%w: unit not eligible", ErrIllegalAction)
	ErrBadDestination = fmt.Errorf("%w: destination not reachable", ErrIllegalAction)
	ErrBadTarget      = fmt.Errorf("%w: invalid target", ErrIllegalAction)
)

// Pool names one of the four activation pools for SkipUnit.
type Pool string

const (
	PoolMoved    Pool = "moved"
	PoolCharged  Pool = "charged"
	PoolAttacked Pool = "attacked"
	PoolFled     Pool = "fled"
)

// actingUnit resolves a unit id and checks the command arrived in the
// expected phase.
func (s *State) actingUnit(id string, want Phase) (*Unit, error) {
	if s.Phase != want {
		return nil, fmt.Errorf("%w: have %s, need %s", ErrWrongPhase, s.Phase, want)
	}
	u := s.UnitByID(id)
	if u == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, id)
	}
	return u, nil
}

// ApplyMove moves a unit during the move phase. A unit that starts the
// move adjacent to an enemy is fleeing and may neither shoot nor charge
// for the rest of the turn.
func (s *State) ApplyMove(unitID string, dest hexes.Hex) error {
	u, err := s.actingUnit(unitID, PhaseMove)
	if err != nil {
		return err
	}
	if !s.Eligible(u) {
		return fmt.Errorf("%w: %s cannot move", ErrNotEligible, unitID)
	}
	if !s.MoveDestinations(u)[dest] {
		return fmt.Errorf("%w: %v", ErrBadDestination, dest)
	}
	fled := s.engaged(u)
	u.Pos = dest
	s.Moved[unitID] = true
	if fled {
		s.Fled[unitID] = true
	}
	return nil
}

// ApplyCharge moves a unit during the charge phase using an already rolled
// charge distance. Landing adjacent to an enemy makes the charge count;
// landing short still spends the unit's charge activation.
func (s *State) ApplyCharge(unitID string, dest hexes.Hex, distance int) error {
	u, err := s.actingUnit(unitID, PhaseCharge)
	if err != nil {
		return err
	}
	if !s.Eligible(u) {
		return fmt.Errorf("%w: %s cannot charge", ErrNotEligible, unitID)
	}
	cells := s.ChargeDestinations(u, distance)
	switch {
	case cells.AdjacentToEnemy[dest]:
		u.Pos = dest
		u.ChargedThisTurn = true
	case cells.ChargeCells[dest]:
		u.Pos = dest
	default:
		return fmt.Errorf("%w: %v", ErrBadDestination, dest)
	}
	s.Charged[unitID] = true
	return nil
}

// RecordShotFired spends one shot and marks the unit as having acted this
// phase. Damage resolution happens separately; see combat.go.
func (s *State) RecordShotFired(unitID string) error {
	u, err := s.actingUnit(unitID, PhaseShoot)
	if err != nil {
		return err
	}
	if !s.Eligible(u) {
		return fmt.Errorf("%w: %s cannot shoot", ErrNotEligible, unitID)
	}
	u.ShotsLeft--
	s.Moved[unitID] = true
	return nil
}

// RecordMeleeAttack spends one melee activation and retires the unit from
// the current combat phase.
func (s *State) RecordMeleeAttack(unitID string) error {
	u, err := s.actingUnit(unitID, PhaseCombat)
	if err != nil {
		return err
	}
	if !s.CanActNow(u) {
		return fmt.Errorf("%w: %s cannot fight now", ErrNotEligible, unitID)
	}
	u.AttacksLeft--
	s.Attacked[unitID] = true
	return nil
}

// SkipUnit voluntarily passes a unit's activation by placing it in the
// pool matching the current phase.
func (s *State) SkipUnit(unitID string, pool Pool) error {
	u := s.UnitByID(unitID)
	if u == nil {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, unitID)
	}
	if pool != s.phasePool() {
		return fmt.Errorf("%w: pool %q not active in %s", ErrWrongPhase, pool, s.Phase)
	}
	if s.Phase == PhaseCombat {
		if !s.CanActNow(u) {
			return fmt.Errorf("%w: %s has no activation to skip", ErrNotEligible, unitID)
		}
		s.Attacked[unitID] = true
		return nil
	}
	if !s.Eligible(u) {
		return fmt.Errorf("%w: %s has no activation to skip", ErrNotEligible, unitID)
	}
	switch pool {
	case PoolMoved:
		s.Moved[unitID] = true
	case PoolCharged:
		s.Charged[unitID] = true
	}
	return nil
}

// ActivePool exposes the pool a skip lands in for the current phase.
func (s *State) ActivePool() Pool { return s.phasePool() }

// phasePool maps the current phase to the pool a skip lands in. Moved is
// the acted pool for both the move and shoot phases.
func (s *State) phasePool() Pool {
	switch s.Phase {
	case PhaseMove, PhaseShoot:
		return PoolMoved
	case PhaseCharge:
		return PoolCharged
	case PhaseCombat:
		return PoolAttacked
	}
	return ""
}
