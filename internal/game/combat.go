package game

import (
	"fmt"
	"strings"

	"github.com/hexhammer/skirmish/internal/dice"
	"github.com/hexhammer/skirmish/internal/hexes"
)

// AttackResult captures one resolved volley or melee activation together
// with a human-readable roll log for the clients.
type AttackResult struct {
	Logs       []string `json:"logs"`
	Attacks    int      `json:"attacks"`
	Hits       int      `json:"hits"`
	Wounds     int      `json:"wounds"`
	Saved      int      `json:"saved"`
	Unsaved    int      `json:"unsaved"`
	Damage     int      `json:"damage"`
	TargetHP   int      `json:"targetHp"`
	TargetSlew bool     `json:"targetSlain"`
	InCover    bool     `json:"inCover"`
}

// woundTarget returns the roll (2-6) needed for strength S to wound
// toughness T.
func woundTarget(S, T int) int {
	switch {
	case S >= 2*T:
		return 2
	case S > T:
		return 3
	case S == T:
		return 4
	case S*2 <= T:
		return 6
	default:
		return 5
	}
}

// saveThreshold picks the better of armor save worsened by AP and the
// invulnerable save. 7 means no save at all.
func saveThreshold(sv, inv, ap int) int {
	eff := sv + ap
	if eff < 2 {
		eff = 2
	}
	if eff > 6 {
		eff = 7
	}
	if inv > 0 && inv < eff {
		eff = inv
	}
	return eff
}

// ResolveShot validates and resolves one ranged volley: it spends the
// attacker's shot, rolls the full attack sequence, and applies the damage.
// A target in cover is harder to hit by one.
func (s *State) ResolveShot(ro *dice.Roller, attackerID, targetID string) (*AttackResult, error) {
	att, err := s.actingUnit(attackerID, PhaseShoot)
	if err != nil {
		return nil, err
	}
	if !s.Eligible(att) {
		return nil, fmt.Errorf("%w: %s cannot shoot", ErrNotEligible, attackerID)
	}
	def := s.UnitByID(targetID)
	if def == nil || !def.Alive() || def.Player == att.Player {
		return nil, fmt.Errorf("%w: %q", ErrBadTarget, targetID)
	}
	if hexes.Distance(att.Pos, def.Pos) > att.Ranged.Range {
		return nil, fmt.Errorf("%w: %q out of range", ErrBadTarget, targetID)
	}
	sight := s.Visibility(att, def)
	if !sight.CanSee {
		return nil, fmt.Errorf("%w: no line of sight to %q", ErrBadTarget, targetID)
	}
	if err := s.RecordShotFired(attackerID); err != nil {
		return nil, err
	}
	res := resolveAttack(ro, att.Ranged, def, sight.InCover)
	def.HP = res.TargetHP
	return res, nil
}

// ResolveMelee validates and resolves one melee activation against an
// adjacent enemy. Cover never applies in melee.
func (s *State) ResolveMelee(ro *dice.Roller, attackerID, targetID string) (*AttackResult, error) {
	att, err := s.actingUnit(attackerID, PhaseCombat)
	if err != nil {
		return nil, err
	}
	if !s.CanActNow(att) {
		return nil, fmt.Errorf("%w: %s cannot fight now", ErrNotEligible, attackerID)
	}
	def := s.UnitByID(targetID)
	if def == nil || !def.Alive() || def.Player == att.Player {
		return nil, fmt.Errorf("%w: %q", ErrBadTarget, targetID)
	}
	if hexes.Distance(att.Pos, def.Pos) > att.MeleeRange() {
		return nil, fmt.Errorf("%w: %q out of melee reach", ErrBadTarget, targetID)
	}
	if err := s.RecordMeleeAttack(attackerID); err != nil {
		return nil, err
	}
	res := resolveAttack(ro, att.Melee, def, false)
	def.HP = res.TargetHP
	return res, nil
}

// resolveAttack rolls one full attack sequence for a weapon profile:
// attacks, hits, wounds, saves, damage.
func resolveAttack(ro *dice.Roller, w *Weapon, def *Unit, inCover bool) *AttackResult {
	res := &AttackResult{InCover: inCover}
	log := func(format string, args ...any) {
		res.Logs = append(res.Logs, fmt.Sprintf(format, args...))
	}

	res.Attacks = ro.Expr(w.Attacks)
	log("%s: A=%s -> %d attacks", w.Name, strings.TrimSpace(w.Attacks), res.Attacks)

	hitTN := w.Skill
	if inCover {
		hitTN++
		if hitTN > 6 {
			hitTN = 6
		}
		log("Target in cover: to hit worsened to %d+", hitTN)
	} else {
		log("To Hit: needs %d+", hitTN)
	}
	for i := 0; i < res.Attacks; i++ {
		roll := ro.D6()
		if roll >= hitTN && roll != 1 {
			res.Hits++
			log("Hit roll %d: %d -> HIT", i+1, roll)
		} else {
			log("Hit roll %d: %d -> MISS", i+1, roll)
		}
	}

	woundTN := woundTarget(w.Strength, def.Toughness)
	log("To Wound: S %d vs T %d -> needs %d+", w.Strength, def.Toughness, woundTN)
	for i := 0; i < res.Hits; i++ {
		roll := ro.D6()
		if roll >= woundTN && roll != 1 {
			res.Wounds++
			log("Wound roll %d: %d -> WOUND", i+1, roll)
		} else {
			log("Wound roll %d: %d -> FAIL", i+1, roll)
		}
	}

	saveTN := saveThreshold(def.Save, def.InvSave, w.AP)
	if saveTN > 6 {
		log("Saves: AP %d leaves no save", w.AP)
	} else {
		log("Saves: AP %d -> needs %d+", w.AP, saveTN)
	}
	for i := 0; i < res.Wounds; i++ {
		roll := ro.D6()
		if saveTN <= 6 && roll >= saveTN && roll != 1 {
			res.Saved++
			log("Save roll %d: %d -> SAVED", i+1, roll)
		} else {
			res.Unsaved++
			log("Save roll %d: %d -> FAILED", i+1, roll)
		}
	}

	for i := 0; i < res.Unsaved; i++ {
		dmg := ro.Expr(w.Damage)
		res.Damage += dmg
		log("Damage roll %d: %s -> %d", i+1, strings.TrimSpace(w.Damage), dmg)
	}

	res.TargetHP = def.HP - res.Damage
	if res.TargetHP < 0 {
		res.TargetHP = 0
	}
	res.TargetSlew = res.TargetHP <= 0
	log("Total damage %d, %s at %d/%d HP", res.Damage, def.Name, res.TargetHP, def.MaxHP)
	return res
}
