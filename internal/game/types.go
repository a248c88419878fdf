// Package game owns the authoritative match state: the board, the units,
// the activation pools, and the turn/phase machinery that decides who may
// still act. All queries are pure reads of a State; mutation happens only
// through the command functions in commands.go and the phase advance in
// phases.go.
package game

import (
	"fmt"

	"github.com/hexhammer/skirmish/internal/hexes"
	"github.com/hexhammer/skirmish/internal/los"
	"github.com/hexhammer/skirmish/internal/reach"
)

// Phase is one of the four strictly ordered phases of a player turn.
type Phase int

const (
	PhaseMove Phase = iota
	PhaseShoot
	PhaseCharge
	PhaseCombat
)

func (p Phase) String() string {
	switch p {
	case PhaseMove:
		return "move"
	case PhaseShoot:
		return "shoot"
	case PhaseCharge:
		return "charge"
	case PhaseCombat:
		return "combat"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// CombatSubPhase is only meaningful while Phase == PhaseCombat. Charged
// units of the active player strike first, then combat alternates between
// the players.
type CombatSubPhase int

const (
	SubPhaseNone CombatSubPhase = iota
	SubPhaseChargedUnits
	SubPhaseAlternating
)

func (sp CombatSubPhase) String() string {
	switch sp {
	case SubPhaseNone:
		return "none"
	case SubPhaseChargedUnits:
		return "charged_units"
	case SubPhaseAlternating:
		return "alternating"
	}
	return fmt.Sprintf("subphase(%d)", int(sp))
}

// NoActivePlayer marks CombatActivePlayer outside the combat phase.
const NoActivePlayer = -1

// Weapon is one attack profile. Attacks and Damage are dice expressions;
// Skill is the to-hit threshold (hits on Skill+); AP worsens the target's
// armor save by its value.
type Weapon struct {
	Name     string `json:"name"`
	Range    int    `json:"range"`
	Attacks  string `json:"attacks"`
	Skill    int    `json:"skill"`
	Strength int    `json:"strength"`
	AP       int    `json:"ap"`
	Damage   string `json:"damage"`
}

// Unit is a single model on the board. A unit with HP <= 0 is dead and
// excluded from every spatial query and eligibility check.
type Unit struct {
	ID     string    `json:"id"`
	Name   string    `json:"name"`
	Player int       `json:"player"`
	Pos    hexes.Hex `json:"pos"`

	HP    int `json:"hp"`
	MaxHP int `json:"maxHp"`
	Move  int `json:"move"`

	Toughness int `json:"toughness"`
	Save      int `json:"save"`    // armor save threshold, 2-6; 7 means none
	InvSave   int `json:"invSave"` // invulnerable save, 0 if none

	Ranged *Weapon `json:"ranged,omitempty"`
	Melee  *Weapon `json:"melee"`

	ShotsLeft   int `json:"shotsLeft"`
	ShotsMax    int `json:"shotsMax"`
	AttacksLeft int `json:"attacksLeft"`
	AttacksMax  int `json:"attacksMax"`

	ChargedThisTurn bool `json:"chargedThisTurn"`
}

// Alive reports whether the unit is still on the table.
func (u *Unit) Alive() bool { return u.HP > 0 }

// MeleeRange returns the unit's melee reach in hexes.
func (u *Unit) MeleeRange() int {
	if u.Melee == nil || u.Melee.Range < 1 {
		return 1
	}
	return u.Melee.Range
}

// Board is the immutable per-match terrain configuration.
type Board struct {
	Cols       int                `json:"cols"`
	Rows       int                `json:"rows"`
	Walls      map[hexes.Hex]bool `json:"-"`
	Objectives map[hexes.Hex]bool `json:"-"`
}

// InBounds reports whether h lies on the board.
func (b *Board) InBounds(h hexes.Hex) bool {
	return h.Col >= 0 && h.Col < b.Cols && h.Row >= 0 && h.Row < b.Rows
}

// State is the single authoritative aggregate for one match. Queries read
// it; the command layer is the only writer. Hosts that share a State across
// goroutines guard it with one lock, the way a server room does.
type State struct {
	Board *Board
	Units []*Unit

	CurrentPlayer int
	Turn          int

	Phase              Phase
	CombatSubPhase     CombatSubPhase
	CombatActivePlayer int

	// Selected is presentation bookkeeping the phase machine clears on
	// every transition so a stale selection never survives a phase.
	Selected string

	// Activation pools. Moved doubles as "acted this phase" during the
	// shoot phase; see the transition table in phases.go.
	Moved    map[string]bool
	Charged  map[string]bool
	Attacked map[string]bool
	Fled     map[string]bool

	sight *los.Cache
}

// NewState builds the match-start state for the given board and units.
// Player 0 takes the first turn.
func NewState(b *Board, units []*Unit) *State {
	return &State{
		Board:              b,
		Units:              units,
		Turn:               1,
		Phase:              PhaseMove,
		CombatSubPhase:     SubPhaseNone,
		CombatActivePlayer: NoActivePlayer,
		Moved:              map[string]bool{},
		Charged:            map[string]bool{},
		Attacked:           map[string]bool{},
		Fled:               map[string]bool{},
		sight:              los.NewCache(b.Walls),
	}
}

// UnitByID returns the unit with the given id, dead or alive.
func (s *State) UnitByID(id string) *Unit {
	for _, u := range s.Units {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// LivingUnits returns every living unit of the given player, or of both
// players when NoActivePlayer is passed.
func (s *State) LivingUnits(player int) []*Unit {
	out := make([]*Unit, 0, len(s.Units))
	for _, u := range s.Units {
		if !u.Alive() {
			continue
		}
		if player != NoActivePlayer && u.Player != player {
			continue
		}
		out = append(out, u)
	}
	return out
}

// livingEnemies returns the living units of the other player.
func (s *State) livingEnemies(player int) []*Unit {
	return s.LivingUnits(otherPlayer(player))
}

// engaged reports whether u stands adjacent to a living enemy.
func (s *State) engaged(u *Unit) bool {
	for _, e := range s.livingEnemies(u.Player) {
		if hexes.Adjacent(u.Pos, e.Pos) {
			return true
		}
	}
	return false
}

// Visibility classifies line of sight between two units, memoized per wall
// set. Walls never change mid-match, so the memo stays valid for its life.
func (s *State) Visibility(from, to *Unit) los.Result {
	return s.sight.Between(from.Pos, to.Pos)
}

// reachQuery assembles the board facts a reachability search needs for u.
func (s *State) reachQuery(u *Unit, budget int) reach.Query {
	occupied := map[hexes.Hex]bool{}
	enemies := map[hexes.Hex]bool{}
	for _, other := range s.Units {
		if !other.Alive() || other == u {
			continue
		}
		occupied[other.Pos] = true
		if other.Player != u.Player {
			enemies[other.Pos] = true
		}
	}
	return reach.Query{
		Origin:        u.Pos,
		Budget:        budget,
		Cols:          s.Board.Cols,
		Rows:          s.Board.Rows,
		Walls:         s.Board.Walls,
		Occupied:      occupied,
		EnemyOccupied: enemies,
	}
}

// MoveDestinations returns every hex u may legally end a move on.
func (s *State) MoveDestinations(u *Unit) map[hexes.Hex]bool {
	return reach.ForMove(s.reachQuery(u, u.Move))
}

// ChargeDestinations returns the charge partition for a rolled distance.
func (s *State) ChargeDestinations(u *Unit, distance int) reach.ChargeResult {
	return reach.ForCharge(s.reachQuery(u, distance))
}

// GameOver reports whether one side has been wiped out. Winner is
// NoActivePlayer on a mutual wipe.
func (s *State) GameOver() (winner int, over bool) {
	alive0 := len(s.LivingUnits(0)) > 0
	alive1 := len(s.LivingUnits(1)) > 0
	switch {
	case alive0 && alive1:
		return NoActivePlayer, false
	case alive0:
		return 0, true
	case alive1:
		return 1, true
	default:
		return NoActivePlayer, true
	}
}

func otherPlayer(p int) int { return 1 - p }
