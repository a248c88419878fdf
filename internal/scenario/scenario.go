// Package scenario loads match setups from JSON files. Required fields are
// pointer-typed so a missing stat is distinguishable from an explicit zero
// and rejected up front instead of surfacing later as silent zero stats.
package scenario

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/hexhammer/skirmish/internal/dice"
	"github.com/hexhammer/skirmish/internal/game"
	"github.com/hexhammer/skirmish/internal/hexes"
)

//go:embed default.json
var defaultScenario []byte

// ConfigError reports a broken scenario file. It is fatal: a match never
// starts from a half-valid setup.
type ConfigError struct {
	Unit  string
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	if e.Unit == "" {
		return fmt.Sprintf("scenario: %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("scenario: unit %q: %s: %s", e.Unit, e.Field, e.Msg)
}

type weaponSpec struct {
	Name     string  `json:"name"`
	Range    *int    `json:"range"`
	Attacks  *string `json:"attacks"`
	Skill    *int    `json:"skill"`
	Strength *int    `json:"strength"`
	AP       *int    `json:"ap"`
	Damage   *string `json:"damage"`
}

type unitSpec struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Player    *int        `json:"player"`
	Pos       *hexes.Hex  `json:"pos"`
	HP        *int        `json:"hp"`
	Move      *int        `json:"move"`
	Toughness *int        `json:"toughness"`
	Save      *int        `json:"save"`
	InvSave   int         `json:"invSave"`
	Shots     *int        `json:"shots"`
	Attacks   *int        `json:"attacks"`
	Ranged    *weaponSpec `json:"ranged"`
	Melee     *weaponSpec `json:"melee"`
}

type fileSpec struct {
	Name       string     `json:"name"`
	Cols       *int       `json:"cols"`
	Rows       *int       `json:"rows"`
	Walls      [][2]int   `json:"walls"`
	Objectives [][2]int   `json:"objectives"`
	Units      []unitSpec `json:"units"`
}

// Scenario is a validated, ready-to-play setup.
type Scenario struct {
	Name  string
	Board *game.Board
	Units []*game.Unit
}

// NewState builds a fresh match state from the setup. Each call returns
// independent unit copies so one Scenario can seed many matches.
func (sc *Scenario) NewState() *game.State {
	units := make([]*game.Unit, len(sc.Units))
	for i, u := range sc.Units {
		cp := *u
		if u.Ranged != nil {
			w := *u.Ranged
			cp.Ranged = &w
		}
		if u.Melee != nil {
			w := *u.Melee
			cp.Melee = &w
		}
		units[i] = &cp
	}
	return game.NewState(sc.Board, units)
}

// Load reads and validates a scenario file. An empty path yields the
// built-in default scenario.
func Load(path string) (*Scenario, error) {
	if path == "" {
		return Parse(defaultScenario)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: read %s: %w", path, err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Parse validates raw scenario JSON.
func Parse(data []byte) (*Scenario, error) {
	var f fileSpec
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("scenario: parse: %w", err)
	}
	if f.Cols == nil || f.Rows == nil {
		return nil, &ConfigError{Field: "cols/rows", Msg: "board size is required"}
	}
	if *f.Cols < 2 || *f.Rows < 2 {
		return nil, &ConfigError{Field: "cols/rows", Msg: "board too small"}
	}
	board := &game.Board{
		Cols:       *f.Cols,
		Rows:       *f.Rows,
		Walls:      map[hexes.Hex]bool{},
		Objectives: map[hexes.Hex]bool{},
	}
	for _, w := range f.Walls {
		h := hexes.Hex{Col: w[0], Row: w[1]}
		if !board.InBounds(h) {
			return nil, &ConfigError{Field: "walls", Msg: fmt.Sprintf("%v out of bounds", h)}
		}
		board.Walls[h] = true
	}
	for _, o := range f.Objectives {
		h := hexes.Hex{Col: o[0], Row: o[1]}
		if !board.InBounds(h) {
			return nil, &ConfigError{Field: "objectives", Msg: fmt.Sprintf("%v out of bounds", h)}
		}
		board.Objectives[h] = true
	}

	if len(f.Units) < 2 {
		return nil, &ConfigError{Field: "units", Msg: "at least one unit per player is required"}
	}
	seenID := map[string]bool{}
	seenPos := map[hexes.Hex]bool{}
	players := map[int]bool{}
	units := make([]*game.Unit, 0, len(f.Units))
	for _, us := range f.Units {
		u, err := buildUnit(us)
		if err != nil {
			return nil, err
		}
		if seenID[u.ID] {
			return nil, &ConfigError{Unit: u.ID, Field: "id", Msg: "duplicate"}
		}
		if !board.InBounds(u.Pos) {
			return nil, &ConfigError{Unit: u.ID, Field: "pos", Msg: "out of bounds"}
		}
		if board.Walls[u.Pos] {
			return nil, &ConfigError{Unit: u.ID, Field: "pos", Msg: "placed on a wall"}
		}
		if seenPos[u.Pos] {
			return nil, &ConfigError{Unit: u.ID, Field: "pos", Msg: "hex already occupied"}
		}
		seenID[u.ID] = true
		seenPos[u.Pos] = true
		players[u.Player] = true
		units = append(units, u)
	}
	if !players[0] || !players[1] {
		return nil, &ConfigError{Field: "units", Msg: "both players need at least one unit"}
	}
	return &Scenario{Name: f.Name, Board: board, Units: units}, nil
}

func buildUnit(us unitSpec) (*game.Unit, error) {
	req := func(field string, p *int) (int, error) {
		if p == nil {
			return 0, &ConfigError{Unit: us.ID, Field: field, Msg: "required stat missing"}
		}
		return *p, nil
	}
	if us.ID == "" {
		return nil, &ConfigError{Field: "id", Msg: "required"}
	}
	if us.Player == nil || (*us.Player != 0 && *us.Player != 1) {
		return nil, &ConfigError{Unit: us.ID, Field: "player", Msg: "must be 0 or 1"}
	}
	if us.Pos == nil {
		return nil, &ConfigError{Unit: us.ID, Field: "pos", Msg: "required"}
	}
	hp, err := req("hp", us.HP)
	if err != nil {
		return nil, err
	}
	if hp <= 0 {
		return nil, &ConfigError{Unit: us.ID, Field: "hp", Msg: "must be positive"}
	}
	move, err := req("move", us.Move)
	if err != nil {
		return nil, err
	}
	tough, err := req("toughness", us.Toughness)
	if err != nil {
		return nil, err
	}
	save, err := req("save", us.Save)
	if err != nil {
		return nil, err
	}
	shots, err := req("shots", us.Shots)
	if err != nil {
		return nil, err
	}
	attacks, err := req("attacks", us.Attacks)
	if err != nil {
		return nil, err
	}
	if us.Melee == nil {
		return nil, &ConfigError{Unit: us.ID, Field: "melee", Msg: "melee profile is required"}
	}
	melee, err := buildWeapon(us.ID, "melee", us.Melee)
	if err != nil {
		return nil, err
	}
	var ranged *game.Weapon
	if us.Ranged != nil {
		ranged, err = buildWeapon(us.ID, "ranged", us.Ranged)
		if err != nil {
			return nil, err
		}
	}
	name := us.Name
	if name == "" {
		name = us.ID
	}
	return &game.Unit{
		ID: us.ID, Name: name, Player: *us.Player, Pos: *us.Pos,
		HP: hp, MaxHP: hp, Move: move,
		Toughness: tough, Save: save, InvSave: us.InvSave,
		Ranged: ranged, Melee: melee,
		ShotsLeft: shots, ShotsMax: shots,
		AttacksLeft: attacks, AttacksMax: attacks,
	}, nil
}

func buildWeapon(unit, kind string, ws *weaponSpec) (*game.Weapon, error) {
	field := func(name string) string { return kind + "." + name }
	if ws.Range == nil {
		return nil, &ConfigError{Unit: unit, Field: field("range"), Msg: "required"}
	}
	if ws.Attacks == nil || *ws.Attacks == "" {
		return nil, &ConfigError{Unit: unit, Field: field("attacks"), Msg: "required"}
	}
	if err := dice.Check(*ws.Attacks); err != nil {
		return nil, &ConfigError{Unit: unit, Field: field("attacks"), Msg: err.Error()}
	}
	if ws.Skill == nil || *ws.Skill < 2 || *ws.Skill > 6 {
		return nil, &ConfigError{Unit: unit, Field: field("skill"), Msg: "must be 2-6"}
	}
	if ws.Strength == nil {
		return nil, &ConfigError{Unit: unit, Field: field("strength"), Msg: "required"}
	}
	if ws.AP == nil {
		return nil, &ConfigError{Unit: unit, Field: field("ap"), Msg: "required"}
	}
	if ws.Damage == nil || *ws.Damage == "" {
		return nil, &ConfigError{Unit: unit, Field: field("damage"), Msg: "required"}
	}
	if err := dice.Check(*ws.Damage); err != nil {
		return nil, &ConfigError{Unit: unit, Field: field("damage"), Msg: err.Error()}
	}
	return &game.Weapon{
		Name:     ws.Name,
		Range:    *ws.Range,
		Attacks:  *ws.Attacks,
		Skill:    *ws.Skill,
		Strength: *ws.Strength,
		AP:       *ws.AP,
		Damage:   *ws.Damage,
	}, nil
}
