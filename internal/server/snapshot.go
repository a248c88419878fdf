package server

import (
	"sort"

	"github.com/hexhammer/skirmish/internal/game"
)

// stateView is the wire shape of a match snapshot. Units marshal through
// their own json tags; hex sets flatten to sorted lists so clients never
// see map-keyed hexes.
type stateView struct {
	Room               string       `json:"room"`
	Players            [2]seatView  `json:"players"`
	Cols               int          `json:"cols"`
	Rows               int          `json:"rows"`
	Walls              []hexView    `json:"walls"`
	Objectives         []hexView    `json:"objectives"`
	Units              []*game.Unit `json:"units"`
	Turn               int          `json:"turn"`
	CurrentPlayer      int          `json:"currentPlayer"`
	Phase              string       `json:"phase"`
	CombatSubPhase     int          `json:"combatSubPhase"`
	CombatActivePlayer int          `json:"combatActivePlayer"`
	Moved              []string     `json:"moved"`
	Charged            []string     `json:"charged"`
	Attacked           []string     `json:"attacked"`
	Fled               []string     `json:"fled"`
	Finished           bool         `json:"finished"`
}

type seatView struct {
	Name string `json:"name"`
	Bot  bool   `json:"bot"`
}

type hexView struct {
	Col int `json:"col"`
	Row int `json:"row"`
}

// broadcastState publishes a full snapshot to both seats. Callers hold the
// lock. Polling the same state twice yields identical payloads.
func (r *Room) broadcastState() {
	s := r.state
	view := stateView{
		Room:               r.ID,
		Cols:               s.Board.Cols,
		Rows:               s.Board.Rows,
		Units:              s.Units,
		Turn:               s.Turn,
		CurrentPlayer:      s.CurrentPlayer,
		Phase:              s.Phase.String(),
		CombatSubPhase:     int(s.CombatSubPhase),
		CombatActivePlayer: s.CombatActivePlayer,
		Moved:              poolList(s.Moved),
		Charged:            poolList(s.Charged),
		Attacked:           poolList(s.Attacked),
		Fled:               poolList(s.Fled),
		Finished:           r.finished,
	}
	for i, p := range r.players {
		view.Players[i] = seatView{Name: p.Name, Bot: p.IsBot}
	}
	for _, h := range hexList(s.Board.Walls) {
		view.Walls = append(view.Walls, hexView{Col: h.Col, Row: h.Row})
	}
	for _, h := range hexList(s.Board.Objectives) {
		view.Objectives = append(view.Objectives, hexView{Col: h.Col, Row: h.Row})
	}
	r.broadcast(wsMsg{Type: "state", Data: view})
}

func poolList(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for id, in := range set {
		if in {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}
