package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/hexhammer/skirmish/internal/dice"
	"github.com/hexhammer/skirmish/internal/game"
	"github.com/hexhammer/skirmish/internal/hexes"
	"github.com/hexhammer/skirmish/internal/reach"
	"github.com/hexhammer/skirmish/internal/stats"
)

// wsMsg is the envelope for everything crossing the websocket.
type wsMsg struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// inMsg is the inbound flavor: data stays raw until the type is known.
type inMsg struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type unitTarget struct {
	UnitID   string `json:"unitId"`
	TargetID string `json:"targetId,omitempty"`
}

type unitDest struct {
	UnitID string `json:"unitId"`
	Col    int    `json:"col"`
	Row    int    `json:"row"`
}

// Room runs one match. All state behind one mutex; every inbound message
// and bot activation goes through HandleMessage or the start sequence.
type Room struct {
	ID string

	srv     *Server
	players [2]*Player

	mu    sync.Mutex
	state *game.State
	roll  *dice.Roller

	// charge distances rolled but not yet spent, per unit
	pendingCharge map[string]int

	finished bool
	matchID  int64
}

func newRoom(id string, srv *Server, players [2]*Player) *Room {
	return &Room{
		ID:            id,
		srv:           srv,
		players:       players,
		state:         srv.Scenario.NewState(),
		roll:          dice.New(),
		pendingCharge: map[string]int{},
	}
}

// Finished reports whether the match has ended.
func (r *Room) Finished() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.finished
}

// PlayOut drives a bot-vs-bot room to completion. Errors if the bots
// stall instead of finishing.
func (r *Room) PlayOut() error {
	for i := 0; i < 200; i++ {
		r.mu.Lock()
		if !r.finished {
			r.runBots()
			r.checkGameOver()
		}
		done := r.finished
		r.mu.Unlock()
		if done {
			return nil
		}
	}
	return fmt.Errorf("room %s: bots stalled, match never finished", r.ID)
}

// Result reports the outcome of a finished match.
func (r *Room) Result() (winner string, draw bool, turns int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	turns = r.state.Turn
	w, over := r.state.GameOver()
	if !over {
		return "", false, turns
	}
	if w == game.NoActivePlayer {
		return "", true, turns
	}
	return r.players[w].Name, false, turns
}

// Drop abandons a still-running match when a seat disconnects. No stats
// are recorded for abandoned games.
func (r *Room) Drop(p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		return
	}
	r.finished = true
	r.logf("%s left, match abandoned", p.Name)
	r.srv.removeRoom(r.ID)
}

func (r *Room) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcast(wsMsg{Type: "status", Data: map[string]any{
		"room":     r.ID,
		"scenario": r.srv.Scenario.Name,
		"message":  "Match found. Deploy and fight.",
	}})
	r.logf("match started: %s (p0) vs %s (p1)", r.players[0].Name, r.players[1].Name)
	r.runBots()
	r.broadcastState()
}

// HandleMessage applies one client message. Errors go back to the sender
// only; legal commands broadcast the new state to both seats.
func (r *Room) HandleMessage(p *Player, raw []byte) {
	var m inMsg
	if err := json.Unmarshal(raw, &m); err != nil {
		r.sendError(p, fmt.Errorf("bad message: %w", err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finished {
		r.sendError(p, fmt.Errorf("match is over"))
		return
	}

	var err error
	switch m.Type {
	case "move":
		err = r.doMove(p, m.Data)
	case "shoot":
		err = r.doShoot(p, m.Data)
	case "charge":
		err = r.doChargeRoll(p, m.Data)
	case "chargeMove":
		err = r.doChargeMove(p, m.Data)
	case "fight":
		err = r.doFight(p, m.Data)
	case "skip":
		err = r.doSkip(p, m.Data)
	case "preview":
		err = r.doPreview(p, m.Data)
		// queries never change state, skip the advance below
		if err != nil {
			r.sendError(p, err)
		}
		return
	default:
		err = fmt.Errorf("unknown message type %q", m.Type)
	}
	if err != nil {
		r.sendError(p, err)
		return
	}

	r.afterCommand()
}

// afterCommand drives the phase machine, lets bots take their activations
// and publishes the result. Callers hold the lock.
func (r *Room) afterCommand() {
	r.state.AdvancePhaseIfNeeded()
	r.runBots()
	r.checkGameOver()
	r.broadcastState()
}

func (r *Room) ownUnit(p *Player, unitID string) (*game.Unit, error) {
	u := r.state.UnitByID(unitID)
	if u == nil {
		return nil, fmt.Errorf("unknown unit %q", unitID)
	}
	if u.Player != p.Slot {
		return nil, fmt.Errorf("unit %q is not yours", unitID)
	}
	return u, nil
}

func (r *Room) doMove(p *Player, data json.RawMessage) error {
	var d unitDest
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	if _, err := r.ownUnit(p, d.UnitID); err != nil {
		return err
	}
	dest := hexes.Hex{Col: d.Col, Row: d.Row}
	if err := r.state.ApplyMove(d.UnitID, dest); err != nil {
		return err
	}
	r.logf("%s moves %s to %v", p.Name, d.UnitID, dest)
	return nil
}

func (r *Room) doShoot(p *Player, data json.RawMessage) error {
	var d unitTarget
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	if _, err := r.ownUnit(p, d.UnitID); err != nil {
		return err
	}
	res, err := r.state.ResolveShot(r.roll, d.UnitID, d.TargetID)
	if err != nil {
		return err
	}
	r.publishAttack(p, d.UnitID, d.TargetID, res)
	return nil
}

// doChargeRoll rolls 2d6 for a charge and answers with the partition the
// roll buys. A roll with no reachable contact fails the charge outright
// and spends the unit's activation.
func (r *Room) doChargeRoll(p *Player, data json.RawMessage) error {
	var d unitTarget
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	u, err := r.ownUnit(p, d.UnitID)
	if err != nil {
		return err
	}
	if r.state.Phase != game.PhaseCharge || !r.state.Eligible(u) {
		return fmt.Errorf("unit %q cannot charge", d.UnitID)
	}
	distance := r.roll.Charge()
	cells := r.state.ChargeDestinations(u, distance)
	r.logf("%s rolls charge for %s: %d", p.Name, d.UnitID, distance)

	if len(cells.AdjacentToEnemy) == 0 {
		// Failed charge: the roll cannot reach contact.
		delete(r.pendingCharge, d.UnitID)
		if err := r.state.SkipUnit(d.UnitID, game.PoolCharged); err != nil {
			return err
		}
		r.logf("%s: charge of %s failed on a %d", p.Name, d.UnitID, distance)
		r.send(p, wsMsg{Type: "chargeFailed", Data: map[string]any{
			"unitId": d.UnitID, "distance": distance,
		}})
		return nil
	}

	r.pendingCharge[d.UnitID] = distance
	r.send(p, wsMsg{Type: "chargeCells", Data: map[string]any{
		"unitId":   d.UnitID,
		"distance": distance,
		"contact":  hexList(cells.AdjacentToEnemy),
		"short":    hexList(cells.ChargeCells),
	}})
	return nil
}

func (r *Room) doChargeMove(p *Player, data json.RawMessage) error {
	var d unitDest
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	u, err := r.ownUnit(p, d.UnitID)
	if err != nil {
		return err
	}
	distance, ok := r.pendingCharge[d.UnitID]
	if !ok {
		return fmt.Errorf("no charge rolled for %q", d.UnitID)
	}
	dest := hexes.Hex{Col: d.Col, Row: d.Row}
	if err := r.state.ApplyCharge(d.UnitID, dest, distance); err != nil {
		return err
	}
	delete(r.pendingCharge, d.UnitID)
	if u.ChargedThisTurn {
		r.logf("%s charges %s into contact at %v", p.Name, d.UnitID, dest)
		r.recordCharge(p, u, distance)
	} else {
		r.logf("%s advances %s to %v, short of contact", p.Name, d.UnitID, dest)
	}
	return nil
}

func (r *Room) doFight(p *Player, data json.RawMessage) error {
	var d unitTarget
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	if _, err := r.ownUnit(p, d.UnitID); err != nil {
		return err
	}
	res, err := r.state.ResolveMelee(r.roll, d.UnitID, d.TargetID)
	if err != nil {
		return err
	}
	r.publishAttack(p, d.UnitID, d.TargetID, res)
	return nil
}

func (r *Room) doSkip(p *Player, data json.RawMessage) error {
	var d unitTarget
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	if _, err := r.ownUnit(p, d.UnitID); err != nil {
		return err
	}
	if err := r.state.SkipUnit(d.UnitID, r.state.ActivePool()); err != nil {
		return err
	}
	r.logf("%s passes with %s", p.Name, d.UnitID)
	return nil
}

// doPreview answers reachability and sight queries without mutating
// anything; the UI polls this while the player hovers.
func (r *Room) doPreview(p *Player, data json.RawMessage) error {
	var d unitTarget
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	u, err := r.ownUnit(p, d.UnitID)
	if err != nil {
		return err
	}
	payload := map[string]any{"unitId": d.UnitID, "phase": r.state.Phase.String()}
	switch r.state.Phase {
	case game.PhaseMove:
		payload["cells"] = hexList(r.state.MoveDestinations(u))
	case game.PhaseShoot:
		targets := []map[string]any{}
		if u.Ranged != nil {
			for _, e := range r.state.LivingUnits(1 - u.Player) {
				if hexes.Distance(u.Pos, e.Pos) > u.Ranged.Range {
					continue
				}
				sight := r.state.Visibility(u, e)
				if !sight.CanSee {
					continue
				}
				targets = append(targets, map[string]any{
					"targetId": e.ID, "inCover": sight.InCover,
				})
			}
		}
		payload["targets"] = targets
	case game.PhaseCharge:
		cells := r.state.ChargeDestinations(u, reach.MaxChargeRange)
		payload["contact"] = hexList(cells.AdjacentToEnemy)
	case game.PhaseCombat:
		targets := []string{}
		for _, e := range r.state.LivingUnits(1 - u.Player) {
			if hexes.Distance(u.Pos, e.Pos) <= u.MeleeRange() {
				targets = append(targets, e.ID)
			}
		}
		payload["targets"] = targets
	}
	r.send(p, wsMsg{Type: "preview", Data: payload})
	return nil
}

func (r *Room) publishAttack(p *Player, attackerID, targetID string, res *game.AttackResult) {
	r.broadcast(wsMsg{Type: "attack", Data: map[string]any{
		"attackerId": attackerID,
		"targetId":   targetID,
		"result":     res,
	}})
	for _, line := range res.Logs {
		r.logf("%s", line)
	}
	if att := r.state.UnitByID(attackerID); att != nil && r.srv.Stats != nil {
		weapon := att.Melee
		if r.state.Phase == game.PhaseShoot {
			weapon = att.Ranged
		}
		rec := stats.AttackRecord{
			Player:   p.Name,
			UnitName: att.Name,
			Wounds:   res.Wounds,
			Damage:   res.Damage,
		}
		if weapon != nil {
			rec.Weapon = weapon.Name
		}
		r.withStats(func(ctx context.Context) error {
			return r.srv.Stats.RecordAttack(ctx, rec)
		})
	}
}

func (r *Room) recordCharge(p *Player, u *game.Unit, distance int) {
	if r.srv.Stats == nil {
		return
	}
	rec := stats.ChargeRecord{Player: p.Name, UnitName: u.Name, Distance: distance}
	r.withStats(func(ctx context.Context) error {
		return r.srv.Stats.RecordCharge(ctx, rec)
	})
}

func (r *Room) withStats(fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := fn(ctx); err != nil {
		log.Printf("room %s: stats: %v", r.ID, err)
	}
}

func (r *Room) checkGameOver() {
	winner, over := r.state.GameOver()
	if !over || r.finished {
		return
	}
	r.finished = true

	rec := &stats.MatchRecord{
		Turns:    r.state.Turn,
		Scenario: r.srv.Scenario.Name,
	}
	winnerName := ""
	switch winner {
	case game.NoActivePlayer:
		rec.Draw = true
		rec.Winner = r.players[0].Name
		rec.Loser = r.players[1].Name
	default:
		winnerName = r.players[winner].Name
		rec.Winner = r.players[winner].Name
		rec.Loser = r.players[1-winner].Name
		rec.UnitsLeft = len(r.state.LivingUnits(winner))
	}
	if r.srv.Stats != nil {
		r.withStats(func(ctx context.Context) error {
			err := r.srv.Stats.RecordMatch(ctx, rec)
			r.matchID = rec.ID
			return err
		})
	}
	r.logf("match over: winner=%q turn=%d", winnerName, r.state.Turn)
	r.broadcast(wsMsg{Type: "gameover", Data: map[string]any{
		"winner":  winnerName,
		"draw":    rec.Draw,
		"turns":   r.state.Turn,
		"matchId": r.matchID,
	}})
	r.srv.removeRoom(r.ID)
}

// logf logs server-side with the room prefix and mirrors the line to both
// clients.
func (r *Room) logf(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	log.Printf("room %s: %s", r.ID, line)
	r.broadcast(wsMsg{Type: "log", Data: line})
}

func (r *Room) send(p *Player, m wsMsg) {
	if p == nil || p.Conn == nil {
		return
	}
	if err := p.Conn.WriteJSON(m); err != nil {
		log.Printf("room %s: write to %s: %v", r.ID, p.ID, err)
	}
}

func (r *Room) sendError(p *Player, err error) {
	r.send(p, wsMsg{Type: "error", Data: err.Error()})
}

func (r *Room) broadcast(m wsMsg) {
	r.send(r.players[0], m)
	r.send(r.players[1], m)
}

func hexList(set map[hexes.Hex]bool) []hexes.Hex {
	out := make([]hexes.Hex, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Col != out[j].Col {
			return out[i].Col < out[j].Col
		}
		return out[i].Row < out[j].Row
	})
	return out
}

func nearestEnemyDistance(s *game.State, from hexes.Hex, player int) int {
	best := math.MaxInt
	for _, e := range s.LivingUnits(1 - player) {
		if d := hexes.Distance(from, e.Pos); d < best {
			best = d
		}
	}
	return best
}
