package server

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/hexhammer/skirmish/internal/dice"
	"github.com/hexhammer/skirmish/internal/game"
	"github.com/hexhammer/skirmish/internal/hexes"
	"github.com/hexhammer/skirmish/internal/roster"
	"github.com/hexhammer/skirmish/internal/scenario"
	"github.com/hexhammer/skirmish/internal/stats"
)

// fakeConn records everything a seat would receive.
type fakeConn struct {
	mu   sync.Mutex
	msgs []wsMsg
}

func (f *fakeConn) WriteJSON(v any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, v.(wsMsg))
	return nil
}

func (f *fakeConn) byType(typ string) []wsMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []wsMsg
	for _, m := range f.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

const testScenarioJSON = `{
  "name": "test pit",
  "cols": 8, "rows": 6,
  "units": [
    {"id": "a1", "player": 0, "pos": {"col": 1, "row": 1},
     "hp": 3, "move": 3, "toughness": 4, "save": 3, "shots": 1, "attacks": 1,
     "ranged": {"name": "rifle", "range": 6, "attacks": "1", "skill": 3, "strength": 4, "ap": 0, "damage": "1"},
     "melee": {"name": "fist", "range": 1, "attacks": "1", "skill": 3, "strength": 4, "ap": 0, "damage": "1"}},
    {"id": "b1", "player": 1, "pos": {"col": 6, "row": 4},
     "hp": 3, "move": 3, "toughness": 4, "save": 3, "shots": 1, "attacks": 1,
     "melee": {"name": "claw", "range": 1, "attacks": "1", "skill": 2, "strength": 8, "ap": 3, "damage": "3"}}
  ]
}`

func testScenario(t *testing.T) *scenario.Scenario {
	t.Helper()
	sc, err := scenario.Parse([]byte(testScenarioJSON))
	if err != nil {
		t.Fatalf("parse test scenario: %v", err)
	}
	return sc
}

func testServer(t *testing.T) *Server {
	t.Helper()
	st, err := stats.Open("")
	if err != nil {
		t.Fatalf("open stats: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(testScenario(t), st, roster.NewClient(""))
}

func testRoom(t *testing.T) (*Room, *fakeConn, *fakeConn) {
	t.Helper()
	s := testServer(t)
	c0, c1 := &fakeConn{}, &fakeConn{}
	p0 := &Player{ID: "h0", Name: "Anna", Conn: c0}
	p1 := &Player{ID: "h1", Name: "Bert", Conn: c1}
	r := s.createRoom(p0, p1)
	r.roll = dice.NewSeeded(7)
	return r, c0, c1
}

func msg(t *testing.T, typ string, data any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"type": typ, "data": data})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

// skipActing passes the first unit the seat can currently act with.
// Reports whether anything was skippable.
func skipActing(t *testing.T, r *Room, seat int) bool {
	t.Helper()
	for _, u := range r.state.LivingUnits(seat) {
		if r.state.CanActNow(u) {
			r.HandleMessage(r.players[seat], msg(t, "skip", map[string]any{"unitId": u.ID}))
			return true
		}
	}
	return false
}

func TestStartBroadcastsState(t *testing.T) {
	_, c0, c1 := testRoom(t)
	for i, c := range []*fakeConn{c0, c1} {
		if len(c.byType("state")) == 0 {
			t.Fatalf("seat %d received no state snapshot", i)
		}
		if len(c.byType("status")) == 0 {
			t.Fatalf("seat %d received no status", i)
		}
	}
}

func TestMoveCommandBroadcasts(t *testing.T) {
	r, _, c1 := testRoom(t)
	before := len(c1.byType("state"))
	r.HandleMessage(r.players[0], msg(t, "move", map[string]any{
		"unitId": "a1", "col": 2, "row": 1,
	}))
	if got := r.state.UnitByID("a1").Pos; got.Col != 2 || got.Row != 1 {
		t.Fatalf("a1 at %v, want (2,1)", got)
	}
	if len(c1.byType("state")) <= before {
		t.Fatal("opponent did not receive an updated snapshot")
	}
}

func TestIllegalCommandOnlyAnswersSender(t *testing.T) {
	r, c0, c1 := testRoom(t)
	seen := len(c1.byType("state"))
	r.HandleMessage(r.players[0], msg(t, "move", map[string]any{
		"unitId": "a1", "col": 7, "row": 5, // far outside move range
	}))
	if len(c0.byType("error")) == 0 {
		t.Fatal("sender received no error")
	}
	if len(c1.byType("state")) != seen {
		t.Fatal("illegal command changed broadcast state")
	}
	if got := r.state.UnitByID("a1").Pos; got.Col != 1 || got.Row != 1 {
		t.Fatalf("a1 moved to %v on an illegal command", got)
	}
}

func TestCannotCommandOpponentsUnit(t *testing.T) {
	r, c0, _ := testRoom(t)
	r.HandleMessage(r.players[0], msg(t, "move", map[string]any{
		"unitId": "b1", "col": 5, "row": 4,
	}))
	if len(c0.byType("error")) == 0 {
		t.Fatal("commanding the opponent's unit was accepted")
	}
}

func TestSkipDrainsTurn(t *testing.T) {
	r, _, _ := testRoom(t)
	for i := 0; i < 20 && r.state.CurrentPlayer == 0; i++ {
		if !skipActing(t, r, 0) {
			break
		}
	}
	if r.state.CurrentPlayer != 1 {
		t.Fatalf("turn did not pass, still player %d in %s", r.state.CurrentPlayer, r.state.Phase)
	}
}

func TestChargeRollThenMove(t *testing.T) {
	r, c0, _ := testRoom(t)
	// Park a1 two hexes from b1 so any charge roll reaches contact.
	r.state.UnitByID("a1").Pos = hexes.Hex{Col: 4, Row: 4}

	r.HandleMessage(r.players[0], msg(t, "skip", map[string]any{"unitId": "a1"}))
	if r.state.Phase == game.PhaseShoot {
		r.HandleMessage(r.players[0], msg(t, "skip", map[string]any{"unitId": "a1"}))
	}
	if r.state.Phase != game.PhaseCharge {
		t.Fatalf("phase %s, want charge", r.state.Phase)
	}

	r.HandleMessage(r.players[0], msg(t, "charge", map[string]any{"unitId": "a1"}))
	rolled := c0.byType("chargeCells")
	if len(rolled) == 0 {
		t.Fatalf("no chargeCells answer; errors: %+v", c0.byType("error"))
	}
	data := rolled[0].Data.(map[string]any)
	contact := data["contact"].([]hexes.Hex)
	if len(contact) == 0 {
		t.Fatal("no contact cells for a two-hex charge")
	}
	if _, ok := r.pendingCharge["a1"]; !ok {
		t.Fatal("charge roll not remembered")
	}

	dest := contact[0]
	r.HandleMessage(r.players[0], msg(t, "chargeMove", map[string]any{
		"unitId": "a1", "col": dest.Col, "row": dest.Row,
	}))
	a1 := r.state.UnitByID("a1")
	if a1.Pos != dest {
		t.Fatalf("a1 at %v, want %v", a1.Pos, dest)
	}
	if !a1.ChargedThisTurn {
		t.Fatal("contact charge did not mark the unit as charged")
	}
	if _, ok := r.pendingCharge["a1"]; ok {
		t.Fatal("spent charge roll still pending")
	}
}

func TestBotFinishesMatchAlone(t *testing.T) {
	s := testServer(t)
	c0 := &fakeConn{}
	p0 := &Player{ID: "h0", Name: "Anna", Conn: c0}
	r := s.createRoom(p0, s.makeBot())
	r.roll = dice.NewSeeded(11)

	// Human passes every activation; the bot closes in and wins.
	for i := 0; i < 400 && !r.Finished(); i++ {
		if !skipActing(t, r, 0) {
			t.Fatalf("human seat stuck with nothing to do in %s", r.state.Phase)
		}
	}
	if !r.Finished() {
		t.Fatal("bot match never finished")
	}
	if len(c0.byType("gameover")) == 0 {
		t.Fatal("no gameover broadcast")
	}
	if s.RoomFor("h0") != nil {
		t.Fatal("finished room still registered")
	}
}

func TestMatchmakerPairsTwoPlayers(t *testing.T) {
	s := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	p1 := &Player{ID: "m1", Name: "Anna", Conn: &fakeConn{}}
	p2 := &Player{ID: "m2", Name: "Bert", Conn: &fakeConn{}}
	s.JoinLobby(p1)
	s.JoinLobby(p2)
	s.Enqueue(p1)
	s.Enqueue(p2)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.RoomFor("m1") != nil && s.RoomFor("m2") != nil {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("players were never paired")
}

func TestMatchmakerSkipsDepartedPlayer(t *testing.T) {
	s := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// Ghost disconnects after queueing: it must never be seated.
	ghost := &Player{ID: "ghost", Name: "Ghost", Conn: &fakeConn{}}
	s.JoinLobby(ghost)
	s.LeaveLobby(ghost.ID)
	s.Enqueue(ghost)

	p2 := &Player{ID: "m2", Name: "Anna", Conn: &fakeConn{}}
	p3 := &Player{ID: "m3", Name: "Bert", Conn: &fakeConn{}}
	s.JoinLobby(p2)
	s.JoinLobby(p3)
	s.Enqueue(p2)
	s.Enqueue(p3)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.RoomFor("m2") != nil && s.RoomFor("m3") != nil {
			if s.RoomFor("ghost") != nil {
				t.Fatal("departed player was seated in a room")
			}
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("live players were never paired past the departed one")
}

func TestLobbySnapshotOrdering(t *testing.T) {
	s := testServer(t)
	s.now = func() time.Time { return time.Unix(1000, 0) }
	s.JoinLobby(&Player{ID: "l1", Name: "zoe", Conn: &fakeConn{}})
	s.JoinLobby(&Player{ID: "l2", Name: "Adam", Conn: &fakeConn{}})

	p0 := &Player{ID: "g1", Name: "Anna", Conn: &fakeConn{}}
	p1 := &Player{ID: "g2", Name: "Bert", Conn: &fakeConn{}}
	s.createRoom(p0, p1)

	got := s.LobbySnapshot()
	if len(got) != 4 {
		t.Fatalf("snapshot has %d entries, want 4", len(got))
	}
	if got[0].Status != "in-game" || got[1].Status != "in-game" {
		t.Fatalf("in-game entries not first: %+v", got)
	}
	if got[2].Name != "Adam" || got[3].Name != "zoe" {
		t.Fatalf("lobby entries not name-ordered: %+v", got)
	}
	if got[0].Opponent == "" {
		t.Fatal("in-game entry missing opponent")
	}
}

func TestDropAbandonsMatch(t *testing.T) {
	r, _, _ := testRoom(t)
	if r.srv.RoomFor("h0") == nil {
		t.Fatal("room not registered before drop")
	}
	r.Drop(r.players[1])
	if !r.Finished() {
		t.Fatal("room still running after drop")
	}
	if r.srv.RoomFor("h0") != nil {
		t.Fatal("abandoned room still registered")
	}
}
