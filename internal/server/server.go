// Package server hosts skirmish matches over websockets: a lobby of
// waiting players, a matchmaker that pairs them (or spawns a bot), and one
// room per running match.
package server

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hexhammer/skirmish/internal/dice"
	"github.com/hexhammer/skirmish/internal/roster"
	"github.com/hexhammer/skirmish/internal/scenario"
	"github.com/hexhammer/skirmish/internal/stats"
)

// Conn is the slice of a websocket connection the rooms need. Tests plug
// in fakes; production passes *websocket.Conn.
type Conn interface {
	WriteJSON(v any) error
}

// Player is one seat, human or bot.
type Player struct {
	ID      string
	Name    string
	Conn    Conn
	IsBot   bool
	WantsAI bool
	Ready   bool
	Slot    int // 0 or 1 once seated in a room
	Since   int64
}

// Server owns the lobby, the match queue and the rooms.
type Server struct {
	Scenario *scenario.Scenario
	Stats    *stats.Store
	Roster   *roster.Client

	queue chan *Player

	mu    sync.Mutex
	rooms map[string]*Room
	lobby map[string]*Player

	// seeds bot matches and roll-offs; injectable for deterministic tests
	now func() time.Time
}

// New builds a server around a validated scenario. Stats and roster may be
// nil-equivalent (empty store path, disabled client) but not nil.
func New(sc *scenario.Scenario, st *stats.Store, ro *roster.Client) *Server {
	return &Server{
		Scenario: sc,
		Stats:    st,
		Roster:   ro,
		queue:    make(chan *Player, 32),
		rooms:    map[string]*Room{},
		lobby:    map[string]*Player{},
		now:      time.Now,
	}
}

// Run starts the matchmaker until ctx is done. Players who left the lobby
// while queued are discarded, never seated.
func (s *Server) Run(ctx context.Context) {
	var waiting *Player
	for {
		if waiting == nil {
			select {
			case <-ctx.Done():
				return
			case p := <-s.queue:
				if !s.inLobby(p.ID) {
					log.Printf("matchmaker: %s left while queued, dropping", p.ID)
					continue
				}
				waiting = p
				log.Printf("matchmaker: got %s (%s) wantsAI=%v", p.ID, p.Name, p.WantsAI)
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case p2 := <-s.queue:
			if !s.inLobby(p2.ID) {
				log.Printf("matchmaker: %s left while queued, dropping", p2.ID)
				continue
			}
			log.Printf("matchmaker: pairing %s with %s", waiting.ID, p2.ID)
			s.createRoom(waiting, p2)
			waiting = nil
		case <-time.After(1200 * time.Millisecond):
			if !s.inLobby(waiting.ID) {
				log.Printf("matchmaker: %s left while waiting, dropping", waiting.ID)
				waiting = nil
				continue
			}
			if waiting.WantsAI {
				log.Printf("matchmaker: no opponent for %s, seating a bot", waiting.ID)
				s.createRoom(waiting, s.makeBot())
				waiting = nil
			}
		}
	}
}

func (s *Server) inLobby(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.lobby[id]
	return ok
}

// Enqueue puts a lobby player into the match queue.
func (s *Server) Enqueue(p *Player) {
	s.queue <- p
}

// JoinLobby registers a connected player as waiting.
func (s *Server) JoinLobby(p *Player) {
	p.Since = s.now().Unix()
	s.mu.Lock()
	s.lobby[p.ID] = p
	s.mu.Unlock()
	log.Printf("lobby: %s (%s) joined", p.ID, p.Name)
}

// LeaveLobby drops a player, e.g. on disconnect or when matched.
func (s *Server) LeaveLobby(id string) {
	s.mu.Lock()
	delete(s.lobby, id)
	s.mu.Unlock()
}

func (s *Server) createRoom(p1, p2 *Player) *Room {
	id := fmt.Sprintf("room_%d", s.now().UnixNano())
	p1.Slot, p2.Slot = 0, 1
	r := newRoom(id, s, [2]*Player{p1, p2})
	s.mu.Lock()
	s.rooms[id] = r
	s.mu.Unlock()
	s.LeaveLobby(p1.ID)
	s.LeaveLobby(p2.ID)
	log.Printf("room %s: created for %s vs %s", id, p1.Name, p2.Name)
	r.start()
	return r
}

// removeRoom forgets a finished or abandoned room so the registry and the
// lobby listing do not accumulate dead matches.
func (s *Server) removeRoom(id string) {
	s.mu.Lock()
	delete(s.rooms, id)
	s.mu.Unlock()
	log.Printf("room %s: removed", id)
}

// RoomFor locates the room a player sits in.
func (s *Server) RoomFor(playerID string) *Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		for _, p := range r.players {
			if p != nil && p.ID == playerID {
				return r
			}
		}
	}
	return nil
}

func (s *Server) makeBot() *Player {
	return &Player{
		ID:    fmt.Sprintf("bot_%d", s.now().UnixNano()),
		Name:  "Servo Skull",
		IsBot: true,
		Ready: true,
	}
}

// NewBotMatch seats two bots with a seeded roller, for headless
// playthroughs. The room starts immediately.
func (s *Server) NewBotMatch(seed int64) *Room {
	b0 := s.makeBot()
	b0.ID, b0.Name = "bot_0", "Bot Alpha"
	b1 := s.makeBot()
	b1.ID, b1.Name, b1.Slot = "bot_1", "Bot Beta", 1
	id := fmt.Sprintf("room_%d", s.now().UnixNano())
	r := newRoom(id, s, [2]*Player{b0, b1})
	r.roll = dice.NewSeeded(seed)
	s.mu.Lock()
	s.rooms[id] = r
	s.mu.Unlock()
	r.start()
	return r
}

// LobbyEntry is one row of the public lobby listing.
type LobbyEntry struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Status   string `json:"status"` // lobby | in-game
	Opponent string `json:"opponent,omitempty"`
	Since    int64  `json:"since,omitempty"`
}

// LobbySnapshot lists waiting and playing humans, in-game first.
func (s *Server) LobbySnapshot() []LobbyEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]LobbyEntry, 0, len(s.lobby)+2*len(s.rooms))
	for _, p := range s.lobby {
		out = append(out, LobbyEntry{ID: p.ID, Name: p.Name, Status: "lobby", Since: p.Since})
	}
	for _, r := range s.rooms {
		// Finished rooms are pruned from the map, so anyone here is playing.
		status := "in-game"
		for i, p := range r.players {
			if p == nil || p.IsBot {
				continue
			}
			opp := r.players[1-i]
			oppName := ""
			if opp != nil {
				oppName = opp.Name
			}
			out = append(out, LobbyEntry{ID: p.ID, Name: p.Name, Status: status, Opponent: oppName, Since: p.Since})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		rank := func(st string) int {
			switch st {
			case "in-game":
				return 0
			case "lobby":
				return 1
			}
			return 2
		}
		ri, rj := rank(out[i].Status), rank(out[j].Status)
		if ri != rj {
			return ri < rj
		}
		if out[i].Since != out[j].Since {
			return out[i].Since < out[j].Since
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}
