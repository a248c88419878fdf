package server

import (
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// wsConn serializes writes to a gorilla connection, which permits only
// one concurrent writer.
type wsConn struct {
	mu sync.Mutex
	c  *websocket.Conn
}

func (w *wsConn) WriteJSON(v any) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.c.WriteJSON(v)
}

// HandleWS upgrades a client, queues it for a match and pumps its
// messages into the room once seated. Blocks until the client hangs up.
func (s *Server) HandleWS(w http.ResponseWriter, req *http.Request) {
	ws, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("ws: upgrade: %v", err)
		return
	}
	defer ws.Close()

	name := req.URL.Query().Get("name")
	p := &Player{
		ID:      fmt.Sprintf("p_%d", s.now().UnixNano()),
		Conn:    &wsConn{c: ws},
		Name:    name,
		WantsAI: req.URL.Query().Get("ai") != "0",
	}
	if p.Name == "" {
		p.Name = fmt.Sprintf("Guest-%04d", s.now().UnixNano()%10000)
	}

	s.JoinLobby(p)
	s.Enqueue(p)
	p.Conn.WriteJSON(wsMsg{Type: "queued", Data: map[string]any{
		"playerId": p.ID,
		"name":     p.Name,
	}})

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			break
		}
		r := s.RoomFor(p.ID)
		if r == nil {
			p.Conn.WriteJSON(wsMsg{Type: "error", Data: "not in a match yet"})
			continue
		}
		r.HandleMessage(p, raw)
	}

	s.LeaveLobby(p.ID)
	if r := s.RoomFor(p.ID); r != nil {
		r.Drop(p)
	}
	log.Printf("ws: %s (%s) disconnected", p.ID, p.Name)
}
