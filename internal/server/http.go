package server

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// Version is stamped by the binary that mounts the routes.
var Version = "dev"

// Routes mounts the public HTTP surface.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", s.HandleWS)
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/version", handleVersion).Methods(http.MethodGet)
	r.HandleFunc("/lobby", s.handleLobby).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard", s.handleLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/leaderboard/daily", s.handleDaily).Methods(http.MethodGet)
	r.HandleFunc("/api/match/{id:[0-9]+}", s.handleMatch).Methods(http.MethodGet)
	r.HandleFunc("/api/factions", s.handleFactions).Methods(http.MethodGet)
	r.HandleFunc("/api/factions/{slug}/units", s.handleFactionUnits).Methods(http.MethodGet)
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"version": Version})
}

func (s *Server) handleLobby(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, s.LobbySnapshot())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, req *http.Request) {
	limit := 20
	if v := req.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	rows, err := s.Stats.Leaderboard(req.Context(), limit)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handleDaily(w http.ResponseWriter, req *http.Request) {
	attack, err := s.Stats.BestAttackToday(req.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	charge, err := s.Stats.LongestChargeToday(req.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"bestAttack":    attack,
		"longestCharge": charge,
	})
}

func (s *Server) handleMatch(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		http.Error(w, "bad match id", http.StatusBadRequest)
		return
	}
	rec, err := s.Stats.MatchByID(req.Context(), id)
	if err != nil {
		httpError(w, err)
		return
	}
	if rec == nil {
		http.NotFound(w, req)
		return
	}
	writeJSON(w, rec)
}

func (s *Server) handleFactions(w http.ResponseWriter, req *http.Request) {
	if !s.Roster.Enabled() {
		http.Error(w, "roster api not configured", http.StatusServiceUnavailable)
		return
	}
	factions, err := s.Roster.Factions(req.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, factions)
}

func (s *Server) handleFactionUnits(w http.ResponseWriter, req *http.Request) {
	if !s.Roster.Enabled() {
		http.Error(w, "roster api not configured", http.StatusServiceUnavailable)
		return
	}
	units, err := s.Roster.Units(req.Context(), mux.Vars(req)["slug"])
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, units)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

func httpError(w http.ResponseWriter, err error) {
	log.Printf("http: %v", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
