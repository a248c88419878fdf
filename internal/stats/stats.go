// Package stats persists match results and daily records in SQLite.
package stats

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Store is a SQLite-backed record of finished matches and daily bests.
type Store struct {
	db *sql.DB
}

// Open opens (and if necessary creates) the stats database at path. An
// empty path opens a fresh in-memory database, which tests and local play
// use.
func Open(path string) (*Store, error) {
	var dsn string
	if path == "" {
		dsn = "file::memory:?cache=shared&_pragma=foreign_keys(1)"
	} else {
		// Pragmas ride in the DSN so every pooled connection gets them.
		dsn = fmt.Sprintf(
			"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
			path,
		)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open stats db: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply stats schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// MatchRecord is one finished match. Draw marks a mutual wipe; Winner and
// Loser are still filled with both player names for the standings query.
type MatchRecord struct {
	ID         int64     `json:"id"`
	Winner     string    `json:"winner"`
	Loser      string    `json:"loser"`
	Draw       bool      `json:"draw"`
	Turns      int       `json:"turns"`
	UnitsLeft  int       `json:"unitsLeft"`
	Scenario   string    `json:"scenario"`
	FinishedAt time.Time `json:"finishedAt"`
}

// RecordMatch inserts a finished match and fills in its ID.
func (s *Store) RecordMatch(ctx context.Context, m *MatchRecord) error {
	if m.FinishedAt.IsZero() {
		m.FinishedAt = time.Now().UTC()
	}
	const query = `
		INSERT INTO matches (winner, loser, draw, turns, units_left, scenario, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	res, err := s.db.ExecContext(ctx, query,
		m.Winner, m.Loser, boolToInt(m.Draw), m.Turns, m.UnitsLeft, m.Scenario,
		m.FinishedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	m.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("match id: %w", err)
	}
	return nil
}

// MatchByID returns one match, or nil when it does not exist.
func (s *Store) MatchByID(ctx context.Context, id int64) (*MatchRecord, error) {
	const query = `
		SELECT id, winner, loser, draw, turns, units_left, scenario, finished_at
		FROM matches WHERE id = ?
	`
	var (
		m        MatchRecord
		draw     int
		finished string
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&m.ID, &m.Winner, &m.Loser, &draw, &m.Turns, &m.UnitsLeft, &m.Scenario, &finished,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query match %d: %w", id, err)
	}
	m.Draw = draw == 1
	m.FinishedAt, _ = time.Parse(time.RFC3339, finished)
	return &m, nil
}

// Standing is one leaderboard row.
type Standing struct {
	Player string `json:"player"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// Leaderboard returns players ordered by wins, then fewest losses.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Standing, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT player, SUM(win) AS wins, SUM(loss) AS losses FROM (
			SELECT winner AS player, 1 - draw AS win, 0 AS loss FROM matches
			UNION ALL
			SELECT loser AS player, 0 AS win, 1 - draw AS loss FROM matches
		)
		GROUP BY player
		ORDER BY wins DESC, losses ASC, player
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var out []Standing
	for rows.Next() {
		var st Standing
		if err := rows.Scan(&st.Player, &st.Wins, &st.Losses); err != nil {
			return nil, fmt.Errorf("scan standing: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
