package stats

// Daily records: the hardest-hitting attack and the longest completed
// charge of each UTC day. These feed the lobby's bragging panel.

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// AttackRecord is one logged attack for the daily best.
type AttackRecord struct {
	Player   string `json:"player"`
	UnitName string `json:"unit"`
	Weapon   string `json:"weapon"`
	Wounds   int    `json:"wounds"`
	Damage   int    `json:"damage"`
}

// ChargeRecord is one completed charge for the daily longest.
type ChargeRecord struct {
	Player   string `json:"player"`
	UnitName string `json:"unit"`
	Distance int    `json:"distance"`
}

func today() string { return time.Now().UTC().Format("2006-01-02") }

// RecordAttack logs an attack that dealt damage. Zero-damage volleys are
// dropped; they can never be a record.
func (s *Store) RecordAttack(ctx context.Context, a AttackRecord) error {
	if a.Damage <= 0 {
		return nil
	}
	const query = `
		INSERT INTO daily_attacks (day, player, unit_name, weapon, wounds, damage)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query,
		today(), a.Player, a.UnitName, a.Weapon, a.Wounds, a.Damage,
	); err != nil {
		return fmt.Errorf("insert attack: %w", err)
	}
	return nil
}

// BestAttackToday returns today's highest-damage attack, ties broken by
// wounds, or nil when nothing has been logged yet.
func (s *Store) BestAttackToday(ctx context.Context) (*AttackRecord, error) {
	const query = `
		SELECT player, unit_name, weapon, wounds, damage
		FROM daily_attacks
		WHERE day = ?
		ORDER BY damage DESC, wounds DESC
		LIMIT 1
	`
	var a AttackRecord
	err := s.db.QueryRowContext(ctx, query, today()).Scan(
		&a.Player, &a.UnitName, &a.Weapon, &a.Wounds, &a.Damage,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query best attack: %w", err)
	}
	return &a, nil
}

// RecordCharge logs a completed charge.
func (s *Store) RecordCharge(ctx context.Context, c ChargeRecord) error {
	if c.Distance <= 0 {
		return nil
	}
	const query = `
		INSERT INTO daily_charges (day, player, unit_name, distance)
		VALUES (?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query,
		today(), c.Player, c.UnitName, c.Distance,
	); err != nil {
		return fmt.Errorf("insert charge: %w", err)
	}
	return nil
}

// LongestChargeToday returns today's longest completed charge, or nil.
func (s *Store) LongestChargeToday(ctx context.Context) (*ChargeRecord, error) {
	const query = `
		SELECT player, unit_name, distance
		FROM daily_charges
		WHERE day = ?
		ORDER BY distance DESC
		LIMIT 1
	`
	var c ChargeRecord
	err := s.db.QueryRowContext(ctx, query, today()).Scan(&c.Player, &c.UnitName, &c.Distance)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query longest charge: %w", err)
	}
	return &c, nil
}
