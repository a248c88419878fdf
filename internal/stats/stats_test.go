package stats

import (
	"context"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	// Shared-cache in-memory databases persist rows between tests in the
	// same process, so each test starts clean.
	for _, table := range []string{"matches", "daily_attacks", "daily_charges"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			t.Fatalf("reset %s: %v", table, err)
		}
	}
	return s
}

func TestRecordAndFetchMatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m := &MatchRecord{Winner: "alice", Loser: "bob", Turns: 4, UnitsLeft: 2, Scenario: "Ruined Chapel"}
	if err := s.RecordMatch(ctx, m); err != nil {
		t.Fatalf("RecordMatch: %v", err)
	}
	if m.ID == 0 {
		t.Fatal("RecordMatch must assign an id")
	}

	got, err := s.MatchByID(ctx, m.ID)
	if err != nil {
		t.Fatalf("MatchByID: %v", err)
	}
	if got == nil || got.Winner != "alice" || got.Loser != "bob" || got.Turns != 4 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.FinishedAt.IsZero() {
		t.Fatal("finished_at must round-trip")
	}

	missing, err := s.MatchByID(ctx, m.ID+100)
	if err != nil {
		t.Fatalf("MatchByID missing: %v", err)
	}
	if missing != nil {
		t.Fatal("unknown id must return nil, not an error")
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, m := range []*MatchRecord{
		{Winner: "alice", Loser: "bob", Turns: 3, UnitsLeft: 1},
		{Winner: "alice", Loser: "carol", Turns: 5, UnitsLeft: 2},
		{Winner: "carol", Loser: "bob", Turns: 2, UnitsLeft: 3},
	} {
		if err := s.RecordMatch(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	lb, err := s.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(lb) != 3 {
		t.Fatalf("want 3 standings, got %d", len(lb))
	}
	if lb[0].Player != "alice" || lb[0].Wins != 2 || lb[0].Losses != 0 {
		t.Fatalf("top standing wrong: %+v", lb[0])
	}
	if lb[1].Player != "carol" || lb[1].Wins != 1 || lb[1].Losses != 1 {
		t.Fatalf("second standing wrong: %+v", lb[1])
	}
	if lb[2].Player != "bob" || lb[2].Wins != 0 || lb[2].Losses != 2 {
		t.Fatalf("third standing wrong: %+v", lb[2])
	}
}

func TestDrawCountsForNeither(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	m := &MatchRecord{Winner: "alice", Loser: "bob", Draw: true, Turns: 6}
	if err := s.RecordMatch(ctx, m); err != nil {
		t.Fatal(err)
	}
	lb, err := s.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	for _, st := range lb {
		if st.Wins != 0 || st.Losses != 0 {
			t.Fatalf("draw must not score a win or loss: %+v", st)
		}
	}
}

func TestDailyRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.RecordAttack(ctx, AttackRecord{Player: "alice", UnitName: "Intercessor", Weapon: "bolt rifle", Wounds: 1, Damage: 2}); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordAttack(ctx, AttackRecord{Player: "bob", UnitName: "Ork Boss Nob", Weapon: "big choppa", Wounds: 2, Damage: 4}); err != nil {
		t.Fatal(err)
	}
	// Zero damage never becomes a record.
	if err := s.RecordAttack(ctx, AttackRecord{Player: "carol", Damage: 0}); err != nil {
		t.Fatal(err)
	}

	best, err := s.BestAttackToday(ctx)
	if err != nil {
		t.Fatalf("BestAttackToday: %v", err)
	}
	if best == nil || best.Player != "bob" || best.Damage != 4 {
		t.Fatalf("want bob's 4 damage, got %+v", best)
	}

	if err := s.RecordCharge(ctx, ChargeRecord{Player: "alice", UnitName: "Assault Intercessor", Distance: 9}); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordCharge(ctx, ChargeRecord{Player: "bob", UnitName: "Ork Boy", Distance: 5}); err != nil {
		t.Fatal(err)
	}
	longest, err := s.LongestChargeToday(ctx)
	if err != nil {
		t.Fatalf("LongestChargeToday: %v", err)
	}
	if longest == nil || longest.Distance != 9 {
		t.Fatalf("want distance 9, got %+v", longest)
	}
}

func TestEmptyDayHasNoRecords(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	best, err := s.BestAttackToday(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if best != nil {
		t.Fatalf("empty day should have no best attack, got %+v", best)
	}
	longest, err := s.LongestChargeToday(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if longest != nil {
		t.Fatalf("empty day should have no longest charge, got %+v", longest)
	}
}
