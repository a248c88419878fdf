package config

import "testing"

func TestDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port == "" {
		t.Fatal("port must default")
	}
	if cfg.Addr() != ":"+cfg.Port {
		t.Fatalf("Addr() = %q", cfg.Addr())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STATS_DB", "/tmp/test.db")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.StatsDB != "/tmp/test.db" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}
