// Package config reads server settings from the environment.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the server binary needs to start. Defaults suit
// local development; deployments override via environment variables.
type Config struct {
	Port        string `env:"PORT" envDefault:"8081"`
	StatsDB     string `env:"STATS_DB" envDefault:"skirmish.db"`
	Scenario    string `env:"SCENARIO"`
	DataAPIBase string `env:"DATA_API_BASE"`
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string { return ":" + c.Port }

// Load parses the process environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
