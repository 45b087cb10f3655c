// Package config loads process configuration from the environment and game
// balance (settings defaults plus scoring weights) from an optional YAML file.
package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/talgya/boardroom/internal/engine"
	"github.com/talgya/boardroom/internal/game"
)

// Server holds the server process configuration.
type Server struct {
	Addr        string `env:"BOARDROOM_ADDR" envDefault:":8080"`
	DBPath      string `env:"BOARDROOM_DB" envDefault:"data/boardroom.db"`
	AdminKey    string `env:"BOARDROOM_ADMIN_KEY"`             // empty disables admin endpoints
	BalanceFile string `env:"BOARDROOM_BALANCE"`               // optional YAML balance override
	Seed        int64  `env:"BOARDROOM_SEED" envDefault:"0"`   // 0 = classic two-city setup
	Cities      int    `env:"BOARDROOM_CITIES" envDefault:"4"` // generated city count when seeded
	Players     int    `env:"BOARDROOM_PLAYERS" envDefault:"2"`
}

// ParseServer reads server configuration from environment variables.
func ParseServer() (Server, error) {
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Balance bundles the tunable game numbers: the settings a new game starts
// with and the versioned scoring model the engine resolves with.
type Balance struct {
	Settings game.GameSettings   `yaml:"settings"`
	Scoring  engine.ScoringModel `yaml:"scoring"`
}

// DefaultBalance returns the compiled-in balance.
func DefaultBalance() Balance {
	return Balance{
		Settings: game.DefaultSettings(),
		Scoring:  engine.DefaultScoringModel(),
	}
}

// LoadBalance returns the default balance overlaid with the YAML file at
// path. An empty path means defaults; a missing file is an error so a typoed
// path does not silently run a different game.
func LoadBalance(path string) (Balance, error) {
	balance := DefaultBalance()
	if path == "" {
		return balance, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Balance{}, fmt.Errorf("read balance file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &balance); err != nil {
		return Balance{}, fmt.Errorf("parse balance file %s: %w", path, err)
	}
	if balance.Scoring.Version == "" {
		return Balance{}, fmt.Errorf("balance file %s: scoring model must carry a version", path)
	}
	return balance, nil
}
