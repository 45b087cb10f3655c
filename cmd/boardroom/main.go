// Command boardroom runs the turn-based business simulation game server.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/talgya/boardroom/internal/api"
	"github.com/talgya/boardroom/internal/citygen"
	"github.com/talgya/boardroom/internal/config"
	"github.com/talgya/boardroom/internal/engine"
	"github.com/talgya/boardroom/internal/game"
	"github.com/talgya/boardroom/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.ParseServer()
	if err != nil {
		slog.Error("failed to parse configuration", "error", err)
		os.Exit(1)
	}

	balance, err := config.LoadBalance(cfg.BalanceFile)
	if err != nil {
		slog.Error("failed to load balance", "error", err)
		os.Exit(1)
	}
	slog.Info("balance loaded",
		"scoring_version", balance.Scoring.Version,
		"total_rounds", balance.Settings.TotalRounds,
		"balance_file", cfg.BalanceFile,
	)

	// ── Database ──────────────────────────────────────────────────────
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		os.MkdirAll(dir, 0755)
	}
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── Load or Initialize Game State ─────────────────────────────────
	var (
		players  []*game.Player
		markets  []*game.Market
		settings game.GameSettings
		round    int
	)

	if db.HasGameState() {
		slog.Info("found saved game state, loading...")
		if players, err = db.LoadPlayers(); err != nil {
			slog.Error("failed to load players", "error", err)
			os.Exit(1)
		}
		if markets, err = db.LoadMarkets(); err != nil {
			slog.Error("failed to load markets", "error", err)
			os.Exit(1)
		}
		if settings, err = db.LoadSettings(); err != nil {
			slog.Error("failed to load settings", "error", err)
			os.Exit(1)
		}
		if round, err = db.Round(); err != nil {
			slog.Error("failed to load round counter", "error", err)
			os.Exit(1)
		}
		slog.Info("game state restored",
			"players", len(players),
			"markets", len(markets),
			"round", round,
		)
	} else {
		slog.Info("no saved game, initializing",
			"players", cfg.Players,
			"seed", cfg.Seed,
		)
		settings = balance.Settings
		players = game.NewRoster(cfg.Players, settings)
		markets = citygen.DefaultMarkets()
		if cfg.Seed != 0 {
			markets = citygen.Generate(citygen.GenConfig{Cities: cfg.Cities, Seed: cfg.Seed})
		}
		if err := db.Reset(players, markets, settings); err != nil {
			slog.Error("failed to initialize game", "error", err)
			os.Exit(1)
		}
		for _, p := range players {
			slog.Info("player created", "id", p.ID, "company", p.CompanyName)
		}
	}

	g := engine.New(players, markets, settings, balance.Scoring, db)
	g.Restore(round)

	// ── HTTP API ──────────────────────────────────────────────────────
	server := &api.Server{
		Game:        g,
		DB:          db,
		Hub:         api.NewHub(),
		Addr:        cfg.Addr,
		AdminKey:    cfg.AdminKey,
		Balance:     balance,
		PlayerCount: cfg.Players,
		Cities:      cfg.Cities,
		Seed:        cfg.Seed,
	}
	server.Start()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	slog.Info("shutting down", "round", g.Round())
}
