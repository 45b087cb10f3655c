// Command scenario plays a full game headlessly with scripted decision
// profiles: generated markets, a fresh roster, every round advanced in
// sequence. Useful for balance tuning — the same seed always produces the
// same final standings.
package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"

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

	seed := flag.Int64("seed", 42, "market generation seed")
	cities := flag.Int("cities", 4, "number of city markets")
	playerCount := flag.Int("players", 4, "number of players")
	rounds := flag.Int("rounds", 10, "rounds to play")
	balanceFile := flag.String("balance", "", "optional YAML balance file")
	flag.Parse()

	balance, err := config.LoadBalance(*balanceFile)
	if err != nil {
		slog.Error("failed to load balance", "error", err)
		os.Exit(1)
	}
	balance.Settings.TotalRounds = *rounds

	dir, err := os.MkdirTemp("", "boardroom-scenario-")
	if err != nil {
		slog.Error("failed to create temp dir", "error", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	db, err := persistence.Open(filepath.Join(dir, "scenario.db"))
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	markets := citygen.Generate(citygen.GenConfig{Cities: *cities, Seed: *seed})
	players := game.NewRoster(*playerCount, balance.Settings)
	if err := db.Reset(players, markets, balance.Settings); err != nil {
		slog.Error("failed to initialize game", "error", err)
		os.Exit(1)
	}

	for _, m := range markets {
		slog.Info("market", "name", m.Name, "size", m.TotalMarketSize,
			"material", m.BaseMaterialCost, "labor", m.BaseLaborCost,
			"rate", m.LoanInterestRate, "avg_price", m.InitialAvgPrice)
	}

	g := engine.New(players, markets, balance.Settings, balance.Scoring, db)

	for round := 1; round <= *rounds; round++ {
		for i, p := range g.Players() {
			d := scriptedDecision(i, round, p, markets, balance.Settings)
			if err := g.SubmitDecision(p.ID, d); err != nil {
				slog.Error("scripted decision rejected", "player", p.ID, "error", err)
				os.Exit(1)
			}
		}

		result, err := g.AdvanceRound()
		if err != nil {
			slog.Error("advance failed", "round", round, "error", err)
			os.Exit(1)
		}

		for rank, p := range game.RankPlayers(result.Players) {
			slog.Info("standing",
				"round", result.Round,
				"rank", rank+1,
				"company", p.CompanyName,
				"net_asset", p.NetAsset,
				"profit", p.Outcome.Profit,
				"share", p.Outcome.MarketShare,
				"surplus", p.Outcome.SurplusGoods,
			)
		}
	}
	slog.Info("scenario complete", "rounds", *rounds, "phase", game.PhaseName(g.Phase()))
}

// scriptedDecision gives each player a distinct fixed strategy so runs are
// reproducible: player 0 undercuts on price, player 1 buys advertising,
// player 2 builds stores and borrows, player 3 invests in performance.
func scriptedDecision(i, round int, p *game.Player, markets []*game.Market, settings game.GameSettings) game.RoundDecision {
	home := markets[i%len(markets)].Name
	d := game.RoundDecision{
		ProductionPlan: p.ProductionCapacity / 2,
		Price:          20,
		HomeCity:       home,
	}

	switch i % 4 {
	case 0: // discounter
		d.Price = 14
		d.ProductionPlan = p.ProductionCapacity
	case 1: // advertiser
		d.Price = 22
		d.AdvertisingBudget = 15000
		d.WelfareInvestment = 2000
	case 2: // expander
		d.Price = 20
		d.WelfareInvestment = 2000
		if round == 1 {
			d.LoanRequest = 50000
			d.NewStores = map[string]int{markets[0].Name: 1, markets[1%len(markets)].Name: 1}
		} else if p.Debt > 0 {
			repay := p.Capital / 4
			if repay > p.Debt {
				repay = p.Debt
			}
			if repay > 0 {
				d.LoanRepay = repay
			}
		}
	case 3: // quality house
		d.Price = 26
		d.PerformanceInvestment = 12000
		d.WelfareInvestment = 3000
	}

	if d.Price < settings.MinProductPrice {
		d.Price = settings.MinProductPrice
	}
	if d.Price > settings.MaxProductPrice {
		d.Price = settings.MaxProductPrice
	}
	return d
}
