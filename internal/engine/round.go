// Package engine implements the round-resolution core: decision validation,
// market allocation, financial resolution, and the orchestrator that advances
// the shared game clock. Given a consistent snapshot of players, markets, and
// settings, a round advance is a pure, terminating, deterministic computation;
// the only side effect is one atomic commit through the Store.
package engine

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/boardroom/internal/game"
)

// Store is the persistence collaborator. A CommitRound either persists the
// whole round (players, markets, history entry, round counter) or fails
// without partial effects.
type Store interface {
	SavePlayers(players []*game.Player) error
	CommitRound(round int, players []*game.Player, markets []*game.Market, entry game.RoundHistoryEntry) error
	Reset(players []*game.Player, markets []*game.Market, settings game.GameSettings) error
}

// RoundResult is the output of one advance: committed snapshots plus the
// audit entry.
type RoundResult struct {
	Round    int                    `json:"round"`
	GameOver bool                   `json:"game_over"`
	Players  []*game.Player         `json:"players"`
	Markets  []*game.Market         `json:"markets"`
	Entry    game.RoundHistoryEntry `json:"entry"`
}

// Game owns the live state of one game instance. All access goes through its
// lock: decision submissions and reads may interleave, but a round advance
// excludes everything else, so readers see fully-pre-round or fully-post-round
// state, never a mix.
type Game struct {
	mu sync.RWMutex

	players  []*game.Player
	markets  []*game.Market
	settings game.GameSettings
	model    ScoringModel
	store    Store

	round int
	phase game.Phase
}

// New creates a game instance around loaded snapshots.
func New(players []*game.Player, markets []*game.Market, settings game.GameSettings, model ScoringModel, store Store) *Game {
	return &Game{
		players:  players,
		markets:  markets,
		settings: settings,
		model:    model,
		store:    store,
		phase:    game.PhaseAwaitingDecisions,
	}
}

// Restore sets the round counter from persisted state (load path only).
func (g *Game) Restore(round int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.round = round
	if g.round >= g.settings.TotalRounds {
		g.phase = game.PhaseGameOver
	}
}

// Round returns the current round number (rounds resolved so far).
func (g *Game) Round() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.round
}

// Phase returns the round lifecycle phase.
func (g *Game) Phase() game.Phase {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.phase
}

// Settings returns the game settings.
func (g *Game) Settings() game.GameSettings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings
}

// Markets returns copies of the configured markets, in name order.
func (g *Game) Markets() []*game.Market {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return cloneMarkets(g.markets)
}

// Players returns deep copies of all players.
func (g *Game) Players() []*game.Player {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return clonePlayers(g.players)
}

// Player returns a deep copy of one player.
func (g *Game) Player(id string) (*game.Player, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, p := range g.players {
		if p.ID == id {
			return p.Clone(), nil
		}
	}
	return nil, ErrUnknownPlayer
}

// Standings returns deep copies of all players ranked by net asset.
func (g *Game) Standings() []*game.Player {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return game.RankPlayers(clonePlayers(g.players))
}

// Authenticate checks a player credential and returns the player snapshot.
func (g *Game) Authenticate(id, password string) (*game.Player, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, p := range g.players {
		if p.ID == id && game.CheckPassword(p.Password, password) {
			return p.Clone(), nil
		}
	}
	return nil, ErrAuth
}

// SubmitDecision validates and records a player's decision for the pending
// round. Submissions are last-write-wins per player and never run while an
// advance is resolving.
func (g *Game) SubmitDecision(id string, d game.RoundDecision) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == game.PhaseGameOver {
		return ErrGameOver
	}

	var target *game.Player
	for _, p := range g.players {
		if p.ID == id {
			target = p
			break
		}
	}
	if target == nil {
		return ErrUnknownPlayer
	}

	if err := ValidateDecision(d, target, g.markets, g.settings); err != nil {
		return err
	}

	d.Submitted = true
	target.Decision = d

	if err := g.store.SavePlayers(g.players); err != nil {
		return fmt.Errorf("persist decision: %w", err)
	}

	slog.Info("decision submitted",
		"player", id,
		"round", g.round+1,
		"production", d.ProductionPlan,
		"price", d.Price,
	)
	return nil
}

// AdvanceRound resolves the pending round: allocation across every market,
// financial resolution per player, one history entry, and a round counter
// increment of exactly 1 — all committed atomically. On any failure the
// pre-round state is left intact.
func (g *Game) AdvanceRound() (*RoundResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.phase == game.PhaseGameOver {
		return nil, ErrGameOver
	}
	if len(g.players) == 0 || len(g.markets) == 0 {
		return nil, ErrInsufficientData
	}

	g.phase = game.PhaseResolving
	started := time.Now()

	working := clonePlayers(g.players)
	markets := cloneMarkets(g.markets)

	allocs := g.allocateAll(working, markets)
	sales := shipmentCap(working, markets, allocs, g.settings)

	industryTotal := 0
	playerTotals := make(map[string]int, len(working))
	for _, p := range working {
		total := 0
		for _, units := range sales[p.ID] {
			total += units
		}
		playerTotals[p.ID] = total
		industryTotal += total
	}

	for _, p := range working {
		ResolvePlayer(p, sales[p.ID], markets, g.settings, g.model)

		p.Outcome.CPIPerCity = make(map[string]float64, len(markets))
		p.Outcome.HiddenCPIPerCity = make(map[string]float64, len(markets))
		for _, m := range markets {
			a := allocs[m.Name][p.ID]
			p.Outcome.CPIPerCity[m.Name] = a.CPI
			p.Outcome.HiddenCPIPerCity[m.Name] = a.HiddenCPI
		}
		if industryTotal > 0 {
			p.Outcome.MarketShare = float64(playerTotals[p.ID]) / float64(industryTotal)
		} else {
			p.Outcome.MarketShare = 0
		}
	}

	newRound := g.round + 1
	entry := game.RoundHistoryEntry{
		ID:         uuid.NewString(),
		Round:      newRound,
		RecordedAt: time.Now().UTC(),
		Markets:    snapshotMarkets(markets),
		Players:    snapshotPlayers(working),
	}

	// The history entry keeps the resolved decision sheets for the audit
	// record; the committed player state opens the next round, so the reset
	// must land on disk with it. Otherwise a restart replays the old sheet.
	for _, p := range working {
		resetDecision(p)
	}

	if err := g.store.CommitRound(newRound, working, markets, entry); err != nil {
		g.phase = game.PhaseAwaitingDecisions
		return nil, fmt.Errorf("commit round %d: %w", newRound, err)
	}

	g.players = working
	g.round = newRound

	gameOver := newRound >= g.settings.TotalRounds
	if gameOver {
		g.phase = game.PhaseGameOver
	} else {
		g.phase = game.PhaseAwaitingDecisions
	}

	slog.Info("round resolved",
		"round", newRound,
		"players", len(working),
		"markets", len(markets),
		"industry_sales", industryTotal,
		"game_over", gameOver,
		"elapsed", time.Since(started),
	)

	return &RoundResult{
		Round:    newRound,
		GameOver: gameOver,
		Players:  clonePlayers(g.players),
		Markets:  markets,
		Entry:    entry,
	}, nil
}

// Reset wipes the game back to round zero with fresh players and markets.
// History is cleared by the store as part of the same commit.
func (g *Game) Reset(players []*game.Player, markets []*game.Market, settings game.GameSettings) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.store.Reset(players, markets, settings); err != nil {
		return fmt.Errorf("reset game: %w", err)
	}
	g.players = players
	g.markets = markets
	g.settings = settings
	g.round = 0
	g.phase = game.PhaseAwaitingDecisions

	slog.Info("game reset", "players", len(players), "markets", len(markets), "total_rounds", settings.TotalRounds)
	return nil
}

// allocateAll runs the allocator for every market, in name order.
func (g *Game) allocateAll(players []*game.Player, markets []*game.Market) map[string]map[string]Allocation {
	allocs := make(map[string]map[string]Allocation, len(markets))
	for _, m := range markets {
		allocs[m.Name] = AllocateMarket(m, players, g.model)
	}
	return allocs
}

// shipmentCap converts per-market demand into final sales, capped by each
// player's production pool. When total demand exceeds the pool, market
// allocations scale down proportionally (with flooring); remainders are not
// redistributed, so unclaimed demand is lost for the round.
func shipmentCap(players []*game.Player, markets []*game.Market, allocs map[string]map[string]Allocation, settings game.GameSettings) map[string]map[string]int {
	names := make([]string, 0, len(markets))
	for _, m := range markets {
		names = append(names, m.Name)
	}
	sort.Strings(names)

	sales := make(map[string]map[string]int, len(players))
	for _, p := range players {
		pool := ActualProduction(p, settings)
		perCity := make(map[string]int, len(names))

		totalDemand := 0
		for _, name := range names {
			totalDemand += allocs[name][p.ID].Demand
		}

		scale := 1.0
		if totalDemand > pool && totalDemand > 0 {
			scale = float64(pool) / float64(totalDemand)
		}
		for _, name := range names {
			perCity[name] = int(math.Floor(float64(allocs[name][p.ID].Demand) * scale))
		}
		sales[p.ID] = perCity
	}
	return sales
}

// resetDecision opens the next round's decision sheet. The home city and the
// last price persist as the player's standing posture; one-shot fields
// (loans, stores, reports, spend) reset to zero.
func resetDecision(p *game.Player) {
	home := p.Decision.HomeCity
	price := p.Decision.Price
	p.Decision = game.RoundDecision{HomeCity: home, Price: price}
}

func clonePlayers(players []*game.Player) []*game.Player {
	out := make([]*game.Player, len(players))
	for i, p := range players {
		out[i] = p.Clone()
	}
	return out
}

func cloneMarkets(markets []*game.Market) []*game.Market {
	out := make([]*game.Market, len(markets))
	for i, m := range markets {
		c := *m
		out[i] = &c
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func snapshotMarkets(markets []*game.Market) []game.Market {
	out := make([]game.Market, len(markets))
	for i, m := range markets {
		out[i] = *m
	}
	return out
}

func snapshotPlayers(players []*game.Player) []game.Player {
	out := make([]game.Player, len(players))
	for i, p := range players {
		out[i] = *p.Clone()
	}
	return out
}
