package persistence

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/boardroom/internal/game"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func samplePlayers() []*game.Player {
	settings := game.DefaultSettings()
	players := game.NewRoster(2, settings)
	players[0].Debt = 1000
	players[0].StoresPerCity = map[string]int{"City A": 2}
	players[0].Decision = game.RoundDecision{
		ProductionPlan: 400,
		Price:          20,
		HomeCity:       "City A",
		NewStores:      map[string]int{"City B": 1},
		Submitted:      true,
	}
	players[0].Outcome = game.RoundOutcome{
		Revenue:      6000,
		SalesPerCity: map[string]int{"City A": 300},
		CPIPerCity:   map[string]float64{"City A": 0.5},
	}
	return players
}

func sampleMarkets() []*game.Market {
	return []*game.Market{
		{Name: "City A", TotalMarketSize: 10000, BaseMaterialCost: 5, BaseLaborCost: 10, LoanInterestRate: 0.05, InitialAvgPrice: 20},
		{Name: "City B", TotalMarketSize: 8000, BaseMaterialCost: 5.5, BaseLaborCost: 11, LoanInterestRate: 0.06, InitialAvgPrice: 22},
	}
}

func TestHasGameState(t *testing.T) {
	db := openTestDB(t)

	if db.HasGameState() {
		t.Fatal("fresh database should report no game state")
	}
	if err := db.SavePlayers(samplePlayers()); err != nil {
		t.Fatalf("save players: %v", err)
	}
	if !db.HasGameState() {
		t.Fatal("database with players should report game state")
	}
}

func TestPlayersRoundTrip(t *testing.T) {
	db := openTestDB(t)
	in := samplePlayers()

	if err := db.SavePlayers(in); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := db.LoadPlayers()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 players, got %d", len(out))
	}

	p := out[0]
	if p.ID != "player1" || p.Debt != 1000 || p.Password != in[0].Password {
		t.Errorf("scalar fields lost: %+v", p)
	}
	if p.StoresPerCity["City A"] != 2 {
		t.Errorf("store map lost: %+v", p.StoresPerCity)
	}
	if !p.Decision.Submitted || p.Decision.NewStores["City B"] != 1 {
		t.Errorf("decision lost: %+v", p.Decision)
	}
	if p.Outcome.Revenue != 6000 || p.Outcome.SalesPerCity["City A"] != 300 {
		t.Errorf("outcome lost: %+v", p.Outcome)
	}
}

func TestSavePlayersIsFullReplace(t *testing.T) {
	db := openTestDB(t)
	settings := game.DefaultSettings()

	if err := db.SavePlayers(game.NewRoster(4, settings)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := db.SavePlayers(game.NewRoster(2, settings)); err != nil {
		t.Fatalf("second save: %v", err)
	}
	out, err := db.LoadPlayers()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("full replace failed, got %d players", len(out))
	}
}

func TestMarketsRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveMarkets(sampleMarkets()); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := db.LoadMarkets()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(out) != 2 || out[0].Name != "City A" || out[1].Name != "City B" {
		t.Fatalf("expected name-ordered markets, got %+v", out)
	}
	if out[1].TotalMarketSize != 8000 || out[1].LoanInterestRate != 0.06 {
		t.Errorf("market fields lost: %+v", out[1])
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	db := openTestDB(t)
	settings := game.DefaultSettings()
	settings.TotalRounds = 20

	if err := db.SaveSettings(settings); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := db.LoadSettings()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if out != settings {
		t.Fatalf("settings changed in round trip: %+v vs %+v", out, settings)
	}
}

func TestCommitRound(t *testing.T) {
	db := openTestDB(t)
	players := samplePlayers()
	markets := sampleMarkets()

	if r, err := db.Round(); err != nil || r != 0 {
		t.Fatalf("fresh round counter should be 0, got %d, %v", r, err)
	}

	entry := game.RoundHistoryEntry{
		ID:         uuid.NewString(),
		Round:      1,
		RecordedAt: time.Now().UTC(),
		Markets:    []game.Market{*markets[0], *markets[1]},
		Players:    []game.Player{*players[0], *players[1]},
	}
	if err := db.CommitRound(1, players, markets, entry); err != nil {
		t.Fatalf("commit: %v", err)
	}

	if r, _ := db.Round(); r != 1 {
		t.Fatalf("round counter not persisted, got %d", r)
	}
	history, err := db.LoadHistory(0)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history) != 1 || history[0].ID != entry.ID || history[0].Round != 1 {
		t.Fatalf("history entry not persisted: %+v", history)
	}
	if len(history[0].Players) != 2 {
		t.Fatalf("history snapshot lost players: %+v", history[0])
	}
}

func TestLoadHistoryNewestFirstWithLimit(t *testing.T) {
	db := openTestDB(t)
	players := samplePlayers()
	markets := sampleMarkets()

	for round := 1; round <= 3; round++ {
		entry := game.RoundHistoryEntry{
			ID:         uuid.NewString(),
			Round:      round,
			RecordedAt: time.Now().UTC(),
		}
		if err := db.CommitRound(round, players, markets, entry); err != nil {
			t.Fatalf("commit round %d: %v", round, err)
		}
	}

	history, err := db.LoadHistory(2)
	if err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("limit not applied, got %d entries", len(history))
	}
	if history[0].Round != 3 || history[1].Round != 2 {
		t.Fatalf("expected newest first, got rounds %d, %d", history[0].Round, history[1].Round)
	}
}

func TestReset(t *testing.T) {
	db := openTestDB(t)
	settings := game.DefaultSettings()
	players := samplePlayers()
	markets := sampleMarkets()

	entry := game.RoundHistoryEntry{ID: uuid.NewString(), Round: 1, RecordedAt: time.Now().UTC()}
	if err := db.CommitRound(1, players, markets, entry); err != nil {
		t.Fatalf("commit: %v", err)
	}

	fresh := game.NewRoster(3, settings)
	if err := db.Reset(fresh, markets, settings); err != nil {
		t.Fatalf("reset: %v", err)
	}

	if r, _ := db.Round(); r != 0 {
		t.Fatalf("round counter should reset to 0, got %d", r)
	}
	history, _ := db.LoadHistory(0)
	if len(history) != 0 {
		t.Fatalf("history should be cleared, got %d entries", len(history))
	}
	out, err := db.LoadPlayers()
	if err != nil {
		t.Fatalf("load players: %v", err)
	}
	if len(out) != 3 {
		t.Fatalf("expected fresh roster of 3, got %d", len(out))
	}
	loaded, err := db.LoadSettings()
	if err != nil || loaded != settings {
		t.Fatalf("settings not persisted by reset: %+v, %v", loaded, err)
	}
}

func TestMetaRoundTrip(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.GetMeta("missing"); err == nil {
		t.Fatal("missing key should error")
	}
	if err := db.SetMeta("k", "v1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := db.SetMeta("k", "v2"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, err := db.GetMeta("k")
	if err != nil || v != "v2" {
		t.Fatalf("expected v2, got %q, %v", v, err)
	}
}
