package engine

import (
	"fmt"
	"math"
	"testing"

	"github.com/talgya/boardroom/internal/game"
)

const epsilon = 1e-9

func TestAllocateMarket_IdenticalPlayersSplitEvenly(t *testing.T) {
	m := &game.Market{Name: "City A", TotalMarketSize: 10000, InitialAvgPrice: 20}
	var players []*game.Player
	for _, id := range []string{"player1", "player2"} {
		p := testPlayer()
		p.ID = id
		p.Decision = game.RoundDecision{ProductionPlan: 6000, Price: 20, AdvertisingBudget: 5000}
		players = append(players, p)
	}

	allocs := AllocateMarket(m, players, DefaultScoringModel())

	for _, id := range []string{"player1", "player2"} {
		a := allocs[id]
		if math.Abs(a.CPI-0.5) > epsilon {
			t.Fatalf("%s: expected CPI 0.5, got %v", id, a.CPI)
		}
		if a.Demand != 5000 {
			t.Fatalf("%s: expected demand 5000, got %d", id, a.Demand)
		}
	}
}

func TestAllocateMarket_CPISumsToOne(t *testing.T) {
	m := &game.Market{Name: "City A", TotalMarketSize: 10000, InitialAvgPrice: 20}

	profiles := []game.RoundDecision{
		{ProductionPlan: 500, Price: 14},
		{ProductionPlan: 300, Price: 22, AdvertisingBudget: 15000},
		{ProductionPlan: 800, Price: 20, PerformanceInvestment: 12000},
		{ProductionPlan: 100, Price: 35},
	}
	var players []*game.Player
	for i, d := range profiles {
		p := testPlayer()
		p.ID = fmt.Sprintf("player%d", i+1)
		p.ProductQuality = float64(3 + i)
		p.Decision = d
		players = append(players, p)
	}

	allocs := AllocateMarket(m, players, DefaultScoringModel())

	sumCPI, sumHidden := 0.0, 0.0
	for _, a := range allocs {
		if a.CPI < 0 || a.CPI > 1 {
			t.Fatalf("CPI out of [0,1]: %v", a.CPI)
		}
		sumCPI += a.CPI
		sumHidden += a.HiddenCPI
	}
	if math.Abs(sumCPI-1.0) > epsilon {
		t.Fatalf("participant CPI should sum to 1, got %v", sumCPI)
	}
	if math.Abs(sumHidden-1.0) > epsilon {
		t.Fatalf("hidden CPI should sum to 1, got %v", sumHidden)
	}
}

func TestAllocateMarket_NoParticipants(t *testing.T) {
	m := &game.Market{Name: "City A", TotalMarketSize: 10000, InitialAvgPrice: 20}
	p := testPlayer() // no production, no stores

	allocs := AllocateMarket(m, []*game.Player{p}, DefaultScoringModel())

	a := allocs[p.ID]
	if a.CPI != 0 || a.Demand != 0 {
		t.Fatalf("non-participant should get zero allocation, got %+v", a)
	}
}

func TestAllocateMarket_NonParticipantGetsHiddenCPI(t *testing.T) {
	m := &game.Market{Name: "City A", TotalMarketSize: 10000, InitialAvgPrice: 20}

	active := testPlayer()
	active.ID = "player1"
	active.Decision = game.RoundDecision{ProductionPlan: 500, Price: 20}

	// Observer has a competitive profile but neither production nor stores.
	observer := testPlayer()
	observer.ID = "player2"
	observer.Decision = game.RoundDecision{Price: 18}

	allocs := AllocateMarket(m, []*game.Player{active, observer}, DefaultScoringModel())

	obs := allocs["player2"]
	if obs.CPI != 0 || obs.Demand != 0 {
		t.Fatalf("observer should not receive sales, got %+v", obs)
	}
	if obs.HiddenCPI <= 0 {
		t.Fatalf("observer should still get an informative hidden CPI, got %v", obs.HiddenCPI)
	}
	if a := allocs["player1"]; math.Abs(a.CPI-1.0) > epsilon {
		t.Fatalf("sole participant should hold CPI 1, got %v", a.CPI)
	}
}

func TestAllocateMarket_StorePresenceWithoutProduction(t *testing.T) {
	m := &game.Market{Name: "City A", TotalMarketSize: 10000, InitialAvgPrice: 20}

	p := testPlayer()
	p.StoresPerCity = map[string]int{"City A": 2}
	p.Decision = game.RoundDecision{Price: 20}

	allocs := AllocateMarket(m, []*game.Player{p}, DefaultScoringModel())
	if a := allocs[p.ID]; a.CPI != 1.0 {
		t.Fatalf("store presence should make the player a participant, got %+v", a)
	}
}

func TestAttractiveness_Monotonic(t *testing.T) {
	model := DefaultScoringModel()

	base := model.Attractiveness(20, 5, 5000, 5000, 1, 20)
	if cheaper := model.Attractiveness(15, 5, 5000, 5000, 1, 20); cheaper <= base {
		t.Errorf("lower price should score higher: %v <= %v", cheaper, base)
	}
	if better := model.Attractiveness(20, 8, 5000, 5000, 1, 20); better <= base {
		t.Errorf("higher quality should score higher: %v <= %v", better, base)
	}
	if louder := model.Attractiveness(20, 5, 20000, 5000, 1, 20); louder <= base {
		t.Errorf("more advertising should score higher: %v <= %v", louder, base)
	}
	if wider := model.Attractiveness(20, 5, 5000, 5000, 3, 20); wider <= base {
		t.Errorf("more stores should score higher: %v <= %v", wider, base)
	}
	if sharper := model.Attractiveness(20, 5, 5000, 20000, 1, 20); sharper <= base {
		t.Errorf("more performance investment should score higher: %v <= %v", sharper, base)
	}
}

func TestAttractiveness_PriceFactorCapped(t *testing.T) {
	model := DefaultScoringModel()
	// Price far below reference cannot dominate beyond the cap.
	capped := model.Attractiveness(1, 5, 0, 0, 0, 20)
	atCap := model.Attractiveness(20/model.PriceFactorCap, 5, 0, 0, 0, 20)
	if math.Abs(capped-atCap) > epsilon {
		t.Fatalf("price factor should cap: %v vs %v", capped, atCap)
	}
}
