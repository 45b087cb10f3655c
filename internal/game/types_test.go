package game

import "testing"

func TestNewPlayerDefaults(t *testing.T) {
	p := NewPlayer("player1", "Company 1", DefaultSettings())

	if p.Capital != 100000 || p.NetAsset != 100000 {
		t.Errorf("expected starting capital 100000, got capital %v net %v", p.Capital, p.NetAsset)
	}
	if p.Debt != 0 {
		t.Errorf("new player should carry no debt, got %v", p.Debt)
	}
	if p.ProductionCapacity != 1000 || p.Employees != 10 || p.ProductQuality != 5 {
		t.Errorf("unexpected starting capability: %+v", p)
	}
	if p.Password == "" {
		t.Error("new player should get a generated password")
	}
	if p.StoresPerCity == nil {
		t.Error("store map should be initialized")
	}
}

func TestCloneIsDeep(t *testing.T) {
	p := NewPlayer("player1", "Company 1", DefaultSettings())
	p.StoresPerCity["City A"] = 2
	p.Decision.NewStores = map[string]int{"City B": 1}
	p.Outcome.SalesPerCity = map[string]int{"City A": 300}

	c := p.Clone()
	c.Capital = 1
	c.StoresPerCity["City A"] = 99
	c.Decision.NewStores["City B"] = 99
	c.Outcome.SalesPerCity["City A"] = 99

	if p.Capital != 100000 {
		t.Errorf("clone mutation leaked into original capital: %v", p.Capital)
	}
	if p.StoresPerCity["City A"] != 2 {
		t.Errorf("store map shared between clone and original")
	}
	if p.Decision.NewStores["City B"] != 1 {
		t.Errorf("decision map shared between clone and original")
	}
	if p.Outcome.SalesPerCity["City A"] != 300 {
		t.Errorf("outcome map shared between clone and original")
	}
}

func TestRankPlayers(t *testing.T) {
	a := &Player{CompanyName: "Alpha", NetAsset: 500}
	b := &Player{CompanyName: "Beta", NetAsset: 900}
	c := &Player{CompanyName: "Gamma", NetAsset: 500}

	ranked := RankPlayers([]*Player{c, a, b})

	if ranked[0] != b {
		t.Fatalf("expected Beta first, got %s", ranked[0].CompanyName)
	}
	if ranked[1] != a || ranked[2] != c {
		t.Fatalf("ties should break by company name, got %s then %s", ranked[1].CompanyName, ranked[2].CompanyName)
	}
}

func TestRankPlayersDoesNotMutateInput(t *testing.T) {
	a := &Player{CompanyName: "Alpha", NetAsset: 1}
	b := &Player{CompanyName: "Beta", NetAsset: 2}
	in := []*Player{a, b}

	RankPlayers(in)

	if in[0] != a || in[1] != b {
		t.Fatal("input slice order changed")
	}
}

func TestNewRoster(t *testing.T) {
	players := NewRoster(3, DefaultSettings())

	if len(players) != 3 {
		t.Fatalf("expected 3 players, got %d", len(players))
	}
	if players[0].ID != "player1" || players[2].ID != "player3" {
		t.Errorf("unexpected IDs: %s, %s", players[0].ID, players[2].ID)
	}
	if players[1].CompanyName != "Company 2" {
		t.Errorf("unexpected company name: %s", players[1].CompanyName)
	}
	seen := map[string]bool{}
	for _, p := range players {
		if seen[p.Password] {
			t.Error("players share a password")
		}
		seen[p.Password] = true
	}
}

func TestPhaseName(t *testing.T) {
	if PhaseName(PhaseAwaitingDecisions) != "awaiting_decisions" {
		t.Error("wrong label for awaiting phase")
	}
	if PhaseName(PhaseGameOver) != "game_over" {
		t.Error("wrong label for game over phase")
	}
	if PhaseName(Phase(200)) != "unknown" {
		t.Error("out-of-range phase should be unknown")
	}
}
