// Package game provides the entity model for the business simulation:
// players, city markets, game settings, per-round decisions and outcomes.
package game

import (
	"sort"
	"time"
)

// Phase is the round lifecycle state.
type Phase uint8

const (
	PhaseAwaitingDecisions Phase = iota // Players may submit/overwrite decisions
	PhaseResolving                      // advance is running; all writes excluded
	PhaseResolved                       // Round outputs committed
	PhaseGameOver                       // current round reached total rounds
)

// PhaseName returns a human-readable phase label.
func PhaseName(p Phase) string {
	switch p {
	case PhaseAwaitingDecisions:
		return "awaiting_decisions"
	case PhaseResolving:
		return "resolving"
	case PhaseResolved:
		return "resolved"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// RoundDecision holds a player's pending choices for the current round.
// Freely overwritten until the round advances.
type RoundDecision struct {
	ProductionPlan        int                `json:"production_plan"`
	Price                 float64            `json:"price"`
	AdvertisingBudget     float64            `json:"advertising_budget"`
	PerformanceInvestment float64            `json:"performance_investment"`
	WelfareInvestment     float64            `json:"welfare_investment"`
	NewStores             map[string]int     `json:"new_stores"`       // city → stores to open
	LoanRequest           float64            `json:"loan_request"`
	LoanRepay             float64            `json:"loan_repay"`
	HomeCity              string             `json:"home_city"`        // basis for loan interest
	BuyReports            map[string]bool    `json:"buy_reports"`      // city → buy hidden-CPI report
	Submitted             bool               `json:"submitted"`
}

// RoundOutcome is written exactly once per round advance by the resolver.
// Read-only to players.
type RoundOutcome struct {
	ActualProduction   int                `json:"actual_production"`
	ActualAdvertising  float64            `json:"actual_advertising"`
	ActualPerformance  float64            `json:"actual_performance"`
	ActualWelfare      float64            `json:"actual_welfare"`
	ActualNewStoreCost float64            `json:"actual_new_store_cost"`
	Revenue            float64            `json:"revenue"`
	Costs              float64            `json:"costs"`
	Profit             float64            `json:"profit"`
	Interest           float64            `json:"interest"` // accrued this round, capitalized into debt
	MarketShare        float64            `json:"market_share"`
	CPIPerCity         map[string]float64 `json:"cpi_per_city"`
	HiddenCPIPerCity   map[string]float64 `json:"hidden_cpi_per_city"` // admin / report buyers only
	SalesPerCity       map[string]int     `json:"sales_per_city"`
	SurplusGoods       int                `json:"surplus_goods"`
	BoughtCityReports  map[string]bool    `json:"bought_city_reports"` // grants hidden-CPI visibility this round
}

// Player is one participating company.
type Player struct {
	ID          string `json:"player_id"`
	CompanyName string `json:"company_name"`
	Password    string `json:"password"` // opaque credential, assigned once

	// Financial state. Capital may go negative (insolvency risk); debt never does.
	Capital  float64 `json:"capital"`
	Debt     float64 `json:"debt"`
	NetAsset float64 `json:"net_asset"` // derived: capital - debt

	// Capability state.
	ProductionCapacity int     `json:"production_capacity"` // units/round ceiling
	Employees          int     `json:"employees"`
	ProductQuality     float64 `json:"product_quality"` // 1–10

	// Cumulative retail presence per city, grown by resolved store decisions.
	StoresPerCity map[string]int `json:"stores_per_city"`

	Decision RoundDecision `json:"decision"`
	Outcome  RoundOutcome  `json:"outcome"`
}

// Market is one city's demand and cost structure. Edited only during setup.
type Market struct {
	Name             string  `json:"name"`
	TotalMarketSize  int     `json:"total_market_size"` // fixed per-round demand ceiling, units
	BaseMaterialCost float64 `json:"base_material_cost"`
	BaseLaborCost    float64 `json:"base_labor_cost"`
	LoanInterestRate float64 `json:"loan_interest_rate"` // periodic, applied to home-city players
	InitialAvgPrice  float64 `json:"initial_avg_price"`  // seed reference price for scoring
}

// GameSettings is process-wide configuration for one game instance.
type GameSettings struct {
	InitialPlayerCapital float64 `json:"initial_player_capital" yaml:"initial_player_capital"`
	EngineerEfficiency   int     `json:"engineer_efficiency" yaml:"engineer_efficiency"` // units per employee per round
	CityReportCost       float64 `json:"city_report_cost" yaml:"city_report_cost"`
	CityStoreCost        float64 `json:"city_store_cost" yaml:"city_store_cost"`
	MinProductPrice      float64 `json:"min_product_price" yaml:"min_product_price"`
	MaxProductPrice      float64 `json:"max_product_price" yaml:"max_product_price"`
	TotalRounds          int     `json:"total_rounds" yaml:"total_rounds"`
}

// DefaultSettings returns the balance defaults for a new game.
func DefaultSettings() GameSettings {
	return GameSettings{
		InitialPlayerCapital: 100000,
		EngineerEfficiency:   40,
		CityReportCost:       5000,
		CityStoreCost:        10000,
		MinProductPrice:      1.0,
		MaxProductPrice:      100.0,
		TotalRounds:          10,
	}
}

// RoundHistoryEntry is an append-only audit record, written once per advance.
type RoundHistoryEntry struct {
	ID         string       `json:"id"` // uuid
	Round      int          `json:"round"`
	RecordedAt time.Time    `json:"recorded_at"`
	Markets    []Market     `json:"markets"`
	Players    []Player     `json:"players"`
}

// NewPlayer creates a player with starting capability and a generated password.
func NewPlayer(id, companyName string, settings GameSettings) *Player {
	return &Player{
		ID:                 id,
		CompanyName:        companyName,
		Password:           GeneratePassword(),
		Capital:            settings.InitialPlayerCapital,
		NetAsset:           settings.InitialPlayerCapital,
		ProductionCapacity: 1000,
		Employees:          10,
		ProductQuality:     5,
		StoresPerCity:      map[string]int{},
	}
}

// Clone returns a deep copy of the player (maps included).
func (p *Player) Clone() *Player {
	c := *p
	c.StoresPerCity = cloneIntMap(p.StoresPerCity)
	c.Decision.NewStores = cloneIntMap(p.Decision.NewStores)
	c.Decision.BuyReports = cloneBoolMap(p.Decision.BuyReports)
	c.Outcome.CPIPerCity = cloneFloatMap(p.Outcome.CPIPerCity)
	c.Outcome.HiddenCPIPerCity = cloneFloatMap(p.Outcome.HiddenCPIPerCity)
	c.Outcome.SalesPerCity = cloneIntMap(p.Outcome.SalesPerCity)
	c.Outcome.BoughtCityReports = cloneBoolMap(p.Outcome.BoughtCityReports)
	return &c
}

// StoreCount returns the player's cumulative store count in a city.
func (p *Player) StoreCount(city string) int {
	return p.StoresPerCity[city]
}

// RankPlayers returns players ordered by net asset (desc), ties broken by
// company name so standings are stable round over round.
func RankPlayers(players []*Player) []*Player {
	ranked := make([]*Player, len(players))
	copy(ranked, players)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].NetAsset != ranked[j].NetAsset {
			return ranked[i].NetAsset > ranked[j].NetAsset
		}
		return ranked[i].CompanyName < ranked[j].CompanyName
	})
	return ranked
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	c := make(map[string]int, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneFloatMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	c := make(map[string]float64, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func cloneBoolMap(m map[string]bool) map[string]bool {
	if m == nil {
		return nil
	}
	c := make(map[string]bool, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}
