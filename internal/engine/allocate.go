// Market allocation — splits one city's fixed demand across competing
// players by normalized attractiveness (CPI).
package engine

import (
	"math"

	"github.com/talgya/boardroom/internal/game"
)

// Allocation is the per-player result of allocating one market.
type Allocation struct {
	CPI       float64 `json:"cpi"`        // share among participants; 0 for non-participants
	HiddenCPI float64 `json:"hidden_cpi"` // share among all players, informative pre-entry
	Demand    int     `json:"demand"`     // floor(CPI × market size), before production capping
}

// Participates reports whether the player competes in the given city this
// round: production planned, or an existing store there.
func Participates(p *game.Player, city string) bool {
	return p.Decision.ProductionPlan > 0 || p.StoreCount(city) > 0
}

// AllocateMarket distributes m.TotalMarketSize across the players active in
// the market. CPI sums to 1 over participants (when any exist); hidden CPI is
// the same normalization over every player, so a company that has not entered
// the city can still see where it would stand. Demand is not yet capped by
// production; the orchestrator applies the shipment pool cap across markets.
//
// Zero participants is not an error: every allocation is simply zero.
func AllocateMarket(m *game.Market, players []*game.Player, model ScoringModel) map[string]Allocation {
	scores := make(map[string]float64, len(players))
	totalAll := 0.0
	totalParticipants := 0.0

	for _, p := range players {
		score := model.Attractiveness(
			p.Decision.Price,
			p.ProductQuality,
			p.Decision.AdvertisingBudget,
			p.Decision.PerformanceInvestment,
			p.StoreCount(m.Name),
			m.InitialAvgPrice,
		)
		scores[p.ID] = score
		totalAll += score
		if Participates(p, m.Name) {
			totalParticipants += score
		}
	}

	out := make(map[string]Allocation, len(players))
	for _, p := range players {
		a := Allocation{}
		if totalAll > 0 {
			a.HiddenCPI = scores[p.ID] / totalAll
		}
		if Participates(p, m.Name) && totalParticipants > 0 {
			a.CPI = scores[p.ID] / totalParticipants
			a.Demand = int(math.Floor(a.CPI * float64(m.TotalMarketSize)))
		}
		out[p.ID] = a
	}
	return out
}
