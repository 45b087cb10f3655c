// Financial resolution — turns one player's allocated sales and pending
// decision into revenue, costs, loan movement, and updated financial state.
//
// Policy choices, fixed for reproducibility:
//   - Interest accrues on opening debt and capitalizes into debt before the
//     round's loan and repayment apply: debt' = debt·(1+rate) + loan − repay.
//     Interest appears in reported costs (profit) but settles against debt,
//     not cash.
//   - A player with no home city pays interest rate 0.
//   - Production and labor are costed at the production site: the home city,
//     or the first market in name order when no home city is set.
//   - Affordability clamps discretionary spend in a fixed priority order:
//     advertising, then performance, then welfare, then new stores (whole
//     stores at a time, cities in name order). Production, labor, report
//     purchases, and repayment are never reduced; capital may go negative.
package engine

import (
	"sort"

	"github.com/talgya/boardroom/internal/game"
)

// ActualProduction clamps the plan to capacity and the labor ceiling.
// The resolver never trusts stored decisions to have been validated.
func ActualProduction(p *game.Player, settings game.GameSettings) int {
	plan := p.Decision.ProductionPlan
	if plan < 0 {
		plan = 0
	}
	if plan > p.ProductionCapacity {
		plan = p.ProductionCapacity
	}
	laborCeiling := p.Employees * settings.EngineerEfficiency
	if plan > laborCeiling {
		plan = laborCeiling
	}
	return plan
}

// productionSite returns the market production and labor are costed at.
func productionSite(p *game.Player, markets []*game.Market) *game.Market {
	if p.Decision.HomeCity != "" {
		for _, m := range markets {
			if m.Name == p.Decision.HomeCity {
				return m
			}
		}
	}
	site := markets[0]
	for _, m := range markets[1:] {
		if m.Name < site.Name {
			site = m
		}
	}
	return site
}

// homeInterestRate returns the loan rate of the player's home city, 0 if unset.
func homeInterestRate(p *game.Player, markets []*game.Market) float64 {
	if p.Decision.HomeCity == "" {
		return 0
	}
	for _, m := range markets {
		if m.Name == p.Decision.HomeCity {
			return m.LoanInterestRate
		}
	}
	return 0
}

// ResolvePlayer applies one round of financial resolution to p, given the
// player's final per-city sales. It writes the outcome fields it owns
// (everything except CPI maps and market share, which the orchestrator fills
// from the allocation pass) and updates capital, debt, net asset, stores,
// quality, and employees. p should be a working copy; the caller commits or
// discards the whole round atomically.
func ResolvePlayer(p *game.Player, sales map[string]int, markets []*game.Market, settings game.GameSettings, model ScoringModel) {
	d := p.Decision
	site := productionSite(p, markets)

	actualProduction := ActualProduction(p, settings)
	materialCost := float64(actualProduction) * site.BaseMaterialCost
	laborCost := float64(p.Employees) * site.BaseLaborCost

	reportCount := 0
	boughtReports := make(map[string]bool, len(d.BuyReports))
	for city, bought := range d.BuyReports {
		if bought {
			reportCount++
			boughtReports[city] = true
		}
	}
	reportCost := float64(reportCount) * settings.CityReportCost

	repay := d.LoanRepay
	if repay < 0 {
		repay = 0
	}
	if repay > p.Debt {
		repay = p.Debt
	}

	// Affordability pass over discretionary categories.
	adv := max0(d.AdvertisingBudget)
	perf := max0(d.PerformanceInvestment)
	welfare := max0(d.WelfareInvestment)
	stores := keptStores(d.NewStores)
	storeCost := func() float64 { return float64(countStores(stores)) * settings.CityStoreCost }

	available := p.Capital + max0(d.LoanRequest)
	mandatory := materialCost + laborCost + reportCost + repay
	shortfall := mandatory + adv + perf + welfare + storeCost() - available

	if shortfall > 0 {
		adv, shortfall = reduce(adv, shortfall)
	}
	if shortfall > 0 {
		perf, shortfall = reduce(perf, shortfall)
	}
	if shortfall > 0 {
		welfare, shortfall = reduce(welfare, shortfall)
	}
	if shortfall > 0 {
		dropStores(stores, &shortfall, settings.CityStoreCost)
	}

	// Revenue from final sales.
	revenue := 0.0
	totalSales := 0
	for _, units := range sales {
		revenue += float64(units) * d.Price
		totalSales += units
	}

	// Loan movement: interest first, then new loan and repayment.
	rate := homeInterestRate(p, markets)
	interest := p.Debt * rate
	newDebt := p.Debt + interest + max0(d.LoanRequest) - repay
	if newDebt < 0 {
		newDebt = 0
	}

	cashCost := materialCost + laborCost + adv + perf + welfare + storeCost() + reportCost
	totalCost := cashCost + interest

	p.Capital = p.Capital + revenue - cashCost + max0(d.LoanRequest) - repay
	p.Debt = newDebt
	p.NetAsset = p.Capital - p.Debt

	// Capability carry-over: performance raises quality, zero welfare bleeds
	// one employee per round (never below one).
	p.ProductQuality += model.QualityGain(perf)
	if p.ProductQuality > 10 {
		p.ProductQuality = 10
	}
	if p.ProductQuality < 1 {
		p.ProductQuality = 1
	}
	if welfare <= 0 && p.Employees > 1 {
		p.Employees--
	}

	// Commit surviving new stores to cumulative presence.
	if p.StoresPerCity == nil {
		p.StoresPerCity = map[string]int{}
	}
	for city, n := range stores {
		if n > 0 {
			p.StoresPerCity[city] += n
		}
	}

	p.Outcome = game.RoundOutcome{
		ActualProduction:   actualProduction,
		ActualAdvertising:  adv,
		ActualPerformance:  perf,
		ActualWelfare:      welfare,
		ActualNewStoreCost: storeCost(),
		Revenue:            revenue,
		Costs:              totalCost,
		Profit:             revenue - totalCost,
		Interest:           interest,
		SalesPerCity:       cloneSales(sales),
		SurplusGoods:       actualProduction - totalSales,
		BoughtCityReports:  boughtReports,
	}
	if p.Outcome.SurplusGoods < 0 {
		p.Outcome.SurplusGoods = 0
	}
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// reduce cuts spend by up to shortfall, returning the new spend and remainder.
func reduce(spend, shortfall float64) (float64, float64) {
	if spend >= shortfall {
		return spend - shortfall, 0
	}
	return 0, shortfall - spend
}

func keptStores(requested map[string]int) map[string]int {
	kept := make(map[string]int, len(requested))
	for city, n := range requested {
		if n > 0 {
			kept[city] = n
		}
	}
	return kept
}

func countStores(m map[string]int) int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}

// dropStores removes whole stores, cities in name order, until the shortfall
// is covered or no stores remain.
func dropStores(stores map[string]int, shortfall *float64, unitCost float64) {
	cities := make([]string, 0, len(stores))
	for city := range stores {
		cities = append(cities, city)
	}
	sort.Strings(cities)
	for _, city := range cities {
		for stores[city] > 0 && *shortfall > 0 {
			stores[city]--
			*shortfall -= unitCost
		}
	}
	if *shortfall < 0 {
		*shortfall = 0
	}
}

func cloneSales(sales map[string]int) map[string]int {
	c := make(map[string]int, len(sales))
	for k, v := range sales {
		c[k] = v
	}
	return c
}
