// Decision validation. Pure: no game state is touched. Violations come back
// as *ValidationError so the submitting surface can show them; the resolver
// still defensively clamps, since stored decisions may bypass revalidation.
package engine

import (
	"fmt"

	"github.com/talgya/boardroom/internal/game"
)

// ValidateDecision checks a submitted decision against the player's
// capability, the configured markets, and the settings price band.
func ValidateDecision(d game.RoundDecision, p *game.Player, markets []*game.Market, settings game.GameSettings) error {
	if d.ProductionPlan < 0 || d.ProductionPlan > p.ProductionCapacity {
		return &ValidationError{
			Code:  CodeOutOfRange,
			Field: "production_plan",
			Msg:   fmt.Sprintf("must be in [0, %d]", p.ProductionCapacity),
		}
	}
	if d.Price < settings.MinProductPrice || d.Price > settings.MaxProductPrice {
		return &ValidationError{
			Code:  CodePriceOutOfBand,
			Field: "price",
			Msg:   fmt.Sprintf("must be in [%.2f, %.2f]", settings.MinProductPrice, settings.MaxProductPrice),
		}
	}
	if d.AdvertisingBudget < 0 {
		return &ValidationError{Code: CodeNegativeValue, Field: "advertising_budget", Msg: "must be >= 0"}
	}
	if d.PerformanceInvestment < 0 {
		return &ValidationError{Code: CodeNegativeValue, Field: "performance_investment", Msg: "must be >= 0"}
	}
	if d.WelfareInvestment < 0 {
		return &ValidationError{Code: CodeNegativeValue, Field: "welfare_investment", Msg: "must be >= 0"}
	}
	if d.LoanRequest < 0 {
		return &ValidationError{Code: CodeNegativeValue, Field: "loan_request", Msg: "must be >= 0"}
	}
	if d.LoanRepay < 0 {
		return &ValidationError{Code: CodeNegativeValue, Field: "loan_repay", Msg: "must be >= 0"}
	}
	if d.LoanRepay > p.Debt {
		return &ValidationError{
			Code:  CodeRepayExceedsDebt,
			Field: "loan_repay",
			Msg:   fmt.Sprintf("repay %.2f exceeds debt %.2f", d.LoanRepay, p.Debt),
		}
	}

	known := make(map[string]bool, len(markets))
	for _, m := range markets {
		known[m.Name] = true
	}

	for city, n := range d.NewStores {
		if !known[city] {
			return &ValidationError{Code: CodeUnknownCity, Field: "new_stores", Msg: fmt.Sprintf("no market named %q", city)}
		}
		if n < 0 {
			return &ValidationError{Code: CodeNegativeValue, Field: "new_stores", Msg: "store counts must be >= 0"}
		}
	}
	for city := range d.BuyReports {
		if !known[city] {
			return &ValidationError{Code: CodeUnknownCity, Field: "buy_reports", Msg: fmt.Sprintf("no market named %q", city)}
		}
	}
	if d.HomeCity != "" && !known[d.HomeCity] {
		return &ValidationError{Code: CodeUnknownCity, Field: "home_city", Msg: fmt.Sprintf("no market named %q", d.HomeCity)}
	}
	return nil
}
