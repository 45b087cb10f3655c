// Package citygen generates a city market set from a seed using layered
// simplex noise, so neighboring cities get smoothly related demand, costs,
// and rates instead of uniform random scatter. The same seed always produces
// the same market set, which keeps scenario runs and game resets reproducible.
package citygen

import (
	"fmt"
	"math"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/boardroom/internal/game"
)

// GenConfig holds market-set generation parameters.
type GenConfig struct {
	Cities int   // Number of city markets to generate
	Seed   int64 // Deterministic seed; same seed, same markets
}

// DefaultGenConfig returns a small set suitable for a standard game.
func DefaultGenConfig() GenConfig {
	return GenConfig{Cities: 4, Seed: 1}
}

// Parameter ranges. Centered on the classic defaults (size 10000, material 5,
// labor 10, rate 5%, price 20) so a generated set plays like the hand-tuned one.
const (
	minMarketSize = 6000
	maxMarketSize = 14000
	minMaterial   = 3.0
	maxMaterial   = 8.0
	minLabor      = 7.0
	maxLabor      = 14.0
	minRate       = 0.03
	maxRate       = 0.08
	minAvgPrice   = 15.0
	maxAvgPrice   = 28.0
)

// Generate creates cfg.Cities markets named "City A", "City B", … with
// parameters sampled from independent noise layers along the city axis.
func Generate(cfg GenConfig) []*game.Market {
	sizeNoise := opensimplex.NewNormalized(cfg.Seed)
	materialNoise := opensimplex.NewNormalized(cfg.Seed + 1)
	laborNoise := opensimplex.NewNormalized(cfg.Seed + 2)
	rateNoise := opensimplex.NewNormalized(cfg.Seed + 3)
	priceNoise := opensimplex.NewNormalized(cfg.Seed + 4)

	markets := make([]*game.Market, 0, cfg.Cities)
	for i := 0; i < cfg.Cities; i++ {
		// Sample at spaced points so adjacent cities differ but correlate.
		x := float64(i) * 0.7

		size := lerp(minMarketSize, maxMarketSize, sizeNoise.Eval2(x, 0))
		material := lerp(minMaterial, maxMaterial, materialNoise.Eval2(x, 0))
		labor := lerp(minLabor, maxLabor, laborNoise.Eval2(x, 0))
		rate := lerp(minRate, maxRate, rateNoise.Eval2(x, 0))
		avgPrice := lerp(minAvgPrice, maxAvgPrice, priceNoise.Eval2(x, 0))

		markets = append(markets, &game.Market{
			Name:             CityName(i),
			TotalMarketSize:  roundTo(size, 100),
			BaseMaterialCost: round2(material),
			BaseLaborCost:    round2(labor),
			LoanInterestRate: math.Round(rate*1000) / 1000,
			InitialAvgPrice:  round2(avgPrice),
		})
	}
	return markets
}

// DefaultMarkets returns the classic two-city setup used by game reset when
// no seed is configured.
func DefaultMarkets() []*game.Market {
	return []*game.Market{
		{Name: "City A", TotalMarketSize: 10000, BaseMaterialCost: 5.0, BaseLaborCost: 10.0, LoanInterestRate: 0.05, InitialAvgPrice: 20.0},
		{Name: "City B", TotalMarketSize: 8000, BaseMaterialCost: 5.5, BaseLaborCost: 11.0, LoanInterestRate: 0.06, InitialAvgPrice: 22.0},
	}
}

// CityName labels cities "City A" … "City Z", then "City 27" onward.
func CityName(i int) string {
	if i < 26 {
		return fmt.Sprintf("City %c", 'A'+i)
	}
	return fmt.Sprintf("City %d", i+1)
}

func lerp(lo, hi, t float64) float64 {
	return lo + (hi-lo)*t
}

func roundTo(v float64, step int) int {
	return int(math.Round(v/float64(step))) * step
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
