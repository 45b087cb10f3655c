// Scoring model for market allocation. The weights are game balance, not
// correctness: they are versioned so historical rounds stay reproducible, and
// loadable from the balance file for tuning between games.
package engine

import "math"

// ScoringModel holds the attractiveness weights and reference spends used by
// the allocator and resolver. Version changes whenever a formula or default
// constant changes.
type ScoringModel struct {
	Version string `json:"version" yaml:"version"`

	// Factor weights. They need not sum to 1; CPI normalization cancels scale.
	PriceWeight       float64 `json:"price_weight" yaml:"price_weight"`
	QualityWeight     float64 `json:"quality_weight" yaml:"quality_weight"`
	AdvertisingWeight float64 `json:"advertising_weight" yaml:"advertising_weight"`
	StoreWeight       float64 `json:"store_weight" yaml:"store_weight"`
	PerformanceWeight float64 `json:"performance_weight" yaml:"performance_weight"`

	// Reference spends for diminishing returns (factor = 1.0 at the reference).
	AdvertisingRef float64 `json:"advertising_ref" yaml:"advertising_ref"`
	PerformanceRef float64 `json:"performance_ref" yaml:"performance_ref"`

	// Store factor saturation: n stores score n/(n+StoreHalfPoint).
	StoreHalfPoint float64 `json:"store_half_point" yaml:"store_half_point"`

	// Price factor cap: how much a bargain price can dominate.
	PriceFactorCap float64 `json:"price_factor_cap" yaml:"price_factor_cap"`

	// Investment carry-over effects applied by the resolver.
	QualityPerPerfRef float64 `json:"quality_per_perf_ref" yaml:"quality_per_perf_ref"` // quality points per reference perf spend
}

// DefaultScoringModel returns model v1.
func DefaultScoringModel() ScoringModel {
	return ScoringModel{
		Version:           "v1",
		PriceWeight:       0.35,
		QualityWeight:     0.25,
		AdvertisingWeight: 0.20,
		StoreWeight:       0.12,
		PerformanceWeight: 0.08,
		AdvertisingRef:    20000,
		PerformanceRef:    20000,
		StoreHalfPoint:    2,
		PriceFactorCap:    3.0,
		QualityPerPerfRef: 0.5,
	}
}

// Attractiveness scores one player's profile in one market. Monotonic per
// factor: cheaper, higher quality, more advertising, more stores, and more
// performance investment each raise the score.
func (m ScoringModel) Attractiveness(price, quality, advertising, performance float64, stores int, refPrice float64) float64 {
	priceFactor := 0.0
	if price > 0 {
		priceFactor = refPrice / price
		if priceFactor > m.PriceFactorCap {
			priceFactor = m.PriceFactorCap
		}
	}
	qualityFactor := quality / 10
	advFactor := diminishing(advertising, m.AdvertisingRef)
	storeFactor := float64(stores) / (float64(stores) + m.StoreHalfPoint)
	perfFactor := diminishing(performance, m.PerformanceRef)

	return m.PriceWeight*priceFactor +
		m.QualityWeight*qualityFactor +
		m.AdvertisingWeight*advFactor +
		m.StoreWeight*storeFactor +
		m.PerformanceWeight*perfFactor
}

// QualityGain converts a performance investment into a product quality bump.
func (m ScoringModel) QualityGain(performance float64) float64 {
	if m.PerformanceRef <= 0 {
		return 0
	}
	return m.QualityPerPerfRef * diminishing(performance, m.PerformanceRef)
}

// diminishing maps spend to [0, ~1+] with log1p diminishing returns,
// hitting 1.0 at the reference spend.
func diminishing(spend, ref float64) float64 {
	if spend <= 0 || ref <= 0 {
		return 0
	}
	return math.Log1p(spend) / math.Log1p(ref)
}
