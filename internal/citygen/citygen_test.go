package citygen

import (
	"reflect"
	"testing"
)

func TestGenerateDeterministic(t *testing.T) {
	cfg := GenConfig{Cities: 6, Seed: 42}
	a := Generate(cfg)
	b := Generate(cfg)

	if !reflect.DeepEqual(a, b) {
		t.Fatal("same seed produced different market sets")
	}

	c := Generate(GenConfig{Cities: 6, Seed: 43})
	if reflect.DeepEqual(a, c) {
		t.Fatal("different seeds produced identical market sets")
	}
}

func TestGenerateRanges(t *testing.T) {
	markets := Generate(GenConfig{Cities: 30, Seed: 7})
	if len(markets) != 30 {
		t.Fatalf("expected 30 markets, got %d", len(markets))
	}

	for _, m := range markets {
		if m.TotalMarketSize < minMarketSize || m.TotalMarketSize > maxMarketSize {
			t.Errorf("%s: market size %d out of range", m.Name, m.TotalMarketSize)
		}
		if m.TotalMarketSize%100 != 0 {
			t.Errorf("%s: market size %d not rounded to 100", m.Name, m.TotalMarketSize)
		}
		if m.BaseMaterialCost < minMaterial || m.BaseMaterialCost > maxMaterial {
			t.Errorf("%s: material cost %v out of range", m.Name, m.BaseMaterialCost)
		}
		if m.BaseLaborCost < minLabor || m.BaseLaborCost > maxLabor {
			t.Errorf("%s: labor cost %v out of range", m.Name, m.BaseLaborCost)
		}
		if m.LoanInterestRate < minRate || m.LoanInterestRate > maxRate {
			t.Errorf("%s: rate %v out of range", m.Name, m.LoanInterestRate)
		}
		if m.InitialAvgPrice < minAvgPrice || m.InitialAvgPrice > maxAvgPrice {
			t.Errorf("%s: avg price %v out of range", m.Name, m.InitialAvgPrice)
		}
	}
}

func TestCityName(t *testing.T) {
	cases := []struct {
		i    int
		want string
	}{
		{0, "City A"},
		{1, "City B"},
		{25, "City Z"},
		{26, "City 27"},
		{99, "City 100"},
	}
	for _, c := range cases {
		if got := CityName(c.i); got != c.want {
			t.Errorf("CityName(%d) = %q, expected %q", c.i, got, c.want)
		}
	}
}

func TestDefaultMarkets(t *testing.T) {
	markets := DefaultMarkets()
	if len(markets) != 2 {
		t.Fatalf("expected classic two-city set, got %d", len(markets))
	}
	if markets[0].Name != "City A" || markets[0].TotalMarketSize != 10000 {
		t.Errorf("unexpected first market: %+v", markets[0])
	}
	if markets[1].Name != "City B" || markets[1].LoanInterestRate != 0.06 {
		t.Errorf("unexpected second market: %+v", markets[1])
	}
}
