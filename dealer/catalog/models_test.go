package catalog

import "testing"

func TestPriceTierContainsBothBounds(t *testing.T) {
	tier := PriceTier{MinUSD: 3000, MaxUSD: 6000}
	cases := map[float64]bool{2999.99: false, 3000: true, 4500: true, 6000: true, 6000.01: false}
	for price, want := range cases {
		if got := tier.Contains(price); got != want {
			t.Fatalf("Contains(%v) = %v, want %v", price, got, want)
		}
	}
}

func TestTierForPicksFirstMatch(t *testing.T) {
	tiers := append([]PriceTier(nil), SeedPriceTiers...)
	for i := range tiers {
		tiers[i].ID = int64(i + 1)
	}
	// 6000 sits on a shared bound; the lower tier wins
	if got, ok := TierFor(tiers, 6000); !ok || got.ID != 2 {
		t.Fatalf("TierFor(6000) = %+v, %v", got, ok)
	}
	if got, ok := TierFor(tiers, 25000); !ok || got.Name != "20000+$" {
		t.Fatalf("TierFor(25000) = %+v, %v", got, ok)
	}
	if _, ok := TierFor(tiers, 2_000_000); ok {
		t.Fatal("price above every tier must not match")
	}
}

func TestSampleVehicles(t *testing.T) {
	samples := SampleVehicles()
	if len(samples) != 10 {
		t.Fatalf("samples = %d", len(samples))
	}
	first := samples[0]
	if first.Title != "Toyota Camry 2020" || first.PriceUSD != 15000 || first.MileageKM != 30000 {
		t.Fatalf("first sample = %+v", first)
	}
	last := samples[len(samples)-1]
	if last.Title != "Mazda Mazda3 2016" || last.PriceUSD != 37000 {
		t.Fatalf("last sample = %+v", last)
	}
	models := 0
	for _, bm := range SeedModels {
		models += len(bm.Models)
	}
	if models != 14 {
		t.Fatalf("seed models = %d, want 14", models)
	}
}
