package sim

import (
	"testing"

	"github.com/zappabad/bullbear/internal/market"
)

func ticksFromPrices(prices ...float64) []market.Tick {
	out := make([]market.Tick, len(prices))
	for i, p := range prices {
		out[i] = market.Tick{Time: int64(i + 1), Price: p}
	}
	return out
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		prices []float64
		want   market.Regime
	}{
		{"empty", nil, market.RegimeNeutral},
		{"single tick", []float64{100}, market.RegimeNeutral},
		{"steady climb", []float64{100, 101, 102, 103, 104}, market.RegimeBullish},
		{"steady drop", []float64{100, 99, 98, 97, 96}, market.RegimeBearish},
		{"flat", []float64{100, 100.01, 99.99, 100, 100.02}, market.RegimeNeutral},
		{"choppy no trend", []float64{100, 104, 97, 103, 100.1}, market.RegimeVolatile},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(ticksFromPrices(tc.prices...), 10, 0.005, 0.015)
			if got != tc.want {
				t.Errorf("Classify(%v) = %v, want %v", tc.prices, got, tc.want)
			}
		})
	}
}

func TestClassifyTrendWinsOverVolatility(t *testing.T) {
	// A noisy but clearly rising window is bullish, not volatile.
	prices := []float64{100, 106, 101, 108, 104, 112}
	got := Classify(ticksFromPrices(prices...), 10, 0.005, 0.015)
	if got != market.RegimeBullish {
		t.Errorf("expected BULLISH for noisy uptrend, got %v", got)
	}
}

func TestClassifyUsesOnlyWindow(t *testing.T) {
	// Old crash outside the window must not leak into classification.
	prices := []float64{200, 100, 100, 100.01, 100, 99.99, 100}
	got := Classify(ticksFromPrices(prices...), 5, 0.005, 0.015)
	if got != market.RegimeNeutral {
		t.Errorf("expected NEUTRAL inside window, got %v", got)
	}
}
