package sim

import (
	"math"

	"github.com/zappabad/bullbear/internal/market"
)

// Classify derives the regime from the last window ticks. Trend wins over
// volatility: a move beyond +/- trendThreshold is bullish/bearish even when
// noisy; otherwise a high stdev of per-tick returns is volatile; everything
// else is neutral. Fewer than two ticks is always neutral.
func Classify(history []market.Tick, window int, trendThreshold, volThreshold float64) market.Regime {
	if window < 2 {
		window = 2
	}
	if len(history) < 2 {
		return market.RegimeNeutral
	}
	if len(history) > window {
		history = history[len(history)-window:]
	}

	first := history[0].Price
	last := history[len(history)-1].Price
	if first <= 0 {
		return market.RegimeNeutral
	}
	change := (last - first) / first

	switch {
	case change > trendThreshold:
		return market.RegimeBullish
	case change < -trendThreshold:
		return market.RegimeBearish
	}

	if returnStdev(history) > volThreshold {
		return market.RegimeVolatile
	}
	return market.RegimeNeutral
}

// returnStdev is the population stdev of per-tick percentage returns.
func returnStdev(ticks []market.Tick) float64 {
	if len(ticks) < 2 {
		return 0
	}
	returns := make([]float64, 0, len(ticks)-1)
	for i := 1; i < len(ticks); i++ {
		prev := ticks[i-1].Price
		if prev <= 0 {
			continue
		}
		returns = append(returns, (ticks[i].Price-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}
