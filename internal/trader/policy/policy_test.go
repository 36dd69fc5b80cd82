package policy

import (
	"math"
	"testing"

	"github.com/zappabad/bullbear/internal/market"
	"github.com/zappabad/bullbear/internal/market/sim"
	"github.com/zappabad/bullbear/internal/trader"
)

// seqRNG replays a fixed sequence of draws.
type seqRNG struct {
	vals []float64
	i    int
}

func (r *seqRNG) Float64() float64 {
	v := r.vals[r.i%len(r.vals)]
	r.i++
	return v
}

func aiPlayer(typ trader.Type, strat trader.Strategy) *trader.Player {
	return trader.NewAI("ai-1", "ai", typ, strat, 10000)
}

func TestContrarianSwapsBuyAndSell(t *testing.T) {
	got := Table(trader.TypeBull, trader.StrategyContrarian, market.RegimeBullish)
	want := Probabilities{Buy: 0.1, Sell: 0.7, Neutral: 0.2}
	if got != want {
		t.Errorf("contrarian bull/bullish table = %+v, want %+v", got, want)
	}
}

func TestRandomStrategyIgnoresRegime(t *testing.T) {
	for _, regime := range []market.Regime{
		market.RegimeBullish, market.RegimeBearish, market.RegimeNeutral, market.RegimeVolatile,
	} {
		got := Table(trader.TypeBear, trader.StrategyRandom, regime)
		if math.Abs(got.Buy-1.0/3.0) > 1e-12 || math.Abs(got.Sell-1.0/3.0) > 1e-12 {
			t.Errorf("random table under %v = %+v, want uniform thirds", regime, got)
		}
	}
}

func TestTablesSumToOne(t *testing.T) {
	for _, typ := range []trader.Type{trader.TypeBull, trader.TypeBear} {
		for _, regime := range []market.Regime{
			market.RegimeBullish, market.RegimeBearish, market.RegimeNeutral, market.RegimeVolatile,
		} {
			p := Table(typ, trader.StrategyTrendFollower, regime)
			sum := p.Buy + p.Sell + p.Neutral
			if math.Abs(sum-1) > 1e-9 {
				t.Errorf("%v/%v table sums to %v", typ, regime, sum)
			}
		}
	}
}

func TestDecidePartitionsTheDraw(t *testing.T) {
	// bull/bullish base: buy 0.7, sell 0.1, neutral 0.2
	pl := aiPlayer(trader.TypeBull, trader.StrategyTrendFollower)

	cases := []struct {
		draw float64
		want trader.Stance
	}{
		{0.0, trader.StanceBuy},
		{0.69, trader.StanceBuy},
		{0.7, trader.StanceSell},
		{0.79, trader.StanceSell},
		{0.8, trader.StanceNeutral},
		{0.99, trader.StanceNeutral},
	}
	for _, tc := range cases {
		p := New(&seqRNG{vals: []float64{tc.draw}})
		if got := p.Decide(pl, market.RegimeBullish); got != tc.want {
			t.Errorf("draw %v: got %v, want %v", tc.draw, got, tc.want)
		}
	}
}

func TestDecideHumanAlwaysNeutral(t *testing.T) {
	p := New(&seqRNG{vals: []float64{0.0}})
	human := trader.NewHuman("h", "you", 10000)
	if got := p.Decide(human, market.RegimeBullish); got != trader.StanceNeutral {
		t.Errorf("human decision = %v, want NEUTRAL", got)
	}
}

func TestDecideDeterministicWithSeed(t *testing.T) {
	pl := aiPlayer(trader.TypeBear, trader.StrategyContrarian)

	a := New(sim.NewSeeded(99))
	b := New(sim.NewSeeded(99))
	for i := 0; i < 100; i++ {
		regime := market.Regime(i % 4)
		if got, want := a.Decide(pl, regime), b.Decide(pl, regime); got != want {
			t.Fatalf("decision %d diverged: %v vs %v", i, got, want)
		}
	}
}
