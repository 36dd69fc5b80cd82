// Package policy maps (trader type, strategy, market regime) onto a trading
// stance through probability tables. Decisions are pure given the injected
// RNG, which makes seeded sessions fully reproducible.
package policy

import (
	"github.com/zappabad/bullbear/internal/market"
	"github.com/zappabad/bullbear/internal/market/sim"
	"github.com/zappabad/bullbear/internal/trader"
)

// Policy decides AI stances. It shares the session RNG with the simulator.
type Policy struct {
	rng sim.RNG
}

// New creates a Policy drawing from rng.
func New(rng sim.RNG) *Policy {
	return &Policy{rng: rng}
}

// Decide returns the stance for one AI player under the given regime.
// The draw u in [0,1) selects buy on [0, P(buy)), sell on
// [P(buy), P(buy)+P(sell)), neutral otherwise. Always returns a valid
// stance; human players always come back neutral (they decide themselves).
func (p *Policy) Decide(pl *trader.Player, regime market.Regime) trader.Stance {
	if pl.Kind != trader.KindAI {
		return trader.StanceNeutral
	}

	probs := Table(pl.Type, pl.Strategy, regime)
	u := p.rng.Float64()
	switch {
	case u < probs.Buy:
		return trader.StanceBuy
	case u < probs.Buy+probs.Sell:
		return trader.StanceSell
	default:
		return trader.StanceNeutral
	}
}
