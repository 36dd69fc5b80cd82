package policy

import (
	"github.com/zappabad/bullbear/internal/market"
	"github.com/zappabad/bullbear/internal/trader"
)

// Probabilities partitions a single uniform draw into the three stances.
// Buy + Sell + Neutral must sum to 1.
type Probabilities struct {
	Buy     float64
	Sell    float64
	Neutral float64
}

// baseTables holds the per-(type, regime) stance distributions. The bear
// table is the mirror of the bull table: buy/sell swapped under the
// opposite regime.
var baseTables = map[trader.Type]map[market.Regime]Probabilities{
	trader.TypeBull: {
		market.RegimeBullish:  {Buy: 0.7, Sell: 0.1, Neutral: 0.2},
		market.RegimeBearish:  {Buy: 0.2, Sell: 0.5, Neutral: 0.3},
		market.RegimeNeutral:  {Buy: 0.4, Sell: 0.2, Neutral: 0.4},
		market.RegimeVolatile: {Buy: 0.3, Sell: 0.3, Neutral: 0.4},
	},
	trader.TypeBear: {
		market.RegimeBullish:  {Buy: 0.5, Sell: 0.2, Neutral: 0.3},
		market.RegimeBearish:  {Buy: 0.1, Sell: 0.7, Neutral: 0.2},
		market.RegimeNeutral:  {Buy: 0.2, Sell: 0.4, Neutral: 0.4},
		market.RegimeVolatile: {Buy: 0.3, Sell: 0.3, Neutral: 0.4},
	},
}

// Table returns the effective stance distribution after applying the
// strategy transform to the base table.
func Table(typ trader.Type, strat trader.Strategy, regime market.Regime) Probabilities {
	if strat == trader.StrategyRandom {
		third := 1.0 / 3.0
		return Probabilities{Buy: third, Sell: third, Neutral: third}
	}

	base := baseTables[typ][regime]
	if strat == trader.StrategyContrarian {
		base.Buy, base.Sell = base.Sell, base.Buy
	}
	return base
}
