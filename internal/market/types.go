package market

// Tick is one discrete price update. The tick history is append-only;
// consumers never mutate it.
type Tick struct {
	// Time is the tick timestamp in unix seconds.
	Time int64
	// Price is the asset price at this tick. Always >= the configured floor.
	Price float64
}

// Regime is the classified market trend derived from recent ticks.
type Regime uint8

const (
	RegimeNeutral Regime = iota
	RegimeBullish
	RegimeBearish
	RegimeVolatile
)

func (r Regime) String() string {
	switch r {
	case RegimeBullish:
		return "BULLISH"
	case RegimeBearish:
		return "BEARISH"
	case RegimeVolatile:
		return "VOLATILE"
	case RegimeNeutral:
		return "NEUTRAL"
	default:
		return "UNKNOWN"
	}
}

// Bias is the walk direction hint fed into the simulator: -1 (down), 0
// (flat) or +1 (up).
type Bias int

const (
	BiasDown Bias = -1
	BiasFlat Bias = 0
	BiasUp   Bias = 1
)
