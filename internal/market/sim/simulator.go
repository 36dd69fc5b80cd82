package sim

import (
	"github.com/zappabad/bullbear/internal/market"
)

// Config holds the price walk parameters.
type Config struct {
	// StartPrice is the initial asset price.
	StartPrice float64
	// Floor is the lowest price a tick may carry; ticks clamp here.
	Floor float64
	// Volatility scales the per-tick noise term.
	Volatility float64
	// BiasWeight scales how strongly the trend bias pulls the walk.
	BiasWeight float64
	// RegimeWindow is the number of recent ticks used to classify the regime.
	RegimeWindow int
	// TrendThreshold is the percentage move over the window that counts as a
	// trend (0.01 = 1%).
	TrendThreshold float64
	// VolatilityThreshold is the stdev of per-tick returns above which a
	// non-trending window classifies as volatile.
	VolatilityThreshold float64
	// HistorySize caps the retained tick history.
	HistorySize int
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		StartPrice:          50000,
		Floor:               1,
		Volatility:          0.02,
		BiasWeight:          0.4,
		RegimeWindow:        10,
		TrendThreshold:      0.005,
		VolatilityThreshold: 0.015,
		HistorySize:         512,
	}
}

// Simulator produces the asset price series from a biased random walk.
// It is deterministic given its RNG, has no goroutines and makes no time
// calls; callers supply timestamps.
type Simulator struct {
	cfg   Config
	rng   RNG
	price float64

	trendBias market.Bias

	// one-shot shock override, decaying over shockTicks ticks
	shockBias  float64
	shockTicks int

	history []market.Tick
}

// New creates a Simulator at cfg.StartPrice.
func New(cfg Config, rng RNG) *Simulator {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultConfig().HistorySize
	}
	if cfg.RegimeWindow <= 1 {
		cfg.RegimeWindow = DefaultConfig().RegimeWindow
	}
	return &Simulator{
		cfg:   cfg,
		rng:   rng,
		price: cfg.StartPrice,
	}
}

// SetTrendBias sets the ambient walk direction supplied by the caller
// (difficulty or regime feedback).
func (s *Simulator) SetTrendBias(b market.Bias) {
	if b < market.BiasDown {
		b = market.BiasDown
	}
	if b > market.BiasUp {
		b = market.BiasUp
	}
	s.trendBias = b
}

// InjectShock overrides the bias with a one-shot event (a news shock) that
// decays after ticks price updates. A later shock replaces an active one.
func (s *Simulator) InjectShock(bias float64, ticks int) {
	if ticks <= 0 {
		return
	}
	s.shockBias = bias
	s.shockTicks = ticks
}

// ShockRemaining reports how many ticks of shock override are left.
func (s *Simulator) ShockRemaining() int {
	return s.shockTicks
}

// Tick advances the walk one step and returns the new tick.
//
//	price' = max(floor, price * (1 + noise))
//	noise  = volatility * (rand - 0.5 + bias * biasWeight)
//
// A floor violation clamps; ticks are never rejected.
func (s *Simulator) Tick(now int64) market.Tick {
	bias := float64(s.trendBias)
	if s.shockTicks > 0 {
		bias = s.shockBias
		s.shockTicks--
	}

	noise := s.cfg.Volatility * (s.rng.Float64() - 0.5 + bias*s.cfg.BiasWeight)
	next := s.price * (1 + noise)
	if next < s.cfg.Floor {
		next = s.cfg.Floor
	}
	s.price = next

	t := market.Tick{Time: now, Price: next}
	s.append(t)
	return t
}

// Absorb records an externally sourced tick (real-data mode) as market
// truth, clamped to the floor like a simulated one.
func (s *Simulator) Absorb(t market.Tick) market.Tick {
	if t.Price < s.cfg.Floor {
		t.Price = s.cfg.Floor
	}
	s.price = t.Price
	s.append(t)
	return t
}

func (s *Simulator) append(t market.Tick) {
	s.history = append(s.history, t)
	if len(s.history) > s.cfg.HistorySize {
		s.history = s.history[len(s.history)-s.cfg.HistorySize:]
	}
}

// Price returns the latest price.
func (s *Simulator) Price() float64 { return s.price }

// History returns a copy of the last n ticks (all retained ticks if n <= 0).
func (s *Simulator) History(n int) []market.Tick {
	if n <= 0 || n > len(s.history) {
		n = len(s.history)
	}
	out := make([]market.Tick, n)
	copy(out, s.history[len(s.history)-n:])
	return out
}

// Regime classifies the current market over the configured window.
func (s *Simulator) Regime() market.Regime {
	return Classify(s.history, s.cfg.RegimeWindow, s.cfg.TrendThreshold, s.cfg.VolatilityThreshold)
}

// Reset clears the walk back to startPrice (cfg.StartPrice when startPrice
// <= 0) and drops history and any active shock. Passing a non-nil RNG
// replaces the randomness source, reseeding the run.
func (s *Simulator) Reset(rng RNG, startPrice float64) {
	if rng != nil {
		s.rng = rng
	}
	if startPrice <= 0 {
		startPrice = s.cfg.StartPrice
	}
	s.price = startPrice
	s.trendBias = market.BiasFlat
	s.shockBias = 0
	s.shockTicks = 0
	s.history = s.history[:0]
}
