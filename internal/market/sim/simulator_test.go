package sim

import (
	"testing"

	"github.com/zappabad/bullbear/internal/market"
)

func TestTickDeterministicWithSeed(t *testing.T) {
	cfg := DefaultConfig()

	a := New(cfg, NewSeeded(42))
	b := New(cfg, NewSeeded(42))

	for i := 0; i < 200; i++ {
		ta := a.Tick(int64(i + 1))
		tb := b.Tick(int64(i + 1))
		if ta != tb {
			t.Fatalf("tick %d diverged: %+v vs %+v", i, ta, tb)
		}
	}
}

func TestTickRespectsFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartPrice = 10
	cfg.Floor = 9.9
	cfg.Volatility = 0.5

	s := New(cfg, NewSeeded(7))
	s.SetTrendBias(market.BiasDown)

	for i := 0; i < 500; i++ {
		tick := s.Tick(int64(i + 1))
		if tick.Price < cfg.Floor {
			t.Fatalf("tick %d below floor: %v", i, tick.Price)
		}
	}
}

// fixedRNG always returns the same draw, making the walk direction exact.
type fixedRNG struct{ v float64 }

func (f fixedRNG) Float64() float64 { return f.v }

func TestTrendBiasMovesWalk(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartPrice = 100

	// rand() = 0.5 cancels the centered term, leaving only the bias pull.
	up := New(cfg, fixedRNG{0.5})
	up.SetTrendBias(market.BiasUp)
	down := New(cfg, fixedRNG{0.5})
	down.SetTrendBias(market.BiasDown)

	for i := 0; i < 10; i++ {
		up.Tick(int64(i + 1))
		down.Tick(int64(i + 1))
	}
	if up.Price() <= 100 {
		t.Errorf("expected upward walk, got %v", up.Price())
	}
	if down.Price() >= 100 {
		t.Errorf("expected downward walk, got %v", down.Price())
	}
}

func TestInjectShockOverridesAndDecays(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StartPrice = 100

	s := New(cfg, fixedRNG{0.5})
	s.SetTrendBias(market.BiasFlat)
	s.InjectShock(1, 3)

	if got := s.ShockRemaining(); got != 3 {
		t.Fatalf("expected 3 shock ticks, got %d", got)
	}

	prev := s.Price()
	for i := 0; i < 3; i++ {
		tick := s.Tick(int64(i + 1))
		if tick.Price <= prev {
			t.Fatalf("shock tick %d did not move price up: %v -> %v", i, prev, tick.Price)
		}
		prev = tick.Price
	}
	if got := s.ShockRemaining(); got != 0 {
		t.Fatalf("expected shock to decay, %d ticks left", got)
	}

	// After decay the flat bias holds the price (rand term cancelled).
	tick := s.Tick(100)
	if tick.Price != prev {
		t.Errorf("expected flat walk after shock decay, got %v -> %v", prev, tick.Price)
	}
}

func TestAbsorbClampsToFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Floor = 5

	s := New(cfg, NewSeeded(1))
	tick := s.Absorb(market.Tick{Time: 1, Price: 2})
	if tick.Price != 5 {
		t.Errorf("expected absorbed tick clamped to floor, got %v", tick.Price)
	}
	if s.Price() != 5 {
		t.Errorf("expected price at floor, got %v", s.Price())
	}
}

func TestResetClearsStateAndReseeds(t *testing.T) {
	cfg := DefaultConfig()

	s := New(cfg, NewSeeded(3))
	for i := 0; i < 20; i++ {
		s.Tick(int64(i + 1))
	}
	s.InjectShock(1, 10)

	s.Reset(NewSeeded(3), 0)
	if s.Price() != cfg.StartPrice {
		t.Errorf("expected price reset to %v, got %v", cfg.StartPrice, s.Price())
	}
	if len(s.History(0)) != 0 {
		t.Errorf("expected history cleared, got %d ticks", len(s.History(0)))
	}
	if s.ShockRemaining() != 0 {
		t.Errorf("expected shock cleared")
	}

	// Reseeded run reproduces the original sequence.
	fresh := New(cfg, NewSeeded(3))
	for i := 0; i < 20; i++ {
		a := s.Tick(int64(i + 1))
		b := fresh.Tick(int64(i + 1))
		if a != b {
			t.Fatalf("tick %d diverged after reseed: %+v vs %+v", i, a, b)
		}
	}
}
