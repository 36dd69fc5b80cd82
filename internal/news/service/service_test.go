package service

import (
	"testing"
	"time"

	"github.com/zappabad/bullbear/internal/market/sim"
)

func TestGenerateProducesValidShock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = time.Hour // generator stays quiet during the test
	svc := NewService(cfg, sim.NewSeeded(5), nil)
	defer svc.Close()

	item := svc.Generate(123)
	if item.ID == "" {
		t.Error("missing id")
	}
	if item.Time != 123 {
		t.Errorf("time = %d, want 123", item.Time)
	}
	if item.Headline == "" {
		t.Error("missing headline")
	}
	if item.Bias == 0 {
		t.Error("shock bias must be non-zero")
	}
	if item.DecayTicks < 5 || item.DecayTicks > 15 {
		t.Errorf("decay ticks = %d, want 5..15", item.DecayTicks)
	}
}

func TestLatestKeepsTapeOrder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = time.Hour
	cfg.TapeSize = 3
	svc := NewService(cfg, sim.NewSeeded(5), nil)
	defer svc.Close()

	for i := 1; i <= 5; i++ {
		svc.Generate(int64(i))
	}

	got := svc.Latest(0)
	if len(got) != 3 {
		t.Fatalf("tape size = %d, want 3", len(got))
	}
	if got[0].Time != 3 || got[2].Time != 5 {
		t.Errorf("tape window wrong: %d..%d, want 3..5", got[0].Time, got[2].Time)
	}
}

func TestPublishedItemsStampUnixSeconds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = 5 * time.Millisecond
	cfg.ShockProbability = 1.0
	svc := NewService(cfg, sim.NewSeeded(5), nil)
	defer svc.Close()

	select {
	case item := <-svc.Events():
		now := time.Now().Unix()
		if item.Time < now-5 || item.Time > now+5 {
			t.Errorf("item time = %d, want unix seconds near %d", item.Time, now)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no item published")
	}
}

func TestSeededRollsAreReproducible(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Interval = time.Hour

	a := NewService(cfg, sim.NewSeeded(11), nil)
	defer a.Close()
	b := NewService(cfg, sim.NewSeeded(11), nil)
	defer b.Close()

	for i := 0; i < 20; i++ {
		ia, oka := a.roll(int64(i))
		ib, okb := b.roll(int64(i))
		if oka != okb {
			t.Fatalf("roll %d diverged: %v vs %v", i, oka, okb)
		}
		if oka && (ia.Headline != ib.Headline || ia.Bias != ib.Bias || ia.DecayTicks != ib.DecayTicks) {
			t.Fatalf("shock %d diverged: %+v vs %+v", i, ia, ib)
		}
	}
}
