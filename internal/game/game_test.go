package game

import (
	"testing"
)

func TestFixedSeedReproducesNewsRolls(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SessionConfig.Seed = 42

	a, err := NewGame(cfg)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	defer a.Close()
	b, err := NewGame(cfg)
	if err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	defer b.Close()

	for i := 0; i < 10; i++ {
		ia := a.News.Generate(int64(i))
		ib := b.News.Generate(int64(i))
		if ia.Headline != ib.Headline || ia.Bias != ib.Bias || ia.DecayTicks != ib.DecayTicks {
			t.Fatalf("roll %d diverged: %q vs %q", i, ia.Headline, ib.Headline)
		}
	}
}
