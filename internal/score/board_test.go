package score

import (
	"testing"

	"github.com/zappabad/bullbear/internal/trader"
)

func TestRecompute(t *testing.T) {
	b := NewBoard(Config{BonusFactor: 10}, nil)

	p := trader.NewHuman("p1", "you", 10000)
	p.Balance = 10500
	p.Wins = 2
	p.Losses = 1

	// winRate = 2/3*100 = 66.66 -> floor 66; score = 500 + 66*10
	if got := b.Recompute(p); got != 1160 {
		t.Errorf("score = %v, want 1160", got)
	}
}

func TestRecomputeNoRoundsSettled(t *testing.T) {
	b := NewBoard(DefaultConfig(), nil)
	p := trader.NewHuman("p1", "you", 10000)

	// wins+losses = 0 uses max(1, ...); no division by zero, no bonus.
	if got := b.Recompute(p); got != 0 {
		t.Errorf("score = %v, want 0", got)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	b := NewBoard(DefaultConfig(), nil)
	p := trader.NewHuman("p1", "you", 10000)
	p.Balance = 9800
	p.Wins = 1
	p.Losses = 3

	first := b.Recompute(p)
	second := b.Recompute(p)
	if first != second {
		t.Errorf("recompute not idempotent: %v then %v", first, second)
	}
}

func TestRankOrderingAndTies(t *testing.T) {
	a := trader.NewHuman("a", "a", 10000)
	a.Score = 100
	a.Balance = 10000

	bb := trader.NewAI("b", "b", trader.TypeBull, trader.StrategyRandom, 10000)
	bb.Score = 100
	bb.Balance = 12000

	c := trader.NewAI("c", "c", trader.TypeBear, trader.StrategyRandom, 10000)
	c.Score = 300

	d := trader.NewAI("d", "d", trader.TypeBear, trader.StrategyRandom, 10000)
	d.Score = 100
	d.Balance = 10000

	ranked := Rank([]*trader.Player{d, a, bb, c})
	want := []string{"c", "b", "a", "d"} // score desc, tie balance, tie id
	for i, p := range ranked {
		if p.ID != want[i] {
			t.Fatalf("rank[%d] = %s, want %s", i, p.ID, want[i])
		}
	}
}

type captureSubmitter struct{ got []Summary }

func (c *captureSubmitter) Enqueue(s Summary) { c.got = append(c.got, s) }

func TestSubmitForwardsSummary(t *testing.T) {
	sub := &captureSubmitter{}
	b := NewBoard(DefaultConfig(), sub)

	p := trader.NewHuman("p1", "alice", 10000)
	p.Score = 1160
	b.Submit(p, "medium")

	if len(sub.got) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(sub.got))
	}
	s := sub.got[0]
	if s.PlayerName != "alice" || s.Score != 1160 || s.Difficulty != "medium" {
		t.Errorf("unexpected summary: %+v", s)
	}
}

func TestSubmitWithoutSubmitterIsNoop(t *testing.T) {
	b := NewBoard(DefaultConfig(), nil)
	b.Submit(trader.NewHuman("p1", "you", 10000), "easy") // must not panic
}
