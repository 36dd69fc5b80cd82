// Package score derives player scores and rankings from balances and
// win/loss counters, and forwards summaries to the external leaderboard
// collaborator on a best-effort basis.
package score

import (
	"math"
	"sort"

	"github.com/zappabad/bullbear/internal/trader"
)

// Config holds scoring parameters.
type Config struct {
	// BonusFactor multiplies the floored win-rate percentage.
	BonusFactor float64
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{BonusFactor: 10}
}

// Summary is what gets submitted to the leaderboard collaborator.
type Summary struct {
	PlayerName string  `json:"playerName"`
	Score      float64 `json:"score"`
	Difficulty string  `json:"difficulty"`
}

// Submitter accepts summaries for asynchronous delivery. Implementations
// must never block the caller; delivery failures are theirs to retry.
type Submitter interface {
	Enqueue(Summary)
}

// Board computes scores. Recompute is idempotent: without intervening
// player mutation it always yields the same value.
type Board struct {
	cfg       Config
	submitter Submitter
}

// NewBoard creates a Board. submitter may be nil (submission disabled).
func NewBoard(cfg Config, submitter Submitter) *Board {
	if cfg.BonusFactor == 0 {
		cfg.BonusFactor = DefaultConfig().BonusFactor
	}
	return &Board{cfg: cfg, submitter: submitter}
}

// Recompute returns p's score without storing it:
//
//	score = (balance - initialBalance) + floor(winRate) * bonusFactor
//	winRate = wins / max(1, wins+losses) * 100
func (b *Board) Recompute(p *trader.Player) float64 {
	settled := p.Wins + p.Losses
	if settled < 1 {
		settled = 1
	}
	winRate := float64(p.Wins) / float64(settled) * 100
	return (p.Balance - p.InitialBalance) + math.Floor(winRate)*b.cfg.BonusFactor
}

// RecomputeAll refreshes the stored Score of every player.
func (b *Board) RecomputeAll(players []*trader.Player) {
	for _, p := range players {
		p.Score = b.Recompute(p)
	}
}

// Rank returns the players ordered by descending score, ties broken by
// balance then id. The input slice is untouched.
func Rank(players []*trader.Player) []*trader.Player {
	out := make([]*trader.Player, len(players))
	copy(out, players)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Balance != out[j].Balance {
			return out[i].Balance > out[j].Balance
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Submit forwards p's summary to the leaderboard collaborator. A nil
// submitter makes this a no-op; delivery failure never surfaces here.
func (b *Board) Submit(p *trader.Player, difficulty string) {
	if b.submitter == nil {
		return
	}
	b.submitter.Enqueue(Summary{
		PlayerName: p.Name,
		Score:      p.Score,
		Difficulty: difficulty,
	})
}
