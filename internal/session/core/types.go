package core

import (
	"errors"
	"strings"
	"time"

	"github.com/zappabad/bullbear/internal/ledger"
	"github.com/zappabad/bullbear/internal/market"
	"github.com/zappabad/bullbear/internal/trader"
)

var (
	ErrBadState       = errors.New("operation not allowed in current state")
	ErrNotInitialized = errors.New("session not initialized")
	ErrUnknownPlayer  = errors.New("unknown player")
)

// State is the session lifecycle state.
type State uint8

const (
	StateSetup State = iota
	StateActive
	StatePaused
	StateSettling
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "SETUP"
	case StateActive:
		return "ACTIVE"
	case StatePaused:
		return "PAUSED"
	case StateSettling:
		return "SETTLING"
	case StateGameOver:
		return "GAME_OVER"
	default:
		return "UNKNOWN"
	}
}

// Difficulty scales volatility and the price-tick rate. Payouts stay flat
// across difficulties.
type Difficulty uint8

const (
	DifficultyEasy Difficulty = iota
	DifficultyMedium
	DifficultyHard
)

func (d Difficulty) String() string {
	switch d {
	case DifficultyEasy:
		return "easy"
	case DifficultyHard:
		return "hard"
	default:
		return "medium"
	}
}

// ParseDifficulty maps a config string onto a Difficulty, defaulting to
// medium.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy":
		return DifficultyEasy
	case "hard":
		return DifficultyHard
	default:
		return DifficultyMedium
	}
}

// VolatilityScale is the multiplier applied to the base simulator
// volatility for this difficulty.
func (d Difficulty) VolatilityScale() float64 {
	switch d {
	case DifficultyEasy:
		return 0.5
	case DifficultyHard:
		return 2.0
	default:
		return 1.0
	}
}

// PriceTickInterval is how often the price walk advances: 0.5 Hz on easy,
// 1 Hz on medium, 2 Hz on hard.
func (d Difficulty) PriceTickInterval() time.Duration {
	switch d {
	case DifficultyEasy:
		return 2 * time.Second
	case DifficultyHard:
		return 500 * time.Millisecond
	default:
		return time.Second
	}
}

// Mode selects how a session ends.
type Mode uint8

const (
	// ModeClassic ends the game after MaxRounds settlements.
	ModeClassic Mode = iota
	// ModeEndless keeps advancing rounds until reset.
	ModeEndless
)

func (m Mode) String() string {
	if m == ModeEndless {
		return "endless"
	}
	return "classic"
}

// ParseMode maps a config string onto a Mode, defaulting to classic.
func ParseMode(s string) Mode {
	if strings.ToLower(strings.TrimSpace(s)) == "endless" {
		return ModeEndless
	}
	return ModeClassic
}

// Round is the current round's timer state. TimeRemaining only decreases
// while the session is Active and snaps back to DurationSeconds on round
// advance.
type Round struct {
	Index           int
	DurationSeconds int
	TimeRemaining   int
}

// RoundResult says how one player's stance settled.
type RoundResult uint8

const (
	ResultFlat RoundResult = iota
	ResultWin
	ResultLoss
)

func (r RoundResult) String() string {
	switch r {
	case ResultWin:
		return "WIN"
	case ResultLoss:
		return "LOSS"
	default:
		return "FLAT"
	}
}

// Outcome is one player's settlement line.
type Outcome struct {
	PlayerID string
	Stance   trader.Stance
	Result   RoundResult
	Delta    float64
}

// Standing is one row of the final ranking.
type Standing struct {
	PlayerID string
	Name     string
	Kind     trader.Kind
	Score    float64
	Balance  float64
	Wins     int
	Losses   int
}

// PlayerView is a read-only copy of a player plus their open positions.
type PlayerView struct {
	trader.Player
	OpenPositions []ledger.Position
}

// Snapshot is the read-only session view handed to hosts and the UI.
type Snapshot struct {
	State      State
	Mode       Mode
	Difficulty Difficulty
	Asset      string
	Round      Round
	MaxRounds  int
	Price      float64
	Regime     market.Regime
	History    []market.Tick
	Players    []PlayerView
}
