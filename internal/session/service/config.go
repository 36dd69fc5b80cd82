package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/zappabad/bullbear/internal/market"
	"github.com/zappabad/bullbear/internal/score"
	"github.com/zappabad/bullbear/internal/session/core"
)

// Config holds session service parameters.
type Config struct {
	// Core configures the engine owned by the service.
	Core core.Config

	// RoundInterval is the round clock cadence. One round second elapses
	// per interval.
	RoundInterval time.Duration

	// PriceInterval overrides the difficulty-derived price tick cadence
	// when > 0.
	PriceInterval time.Duration

	// Seed fixes the randomness source; 0 seeds from the wall clock.
	Seed int64

	// CommandBuffer is the size of the command channel.
	CommandBuffer int

	// EventBuffer is the size of the subscriber event channel.
	EventBuffer int

	// DropEvents drops events when the subscriber channel is full instead
	// of applying backpressure to the processor.
	DropEvents bool

	// ExternalTicks, when non-nil, replaces the internal price timer with
	// ticks from a market-data feed. If the channel closes the service
	// falls back to the simulated walk.
	ExternalTicks <-chan market.Tick

	// Submitter receives the human's summary at game over. Nil disables
	// leaderboard submission.
	Submitter score.Submitter

	// Logger defaults to zap.NewNop.
	Logger *zap.Logger
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Core:          core.DefaultConfig(),
		RoundInterval: time.Second,
		CommandBuffer: 64,
		EventBuffer:   256,
		DropEvents:    true,
	}
}
