package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zappabad/bullbear/internal/market"
	"github.com/zappabad/bullbear/internal/score"
	"github.com/zappabad/bullbear/internal/session/core"
	"github.com/zappabad/bullbear/internal/trader"
)

func testServiceConfig() Config {
	cfg := DefaultConfig()
	cfg.Core.RoundSeconds = 2
	cfg.Core.MaxRounds = 3
	cfg.Core.AICount = 2
	cfg.RoundInterval = 10 * time.Millisecond
	cfg.PriceInterval = 5 * time.Millisecond
	cfg.Seed = 42
	return cfg
}

func startService(t *testing.T, cfg Config) *Service {
	t.Helper()
	s := NewService(cfg)
	t.Cleanup(s.Close)

	ctx := context.Background()
	require.NoError(t, s.Initialize(ctx, "Tester"))
	require.NoError(t, s.Start(ctx))
	return s
}

// waitFor drains the event channel until match returns true or the
// deadline passes.
func waitFor(t *testing.T, s *Service, timeout time.Duration, match func(core.Event) bool) bool {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-s.Events():
			if match(ev) {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func TestRoundsSettleOnTheClock(t *testing.T) {
	s := startService(t, testServiceConfig())

	ok := waitFor(t, s, time.Second, func(ev core.Event) bool {
		_, settled := ev.(core.RoundSettledEvent)
		return settled
	})
	assert.True(t, ok, "no settlement within a second of accelerated clock")
}

func TestPriceTicksFlow(t *testing.T) {
	s := startService(t, testServiceConfig())

	ok := waitFor(t, s, time.Second, func(ev core.Event) bool {
		_, ticked := ev.(core.PriceTickedEvent)
		return ticked
	})
	assert.True(t, ok, "no price tick within a second")

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.History)
}

func TestPauseFreezesTheClock(t *testing.T) {
	cfg := testServiceConfig()
	cfg.Core.RoundSeconds = 60 // long round so no settlement interferes
	s := startService(t, cfg)
	ctx := context.Background()

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Pause(ctx))

	before, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, core.StatePaused, before.State)

	// several round intervals pass with the clock paused
	time.Sleep(60 * time.Millisecond)

	after, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Round.TimeRemaining, after.Round.TimeRemaining,
		"round clock moved while paused")
	assert.Equal(t, before.Price, after.Price, "price moved while paused")

	require.NoError(t, s.Resume(ctx))
	resumed, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StateActive, resumed.State)
}

func TestResetCancelsSchedules(t *testing.T) {
	s := startService(t, testServiceConfig())
	ctx := context.Background()

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, s.Reset(ctx))

	// any tick from the old schedule still in flight must be discarded
	time.Sleep(60 * time.Millisecond)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, core.StateSetup, snap.State)
	assert.Empty(t, snap.Players)
	assert.Empty(t, snap.History, "stale price timer mutated a reset session")

	// the session is reusable after reset
	require.NoError(t, s.Initialize(ctx, "Again"))
	require.NoError(t, s.Start(ctx))
}

func TestCommandsRejectedOutsideActive(t *testing.T) {
	cfg := testServiceConfig()
	s := NewService(cfg)
	t.Cleanup(s.Close)
	ctx := context.Background()

	assert.ErrorIs(t, s.Start(ctx), core.ErrNotInitialized)
	assert.ErrorIs(t, s.PlaceTrade(ctx, trader.StanceBuy), core.ErrBadState)
	assert.ErrorIs(t, s.Pause(ctx), core.ErrBadState)

	_, err := s.OpenPosition(ctx, 1, 10, 0, 0)
	assert.ErrorIs(t, err, core.ErrBadState)
}

func TestGameOverStopsClocksAndSubmits(t *testing.T) {
	sub := &captureSubmitter{}
	cfg := testServiceConfig()
	cfg.Core.MaxRounds = 1
	cfg.Core.RoundSeconds = 1
	cfg.Submitter = sub
	s := startService(t, cfg)

	ok := waitFor(t, s, time.Second, func(ev core.Event) bool {
		_, over := ev.(core.GameOverEvent)
		return over
	})
	require.True(t, ok, "game never ended")

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.StateGameOver, snap.State)

	require.Len(t, sub.got, 1)
	assert.Equal(t, "Tester", sub.got[0].PlayerName)
	assert.Equal(t, "medium", sub.got[0].Difficulty)
}

func TestExternalFeedDrivesPrices(t *testing.T) {
	feed := make(chan market.Tick, 8)
	cfg := testServiceConfig()
	cfg.Core.RoundSeconds = 60
	cfg.ExternalTicks = feed
	s := startService(t, cfg)
	ctx := context.Background()

	feed <- market.Tick{Time: 1, Price: 61234.5}
	require.Eventually(t, func() bool {
		snap, err := s.Snapshot(ctx)
		return err == nil && snap.Price == 61234.5
	}, time.Second, 5*time.Millisecond, "external tick never applied")

	// closing the feed falls back to the simulated walk
	close(feed)
	require.Eventually(t, func() bool {
		snap, err := s.Snapshot(ctx)
		return err == nil && snap.Price != 61234.5
	}, time.Second, 5*time.Millisecond, "walk never resumed after feed loss")
}

func TestClosedServiceRejectsCommands(t *testing.T) {
	s := NewService(testServiceConfig())
	s.Close()

	err := s.Initialize(context.Background(), "x")
	assert.ErrorIs(t, err, context.Canceled)
}

type captureSubmitter struct {
	got []score.Summary
}

func (c *captureSubmitter) Enqueue(s score.Summary) {
	c.got = append(c.got, s)
}
