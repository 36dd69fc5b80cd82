// Package service wraps the session engine in a single-writer command
// processor. All mutation funnels through one goroutine; the round and
// price clocks are generation-stamped so ticks from a cancelled schedule
// can never touch a newer session.
package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/zappabad/bullbear/internal/ledger"
	"github.com/zappabad/bullbear/internal/market"
	"github.com/zappabad/bullbear/internal/market/sim"
	"github.com/zappabad/bullbear/internal/score"
	"github.com/zappabad/bullbear/internal/session/core"
	"github.com/zappabad/bullbear/internal/trader"
)

// command types
type cmdType int

const (
	cmdInitialize cmdType = iota
	cmdStart
	cmdPause
	cmdResume
	cmdReset
	cmdPlaceTrade
	cmdOpenPosition
	cmdClosePosition
	cmdInjectShock
	cmdSnapshot
)

type command struct {
	typ cmdType

	name   string
	stance trader.Stance

	size       float64
	leverage   float64
	stopLoss   float64
	takeProfit float64
	id         string

	headline string
	bias     float64
	ticks    int

	respCh chan<- response
}

type response struct {
	pos  ledger.Position
	snap core.Snapshot
	err  error
}

type timerKind int

const (
	timerRound timerKind = iota
	timerPrice
)

// timerMsg carries the generation the timer was started under; the
// processor discards messages from a stale generation.
type timerMsg struct {
	gen  int64
	kind timerKind
}

// Service owns the session engine and serializes access to it.
type Service struct {
	cfg   Config
	log   *zap.Logger
	board *score.Board

	engine *core.Engine

	cmdCh   chan command
	timerCh chan timerMsg

	externalEvents chan core.Event
	droppedEvents  atomic.Int64

	// gen invalidates in-flight timers. Bumped on every schedule change.
	gen atomic.Int64

	// externalTicks is consumed only by the processor; nil once the feed
	// is gone.
	externalTicks <-chan market.Tick

	closed    chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// NewService creates a session Service and starts its processor.
func NewService(cfg Config) *Service {
	if cfg.RoundInterval <= 0 {
		cfg.RoundInterval = DefaultConfig().RoundInterval
	}
	if cfg.PriceInterval <= 0 {
		cfg.PriceInterval = cfg.Core.Difficulty.PriceTickInterval()
	}
	if cfg.CommandBuffer <= 0 {
		cfg.CommandBuffer = DefaultConfig().CommandBuffer
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = DefaultConfig().EventBuffer
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	board := score.NewBoard(cfg.Core.Score, cfg.Submitter)
	s := &Service{
		cfg:            cfg,
		log:            cfg.Logger.Named("session"),
		board:          board,
		engine:         core.NewEngine(cfg.Core, sim.NewSeeded(cfg.Seed), board),
		cmdCh:          make(chan command, cfg.CommandBuffer),
		timerCh:        make(chan timerMsg, 8),
		externalEvents: make(chan core.Event, cfg.EventBuffer),
		externalTicks:  cfg.ExternalTicks,
		closed:         make(chan struct{}),
	}

	s.wg.Add(1)
	go s.runProcessor()

	return s
}

func (s *Service) runProcessor() {
	defer s.wg.Done()

	for {
		select {
		case <-s.closed:
			return
		case cmd := <-s.cmdCh:
			s.processCommand(cmd)
		case msg := <-s.timerCh:
			s.processTimer(msg)
		case t, ok := <-s.externalTicks:
			if !ok {
				s.log.Warn("market feed closed, falling back to simulated walk")
				s.externalTicks = nil
				if s.engine.State() == core.StateActive {
					s.startPriceTimer(s.gen.Load())
				}
				continue
			}
			s.emitAll(s.engine.ApplyExternalTick(t, time.Now().Unix()))
		}
	}
}

func (s *Service) processCommand(cmd command) {
	var resp response
	var events []core.Event

	switch cmd.typ {
	case cmdInitialize:
		events, resp.err = s.engine.Initialize(cmd.name)

	case cmdStart:
		events, resp.err = s.engine.Start()
		if resp.err == nil {
			s.startTimers()
			s.log.Info("session started",
				zap.String("difficulty", s.cfg.Core.Difficulty.String()),
				zap.String("mode", s.cfg.Core.Mode.String()))
		}

	case cmdPause:
		events, resp.err = s.engine.Pause()
		if resp.err == nil {
			s.stopTimers()
		}

	case cmdResume:
		events, resp.err = s.engine.Resume()
		if resp.err == nil {
			s.startTimers()
		}

	case cmdReset:
		s.stopTimers()
		events = s.engine.Reset()
		s.log.Info("session reset")

	case cmdPlaceTrade:
		resp.err = s.engine.PlaceTrade(cmd.stance)

	case cmdOpenPosition:
		resp.pos, events, resp.err = s.engine.OpenPosition(
			cmd.size, cmd.leverage, cmd.stopLoss, cmd.takeProfit, time.Now().Unix())

	case cmdClosePosition:
		resp.pos, events, resp.err = s.engine.ClosePosition(cmd.id, time.Now().Unix())

	case cmdInjectShock:
		events, resp.err = s.engine.InjectShock(cmd.headline, cmd.bias, cmd.ticks)

	case cmdSnapshot:
		resp.snap = s.engine.Snapshot()
	}

	s.emitAll(events)

	if cmd.respCh != nil {
		cmd.respCh <- resp
	}
}

func (s *Service) processTimer(msg timerMsg) {
	// the goroutine checked before sending, but a schedule change may have
	// landed while the message sat in the channel
	if msg.gen != s.gen.Load() {
		return
	}
	now := time.Now().Unix()
	switch msg.kind {
	case timerRound:
		s.emitAll(s.engine.RoundTick(now))
	case timerPrice:
		s.emitAll(s.engine.PriceTick(now))
	}
}

// startTimers begins a fresh timer generation. The round clock always runs;
// the price clock only when no external feed is attached.
func (s *Service) startTimers() {
	gen := s.gen.Add(1)
	s.wg.Add(1)
	go s.runTimer(gen, timerRound, s.cfg.RoundInterval)
	if s.externalTicks == nil {
		s.startPriceTimer(gen)
	}
}

func (s *Service) startPriceTimer(gen int64) {
	s.wg.Add(1)
	go s.runTimer(gen, timerPrice, s.cfg.PriceInterval)
}

// stopTimers invalidates the current generation; running timer goroutines
// notice and exit on their next tick.
func (s *Service) stopTimers() {
	s.gen.Add(1)
}

func (s *Service) runTimer(gen int64, kind timerKind, interval time.Duration) {
	defer s.wg.Done()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-s.closed:
			return
		case <-t.C:
			if s.gen.Load() != gen {
				return
			}
			select {
			case s.timerCh <- timerMsg{gen: gen, kind: kind}:
			case <-s.closed:
				return
			}
		}
	}
}

func (s *Service) emitAll(events []core.Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case core.RoundSettledEvent:
			s.log.Info("round settled",
				zap.Int("round", e.Round),
				zap.String("regime", e.Regime.String()))
		case core.GameOverEvent:
			s.stopTimers()
			s.log.Info("game over", zap.Int("standings", len(e.Standings)))
			if h := s.engine.Human(); h != nil {
				s.board.Submit(h, s.cfg.Core.Difficulty.String())
			}
		}
		s.emit(ev)
	}
}

func (s *Service) emit(ev core.Event) {
	if s.cfg.DropEvents {
		select {
		case s.externalEvents <- ev:
		default:
			s.droppedEvents.Add(1)
		}
		return
	}
	select {
	case s.externalEvents <- ev:
	case <-s.closed:
	}
}

func (s *Service) do(ctx context.Context, cmd command) (response, error) {
	respCh := make(chan response, 1)
	cmd.respCh = respCh

	select {
	case <-s.closed:
		return response{}, context.Canceled
	case <-ctx.Done():
		return response{}, ctx.Err()
	case s.cmdCh <- cmd:
	}

	select {
	case <-s.closed:
		return response{}, context.Canceled
	case <-ctx.Done():
		return response{}, ctx.Err()
	case resp := <-respCh:
		return resp, resp.err
	}
}

// Initialize creates the players for a new session.
func (s *Service) Initialize(ctx context.Context, playerName string) error {
	_, err := s.do(ctx, command{typ: cmdInitialize, name: playerName})
	return err
}

// Start activates the session and starts the clocks.
func (s *Service) Start(ctx context.Context) error {
	_, err := s.do(ctx, command{typ: cmdStart})
	return err
}

// Pause freezes the session clocks.
func (s *Service) Pause(ctx context.Context) error {
	_, err := s.do(ctx, command{typ: cmdPause})
	return err
}

// Resume restarts the clocks where they left off.
func (s *Service) Resume(ctx context.Context) error {
	_, err := s.do(ctx, command{typ: cmdResume})
	return err
}

// Reset cancels all schedules and returns the session to setup.
func (s *Service) Reset(ctx context.Context) error {
	_, err := s.do(ctx, command{typ: cmdReset})
	return err
}

// PlaceTrade sets the human stance for the current round.
func (s *Service) PlaceTrade(ctx context.Context, stance trader.Stance) error {
	_, err := s.do(ctx, command{typ: cmdPlaceTrade, stance: stance})
	return err
}

// OpenPosition opens a leveraged position for the human player.
func (s *Service) OpenPosition(ctx context.Context, size, leverage, stopLoss, takeProfit float64) (ledger.Position, error) {
	resp, err := s.do(ctx, command{
		typ:        cmdOpenPosition,
		size:       size,
		leverage:   leverage,
		stopLoss:   stopLoss,
		takeProfit: takeProfit,
	})
	return resp.pos, err
}

// ClosePosition realizes a position at the current price.
func (s *Service) ClosePosition(ctx context.Context, id string) (ledger.Position, error) {
	resp, err := s.do(ctx, command{typ: cmdClosePosition, id: id})
	return resp.pos, err
}

// InjectShock pushes a news shock into the price walk.
func (s *Service) InjectShock(ctx context.Context, headline string, bias float64, ticks int) error {
	_, err := s.do(ctx, command{typ: cmdInjectShock, headline: headline, bias: bias, ticks: ticks})
	return err
}

// Snapshot returns the current session view.
func (s *Service) Snapshot(ctx context.Context) (core.Snapshot, error) {
	resp, err := s.do(ctx, command{typ: cmdSnapshot})
	return resp.snap, err
}

// Events returns the subscriber event channel.
func (s *Service) Events() <-chan core.Event {
	return s.externalEvents
}

// DroppedEvents returns the count of events dropped on the subscriber
// channel.
func (s *Service) DroppedEvents() int64 {
	return s.droppedEvents.Load()
}

// Close shuts the service down and waits for its goroutines.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
	})
	s.wg.Wait()
}
