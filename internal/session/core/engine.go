// Package core is the round state machine: the one orchestrator that pulls
// price ticks, asks the AI policy for stances, settles rounds through the
// position ledger and drives the scoreboard. It is deterministic given its
// RNG and timestamps, has no goroutines and makes no time calls; the
// session service owns the timers and serializes every call.
package core

import (
	"fmt"

	"github.com/zappabad/bullbear/internal/ledger"
	"github.com/zappabad/bullbear/internal/market"
	"github.com/zappabad/bullbear/internal/market/sim"
	"github.com/zappabad/bullbear/internal/score"
	"github.com/zappabad/bullbear/internal/trader"
	"github.com/zappabad/bullbear/internal/trader/policy"
)

// Config holds the session rules.
type Config struct {
	Asset          string
	Difficulty     Difficulty
	Mode           Mode
	MaxRounds      int
	RoundSeconds   int
	AICount        int
	InitialBalance float64

	// WinPayout and LossPenalty are the flat settlement amounts. The
	// canonical rule is flat +100/-50 regardless of difficulty; difficulty
	// scales volatility and tick rate instead.
	WinPayout   float64
	LossPenalty float64

	// Sim is the base walk configuration; its volatility is scaled by the
	// difficulty at construction.
	Sim   sim.Config
	Score score.Config
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		Asset:          "BTC",
		Difficulty:     DifficultyMedium,
		Mode:           ModeClassic,
		MaxRounds:      10,
		RoundSeconds:   30,
		AICount:        5,
		InitialBalance: 10000,
		WinPayout:      100,
		LossPenalty:    50,
		Sim:            sim.DefaultConfig(),
		Score:          score.DefaultConfig(),
	}
}

var aiStrategies = []trader.Strategy{
	trader.StrategyTrendFollower,
	trader.StrategyContrarian,
	trader.StrategyRandom,
}

// Engine is the session root. All mutation goes through its methods.
type Engine struct {
	cfg Config
	rng sim.RNG

	state       State
	initialized bool
	round       Round

	sim    *sim.Simulator
	book   *ledger.Book
	policy *policy.Policy
	board  *score.Board

	players []*trader.Player // human first, then AI in creation order
	human   *trader.Player

	roundsSettled int
}

// NewEngine builds an Engine in Setup. board's submitter wiring stays with
// the caller; pass the Board so hosts can share it.
func NewEngine(cfg Config, rng sim.RNG, board *score.Board) *Engine {
	simCfg := cfg.Sim
	simCfg.Volatility *= cfg.Difficulty.VolatilityScale()
	if board == nil {
		board = score.NewBoard(cfg.Score, nil)
	}
	return &Engine{
		cfg:    cfg,
		rng:    rng,
		state:  StateSetup,
		sim:    sim.New(simCfg, rng),
		book:   ledger.NewBook(),
		policy: policy.New(rng),
		board:  board,
	}
}

func (e *Engine) transition(to State) Event {
	ev := StateChangedEvent{From: e.state, To: to}
	e.state = to
	return ev
}

// Initialize creates the human player and the AI batch. Only callable from
// Setup, once per session.
func (e *Engine) Initialize(playerName string) ([]Event, error) {
	if e.state != StateSetup {
		return nil, ErrBadState
	}
	if e.initialized {
		return nil, ErrBadState
	}
	if playerName == "" {
		playerName = "You"
	}

	e.human = trader.NewHuman("human", playerName, e.cfg.InitialBalance)
	e.players = []*trader.Player{e.human}
	e.book.Register(e.human)

	for i := 0; i < e.cfg.AICount; i++ {
		typ := trader.TypeBull
		name := fmt.Sprintf("Bull-%d", i/2+1)
		if i%2 == 1 {
			typ = trader.TypeBear
			name = fmt.Sprintf("Bear-%d", i/2+1)
		}
		strat := aiStrategies[i%len(aiStrategies)]
		ai := trader.NewAI(fmt.Sprintf("ai-%d", i+1), name, typ, strat, e.cfg.InitialBalance)
		e.players = append(e.players, ai)
		e.book.Register(ai)
	}

	e.round = Round{
		Index:           1,
		DurationSeconds: e.cfg.RoundSeconds,
		TimeRemaining:   e.cfg.RoundSeconds,
	}
	e.initialized = true

	return []Event{SessionInitializedEvent{Players: len(e.players), Asset: e.cfg.Asset}}, nil
}

// Start activates an initialized session.
func (e *Engine) Start() ([]Event, error) {
	if e.state != StateSetup {
		return nil, ErrBadState
	}
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	return []Event{e.transition(StateActive)}, nil
}

// Pause freezes the round timer. TimeRemaining is preserved exactly.
func (e *Engine) Pause() ([]Event, error) {
	if e.state != StateActive {
		return nil, ErrBadState
	}
	return []Event{e.transition(StatePaused)}, nil
}

// Resume continues a paused session without fast-forwarding time.
func (e *Engine) Resume() ([]Event, error) {
	if e.state != StatePaused {
		return nil, ErrBadState
	}
	return []Event{e.transition(StateActive)}, nil
}

// Reset tears the whole session down and returns to Setup. The walk, the
// ledger and all players are discarded.
func (e *Engine) Reset() []Event {
	var events []Event
	if e.state != StateSetup {
		events = append(events, e.transition(StateSetup))
	}
	e.sim.Reset(nil, 0)
	e.book.Reset()
	e.players = nil
	e.human = nil
	e.initialized = false
	e.round = Round{}
	e.roundsSettled = 0
	return events
}

// PlaceTrade sets the human stance for the current round.
func (e *Engine) PlaceTrade(stance trader.Stance) error {
	if e.state != StateActive {
		return ErrBadState
	}
	e.human.Stance = stance
	return nil
}

// OpenPosition opens a leveraged position for the human at the current
// market price.
func (e *Engine) OpenPosition(size, leverage, stopLoss, takeProfit float64, now int64) (ledger.Position, []Event, error) {
	if e.state != StateActive {
		return ledger.Position{}, nil, ErrBadState
	}
	pos, err := e.book.Open(e.human.ID, size, leverage, stopLoss, takeProfit, e.sim.Price(), now)
	if err != nil {
		return ledger.Position{}, nil, err
	}
	return *pos, []Event{PositionOpenedEvent{Position: *pos}}, nil
}

// ClosePosition realizes a position at the current market price.
func (e *Engine) ClosePosition(id string, now int64) (ledger.Position, []Event, error) {
	if e.state != StateActive {
		return ledger.Position{}, nil, ErrBadState
	}
	pos, err := e.book.Close(id, e.sim.Price(), now)
	if err != nil {
		return ledger.Position{}, nil, err
	}
	return *pos, []Event{PositionClosedEvent{Position: *pos}}, nil
}

// InjectShock pushes a news shock into the walk.
func (e *Engine) InjectShock(headline string, bias float64, ticks int) ([]Event, error) {
	if e.state != StateActive {
		return nil, ErrBadState
	}
	e.sim.InjectShock(bias, ticks)
	return []Event{ShockInjectedEvent{Headline: headline, Bias: bias, Ticks: ticks}}, nil
}

// PriceTick advances the walk one step and re-evaluates every open
// position. No-op outside Active.
func (e *Engine) PriceTick(now int64) []Event {
	if e.state != StateActive {
		return nil
	}
	tick := e.sim.Tick(now)
	return e.afterTick(tick, now)
}

// ApplyExternalTick absorbs a tick from the market-data collaborator
// instead of simulating one. No-op outside Active.
func (e *Engine) ApplyExternalTick(t market.Tick, now int64) []Event {
	if e.state != StateActive {
		return nil
	}
	tick := e.sim.Absorb(t)
	return e.afterTick(tick, now)
}

func (e *Engine) afterTick(tick market.Tick, now int64) []Event {
	events := []Event{PriceTickedEvent{Tick: tick, Regime: e.sim.Regime()}}
	for _, tr := range e.book.EvaluateTick(tick.Price, now) {
		kind := tr.Kind
		events = append(events, PositionClosedEvent{Position: tr.Position, Trigger: &kind})
	}
	return events
}

// RoundTick is the per-second timer entry point. It decrements
// TimeRemaining while Active and settles the round when it reaches zero.
func (e *Engine) RoundTick(now int64) []Event {
	if e.state != StateActive {
		return nil
	}
	e.round.TimeRemaining--
	if e.round.TimeRemaining > 0 {
		return nil
	}
	return e.settle(now)
}

// settle runs the end-of-round sequence: regime first, then AI decisions,
// then balance mutations, strictly in that order.
func (e *Engine) settle(now int64) []Event {
	events := []Event{e.transition(StateSettling)}

	regime := e.sim.Regime()

	for _, p := range e.players {
		if p.Kind == trader.KindAI {
			p.Stance = e.policy.Decide(p, regime)
		}
	}

	outcomes := make([]Outcome, 0, len(e.players))
	for _, p := range e.players {
		outcome := Outcome{PlayerID: p.ID, Stance: p.Stance}
		switch {
		case p.Stance == trader.StanceNeutral:
			outcome.Result = ResultFlat
		case stanceMatchesRegime(p.Stance, regime):
			outcome.Result = ResultWin
			outcome.Delta = e.cfg.WinPayout
			p.Balance += e.cfg.WinPayout
			p.Wins++
		default:
			outcome.Result = ResultLoss
			outcome.Delta = -e.cfg.LossPenalty
			p.Balance -= e.cfg.LossPenalty
			if p.Balance < 0 {
				p.Balance = 0
			}
			p.Losses++
		}
		p.Stance = trader.StanceNeutral
		outcomes = append(outcomes, outcome)
	}

	e.roundsSettled++
	e.board.RecomputeAll(e.players)
	events = append(events, RoundSettledEvent{Round: e.round.Index, Regime: regime, Outcomes: outcomes})

	// The settled regime feeds back into the walk as the next round's bias.
	e.sim.SetTrendBias(regimeBias(regime))

	if e.cfg.Mode == ModeClassic && e.round.Index+1 > e.cfg.MaxRounds {
		events = append(events, e.transition(StateGameOver))
		events = append(events, GameOverEvent{Standings: e.standings()})
		return events
	}

	e.round.Index++
	e.round.TimeRemaining = e.round.DurationSeconds
	events = append(events, e.transition(StateActive))
	events = append(events, RoundAdvancedEvent{Round: e.round})
	return events
}

// stanceMatchesRegime is the payout rule: buy wins under bullish, sell wins
// under bearish; everything else a non-neutral stance meets is a loss.
func stanceMatchesRegime(s trader.Stance, r market.Regime) bool {
	return (s == trader.StanceBuy && r == market.RegimeBullish) ||
		(s == trader.StanceSell && r == market.RegimeBearish)
}

// regimeBias maps a settled regime onto a walk direction. Neutral and
// volatile regimes leave the walk unbiased.
func regimeBias(r market.Regime) market.Bias {
	switch r {
	case market.RegimeBullish:
		return market.BiasUp
	case market.RegimeBearish:
		return market.BiasDown
	default:
		return market.BiasFlat
	}
}

func (e *Engine) standings() []Standing {
	ranked := score.Rank(e.players)
	out := make([]Standing, len(ranked))
	for i, p := range ranked {
		out[i] = Standing{
			PlayerID: p.ID,
			Name:     p.Name,
			Kind:     p.Kind,
			Score:    p.Score,
			Balance:  p.Balance,
			Wins:     p.Wins,
			Losses:   p.Losses,
		}
	}
	return out
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Human returns the human player, nil before Initialize.
func (e *Engine) Human() *trader.Player { return e.human }

// RoundsSettled is how many settlements have run this session.
func (e *Engine) RoundsSettled() int { return e.roundsSettled }

// Snapshot builds the read-only view hosts render from.
func (e *Engine) Snapshot() Snapshot {
	snap := Snapshot{
		State:      e.state,
		Mode:       e.cfg.Mode,
		Difficulty: e.cfg.Difficulty,
		Asset:      e.cfg.Asset,
		Round:      e.round,
		MaxRounds:  e.cfg.MaxRounds,
		Price:      e.sim.Price(),
		Regime:     e.sim.Regime(),
		History:    e.sim.History(120),
	}
	for _, p := range e.players {
		snap.Players = append(snap.Players, PlayerView{
			Player:        *p,
			OpenPositions: e.book.OpenPositions(p.ID),
		})
	}
	return snap
}
