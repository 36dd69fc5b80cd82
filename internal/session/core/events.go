package core

import (
	"github.com/zappabad/bullbear/internal/ledger"
	"github.com/zappabad/bullbear/internal/market"
)

// Event is the sealed session event type.
type Event interface {
	isEvent()
}

// StateChangedEvent fires on every lifecycle transition.
type StateChangedEvent struct {
	From State
	To   State
}

func (StateChangedEvent) isEvent() {}

// SessionInitializedEvent fires once per initializeGame.
type SessionInitializedEvent struct {
	Players int
	Asset   string
}

func (SessionInitializedEvent) isEvent() {}

// PriceTickedEvent carries each new market tick and the regime derived
// from it.
type PriceTickedEvent struct {
	Tick   market.Tick
	Regime market.Regime
}

func (PriceTickedEvent) isEvent() {}

// ShockInjectedEvent fires when a news shock starts biasing the walk.
type ShockInjectedEvent struct {
	Headline string
	Bias     float64
	Ticks    int
}

func (ShockInjectedEvent) isEvent() {}

// PositionOpenedEvent fires on a successful open order.
type PositionOpenedEvent struct {
	Position ledger.Position
}

func (PositionOpenedEvent) isEvent() {}

// PositionClosedEvent fires when a position settles, whether by command or
// by a ledger trigger. Trigger is nil for manual closes.
type PositionClosedEvent struct {
	Position ledger.Position
	Trigger  *ledger.TriggerKind
}

func (PositionClosedEvent) isEvent() {}

// RoundSettledEvent carries the per-player outcomes of one settlement.
type RoundSettledEvent struct {
	Round    int
	Regime   market.Regime
	Outcomes []Outcome
}

func (RoundSettledEvent) isEvent() {}

// RoundAdvancedEvent fires when the next round arms.
type RoundAdvancedEvent struct {
	Round Round
}

func (RoundAdvancedEvent) isEvent() {}

// GameOverEvent carries the final standings.
type GameOverEvent struct {
	Standings []Standing
}

func (GameOverEvent) isEvent() {}
