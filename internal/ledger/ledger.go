// Package ledger owns every open and closed position in a session and is
// the only component allowed to move balances for position PnL. The Book is
// deterministic: no goroutines, no locks, no time calls. The session engine
// serializes access.
package ledger

import (
	"github.com/google/uuid"

	"github.com/zappabad/bullbear/internal/trader"
)

// Book tracks positions for all registered players.
type Book struct {
	players map[string]*trader.Player
	open    map[string]*Position
	closed  map[string][]*Position

	// order preserves insertion order of open positions so EvaluateTick
	// walks them deterministically.
	order []string
}

// NewBook creates an empty Book.
func NewBook() *Book {
	b := &Book{}
	b.Reset()
	return b
}

// Register makes a player's balance visible to the ledger. Registering the
// same id again replaces the reference.
func (b *Book) Register(p *trader.Player) {
	b.players[p.ID] = p
}

// Reset drops all players and positions.
func (b *Book) Reset() {
	b.players = make(map[string]*trader.Player)
	b.open = make(map[string]*Position)
	b.closed = make(map[string][]*Position)
	b.order = b.order[:0]
}

// Open creates a position for owner at entryPrice. Size is signed
// (+long/-short), leverage >= 1. It rejects with ErrInsufficientFunds when
// the required margin |size|*entry/leverage exceeds the owner's balance.
// Rejection mutates nothing.
func (b *Book) Open(owner string, size, leverage, stopLoss, takeProfit, entryPrice float64, now int64) (*Position, error) {
	pl, ok := b.players[owner]
	if !ok {
		return nil, ErrUnknownOwner
	}
	if size == 0 || leverage < 1 || entryPrice <= 0 {
		return nil, ErrInvalidPosition
	}
	if stopLoss < 0 || takeProfit < 0 {
		return nil, ErrInvalidPosition
	}

	pos := &Position{
		ID:         uuid.NewString(),
		Owner:      owner,
		EntryPrice: entryPrice,
		Size:       size,
		Leverage:   leverage,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
		Status:     StatusOpen,
		OpenedAt:   now,
	}
	if pos.Margin() > pl.Balance {
		return nil, ErrInsufficientFunds
	}

	b.open[pos.ID] = pos
	b.order = append(b.order, pos.ID)
	return pos, nil
}

// Close realizes a position at price and credits the PnL to the owner's
// balance, clamping at zero. Closing an unknown id is ErrNotFound; an id
// already settled is ErrAlreadyClosed.
func (b *Book) Close(id string, price float64, now int64) (*Position, error) {
	pos, ok := b.open[id]
	if !ok {
		if b.isSettled(id) {
			return nil, ErrAlreadyClosed
		}
		return nil, ErrNotFound
	}
	b.settle(pos, price, StatusClosed, now)
	return pos, nil
}

func (b *Book) isSettled(id string) bool {
	for _, positions := range b.closed {
		for _, p := range positions {
			if p.ID == id {
				return true
			}
		}
	}
	return false
}

// settle moves pos out of the open set, records exit price and PnL, and
// applies the PnL to the owner's balance (never below zero).
func (b *Book) settle(pos *Position, price float64, status Status, now int64) {
	pos.Status = status
	pos.ExitPrice = price
	pos.PnL = pos.UnrealizedPnL(price)
	pos.ClosedAt = now

	delete(b.open, pos.ID)
	for i, id := range b.order {
		if id == pos.ID {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	b.closed[pos.Owner] = append(b.closed[pos.Owner], pos)

	if pl, ok := b.players[pos.Owner]; ok {
		pl.Balance += pos.PnL
		if pl.Balance < 0 {
			pl.Balance = 0
		}
	}
}

// EvaluateTick marks every open position to price and auto-closes the ones
// that trigger. Per position the checks run in a fixed order: liquidation
// (balance + unrealized PnL <= 0, status Liquidated, balance clamped to 0),
// then stop-loss, then take-profit. Returns the triggers in evaluation
// order.
func (b *Book) EvaluateTick(price float64, now int64) []Trigger {
	if price <= 0 {
		return nil
	}

	var triggers []Trigger
	// Snapshot the order slice: settle() mutates it mid-walk.
	ids := make([]string, len(b.order))
	copy(ids, b.order)

	for _, id := range ids {
		pos, ok := b.open[id]
		if !ok {
			continue
		}
		pl, ok := b.players[pos.Owner]
		if !ok {
			continue
		}

		if pl.Balance+pos.UnrealizedPnL(price) <= 0 {
			b.settle(pos, price, StatusLiquidated, now)
			pl.Balance = 0
			triggers = append(triggers, Trigger{Kind: TriggerLiquidation, Position: *pos})
			continue
		}
		if b.stopLossHit(pos, price) {
			b.settle(pos, price, StatusClosed, now)
			triggers = append(triggers, Trigger{Kind: TriggerStopLoss, Position: *pos})
			continue
		}
		if b.takeProfitHit(pos, price) {
			b.settle(pos, price, StatusClosed, now)
			triggers = append(triggers, Trigger{Kind: TriggerTakeProfit, Position: *pos})
		}
	}
	return triggers
}

func (b *Book) stopLossHit(pos *Position, price float64) bool {
	if pos.StopLoss == 0 {
		return false
	}
	if pos.Size > 0 {
		return price <= pos.StopLoss
	}
	return price >= pos.StopLoss
}

func (b *Book) takeProfitHit(pos *Position, price float64) bool {
	if pos.TakeProfit == 0 {
		return false
	}
	if pos.Size > 0 {
		return price >= pos.TakeProfit
	}
	return price <= pos.TakeProfit
}

// Get returns a copy of the position with the given id, open or settled.
func (b *Book) Get(id string) (Position, error) {
	if pos, ok := b.open[id]; ok {
		return *pos, nil
	}
	for _, positions := range b.closed {
		for _, p := range positions {
			if p.ID == id {
				return *p, nil
			}
		}
	}
	return Position{}, ErrNotFound
}

// OpenPositions returns copies of owner's open positions in open order.
func (b *Book) OpenPositions(owner string) []Position {
	var out []Position
	for _, id := range b.order {
		pos := b.open[id]
		if pos != nil && pos.Owner == owner {
			out = append(out, *pos)
		}
	}
	return out
}

// ClosedPositions returns copies of owner's settled positions in close order.
func (b *Book) ClosedPositions(owner string) []Position {
	src := b.closed[owner]
	out := make([]Position, len(src))
	for i, p := range src {
		out[i] = *p
	}
	return out
}

// OpenCount is the number of open positions across all players.
func (b *Book) OpenCount() int { return len(b.open) }

// UnrealizedPnL sums owner's open-position PnL at price.
func (b *Book) UnrealizedPnL(owner string, price float64) float64 {
	var total float64
	for _, pos := range b.open {
		if pos.Owner == owner {
			total += pos.UnrealizedPnL(price)
		}
	}
	return total
}
