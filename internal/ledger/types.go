package ledger

import "errors"

var (
	ErrInvalidPosition   = errors.New("invalid position parameters")
	ErrInsufficientFunds = errors.New("insufficient funds for required margin")
	ErrNotFound          = errors.New("position not found")
	ErrAlreadyClosed     = errors.New("position already closed")
	ErrUnknownOwner      = errors.New("unknown position owner")
)

// Status is a position's lifecycle state.
type Status uint8

const (
	StatusOpen Status = iota
	StatusClosed
	StatusLiquidated
)

func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "OPEN"
	case StatusClosed:
		return "CLOSED"
	case StatusLiquidated:
		return "LIQUIDATED"
	default:
		return "UNKNOWN"
	}
}

// Position is a leveraged long or short exposure. Size is signed: positive
// is long, negative is short; the sign never changes after creation.
// StopLoss and TakeProfit of 0 mean "not set".
type Position struct {
	ID         string
	Owner      string
	EntryPrice float64
	Size       float64
	Leverage   float64
	StopLoss   float64
	TakeProfit float64

	Status    Status
	ExitPrice float64
	PnL       float64

	OpenedAt int64
	ClosedAt int64
}

// UnrealizedPnL is the mark-to-market PnL at price; the sign of Size
// encodes direction.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return (price - p.EntryPrice) * p.Size
}

// Margin is the balance a position of this size and leverage reserves.
func (p *Position) Margin() float64 {
	size := p.Size
	if size < 0 {
		size = -size
	}
	return size * p.EntryPrice / p.Leverage
}

// TriggerKind says why EvaluateTick force-closed a position. The evaluation
// order per position is fixed: liquidation, then stop-loss, then
// take-profit, so simultaneous triggers resolve deterministically.
type TriggerKind uint8

const (
	TriggerLiquidation TriggerKind = iota
	TriggerStopLoss
	TriggerTakeProfit
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerLiquidation:
		return "LIQUIDATION"
	case TriggerStopLoss:
		return "STOP_LOSS"
	case TriggerTakeProfit:
		return "TAKE_PROFIT"
	default:
		return "UNKNOWN"
	}
}

// Trigger reports one auto-close performed by EvaluateTick.
type Trigger struct {
	Kind     TriggerKind
	Position Position // copy taken after the close
}
