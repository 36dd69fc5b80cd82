package trader

// Stance is a player's declared trading intention for the current round.
type Stance uint8

const (
	StanceNeutral Stance = iota
	StanceBuy
	StanceSell
)

func (s Stance) String() string {
	switch s {
	case StanceBuy:
		return "BUY"
	case StanceSell:
		return "SELL"
	case StanceNeutral:
		return "NEUTRAL"
	default:
		return "UNKNOWN"
	}
}

// ParseStance maps a user-supplied string onto a Stance.
func ParseStance(s string) (Stance, bool) {
	switch s {
	case "buy", "BUY":
		return StanceBuy, true
	case "sell", "SELL":
		return StanceSell, true
	case "neutral", "NEUTRAL":
		return StanceNeutral, true
	default:
		return StanceNeutral, false
	}
}

// Kind tags a player as the human or an AI trader. Both kinds share the
// same Player record; there are no divergent code paths.
type Kind uint8

const (
	KindHuman Kind = iota
	KindAI
)

func (k Kind) String() string {
	if k == KindHuman {
		return "HUMAN"
	}
	return "AI"
}

// Type is an AI trader's temperament, driving its base probability table.
type Type uint8

const (
	TypeBull Type = iota
	TypeBear
)

func (t Type) String() string {
	if t == TypeBull {
		return "BULL"
	}
	return "BEAR"
}

// Strategy transforms an AI trader's base probability table.
type Strategy uint8

const (
	StrategyTrendFollower Strategy = iota
	StrategyContrarian
	StrategyRandom
)

func (s Strategy) String() string {
	switch s {
	case StrategyTrendFollower:
		return "TREND_FOLLOWER"
	case StrategyContrarian:
		return "CONTRARIAN"
	case StrategyRandom:
		return "RANDOM"
	default:
		return "UNKNOWN"
	}
}

// Player is the canonical per-session trader record, human and AI alike.
// It is mutated only by the session engine and the position ledger.
type Player struct {
	ID   string
	Name string
	Kind Kind

	// Type and Strategy are meaningful for AI players only.
	Type     Type
	Strategy Strategy

	Balance        float64
	InitialBalance float64

	Stance Stance
	Score  float64
	Wins   int
	Losses int
}

// NewHuman creates the session's human player.
func NewHuman(id, name string, balance float64) *Player {
	return &Player{
		ID:             id,
		Name:           name,
		Kind:           KindHuman,
		Balance:        balance,
		InitialBalance: balance,
	}
}

// NewAI creates one AI trader.
func NewAI(id, name string, typ Type, strat Strategy, balance float64) *Player {
	return &Player{
		ID:             id,
		Name:           name,
		Kind:           KindAI,
		Type:           typ,
		Strategy:       strat,
		Balance:        balance,
		InitialBalance: balance,
	}
}
