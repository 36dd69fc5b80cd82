package httpapi

import (
	"github.com/zappabad/bullbear/internal/ledger"
	"github.com/zappabad/bullbear/internal/session/core"
)

// Wire shapes for snapshot and position payloads. Internal types carry no
// JSON tags, so the mapping lives here.

type positionJSON struct {
	ID         string  `json:"id"`
	Owner      string  `json:"owner"`
	EntryPrice float64 `json:"entryPrice"`
	Size       float64 `json:"size"`
	Leverage   float64 `json:"leverage"`
	StopLoss   float64 `json:"stopLoss,omitempty"`
	TakeProfit float64 `json:"takeProfit,omitempty"`
	Status     string  `json:"status"`
	ExitPrice  float64 `json:"exitPrice,omitempty"`
	PnL        float64 `json:"pnl"`
	OpenedAt   int64   `json:"openedAt"`
	ClosedAt   int64   `json:"closedAt,omitempty"`
}

func positionToJSON(p ledger.Position) positionJSON {
	return positionJSON{
		ID:         p.ID,
		Owner:      p.Owner,
		EntryPrice: p.EntryPrice,
		Size:       p.Size,
		Leverage:   p.Leverage,
		StopLoss:   p.StopLoss,
		TakeProfit: p.TakeProfit,
		Status:     p.Status.String(),
		ExitPrice:  p.ExitPrice,
		PnL:        p.PnL,
		OpenedAt:   p.OpenedAt,
		ClosedAt:   p.ClosedAt,
	}
}

type tickJSON struct {
	Time  int64   `json:"time"`
	Price float64 `json:"price"`
}

type playerJSON struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Kind      string         `json:"kind"`
	Stance    string         `json:"stance"`
	Balance   float64        `json:"balance"`
	Score     float64        `json:"score"`
	Wins      int            `json:"wins"`
	Losses    int            `json:"losses"`
	Positions []positionJSON `json:"positions,omitempty"`
}

type roundJSON struct {
	Index           int `json:"index"`
	DurationSeconds int `json:"durationSeconds"`
	TimeRemaining   int `json:"timeRemaining"`
}

type snapshotJSON struct {
	State      string       `json:"state"`
	Mode       string       `json:"mode"`
	Difficulty string       `json:"difficulty"`
	Asset      string       `json:"asset"`
	Round      roundJSON    `json:"round"`
	MaxRounds  int          `json:"maxRounds"`
	Price      float64      `json:"price"`
	Regime     string       `json:"regime"`
	History    []tickJSON   `json:"history"`
	Players    []playerJSON `json:"players"`
}

func snapshotToJSON(s core.Snapshot) snapshotJSON {
	out := snapshotJSON{
		State:      s.State.String(),
		Mode:       s.Mode.String(),
		Difficulty: s.Difficulty.String(),
		Asset:      s.Asset,
		Round: roundJSON{
			Index:           s.Round.Index,
			DurationSeconds: s.Round.DurationSeconds,
			TimeRemaining:   s.Round.TimeRemaining,
		},
		MaxRounds: s.MaxRounds,
		Price:     s.Price,
		Regime:    s.Regime.String(),
		History:   make([]tickJSON, 0, len(s.History)),
		Players:   make([]playerJSON, 0, len(s.Players)),
	}
	for _, t := range s.History {
		out.History = append(out.History, tickJSON{Time: t.Time, Price: t.Price})
	}
	for _, pv := range s.Players {
		pj := playerJSON{
			ID:      pv.ID,
			Name:    pv.Name,
			Kind:    pv.Kind.String(),
			Stance:  pv.Stance.String(),
			Balance: pv.Balance,
			Score:   pv.Score,
			Wins:    pv.Wins,
			Losses:  pv.Losses,
		}
		for _, pos := range pv.OpenPositions {
			pj.Positions = append(pj.Positions, positionToJSON(pos))
		}
		out.Players = append(out.Players, pj)
	}
	return out
}
