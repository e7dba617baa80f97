package engine

import (
	"time"

	"github.com/rustyeddy/breakout/strategy"
)

type State int

const (
	Flat State = iota
	Positioned
)

func (s State) String() string {
	if s == Positioned {
		return "positioned"
	}
	return "flat"
}

// Position is the engine's in-memory record of an open long. It is
// authoritative even when order placement fails.
type Position struct {
	TradeID    string
	Quantity   int64
	EntryPrice float64
	// EntryValue is quantity * entry price, kept so exit P&L does not
	// depend on recomputing it.
	EntryValue float64
	EntryTime  time.Time
}

func (p Position) Open() bool { return p.Quantity > 0 }

// Snapshot is a point-in-time copy of engine state for status surfaces.
type Snapshot struct {
	Ticker            string
	State             State
	Params            strategy.Params
	Position          Position
	Capital           float64
	LastBar           time.Time
	LastRecalibration time.Time
}
