// Package strategy holds the volume breakout rule and its parameter sets.
// The backtest simulator and the live engine evaluate entries and exits
// through the same two functions, so replayed and live behavior cannot
// drift apart.
package strategy

import "github.com/rustyeddy/breakout/market"

// Entry describes a fired breakout entry at a bar's close.
type Entry struct {
	Price float64 // entry price (bar close)
	Level float64 // rolling high that was broken
	VolMA float64 // rolling mean volume over the same window
}

// Exit reasons as recorded in the trade ledger.
const (
	ReasonTakeProfit = "TakeProfit"
	ReasonStopLoss   = "StopLoss"
)

// Exit describes a fired position exit.
type Exit struct {
	Reason string
	Change float64 // close/entry - 1
}

func (e Exit) Win() bool { return e.Reason == ReasonTakeProfit }

// EntryAt evaluates the entry rule at bar index i of s. The rolling high
// of closes and the rolling mean volume are computed from the window
// strictly before i. The entry fires iff the close breaks the high by at
// least delta and the bar's volume exceeds the window's average.
func EntryAt(s *market.Series, p Params, i int) (Entry, bool) {
	hiLvl, ok := s.PriorMax(market.Close, p.Lookback, i)
	if !ok {
		return Entry{}, false
	}
	volMA, ok := s.PriorMean(market.Volume, p.Lookback, i)
	if !ok {
		return Entry{}, false
	}

	b := s.At(i)
	if b.Close <= hiLvl {
		return Entry{}, false
	}
	if (b.Close-hiLvl)/hiLvl < p.Delta {
		return Entry{}, false
	}
	if b.Volume <= volMA {
		return Entry{}, false
	}

	return Entry{Price: b.Close, Level: hiLvl, VolMA: volMA}, true
}

// EvalEntry evaluates the entry rule at the most recent bar of s.
func EvalEntry(s *market.Series, p Params) (Entry, bool) {
	if s.Len() == 0 {
		return Entry{}, false
	}
	return EntryAt(s, p, s.Len()-1)
}

// EvalExit evaluates the exit rule for an open position entered at
// entryPrice against a bar close.
func EvalExit(entryPrice, close float64, p Params) (Exit, bool) {
	change := close/entryPrice - 1
	switch {
	case change >= p.TakeProfit:
		return Exit{Reason: ReasonTakeProfit, Change: change}, true
	case change <= -p.StopLoss:
		return Exit{Reason: ReasonStopLoss, Change: change}, true
	}
	return Exit{}, false
}
