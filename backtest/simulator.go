// Package backtest replays bar history through the breakout rule and
// searches the parameter grid for the best realized return.
package backtest

import (
	"time"

	"github.com/rustyeddy/breakout/market"
	"github.com/rustyeddy/breakout/risk"
	"github.com/rustyeddy/breakout/strategy"
)

type Config struct {
	InitialCapital float64
	Commission     float64 // fraction of notional, charged on entry and exit
	RiskPct        float64 // risk fraction per trade
}

// Trade is one completed round trip in the simulated ledger.
type Trade struct {
	EntryTime  time.Time
	ExitTime   time.Time
	Quantity   int64
	EntryPrice float64
	ExitPrice  float64
	RealizedPL float64 // net of exit commission
	Commission float64 // entry + exit commission paid
	Reason     string
}

type Summary struct {
	ReturnPct  float64 // (end capital / initial capital - 1) * 100
	Trades     int
	Wins       int
	Losses     int
	EndCapital float64
}

type Simulator struct {
	cfg Config
}

func NewSimulator(cfg Config) *Simulator {
	return &Simulator{cfg: cfg}
}

// Run replays s chronologically under one parameter set. Per bar the exit
// check runs first; a bar that closes a position is consumed by the exit,
// the next entry is evaluated no earlier than the following bar, matching
// the live engine. The replay is deterministic: same series and params
// always produce an identical ledger.
func (sim *Simulator) Run(s *market.Series, p strategy.Params) ([]Trade, Summary) {
	capital := sim.cfg.InitialCapital

	var (
		trades []Trade
		sum    Summary

		qty       int64
		entryPx   float64
		entryVal  float64
		entryFee  float64
		entryTime time.Time
	)

	for i := 0; i < s.Len(); i++ {
		b := s.At(i)

		if qty > 0 {
			if ex, ok := strategy.EvalExit(entryPx, b.Close, p); ok {
				proceeds := b.Close * float64(qty)
				exitFee := proceeds * sim.cfg.Commission
				pnl := (proceeds - entryVal) - exitFee
				capital += pnl

				trades = append(trades, Trade{
					EntryTime:  entryTime,
					ExitTime:   b.Time,
					Quantity:   qty,
					EntryPrice: entryPx,
					ExitPrice:  b.Close,
					RealizedPL: pnl,
					Commission: entryFee + exitFee,
					Reason:     ex.Reason,
				})
				if ex.Win() {
					sum.Wins++
				} else {
					sum.Losses++
				}
				qty = 0
				continue
			}
		}

		if qty == 0 {
			ent, ok := strategy.EntryAt(s, p, i)
			if !ok {
				continue
			}
			size := risk.Calculate(risk.Inputs{
				Capital:  capital,
				RiskPct:  sim.cfg.RiskPct,
				Price:    ent.Price,
				StopLoss: p.StopLoss,
			})
			if size.Quantity <= 0 {
				continue
			}

			qty = size.Quantity
			entryPx = ent.Price
			entryVal = float64(qty) * ent.Price
			entryFee = entryVal * sim.cfg.Commission
			entryTime = b.Time
			capital -= entryFee
		}
	}

	sum.Trades = len(trades)
	sum.EndCapital = capital
	if sim.cfg.InitialCapital > 0 {
		sum.ReturnPct = (capital/sim.cfg.InitialCapital - 1) * 100
	}
	return trades, sum
}
