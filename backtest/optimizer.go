package backtest

import (
	"errors"
	"fmt"
	"math"

	"github.com/rustyeddy/breakout/market"
	"github.com/rustyeddy/breakout/strategy"
)

// ErrInsufficientData is returned when the series holds fewer bars than
// the grid's largest lookback: every cell would trivially produce zero
// trades, which is indistinguishable from a flat-but-valid outcome.
var ErrInsufficientData = errors.New("not enough bars for largest lookback")

// OptimizationResult is the score of one grid cell. Trade counts are kept
// so a zero-trade winner stays observable to operators.
type OptimizationResult struct {
	Params    strategy.Params
	ReturnPct float64
	Trades    int
	Wins      int
	Losses    int
}

func (r OptimizationResult) String() string {
	return fmt.Sprintf("%s ret=%.2f%% trades=%d (win %d / loss %d)",
		r.Params, r.ReturnPct, r.Trades, r.Wins, r.Losses)
}

type Optimizer struct {
	Sim  Config
	Grid strategy.Grid
}

// Optimize runs the simulator over the full Cartesian product of the grid
// and returns the cell with the highest return. The search is exhaustive
// and the comparison strict, so given the same data the selected set is
// stable across runs and ties go to the first-seen combination.
func (o Optimizer) Optimize(s *market.Series) (OptimizationResult, error) {
	if o.Grid.Size() == 0 {
		return OptimizationResult{}, errors.New("empty parameter grid")
	}
	if s == nil || s.Len() < o.Grid.MaxLookback() {
		n := 0
		if s != nil {
			n = s.Len()
		}
		return OptimizationResult{}, fmt.Errorf("optimize: %d bars, need %d: %w",
			n, o.Grid.MaxLookback(), ErrInsufficientData)
	}

	sim := NewSimulator(o.Sim)
	best := OptimizationResult{ReturnPct: math.Inf(-1)}

	o.Grid.Each(func(p strategy.Params) {
		_, sum := sim.Run(s, p)
		if sum.ReturnPct > best.ReturnPct {
			best = OptimizationResult{
				Params:    p,
				ReturnPct: sum.ReturnPct,
				Trades:    sum.Trades,
				Wins:      sum.Wins,
				Losses:    sum.Losses,
			}
		}
	})

	return best, nil
}
