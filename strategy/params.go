package strategy

import "fmt"

// Params is one breakout parameter set. A recalibration produces a fresh
// value that replaces the previous one whole; fields are never mutated in
// place (the live engine swaps a single pointer).
type Params struct {
	Lookback   int     // rolling window, in bars
	Delta      float64 // minimum breakout fraction above the rolling high
	TakeProfit float64 // exit when close/entry - 1 >= TakeProfit
	StopLoss   float64 // exit when close/entry - 1 <= -StopLoss
}

func (p Params) String() string {
	return fmt.Sprintf("lookback=%d delta=%.4f tp=%.4f sl=%.4f",
		p.Lookback, p.Delta, p.TakeProfit, p.StopLoss)
}

// Grid is the finite search space for the optimizer. Iteration order is
// fixed (lookback, delta, take-profit, stop-loss, innermost last) so that
// ties resolve deterministically to the first-seen combination.
type Grid struct {
	Lookbacks   []int     `json:"lookbacks" yaml:"lookbacks"`
	Deltas      []float64 `json:"deltas" yaml:"deltas"`
	TakeProfits []float64 `json:"take_profits" yaml:"take_profits"`
	StopLosses  []float64 `json:"stop_losses" yaml:"stop_losses"`
}

// DefaultGrid mirrors the production scan space: lookbacks in minutes,
// deltas 0.1-0.3%, take-profits 0.5-1.5%, stop-losses 0.3-1%.
func DefaultGrid() Grid {
	return Grid{
		Lookbacks:   []int{10, 20, 30},
		Deltas:      []float64{0.001, 0.002, 0.003},
		TakeProfits: []float64{0.005, 0.01, 0.015},
		StopLosses:  []float64{0.003, 0.005, 0.01},
	}
}

func (g Grid) Size() int {
	return len(g.Lookbacks) * len(g.Deltas) * len(g.TakeProfits) * len(g.StopLosses)
}

func (g Grid) MaxLookback() int {
	max := 0
	for _, lb := range g.Lookbacks {
		if lb > max {
			max = lb
		}
	}
	return max
}

// Each calls fn once per grid cell in the defined iteration order.
func (g Grid) Each(fn func(Params)) {
	for _, lb := range g.Lookbacks {
		for _, d := range g.Deltas {
			for _, tp := range g.TakeProfits {
				for _, sl := range g.StopLosses {
					fn(Params{Lookback: lb, Delta: d, TakeProfit: tp, StopLoss: sl})
				}
			}
		}
	}
}
