package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/breakout/strategy"
)

func TestOptimizerDeterministic(t *testing.T) {
	t.Parallel()

	o := Optimizer{Sim: testConfig, Grid: strategy.DefaultGrid()}
	s := randomWalk(1500, 42)

	r1, err := o.Optimize(s)
	assert.NoError(t, err)
	r2, err := o.Optimize(s)
	assert.NoError(t, err)

	assert.Equal(t, r1, r2)
}

func TestOptimizerInsufficientData(t *testing.T) {
	t.Parallel()

	o := Optimizer{Sim: testConfig, Grid: strategy.DefaultGrid()}
	s := randomWalk(o.Grid.MaxLookback()-1, 1)

	_, err := o.Optimize(s)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestOptimizerZeroTradeGridStaysObservable(t *testing.T) {
	t.Parallel()

	// dead-flat market: every cell trades zero times; the winner is the
	// first-seen cell and its zero counts are visible in the result
	s := flatThen(100, nil, nil)

	o := Optimizer{Sim: testConfig, Grid: strategy.DefaultGrid()}
	res, err := o.Optimize(s)
	assert.NoError(t, err)

	assert.Equal(t, 0, res.Trades)
	assert.InDelta(t, 0.0, res.ReturnPct, 1e-9)
	assert.Equal(t, strategy.Params{Lookback: 10, Delta: 0.001, TakeProfit: 0.005, StopLoss: 0.003}, res.Params)
}

func TestOptimizerPicksProfitableCell(t *testing.T) {
	t.Parallel()

	// one clean breakout that profits under every tp; the best cell must
	// strictly beat the all-zero cells
	s := flatThen(40, []float64{103, 106}, []float64{4000, 1000})

	o := Optimizer{Sim: testConfig, Grid: strategy.DefaultGrid()}
	res, err := o.Optimize(s)
	assert.NoError(t, err)

	assert.Greater(t, res.ReturnPct, 0.0)
	assert.Equal(t, 1, res.Trades)
	assert.Equal(t, 1, res.Wins)
}

func TestOptimizerEmptyGrid(t *testing.T) {
	t.Parallel()

	o := Optimizer{Sim: testConfig}
	_, err := o.Optimize(flatThen(100, nil, nil))
	assert.Error(t, err)
}
