package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/breakout/market"
)

func flatSeries(n int, close, volume float64) *market.Series {
	s := market.NewSeries(0)
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		s.Append(market.Bar{
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   close,
			High:   close,
			Low:    close,
			Close:  close,
			Volume: volume,
		})
	}
	return s
}

func appendBar(s *market.Series, close, volume float64) {
	last, _ := s.Last()
	s.Append(market.Bar{
		Time:   last.Time.Add(time.Minute),
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: volume,
	})
}

func TestEntryFiresOnVolumeBreakout(t *testing.T) {
	t.Parallel()

	s := flatSeries(30, 100, 1000)
	appendBar(s, 105, 3000)

	p := Params{Lookback: 10, Delta: 0.01, TakeProfit: 0.02, StopLoss: 0.01}
	e, ok := EvalEntry(s, p)

	assert.True(t, ok)
	assert.Equal(t, 100.0, e.Level)
	assert.Equal(t, 105.0, e.Price)
	assert.InDelta(t, 1000.0, e.VolMA, 1e-9)
}

func TestEntryVetoedByAverageVolume(t *testing.T) {
	t.Parallel()

	s := flatSeries(30, 100, 1000)
	appendBar(s, 105, 900) // breakout in price, but volume below average

	p := Params{Lookback: 10, Delta: 0.01, TakeProfit: 0.02, StopLoss: 0.01}
	_, ok := EvalEntry(s, p)
	assert.False(t, ok)
}

func TestEntryRequiresSignificantBreak(t *testing.T) {
	t.Parallel()

	s := flatSeries(30, 100, 1000)
	appendBar(s, 100.05, 3000) // above the level, but under delta

	p := Params{Lookback: 10, Delta: 0.01, TakeProfit: 0.02, StopLoss: 0.01}
	_, ok := EvalEntry(s, p)
	assert.False(t, ok)
}

func TestEntryNotReadyDuringWarmup(t *testing.T) {
	t.Parallel()

	s := flatSeries(5, 100, 1000)
	appendBar(s, 110, 5000)

	p := Params{Lookback: 10, Delta: 0.001, TakeProfit: 0.02, StopLoss: 0.01}
	_, ok := EvalEntry(s, p)
	assert.False(t, ok)
}

func TestExitStopLoss(t *testing.T) {
	t.Parallel()

	p := Params{Lookback: 10, Delta: 0.01, TakeProfit: 0.02, StopLoss: 0.01}

	ex, ok := EvalExit(100, 98, p)
	assert.True(t, ok)
	assert.Equal(t, ReasonStopLoss, ex.Reason)
	assert.False(t, ex.Win())
	assert.InDelta(t, -0.02, ex.Change, 1e-9)
}

func TestExitTakeProfit(t *testing.T) {
	t.Parallel()

	p := Params{Lookback: 10, Delta: 0.01, TakeProfit: 0.02, StopLoss: 0.01}

	ex, ok := EvalExit(100, 102, p)
	assert.True(t, ok)
	assert.Equal(t, ReasonTakeProfit, ex.Reason)
	assert.True(t, ex.Win())
}

func TestExitHoldsInsideBand(t *testing.T) {
	t.Parallel()

	p := Params{Lookback: 10, Delta: 0.01, TakeProfit: 0.02, StopLoss: 0.01}
	_, ok := EvalExit(100, 100.5, p)
	assert.False(t, ok)
}

func TestGridIterationOrder(t *testing.T) {
	t.Parallel()

	g := Grid{
		Lookbacks:   []int{10, 20},
		Deltas:      []float64{0.001},
		TakeProfits: []float64{0.005, 0.01},
		StopLosses:  []float64{0.003},
	}

	var seen []Params
	g.Each(func(p Params) { seen = append(seen, p) })

	assert.Equal(t, g.Size(), len(seen))
	assert.Equal(t, Params{10, 0.001, 0.005, 0.003}, seen[0])
	assert.Equal(t, Params{10, 0.001, 0.01, 0.003}, seen[1])
	assert.Equal(t, Params{20, 0.001, 0.005, 0.003}, seen[2])
	assert.Equal(t, 30, DefaultGrid().MaxLookback())
}
