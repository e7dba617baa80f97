package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func minuteBar(min int, close, volume float64) Bar {
	base := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	return Bar{
		Time:   base.Add(time.Duration(min) * time.Minute),
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: volume,
	}
}

func TestSeriesAppendOrdering(t *testing.T) {
	t.Parallel()

	s := NewSeries(0)
	assert.True(t, s.Append(minuteBar(0, 100, 1000)))
	assert.True(t, s.Append(minuteBar(1, 101, 1100)))

	// older than last: dropped
	assert.False(t, s.Append(minuteBar(0, 99, 900)))
	assert.Equal(t, 2, s.Len())

	// same timestamp: overwrite in place (still-forming candle)
	assert.True(t, s.Append(minuteBar(1, 102, 1200)))
	assert.Equal(t, 2, s.Len())
	last, ok := s.Last()
	assert.True(t, ok)
	assert.Equal(t, 102.0, last.Close)
	assert.Equal(t, 1200.0, last.Volume)
}

func TestSeriesRingCapacity(t *testing.T) {
	t.Parallel()

	s := NewSeries(3)
	for i := 0; i < 10; i++ {
		s.Append(minuteBar(i, float64(100+i), 1000))
	}

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 107.0, s.At(0).Close)
	assert.Equal(t, 109.0, s.At(2).Close)
}

func TestSeriesPriorWindowExcludesCurrentBar(t *testing.T) {
	t.Parallel()

	s := NewSeries(0)
	for i := 0; i < 5; i++ {
		s.Append(minuteBar(i, float64(100+i), float64(1000+i*100)))
	}
	// spike at the last bar must not leak into its own window
	s.Append(minuteBar(5, 500, 9000))

	max, ok := s.PriorMax(Close, 5, s.Len()-1)
	assert.True(t, ok)
	assert.Equal(t, 104.0, max)

	mean, ok := s.PriorMean(Volume, 5, s.Len()-1)
	assert.True(t, ok)
	assert.InDelta(t, 1200.0, mean, 1e-9)
}

func TestSeriesPriorWindowNotReady(t *testing.T) {
	t.Parallel()

	s := NewSeries(0)
	for i := 0; i < 4; i++ {
		s.Append(minuteBar(i, 100, 1000))
	}

	_, ok := s.PriorMax(Close, 5, s.Len()-1)
	assert.False(t, ok)
	_, ok = s.PriorMean(Volume, 5, s.Len()-1)
	assert.False(t, ok)

	// exactly window prior bars: ready when evaluated at index == window
	s.Append(minuteBar(4, 100, 1000))
	s.Append(minuteBar(5, 105, 3000))
	max, ok := s.PriorMax(Close, 5, 5)
	assert.True(t, ok)
	assert.Equal(t, 100.0, max)
}
