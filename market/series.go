package market

// Series is an append-only, time-ordered sequence of bars for a single
// instrument. Timestamps are strictly increasing; appending a bar with the
// same timestamp as the last bar replaces it, because live polling can
// re-observe the still-forming candle before it closes. Bars older than
// the last one are dropped.
//
// A positive capacity turns the series into a bounded ring that keeps only
// the most recent bars (the live engine needs no more than its lookback
// window). Capacity 0 keeps the full history (backtests).
type Series struct {
	bars []Bar
	cap  int
}

func NewSeries(capacity int) *Series {
	return &Series{cap: capacity}
}

// Append inserts b at the end of the series. It reports whether the bar
// was accepted: true for a new bar or an overwrite of the last bar, false
// for an out-of-order duplicate.
func (s *Series) Append(b Bar) bool {
	if n := len(s.bars); n > 0 {
		last := s.bars[n-1].Time
		if b.Time.Before(last) {
			return false
		}
		if b.Time.Equal(last) {
			s.bars[n-1] = b
			return true
		}
	}
	s.bars = append(s.bars, b)
	if s.cap > 0 && len(s.bars) > s.cap {
		// shift rather than reslice so the backing array cannot grow
		// without bound over a long-running session
		copy(s.bars, s.bars[len(s.bars)-s.cap:])
		s.bars = s.bars[:s.cap]
	}
	return true
}

func (s *Series) Len() int { return len(s.bars) }

func (s *Series) At(i int) Bar { return s.bars[i] }

func (s *Series) Last() (Bar, bool) {
	if len(s.bars) == 0 {
		return Bar{}, false
	}
	return s.bars[len(s.bars)-1], true
}

// PriorMax returns the maximum of f over the window bars strictly before
// index i, i.e. bars [i-window, i-1]. The bar at i itself is never part of
// the window, so a signal evaluated at i cannot look ahead. ok is false
// until a full window of prior bars exists.
func (s *Series) PriorMax(f Field, window, i int) (float64, bool) {
	lo, hi, ok := s.priorWindow(window, i)
	if !ok {
		return 0, false
	}
	max := f.Of(s.bars[lo])
	for j := lo + 1; j < hi; j++ {
		if v := f.Of(s.bars[j]); v > max {
			max = v
		}
	}
	return max, true
}

// PriorMean returns the mean of f over bars [i-window, i-1]. Same window
// semantics as PriorMax.
func (s *Series) PriorMean(f Field, window, i int) (float64, bool) {
	lo, hi, ok := s.priorWindow(window, i)
	if !ok {
		return 0, false
	}
	sum := 0.0
	for j := lo; j < hi; j++ {
		sum += f.Of(s.bars[j])
	}
	return sum / float64(window), true
}

func (s *Series) priorWindow(window, i int) (lo, hi int, ok bool) {
	if window <= 0 || i > len(s.bars) || i-window < 0 {
		return 0, 0, false
	}
	return i - window, i, true
}
