package market

import "time"

// Bar is one OHLCV observation for a fixed time interval. Time is the
// candle open in the instrument's exchange timezone.
type Bar struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Field selects which bar component a rolling query reads.
type Field int

const (
	Open Field = iota
	High
	Low
	Close
	Volume
)

func (f Field) Of(b Bar) float64 {
	switch f {
	case Open:
		return b.Open
	case High:
		return b.High
	case Low:
		return b.Low
	case Close:
		return b.Close
	case Volume:
		return b.Volume
	}
	return 0
}

func (f Field) String() string {
	switch f {
	case Open:
		return "open"
	case High:
		return "high"
	case Low:
		return "low"
	case Close:
		return "close"
	case Volume:
		return "volume"
	}
	return "unknown"
}
