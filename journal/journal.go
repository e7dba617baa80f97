// Package journal persists the trade ledger and capital snapshots.
package journal

import "time"

// TradeRecord is one completed round trip. Append-only; written at each
// exit event by the live engine.
type TradeRecord struct {
	TradeID    string
	Instrument string
	Quantity   int64
	EntryPrice float64
	ExitPrice  float64
	EntryTime  time.Time
	ExitTime   time.Time
	RealizedPL float64
	Commission float64
	Reason     string
}

// CapitalSnapshot tracks an instrument's working capital over time so a
// restarted engine can resume from its last known balance.
type CapitalSnapshot struct {
	Time       time.Time
	Instrument string
	Capital    float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordCapital(CapitalSnapshot) error
	Close() error
}
