// Package broker defines the market-data and order interfaces the engine
// trades through. Concrete implementations live in subpackages.
package broker

import (
	"context"
	"time"

	"github.com/rustyeddy/breakout/market"
)

type Direction string

const (
	Buy  Direction = "buy"
	Sell Direction = "sell"
)

// MarketData supplies completed bars for an instrument identified by FIGI.
type MarketData interface {
	// HistoricalBars returns completed bars from since to now, oldest first.
	HistoricalBars(ctx context.Context, figi string, since time.Time, interval time.Duration) ([]market.Bar, error)

	// LatestBar returns the most recent completed bar. ok is false when the
	// instrument has not printed a completed bar in the recent window.
	LatestBar(ctx context.Context, figi string) (market.Bar, bool, error)

	// RecentBars returns up to n of the most recent completed minute bars,
	// oldest first.
	RecentBars(ctx context.Context, figi string, n int) ([]market.Bar, error)
}

type MarketOrderRequest struct {
	FIGI      string
	Quantity  int64
	Direction Direction
	// ClientID is an idempotency key generated per order attempt.
	ClientID string
}

type OrderConfirmation struct {
	OrderID       string
	ExecutedPrice float64
}

// OrderSink places market orders. Implementations must be safe to call
// from a single engine goroutine.
type OrderSink interface {
	PlaceMarketOrder(ctx context.Context, req MarketOrderRequest) (OrderConfirmation, error)
}
