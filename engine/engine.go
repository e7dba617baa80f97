// Package engine runs the live trading loop for one instrument: it polls
// for completed bars, applies the breakout rule with the currently
// installed parameters, and recalibrates those parameters once per
// trading day.
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rustyeddy/breakout/backtest"
	"github.com/rustyeddy/breakout/broker"
	"github.com/rustyeddy/breakout/fetch"
	"github.com/rustyeddy/breakout/journal"
	"github.com/rustyeddy/breakout/market"
	"github.com/rustyeddy/breakout/notify"
	"github.com/rustyeddy/breakout/pkg/id"
	"github.com/rustyeddy/breakout/risk"
	"github.com/rustyeddy/breakout/strategy"
)

type Config struct {
	Ticker string
	FIGI   string

	// Interval is the bar interval the strategy trades on.
	Interval time.Duration
	// PollInterval is how often the engine asks for a new completed bar.
	PollInterval time.Duration
	// DaysBack is the trailing history window for recalibration.
	DaysBack int
	// RecalTime is the exchange-local wall-clock recalibration time, "HH:MM".
	RecalTime string
	// Location is the exchange time zone the RecalTime is anchored in.
	Location *time.Location

	Capital    float64
	Commission float64
	RiskPct    float64

	// Live enables real order placement. When false the engine only
	// signals (notifies and journals) without touching the order sink.
	Live bool

	Grid  strategy.Grid
	Fetch fetch.Policy

	// ErrorPause is how long the engine sits out after a tick panic.
	ErrorPause time.Duration
	// SeriesCapacity bounds the in-memory live bar window.
	SeriesCapacity int
}

func (c Config) withDefaults() Config {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 30 * time.Second
	}
	if c.DaysBack <= 0 {
		c.DaysBack = 5
	}
	if c.RecalTime == "" {
		c.RecalTime = "09:55"
	}
	if c.Location == nil {
		c.Location = time.UTC
	}
	if c.ErrorPause <= 0 {
		c.ErrorPause = 5 * time.Second
	}
	if c.SeriesCapacity <= 0 {
		c.SeriesCapacity = 10_000
	}
	if c.Grid.Size() == 0 {
		c.Grid = strategy.DefaultGrid()
	}
	return c
}

type Engine struct {
	cfg      Config
	data     broker.MarketData
	orders   broker.OrderSink
	journal  journal.Journal
	notifier *notify.Notifier

	// params is swapped atomically by the recalibration path and read by
	// the bar path. Both run on the engine goroutine, so a swap can never
	// land mid-evaluation.
	params atomic.Pointer[strategy.Params]

	mu        sync.Mutex
	series    *market.Series
	capital   float64
	pos       Position
	lastBar   time.Time
	lastRecal time.Time
}

func New(cfg Config, data broker.MarketData, orders broker.OrderSink, jnl journal.Journal, n *notify.Notifier) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:      cfg,
		data:     data,
		orders:   orders,
		journal:  jnl,
		notifier: n,
		series:   market.NewSeries(cfg.SeriesCapacity),
		capital:  cfg.Capital,
	}
	p := strategy.Params{}
	e.params.Store(&p)
	return e
}

// Params returns the currently installed parameter set.
func (e *Engine) Params() strategy.Params { return *e.params.Load() }

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Flat
	if e.pos.Open() {
		st = Positioned
	}
	return Snapshot{
		Ticker:            e.cfg.Ticker,
		State:             st,
		Params:            *e.params.Load(),
		Position:          e.pos,
		Capital:           e.capital,
		LastBar:           e.lastBar,
		LastRecalibration: e.lastRecal,
	}
}

// Run drives the engine until ctx is cancelled. Startup failures
// (history fetch, wall-clock parsing) are fatal; once the loop is
// running, errors are notified and the engine keeps going.
func (e *Engine) Run(ctx context.Context) error {
	hour, minute, err := ParseWallClock(e.cfg.RecalTime)
	if err != nil {
		return err
	}

	if err := e.recalibrate(ctx); err != nil {
		return fmt.Errorf("startup calibration %s: %w", e.cfg.Ticker, err)
	}

	e.publish(notify.KindStart, fmt.Sprintf("engine started, params %s", e.Params()))

	nextRecal := nextRecalibration(time.Now(), e.cfg.Location, hour, minute)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.notifyStop()
			return nil
		case now := <-ticker.C:
			if now.After(nextRecal) {
				if err := e.recalibrate(ctx); err != nil {
					// Keep trading on yesterday's parameters.
					e.publish(notify.KindError, fmt.Sprintf("recalibration failed: %v", err))
				}
				nextRecal = nextRecalibration(now, e.cfg.Location, hour, minute)
			}
			e.tick(ctx)
		}
	}
}

// notifyStop reports shutdown. An open position is deliberately left
// alone; the operator decides what to do with it.
func (e *Engine) notifyStop() {
	e.mu.Lock()
	pos := e.pos
	e.mu.Unlock()

	msg := "engine stopped, flat"
	if pos.Open() {
		msg = fmt.Sprintf("engine stopped holding %d @ %.2f", pos.Quantity, pos.EntryPrice)
	}
	e.publish(notify.KindStop, msg)
}

// tick fetches the newest completed bar and runs it through the state
// machine. Panics and data errors are contained here so one bad cycle
// cannot take the engine down.
func (e *Engine) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.publish(notify.KindError, fmt.Sprintf("tick panic: %v", r))
			log.Printf("engine %s: tick panic: %v", e.cfg.Ticker, r)
			sleepCtx(ctx, e.cfg.ErrorPause)
		}
	}()

	type latest struct {
		bar market.Bar
		ok  bool
	}
	res, err := fetch.Do(ctx, e.cfg.Fetch, func(ctx context.Context) (latest, error) {
		b, ok, err := e.data.LatestBar(ctx, e.cfg.FIGI)
		return latest{bar: b, ok: ok}, err
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		// Includes retry-budget exhaustion; wait for the next poll.
		e.publish(notify.KindError, fmt.Sprintf("bar fetch failed: %v", err))
		return
	}
	if !res.ok {
		return
	}
	bar := res.bar

	// A poll can re-observe the bar we already acted on; only a strictly
	// newer timestamp advances the state machine.
	e.mu.Lock()
	prevLast := e.lastBar
	e.mu.Unlock()
	if !bar.Time.After(prevLast) {
		return
	}

	if !prevLast.IsZero() && bar.Time.Sub(prevLast) > e.cfg.Interval {
		e.backfill(ctx, prevLast, bar.Time)
	}

	e.mu.Lock()
	e.series.Append(bar)
	e.lastBar = bar.Time
	e.mu.Unlock()

	e.processBar(ctx, bar)
}

// backfill repairs the rolling window after missed polls. Intermediate
// bars only update the levels; they are never traded.
func (e *Engine) backfill(ctx context.Context, from, to time.Time) {
	n := int(to.Sub(from)/e.cfg.Interval) + 1
	if n > e.cfg.SeriesCapacity {
		n = e.cfg.SeriesCapacity
	}

	bars, err := e.data.RecentBars(ctx, e.cfg.FIGI, n)
	if err != nil {
		log.Printf("engine %s: backfill: %v", e.cfg.Ticker, err)
		return
	}

	e.mu.Lock()
	for _, b := range bars {
		if b.Time.After(from) && b.Time.Before(to) {
			e.series.Append(b)
		}
	}
	e.mu.Unlock()
}

// processBar applies the exit rule first; after an exit the bar is done,
// the engine never re-enters on the bar it just exited on.
func (e *Engine) processBar(ctx context.Context, bar market.Bar) {
	p := *e.params.Load()

	e.mu.Lock()
	pos := e.pos
	e.mu.Unlock()

	if pos.Open() {
		if ex, ok := strategy.EvalExit(pos.EntryPrice, bar.Close, p); ok {
			e.closePosition(ctx, bar, ex)
		}
		return
	}

	if _, ok := strategy.EvalEntry(e.series, p); !ok {
		return
	}

	e.mu.Lock()
	capital := e.capital
	e.mu.Unlock()

	sz := risk.Calculate(risk.Inputs{
		Capital:  capital,
		RiskPct:  e.cfg.RiskPct,
		Price:    bar.Close,
		StopLoss: p.StopLoss,
	})
	if sz.Quantity <= 0 {
		return
	}
	e.openPosition(ctx, bar, sz.Quantity)
}

func (e *Engine) openPosition(ctx context.Context, bar market.Bar, qty int64) {
	entryValue := bar.Close * float64(qty)
	entryFee := entryValue * e.cfg.Commission

	e.mu.Lock()
	e.capital -= entryFee
	e.pos = Position{
		TradeID:    id.New(),
		Quantity:   qty,
		EntryPrice: bar.Close,
		EntryValue: entryValue,
		EntryTime:  bar.Time,
	}
	e.mu.Unlock()

	e.publish(notify.KindEntry, fmt.Sprintf("entered %d @ %.2f", qty, bar.Close))
	e.placeOrder(ctx, qty, broker.Buy)
}

func (e *Engine) closePosition(ctx context.Context, bar market.Bar, ex strategy.Exit) {
	e.mu.Lock()
	pos := e.pos
	proceeds := bar.Close * float64(pos.Quantity)
	exitFee := proceeds * e.cfg.Commission
	pnl := (proceeds - pos.EntryValue) - exitFee
	e.capital += pnl
	capital := e.capital
	e.pos = Position{}
	e.mu.Unlock()

	e.publish(notify.KindExit, fmt.Sprintf("exited %s %+.2f%% pnl %.2f capital %.2f",
		ex.Reason, ex.Change*100, pnl, capital))

	if e.journal != nil {
		rec := journal.TradeRecord{
			TradeID:    pos.TradeID,
			Instrument: e.cfg.Ticker,
			Quantity:   pos.Quantity,
			EntryPrice: pos.EntryPrice,
			ExitPrice:  bar.Close,
			EntryTime:  pos.EntryTime,
			ExitTime:   bar.Time,
			RealizedPL: pnl,
			Commission: pos.EntryValue*e.cfg.Commission + exitFee,
			Reason:     ex.Reason,
		}
		if err := e.journal.RecordTrade(rec); err != nil {
			log.Printf("engine %s: journal trade: %v", e.cfg.Ticker, err)
		}
		snap := journal.CapitalSnapshot{Time: bar.Time, Instrument: e.cfg.Ticker, Capital: capital}
		if err := e.journal.RecordCapital(snap); err != nil {
			log.Printf("engine %s: journal capital: %v", e.cfg.Ticker, err)
		}
	}

	e.placeOrder(ctx, pos.Quantity, broker.Sell)
}

// placeOrder submits a market order in live mode. Failures are reported
// but never unwind the in-memory position, which stays authoritative.
func (e *Engine) placeOrder(ctx context.Context, qty int64, dir broker.Direction) {
	if !e.cfg.Live || e.orders == nil {
		return
	}

	conf, err := e.orders.PlaceMarketOrder(ctx, broker.MarketOrderRequest{
		FIGI:      e.cfg.FIGI,
		Quantity:  qty,
		Direction: dir,
		ClientID:  id.New(),
	})
	if err != nil {
		e.publish(notify.KindError, fmt.Sprintf("%s order for %d failed: %v", dir, qty, err))
		return
	}
	log.Printf("engine %s: %s order %s executed for %d", e.cfg.Ticker, dir, conf.OrderID, qty)
}

// recalibrate refetches the trailing history window and grid-searches it.
// The winning parameters are installed with a single pointer swap.
func (e *Engine) recalibrate(ctx context.Context) error {
	since := time.Now().UTC().AddDate(0, 0, -e.cfg.DaysBack)

	bars, err := fetch.Do(ctx, e.cfg.Fetch, func(ctx context.Context) ([]market.Bar, error) {
		return e.data.HistoricalBars(ctx, e.cfg.FIGI, since, e.cfg.Interval)
	})
	if err != nil {
		return err
	}

	history := market.NewSeries(len(bars))
	for _, b := range bars {
		history.Append(b)
	}

	opt := backtest.Optimizer{
		Sim: backtest.Config{
			InitialCapital: e.cfg.Capital,
			Commission:     e.cfg.Commission,
			RiskPct:        e.cfg.RiskPct,
		},
		Grid: e.cfg.Grid,
	}
	best, err := opt.Optimize(history)
	if err != nil {
		return err
	}

	p := best.Params
	e.params.Store(&p)

	e.mu.Lock()
	e.lastRecal = time.Now()
	// Seed the live window so entries right after startup see history.
	for _, b := range bars {
		if e.series.Append(b) && b.Time.After(e.lastBar) {
			e.lastBar = b.Time
		}
	}
	e.mu.Unlock()

	e.publish(notify.KindRecalibration, fmt.Sprintf("recalibrated over %d bars: %s", len(bars), best))
	return nil
}

func (e *Engine) publish(kind notify.Kind, text string) {
	if e.notifier == nil {
		log.Printf("engine %s: %s", e.cfg.Ticker, text)
		return
	}
	e.notifier.Publish(notify.Event{Kind: kind, Ticker: e.cfg.Ticker, Text: text})
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
