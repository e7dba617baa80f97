// Package tinkoff implements broker.MarketData and broker.OrderSink on
// top of the Tinkoff Invest REST API.
package tinkoff

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/rustyeddy/breakout/broker"
	"github.com/rustyeddy/breakout/fetch"
	"github.com/rustyeddy/breakout/market"
)

const (
	// ProductionURL is the Tinkoff Invest public REST endpoint.
	ProductionURL = "https://invest-public-api.tinkoff.ru/rest"
	// SandboxURL serves the same contract against sandbox accounts.
	SandboxURL = "https://sandbox-invest-public-api.tinkoff.ru/rest"

	serviceMarketData  = "tinkoff.public.invest.api.contract.v1.MarketDataService"
	serviceInstruments = "tinkoff.public.invest.api.contract.v1.InstrumentsService"
	serviceOrders      = "tinkoff.public.invest.api.contract.v1.OrdersService"
)

// Client is a Tinkoff Invest API client. All methods are POSTs of JSON
// bodies to service/method paths, mirroring the gRPC contract.
type Client struct {
	BaseURL   string
	Token     string
	AccountID string
	HTTP      *http.Client
}

func NewClient(token, accountID string) *Client {
	return &Client{
		BaseURL:   ProductionURL,
		Token:     token,
		AccountID: accountID,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
	}
}

// quotation is the API's decimal representation: integer units plus
// nanoseconds of the fractional part.
type quotation struct {
	Units string `json:"units"`
	Nano  int32  `json:"nano"`
}

func (q quotation) Float() float64 {
	units, _ := strconv.ParseInt(q.Units, 10, 64)
	return float64(units) + float64(q.Nano)/1e9
}

type apiCandle struct {
	Open       quotation `json:"open"`
	High       quotation `json:"high"`
	Low        quotation `json:"low"`
	Close      quotation `json:"close"`
	Volume     string    `json:"volume"`
	Time       time.Time `json:"time"`
	IsComplete bool      `json:"isComplete"`
}

type candlesResponse struct {
	Candles []apiCandle `json:"candles"`
}

func (c *Client) post(ctx context.Context, service, method string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/%s/%s", c.BaseURL, service, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		// Network failures are retriable.
		return &fetch.Transient{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return classifyStatus(resp)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// classifyStatus maps API failures onto the retry taxonomy: 429 carries
// the rate-limit reset, 5xx is retriable, anything else is terminal.
func classifyStatus(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	err := fmt.Errorf("tinkoff: status %d: %s", resp.StatusCode, bytes.TrimSpace(body))

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		wait := time.Second
		if s := resp.Header.Get("x-ratelimit-reset"); s != "" {
			if secs, perr := strconv.Atoi(s); perr == nil && secs > 0 {
				wait = time.Duration(secs) * time.Second
			}
		}
		return &fetch.Throttled{Wait: wait}
	case resp.StatusCode >= 500:
		return &fetch.Transient{Err: err}
	default:
		return err
	}
}

func intervalName(interval time.Duration) string {
	switch {
	case interval <= time.Minute:
		return "CANDLE_INTERVAL_1_MIN"
	case interval <= 5*time.Minute:
		return "CANDLE_INTERVAL_5_MIN"
	case interval <= 15*time.Minute:
		return "CANDLE_INTERVAL_15_MIN"
	case interval <= time.Hour:
		return "CANDLE_INTERVAL_HOUR"
	default:
		return "CANDLE_INTERVAL_DAY"
	}
}

func (c *Client) getCandles(ctx context.Context, figi string, from, to time.Time, interval time.Duration) ([]apiCandle, error) {
	req := map[string]any{
		"figi":     figi,
		"from":     from.UTC().Format(time.RFC3339),
		"to":       to.UTC().Format(time.RFC3339),
		"interval": intervalName(interval),
	}
	var resp candlesResponse
	if err := c.post(ctx, serviceMarketData, "GetCandles", req, &resp); err != nil {
		return nil, err
	}
	return resp.Candles, nil
}

func toBar(ac apiCandle) market.Bar {
	vol, _ := strconv.ParseInt(ac.Volume, 10, 64)
	return market.Bar{
		Time:   ac.Time,
		Open:   ac.Open.Float(),
		High:   ac.High.Float(),
		Low:    ac.Low.Float(),
		Close:  ac.Close.Float(),
		Volume: float64(vol),
	}
}

// HistoricalBars pages the candle endpoint in one-day chunks, the maximum
// span the API serves for minute candles, and returns completed bars
// oldest first.
func (c *Client) HistoricalBars(ctx context.Context, figi string, since time.Time, interval time.Duration) ([]market.Bar, error) {
	var bars []market.Bar

	now := time.Now().UTC()
	for from := since.UTC(); from.Before(now); from = from.Add(24 * time.Hour) {
		to := from.Add(24 * time.Hour)
		if to.After(now) {
			to = now
		}

		candles, err := c.getCandles(ctx, figi, from, to, interval)
		if err != nil {
			return nil, err
		}
		for _, ac := range candles {
			if !ac.IsComplete {
				continue
			}
			bars = append(bars, toBar(ac))
		}
	}

	return bars, nil
}

// LatestBar returns the newest completed minute bar from the last ten
// minutes. ok is false when the market is quiet and nothing completed.
func (c *Client) LatestBar(ctx context.Context, figi string) (market.Bar, bool, error) {
	to := time.Now().UTC()
	from := to.Add(-10 * time.Minute)

	candles, err := c.getCandles(ctx, figi, from, to, time.Minute)
	if err != nil {
		return market.Bar{}, false, err
	}

	for i := len(candles) - 1; i >= 0; i-- {
		if candles[i].IsComplete {
			return toBar(candles[i]), true, nil
		}
	}
	return market.Bar{}, false, nil
}

// RecentBars returns up to n of the newest completed minute bars, oldest
// first. A little slack is added to the window to cover bars still forming.
func (c *Client) RecentBars(ctx context.Context, figi string, n int) ([]market.Bar, error) {
	to := time.Now().UTC()
	from := to.Add(-time.Duration(n+10) * time.Minute)

	candles, err := c.getCandles(ctx, figi, from, to, time.Minute)
	if err != nil {
		return nil, err
	}

	var bars []market.Bar
	for _, ac := range candles {
		if !ac.IsComplete {
			continue
		}
		bars = append(bars, toBar(ac))
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

type orderResponse struct {
	OrderID            string    `json:"orderId"`
	ExecutedOrderPrice quotation `json:"executedOrderPrice"`
}

// PlaceMarketOrder submits a market order. The request's ClientID is the
// idempotency key, so a retried submission cannot double-fill.
func (c *Client) PlaceMarketOrder(ctx context.Context, req broker.MarketOrderRequest) (broker.OrderConfirmation, error) {
	direction := "ORDER_DIRECTION_BUY"
	if req.Direction == broker.Sell {
		direction = "ORDER_DIRECTION_SELL"
	}

	body := map[string]any{
		"figi":      req.FIGI,
		"quantity":  strconv.FormatInt(req.Quantity, 10),
		"direction": direction,
		"accountId": c.AccountID,
		"orderType": "ORDER_TYPE_MARKET",
		"orderId":   req.ClientID,
	}

	var resp orderResponse
	if err := c.post(ctx, serviceOrders, "PostOrder", body, &resp); err != nil {
		return broker.OrderConfirmation{}, err
	}

	return broker.OrderConfirmation{
		OrderID:       resp.OrderID,
		ExecutedPrice: resp.ExecutedOrderPrice.Float(),
	}, nil
}

type shareInstrument struct {
	FIGI   string `json:"figi"`
	Ticker string `json:"ticker"`
}

type sharesResponse struct {
	Instruments []shareInstrument `json:"instruments"`
}

// ResolveFIGI looks a ticker up in the shares directory.
func (c *Client) ResolveFIGI(ctx context.Context, ticker string) (string, error) {
	req := map[string]any{"instrumentStatus": "INSTRUMENT_STATUS_BASE"}

	var resp sharesResponse
	if err := c.post(ctx, serviceInstruments, "Shares", req, &resp); err != nil {
		return "", err
	}

	for _, inst := range resp.Instruments {
		if inst.Ticker == ticker {
			return inst.FIGI, nil
		}
	}
	return "", fmt.Errorf("tinkoff: no FIGI for ticker %q", ticker)
}
