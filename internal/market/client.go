// Package market fetches quote snapshots from an upstream market-data provider
// and normalizes them into a fixed-shape Quote record.
package market

import (
	"context"
	"fmt"
	"strings"
)

// Unavailable marks a quote field the provider did not report.
const Unavailable = "N/A"

// Info is the loosely-typed snapshot a provider returns. Field presence varies
// by instrument and market hours; an empty Info means "no usable data".
type Info map[string]any

// Provider is an upstream market-data source.
type Provider interface {
	Info(ctx context.Context, ticker string) (Info, error)
	Name() string
}

// Quote is an immutable snapshot for one ticker. Every field other than
// Ticker holds either the provider's value or Unavailable, never nil.
type Quote struct {
	Ticker        string
	LongName      any
	Currency      any
	Exchange      any
	CurrentPrice  any
	PreviousClose any
	Open          any
	DayHigh       any
	DayLow        any
	Volume        any
	MarketCap     any
}

// Payload returns the quote as the JSON object handed to the model.
// The key set is always the same eleven keys.
func (q *Quote) Payload() map[string]any {
	return map[string]any{
		"ticker":        q.Ticker,
		"longName":      q.LongName,
		"currency":      q.Currency,
		"exchange":      q.Exchange,
		"currentPrice":  q.CurrentPrice,
		"previousClose": q.PreviousClose,
		"open":          q.Open,
		"dayHigh":       q.DayHigh,
		"dayLow":        q.DayLow,
		"volume":        q.Volume,
		"marketCap":     q.MarketCap,
	}
}

// Result is the outcome of a Fetch: exactly one of Quote or Error is set.
// Lookup failures are data, not Go errors, because they are handed to the
// model to explain to the user.
type Result struct {
	Quote *Quote
	Error string
}

// OK reports whether the result carries a quote.
func (r Result) OK() bool { return r.Quote != nil }

// Payload returns the structured tool payload: the quote object, or {"error": msg}.
func (r Result) Payload() map[string]any {
	if r.Quote != nil {
		return r.Quote.Payload()
	}
	return map[string]any{"error": r.Error}
}

// Client is the market-data client used by the stock tool.
type Client struct {
	provider Provider
}

// NewClient creates a client backed by the given provider.
func NewClient(provider Provider) *Client {
	return &Client{provider: provider}
}

// Fetch looks up a ticker. It never returns a Go error: provider failures and
// unknown tickers both come back as a Result with Error set, naming the ticker.
func (c *Client) Fetch(ctx context.Context, ticker string) Result {
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return notFound(ticker)
	}

	info, err := c.provider.Info(ctx, ticker)
	if err != nil {
		return Result{Error: fmt.Sprintf("An error occurred while fetching data for %s: %v", ticker, err)}
	}
	if len(info) == 0 {
		return notFound(ticker)
	}

	return Result{Quote: &Quote{
		Ticker:        strings.ToUpper(ticker),
		LongName:      info.get("longName"),
		Currency:      info.get("currency"),
		Exchange:      info.get("exchange"),
		CurrentPrice:  info.get("currentPrice", "regularMarketPrice"),
		PreviousClose: info.get("previousClose"),
		Open:          info.get("open"),
		DayHigh:       info.get("dayHigh"),
		DayLow:        info.get("dayLow"),
		Volume:        info.get("volume"),
		MarketCap:     info.get("marketCap"),
	}}
}

func notFound(ticker string) Result {
	return Result{Error: fmt.Sprintf("Could not find information for ticker: %s. Please check the symbol.", ticker)}
}

// get returns the first present, non-nil value among keys, or Unavailable.
func (i Info) get(keys ...string) any {
	for _, k := range keys {
		if v, ok := i[k]; ok && v != nil {
			return v
		}
	}
	return Unavailable
}
