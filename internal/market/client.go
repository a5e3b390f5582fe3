// Package market provides the exchange market-data collaborators: a REST
// client for historical klines and a WebSocket stream for live closed
// candles. Both produce normalized model.Candle values; no exchange-specific
// type escapes this package.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"neuroforecast/internal/model"
)

const (
	defaultBaseURL = "https://api.binance.com"
	defaultTimeout = 7 * time.Second

	klinesPath = "/api/v3/klines"
)

// ClientConfig configures the REST client.
type ClientConfig struct {
	BaseURL string        // default: https://api.binance.com
	Timeout time.Duration // default: 7s
}

// Client fetches closed klines over the exchange REST API. The kline
// endpoint is public; no session or signing is involved.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a REST market-data client.
func NewClient(cfg ClientConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// FetchCandles returns up to limit closed candles for symbol/interval ending
// at endTime, ordered chronologically (oldest first).
func (c *Client) FetchCandles(ctx context.Context, symbol, interval string, limit int, endTime time.Time) ([]model.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", interval)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("endTime", strconv.FormatInt(endTime.UnixMilli(), 10))

	reqURL := c.baseURL + klinesPath + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("market: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("market: fetch klines %s/%s: %w", symbol, interval, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("market: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("market: klines %s/%s: status %d: %s", symbol, interval, resp.StatusCode, body)
	}

	// Each kline arrives as a positional JSON array:
	// [openTime, open, high, low, close, volume, closeTime, quoteVolume,
	//  tradeCount, takerBuyBase, takerBuyQuote, ...]
	var rows [][]json.RawMessage
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("market: decode klines: %w", err)
	}

	candles := make([]model.Candle, 0, len(rows))
	for i, row := range rows {
		candle, err := parseKlineRow(row)
		if err != nil {
			return nil, fmt.Errorf("market: kline row %d: %w", i, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

func parseKlineRow(row []json.RawMessage) (model.Candle, error) {
	var c model.Candle
	if len(row) < 11 {
		return c, fmt.Errorf("short row: %d fields", len(row))
	}

	var err error
	if err = json.Unmarshal(row[0], &c.OpenTime); err != nil {
		return c, fmt.Errorf("openTime: %w", err)
	}
	if err = json.Unmarshal(row[6], &c.CloseTime); err != nil {
		return c, fmt.Errorf("closeTime: %w", err)
	}
	if err = json.Unmarshal(row[8], &c.TradeCount); err != nil {
		return c, fmt.Errorf("tradeCount: %w", err)
	}

	prices := []struct {
		idx  int
		name string
		dst  *float64
	}{
		{1, "open", &c.Open},
		{2, "high", &c.High},
		{3, "low", &c.Low},
		{4, "close", &c.Close},
		{5, "volume", &c.Volume},
		{7, "quoteVolume", &c.QuoteVolume},
		{9, "takerBuyBaseVolume", &c.TakerBuyBaseVolume},
		{10, "takerBuyQuoteVolume", &c.TakerBuyQuoteVolume},
	}
	for _, p := range prices {
		var s string
		if err = json.Unmarshal(row[p.idx], &s); err != nil {
			return c, fmt.Errorf("%s: %w", p.name, err)
		}
		if *p.dst, err = strconv.ParseFloat(s, 64); err != nil {
			return c, fmt.Errorf("%s: %w", p.name, err)
		}
	}
	return c, nil
}
