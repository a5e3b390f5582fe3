package market

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"neuroforecast/internal/model"
)

const klinePayload = `[
  [1700000000000, "2000.10", "2010.50", "1995.00", "2005.25", "120.5",
   1700003599999, "241602.11", 4321, "60.2", "120801.05", "0"],
  [1700003600000, "2005.25", "2020.00", "2001.00", "2018.75", "98.1",
   1700007199999, "197803.42", 3890, "49.0", "98901.71", "0"]
]`

func TestFetchCandles_ParsesKlines(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"symbol":   r.URL.Query().Get("symbol"),
			"interval": r.URL.Query().Get("interval"),
			"limit":    r.URL.Query().Get("limit"),
			"endTime":  r.URL.Query().Get("endTime"),
		}
		w.Write([]byte(klinePayload))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	end := time.UnixMilli(1700007199999).UTC()
	candles, err := c.FetchCandles(context.Background(), "ETHUSDT", "1h", 2, end)
	if err != nil {
		t.Fatalf("FetchCandles: %v", err)
	}

	if gotQuery["symbol"] != "ETHUSDT" || gotQuery["interval"] != "1h" ||
		gotQuery["limit"] != "2" || gotQuery["endTime"] != "1700007199999" {
		t.Errorf("query params: got %v", gotQuery)
	}

	if len(candles) != 2 {
		t.Fatalf("candles: got %d, want 2", len(candles))
	}
	first := candles[0]
	if first.OpenTime != 1700000000000 || first.CloseTime != 1700003599999 {
		t.Errorf("timestamps: got %+v", first)
	}
	if first.Open != 2000.10 || first.High != 2010.50 || first.Low != 1995.00 || first.Close != 2005.25 {
		t.Errorf("OHLC: got %+v", first)
	}
	if first.Volume != 120.5 || first.QuoteVolume != 241602.11 || first.TradeCount != 4321 {
		t.Errorf("volumes: got %+v", first)
	}
	if first.TakerBuyBaseVolume != 60.2 || first.TakerBuyQuoteVolume != 120801.05 {
		t.Errorf("taker volumes: got %+v", first)
	}
	if candles[1].Close != 2018.75 {
		t.Errorf("second close: got %v, want 2018.75", candles[1].Close)
	}
}

func TestFetchCandles_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	if _, err := c.FetchCandles(context.Background(), "NOPE", "1h", 5, time.Now()); err == nil {
		t.Error("want error for non-200 status, got nil")
	}
}

func TestFetchCandles_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	if _, err := c.FetchCandles(context.Background(), "ETHUSDT", "1h", 5, time.Now()); err == nil {
		t.Error("want error for malformed body, got nil")
	}
}

func TestKlineEvent_Candle(t *testing.T) {
	raw := `{"e":"kline","s":"ETHUSDT","k":{"t":1700000000000,"T":1700003599999,
		"o":"2000.10","h":"2010.50","l":"1995.00","c":"2005.25","v":"120.5",
		"n":4321,"x":true,"q":"241602.11","V":"60.2","Q":"120801.05"}}`

	var ev klineEvent
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal event: %v", err)
	}
	if !ev.Kline.Final {
		t.Fatal("expected final kline")
	}

	c, err := ev.candle()
	if err != nil {
		t.Fatalf("candle: %v", err)
	}
	if c.Close != 2005.25 || c.OpenTime != 1700000000000 || c.TradeCount != 4321 {
		t.Errorf("candle: got %+v", c)
	}
}

// recordingCache is an in-memory CandleCache for wiring tests.
type recordingCache struct {
	stored []model.Candle
	serve  []model.Candle
}

func (r *recordingCache) SaveCandles(ctx context.Context, symbol, interval string, candles []model.Candle) error {
	r.stored = append(r.stored, candles...)
	return nil
}
func (r *recordingCache) LoadCandles(ctx context.Context, symbol, interval string, limit int, endTime time.Time) ([]model.Candle, error) {
	return r.serve, nil
}
func (r *recordingCache) Close() error { return nil }

type countingClient struct {
	calls   int
	candles []model.Candle
}

func (c *countingClient) FetchCandles(ctx context.Context, symbol, interval string, limit int, endTime time.Time) ([]model.Candle, error) {
	c.calls++
	return c.candles, nil
}

func TestCachedClient_HitSkipsUpstream(t *testing.T) {
	window := []model.Candle{{Close: 1}, {Close: 2}}
	upstream := &countingClient{}
	cc := NewCachedClient(upstream, &recordingCache{serve: window})

	got, err := cc.FetchCandles(context.Background(), "ETHUSDT", "1h", 2, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || upstream.calls != 0 {
		t.Errorf("cache hit: got %d candles, %d upstream calls", len(got), upstream.calls)
	}
}

func TestCachedClient_MissFetchesAndSavesThrough(t *testing.T) {
	window := []model.Candle{{Close: 1}, {Close: 2}, {Close: 3}}
	upstream := &countingClient{candles: window}
	cache := &recordingCache{}
	cc := NewCachedClient(upstream, cache)

	got, err := cc.FetchCandles(context.Background(), "ETHUSDT", "1h", 3, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if upstream.calls != 1 || len(got) != 3 {
		t.Errorf("cache miss: got %d candles, %d upstream calls", len(got), upstream.calls)
	}
	if len(cache.stored) != 3 {
		t.Errorf("write-through: %d candles stored, want 3", len(cache.stored))
	}
}
