package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"neuroforecast/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(StoreConfig{DBPath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func candleAt(openTime int64, close float64) model.Candle {
	return model.Candle{
		OpenTime: openTime, CloseTime: openTime + 3_599_999,
		Open: close - 1, High: close + 2, Low: close - 2, Close: close,
		Volume: 10, QuoteVolume: close * 10, TradeCount: 100,
		TakerBuyBaseVolume: 5, TakerBuyQuoteVolume: close * 5,
	}
}

func TestSaveLoadCandles_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	batch := []model.Candle{
		candleAt(1_000, 100),
		candleAt(2_000, 102),
		candleAt(3_000, 101),
	}
	if err := s.SaveCandles(ctx, "ETHUSDT", "1h", batch); err != nil {
		t.Fatalf("SaveCandles: %v", err)
	}

	got, err := s.LoadCandles(ctx, "ETHUSDT", "1h", 10, time.UnixMilli(3_000))
	if err != nil {
		t.Fatalf("LoadCandles: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("candles: got %d, want 3", len(got))
	}
	// Chronological order, full field round trip.
	for i, want := range batch {
		if got[i] != want {
			t.Errorf("candle %d: got %+v, want %+v", i, got[i], want)
		}
	}
}

func TestLoadCandles_WindowAndLimit(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var batch []model.Candle
	for i := int64(1); i <= 5; i++ {
		batch = append(batch, candleAt(i*1_000, float64(100+i)))
	}
	if err := s.SaveCandles(ctx, "ETHUSDT", "1h", batch); err != nil {
		t.Fatal(err)
	}

	// Window ending at 4000 with limit 2 → the two newest at or before it.
	got, err := s.LoadCandles(ctx, "ETHUSDT", "1h", 2, time.UnixMilli(4_000))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].OpenTime != 3_000 || got[1].OpenTime != 4_000 {
		t.Errorf("window: got %+v", got)
	}
}

func TestSaveCandles_UpsertIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	batch := []model.Candle{candleAt(1_000, 100)}
	for i := 0; i < 2; i++ {
		if err := s.SaveCandles(ctx, "ETHUSDT", "1h", batch); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.LoadCandles(ctx, "ETHUSDT", "1h", 10, time.UnixMilli(1_000))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Errorf("after double save: got %d candles, want 1", len(got))
	}
}

func TestLoadCandles_SymbolIsolation(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.SaveCandles(ctx, "ETHUSDT", "1h", []model.Candle{candleAt(1_000, 100)}); err != nil {
		t.Fatal(err)
	}
	got, err := s.LoadCandles(ctx, "BTCUSDT", "1h", 10, time.UnixMilli(2_000))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("cross-symbol leak: got %d candles, want 0", len(got))
	}
}

func TestRecordDecision(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	d := model.Decision{Position: model.PositionLong, TakeProfit: 115, StopLoss: 98}
	if err := s.RecordDecision(ctx, "ETHUSDT", "1h", time.UnixMilli(5_000), d); err != nil {
		t.Fatalf("RecordDecision: %v", err)
	}

	var position string
	var tp, sl float64
	err := s.db.QueryRow(`SELECT position, take_profit, stop_loss FROM decisions WHERE symbol = ?`, "ETHUSDT").
		Scan(&position, &tp, &sl)
	if err != nil {
		t.Fatalf("query decision: %v", err)
	}
	if position != "LONG" || tp != 115 || sl != 98 {
		t.Errorf("journaled decision: got (%s, %v, %v)", position, tp, sl)
	}
}
