package model

import "encoding/json"

// Candle represents a single closed kline for one symbol and interval.
// Prices and volumes are float64 as delivered by the exchange; timestamps
// are epoch milliseconds. A candle is immutable once fetched.
type Candle struct {
	OpenTime            int64   `json:"openTime"`
	CloseTime           int64   `json:"closeTime"`
	Open                float64 `json:"open"`
	High                float64 `json:"high"`
	Low                 float64 `json:"low"`
	Close               float64 `json:"close"`
	Volume              float64 `json:"volume"`
	QuoteVolume         float64 `json:"quoteVolume"`
	TradeCount          int64   `json:"tradeCount"`
	TakerBuyBaseVolume  float64 `json:"takerBuyBaseVolume"`
	TakerBuyQuoteVolume float64 `json:"takerBuyQuoteVolume"`
}

// JSON returns the JSON-encoded candle (ignoring errors for hot-path usage).
func (c *Candle) JSON() []byte {
	b, _ := json.Marshal(c)
	return b
}

// EnrichedCandle is a Candle plus the four derived indicator scalars.
// Enriched sequences are strictly index-aligned with their source candles.
type EnrichedCandle struct {
	Candle
	ShortAverage float64 `json:"shortAverage"`
	LongAverage  float64 `json:"longAverage"`
	Momentum     float64 `json:"momentum"`
	Correlation  float64 `json:"correlation"`
}

// JSON returns the JSON-encoded enriched candle (ignoring errors for
// hot-path usage).
func (e *EnrichedCandle) JSON() []byte {
	b, _ := json.Marshal(e)
	return b
}

// LearningData is an indicator-enriched candle sequence for one symbol and
// interval, chronological with the oldest candle first. Order is the only
// signal of time that survives into the feature vector.
type LearningData struct {
	Symbol   string           `json:"symbol"`
	Interval string           `json:"interval"`
	Candles  []EnrichedCandle `json:"candles"`
}

// Key returns a unique key for this sequence: "symbol:interval".
func (ld *LearningData) Key() string {
	return ld.Symbol + ":" + ld.Interval
}
