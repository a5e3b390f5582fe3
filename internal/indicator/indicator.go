// Package indicator computes technical indicator series over candle data.
//
// All computations are series-oriented: they take a chronological candle
// slice and return a float64 slice of exactly the same length, index-aligned
// with the input. Indices inside an indicator's warm-up period hold the
// sentinel value 0 rather than an error or missing value.
package indicator

import "neuroforecast/internal/model"

// Default indicator periods applied by Engine.Enrich.
const (
	DefaultShortPeriod    = 50
	DefaultLongPeriod     = 200
	DefaultMomentumPeriod = 14
)

// Engine composes the indicator computations into enriched candle sequences.
type Engine struct {
	ShortPeriod    int
	LongPeriod     int
	MomentumPeriod int
}

// NewEngine creates an engine with the default periods.
func NewEngine() *Engine {
	return &Engine{
		ShortPeriod:    DefaultShortPeriod,
		LongPeriod:     DefaultLongPeriod,
		MomentumPeriod: DefaultMomentumPeriod,
	}
}

// Enrich computes all indicator series for candles and produces one
// EnrichedCandle per input candle, index-aligned. The reference series is
// used only for the correlation computation.
func (e *Engine) Enrich(candles, reference []model.Candle) []model.EnrichedCandle {
	short := Averages(candles, e.ShortPeriod)
	long := Averages(candles, e.LongPeriod)
	mom := Momentum(candles, e.MomentumPeriod)
	corr := Correlation(candles, reference)

	enriched := make([]model.EnrichedCandle, len(candles))
	for i, c := range candles {
		enriched[i] = model.EnrichedCandle{
			Candle:       c,
			ShortAverage: short[i],
			LongAverage:  long[i],
			Momentum:     mom[i],
			Correlation:  corr[i],
		}
	}
	return enriched
}
