// Package codec flattens indicator-enriched market data and decision labels
// into numeric vectors for the predictor, and decodes raw output vectors back
// into decisions. No semantic meaning survives flattening except position in
// the vector; this package owns the positional contract.
package codec

import "neuroforecast/internal/model"

// Per-candle slot layout inside an input vector.
const ValuesPerCandle = 8

// Output vector layout: one-hot position triple followed by the two prices.
const (
	OutputLen      = 5
	slotLong       = 0
	slotShort      = 1
	slotNone       = 2
	slotTakeProfit = 3
	slotStopLoss   = 4
)

// FlattenInput encodes a learning sequence as a vector of length 8·N. For
// each enriched candle, in chronological order, it appends
// [open, high, low, close, shortAverage, longAverage, momentum, correlation].
// Candle order is preserved; it is the only place temporal order is encoded.
func FlattenInput(ld model.LearningData) []float64 {
	out := make([]float64, 0, len(ld.Candles)*ValuesPerCandle)
	for _, c := range ld.Candles {
		out = append(out,
			c.Open,
			c.High,
			c.Low,
			c.Close,
			c.ShortAverage,
			c.LongAverage,
			c.Momentum,
			c.Correlation,
		)
	}
	return out
}

// FlattenOutput encodes a decision as exactly 5 numbers: the one-hot
// {LONG, SHORT, NO} triple in that fixed slot order, then the take-profit
// and stop-loss prices.
func FlattenOutput(d model.Decision) []float64 {
	out := make([]float64, OutputLen)
	switch d.Position {
	case model.PositionLong:
		out[slotLong] = 1
	case model.PositionShort:
		out[slotShort] = 1
	default:
		out[slotNone] = 1
	}
	out[slotTakeProfit] = d.TakeProfit
	out[slotStopLoss] = d.StopLoss
	return out
}

// UnflattenOutput decodes a raw predictor output vector. The position is
// decoded by exact equality: slot 0 == 1 means LONG, else slot 1 == 1 means
// SHORT, else NO. A continuous output that is never exactly 1 silently
// falls through to NO. The prices are read verbatim from slots 3 and 4; the
// one-hot triple's third member is never read during decode.
func UnflattenOutput(v []float64) model.Decision {
	d := model.Decision{Position: model.PositionNone}
	if v[slotLong] == 1 {
		d.Position = model.PositionLong
	} else if v[slotShort] == 1 {
		d.Position = model.PositionShort
	}
	d.TakeProfit = v[slotTakeProfit]
	d.StopLoss = v[slotStopLoss]
	return d
}
