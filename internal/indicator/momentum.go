package indicator

import "neuroforecast/internal/model"

// MomentumAcc carries the cumulative gain/loss accumulators across indices of
// a momentum sweep. It is exported so the incremental algorithm can be
// unit-tested in isolation at any starting index.
type MomentumAcc struct {
	Gain float64
	Loss float64
}

// Add folds one close-to-close change into the accumulators.
func (a *MomentumAcc) Add(delta float64) {
	if delta > 0 {
		a.Gain += delta
	} else {
		a.Loss -= delta
	}
}

// Retire removes the contribution of a change that has fallen out of the
// trailing window.
func (a *MomentumAcc) Retire(delta float64) {
	if delta > 0 {
		a.Gain -= delta
	} else {
		a.Loss += delta
	}
}

// Oscillator derives the bounded oscillator value from the accumulators.
// Division by a zero average loss is deliberately not guarded: the resulting
// Inf/NaN propagates into the enriched candle and the training vector.
func (a *MomentumAcc) Oscillator(period int) float64 {
	avgGain := a.Gain / float64(period)
	avgLoss := a.Loss / float64(period)
	return 100.0 - 100.0/(1.0+avgGain/avgLoss)
}

// Momentum computes the RSI-style momentum oscillator over closing prices.
// The result has the same length as candles; indices before `period` hold
// the warm-up sentinel 0.
//
// At index period the accumulators are seeded from the first `period`
// close-to-close changes. For every later index the change that fell
// `period` steps behind is retired and the newest change added. The state
// is carried across indices, never recomputed from scratch.
func Momentum(candles []model.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	if period <= 0 || len(candles) <= period {
		return out
	}

	var acc MomentumAcc
	for i := 1; i <= period; i++ {
		acc.Add(candles[i].Close - candles[i-1].Close)
	}
	out[period] = acc.Oscillator(period)

	for i := period + 1; i < len(candles); i++ {
		acc.Retire(candles[i-period].Close - candles[i-period-1].Close)
		acc.Add(candles[i].Close - candles[i-1].Close)
		out[i] = acc.Oscillator(period)
	}
	return out
}
