package indicator

import "neuroforecast/internal/model"

// Averages computes the simple moving average of closing prices over a
// trailing window of `period` candles. The result has the same length as
// candles; indices before period-1 hold the warm-up sentinel 0.
//
// A running sum is maintained across the sweep so the whole series is
// produced in a single O(n) pass, no per-window re-summing.
func Averages(candles []model.Candle, period int) []float64 {
	out := make([]float64, len(candles))
	if period <= 0 {
		return out
	}

	var sum float64
	for i := range candles {
		sum += candles[i].Close
		if i >= period {
			// Retire the close that just left the trailing window.
			sum -= candles[i-period].Close
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}
