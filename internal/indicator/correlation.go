package indicator

import (
	"math"

	"neuroforecast/internal/model"
)

// Correlation computes the Pearson correlation of closing prices between
// candles and a reference series. The value at index i covers ALL candles
// from the start of both series through i: an expanding window, not a fixed
// lookback, so earlier values never change when future candles are appended.
// Means, covariance and variances are recomputed over the full prefix at
// every index.
//
// The result has the same length as candles; indices beyond the reference
// series hold the sentinel 0. Zero variance in either prefix is not guarded
// and yields an indeterminate value.
func Correlation(candles, reference []model.Candle) []float64 {
	out := make([]float64, len(candles))
	n := len(candles)
	if len(reference) < n {
		n = len(reference)
	}
	for i := 0; i < n; i++ {
		out[i] = prefixPearson(candles[:i+1], reference[:i+1])
	}
	return out
}

func prefixPearson(a, b []model.Candle) float64 {
	n := float64(len(a))

	var meanA, meanB float64
	for i := range a {
		meanA += a[i].Close
		meanB += b[i].Close
	}
	meanA /= n
	meanB /= n

	var cov, varA, varB float64
	for i := range a {
		da := a[i].Close - meanA
		db := b[i].Close - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}
	return cov / math.Sqrt(varA*varB)
}
