package dataset

import (
	"context"
	"fmt"
	"log"
	"time"

	"neuroforecast/internal/indicator"
	"neuroforecast/internal/model"
)

// EndTimeLayout is the literal date-time form accepted for the fetch window
// end, e.g. "2024-03-01 12:00:00". Times are interpreted as UTC.
const EndTimeLayout = "2006-01-02 15:04:05"

// MarketRequest describes one dataset accumulation from the exchange.
type MarketRequest struct {
	Symbol   string
	Interval string
	Limit    int
	EndTime  string // EndTimeLayout form

	// Decision is the caller-supplied label attached to the fetched window.
	Decision model.Decision

	// OrderPrice is the entry price for limit-order variants; 0 for market
	// entries. Recorded for the operator's audit trail only.
	OrderPrice float64
}

// AppendFromMarket fetches candle sequences for the target symbol and the
// fixed reference symbol (used only for the correlation computation), runs
// indicator enrichment, attaches the caller-supplied decision and appends the
// resulting training example. The two fetches are independent; results are
// combined only after both complete.
func (d *Dataset) AppendFromMarket(ctx context.Context, req MarketRequest, refSymbol string, client model.MarketClient) error {
	endTime, err := time.ParseInLocation(EndTimeLayout, req.EndTime, time.UTC)
	if err != nil {
		return fmt.Errorf("dataset: parse end time %q: %w", req.EndTime, err)
	}

	candles, err := client.FetchCandles(ctx, req.Symbol, req.Interval, req.Limit, endTime)
	if err != nil {
		return fmt.Errorf("dataset: fetch %s candles: %w", req.Symbol, err)
	}
	reference, err := client.FetchCandles(ctx, refSymbol, req.Interval, req.Limit, endTime)
	if err != nil {
		return fmt.Errorf("dataset: fetch reference %s candles: %w", refSymbol, err)
	}

	enriched := indicator.NewEngine().Enrich(candles, reference)

	if req.OrderPrice != 0 {
		log.Printf("[dataset] limit-order example: %s %s entry=%.8f", req.Symbol, req.Interval, req.OrderPrice)
	}

	return d.Append(model.TrainingExample{
		Input: model.LearningData{
			Symbol:   req.Symbol,
			Interval: req.Interval,
			Candles:  enriched,
		},
		Output: req.Decision,
	})
}
