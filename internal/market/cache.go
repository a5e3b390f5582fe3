package market

import (
	"context"
	"log"
	"time"

	"neuroforecast/internal/model"
)

// CachedClient layers a write-through candle cache over a MarketClient.
// Cache hits skip the network entirely; fetched batches are saved back on
// a best-effort basis (cache failures never fail the fetch).
type CachedClient struct {
	client model.MarketClient
	cache  model.CandleCache
}

// NewCachedClient wraps client with the given cache.
func NewCachedClient(client model.MarketClient, cache model.CandleCache) *CachedClient {
	return &CachedClient{client: client, cache: cache}
}

// FetchCandles serves the window from cache when it is fully present,
// otherwise fetches upstream and saves the batch through.
func (c *CachedClient) FetchCandles(ctx context.Context, symbol, interval string, limit int, endTime time.Time) ([]model.Candle, error) {
	cached, err := c.cache.LoadCandles(ctx, symbol, interval, limit, endTime)
	if err != nil {
		log.Printf("[market] cache read failed for %s/%s: %v", symbol, interval, err)
	} else if len(cached) == limit {
		return cached, nil
	}

	candles, err := c.client.FetchCandles(ctx, symbol, interval, limit, endTime)
	if err != nil {
		return nil, err
	}
	if err := c.cache.SaveCandles(ctx, symbol, interval, candles); err != nil {
		log.Printf("[market] cache write failed for %s/%s: %v", symbol, interval, err)
	}
	return candles, nil
}
