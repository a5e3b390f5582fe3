// Package redis publishes live pipeline output (decisions and enriched
// candle snapshots) to Redis for downstream consumers. Delivery is
// advisory: a failed publish is logged and never fails the pipeline.
package redis

import (
	"context"
	"fmt"
	"log"
	"time"

	"neuroforecast/internal/model"

	goredis "github.com/go-redis/redis/v8"
)

const defaultLatestTTL = 30 * time.Minute

// PublisherConfig configures the Redis publisher.
type PublisherConfig struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int
}

// Publisher writes latest-value keys and pub/sub notifications.
type Publisher struct {
	client *goredis.Client
}

// Client returns the underlying Redis client for health checks.
func (p *Publisher) Client() *goredis.Client { return p.client }

// New creates a new Publisher and pings the server.
func New(cfg PublisherConfig) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return &Publisher{client: client}, nil
}

// PublishDecision stores the latest decision under
// "latest:decision:{symbol}:{interval}" with a TTL and publishes it on
// "pub:decision:{symbol}:{interval}".
func (p *Publisher) PublishDecision(ctx context.Context, symbol, interval string, d model.Decision) error {
	data := d.JSON()
	key := "latest:decision:" + symbol + ":" + interval

	if err := p.client.Set(ctx, key, data, defaultLatestTTL).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	if err := p.client.Publish(ctx, "pub:decision:"+symbol+":"+interval, data).Err(); err != nil {
		return fmt.Errorf("redis: publish decision %s: %w", symbol, err)
	}
	return nil
}

// PublishEnriched refreshes the latest enriched-candle snapshot under
// "latest:candle:{symbol}:{interval}".
func (p *Publisher) PublishEnriched(ctx context.Context, symbol, interval string, c model.EnrichedCandle) error {
	key := "latest:candle:" + symbol + ":" + interval
	if err := p.client.Set(ctx, key, c.JSON(), defaultLatestTTL).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Close releases the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}
