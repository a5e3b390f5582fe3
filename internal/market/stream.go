package market

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"neuroforecast/internal/model"
)

const (
	defaultStreamURL = "wss://stream.binance.com:9443/ws"

	streamRetryDelay      = 5 * time.Second
	streamRetryMultiplier = 2
	streamMaxRetryDelay   = 2 * time.Minute
)

// StreamConfig configures the live kline stream.
type StreamConfig struct {
	URL      string // default: wss://stream.binance.com:9443/ws
	Symbol   string
	Interval string
}

// Stream subscribes to the exchange kline stream and pushes every CLOSED
// candle into a channel. Forming candles are dropped; the prediction loop
// only ever sees finalized data.
type Stream struct {
	cfg StreamConfig

	// OnReconnect, if set, is invoked after every reconnect (metrics hook).
	OnReconnect func()
}

// NewStream creates a live candle stream.
func NewStream(cfg StreamConfig) *Stream {
	if cfg.URL == "" {
		cfg.URL = defaultStreamURL
	}
	return &Stream{cfg: cfg}
}

// klineEvent mirrors the exchange kline stream payload.
type klineEvent struct {
	EventType string `json:"e"`
	Symbol    string `json:"s"`
	Kline     struct {
		OpenTime            int64  `json:"t"`
		CloseTime           int64  `json:"T"`
		Open                string `json:"o"`
		High                string `json:"h"`
		Low                 string `json:"l"`
		Close               string `json:"c"`
		Volume              string `json:"v"`
		TradeCount          int64  `json:"n"`
		Final               bool   `json:"x"`
		QuoteVolume         string `json:"q"`
		TakerBuyBaseVolume  string `json:"V"`
		TakerBuyQuoteVolume string `json:"Q"`
	} `json:"k"`
}

// Run connects and streams closed candles into candleCh until ctx is
// cancelled. Connection drops trigger reconnects with exponential backoff;
// the subscription is implicit in the stream URL, so no resubscribe message
// is needed.
func (s *Stream) Run(ctx context.Context, candleCh chan<- model.Candle) {
	streamURL := fmt.Sprintf("%s/%s@kline_%s", s.cfg.URL, strings.ToLower(s.cfg.Symbol), s.cfg.Interval)
	delay := streamRetryDelay

	for {
		if ctx.Err() != nil {
			return
		}

		err := s.consume(ctx, streamURL, candleCh)
		if ctx.Err() != nil {
			return
		}
		log.Printf("[stream] connection lost (%v), reconnecting in %s", err, delay)

		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= streamRetryMultiplier
		if delay > streamMaxRetryDelay {
			delay = streamMaxRetryDelay
		}
		if s.OnReconnect != nil {
			s.OnReconnect()
		}
	}
}

// consume holds one connection open and forwards closed candles. Returns the
// read error that ended the connection.
func (s *Stream) consume(ctx context.Context, streamURL string, candleCh chan<- model.Candle) error {
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, streamURL, nil)
	cancel()
	if err != nil {
		return fmt.Errorf("dial %s: %w", streamURL, err)
	}
	defer conn.Close()
	log.Printf("[stream] connected to %s", streamURL)

	// Close the connection when ctx ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var ev klineEvent
		if err := json.Unmarshal(msg, &ev); err != nil {
			log.Printf("[stream] parse error: %v", err)
			continue
		}
		if ev.EventType != "kline" || !ev.Kline.Final {
			continue
		}

		candle, err := ev.candle()
		if err != nil {
			log.Printf("[stream] candle parse error: %v", err)
			continue
		}

		select {
		case candleCh <- candle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (ev *klineEvent) candle() (model.Candle, error) {
	c := model.Candle{
		OpenTime:   ev.Kline.OpenTime,
		CloseTime:  ev.Kline.CloseTime,
		TradeCount: ev.Kline.TradeCount,
	}
	fields := []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"open", ev.Kline.Open, &c.Open},
		{"high", ev.Kline.High, &c.High},
		{"low", ev.Kline.Low, &c.Low},
		{"close", ev.Kline.Close, &c.Close},
		{"volume", ev.Kline.Volume, &c.Volume},
		{"quoteVolume", ev.Kline.QuoteVolume, &c.QuoteVolume},
		{"takerBuyBaseVolume", ev.Kline.TakerBuyBaseVolume, &c.TakerBuyBaseVolume},
		{"takerBuyQuoteVolume", ev.Kline.TakerBuyQuoteVolume, &c.TakerBuyQuoteVolume},
	}
	var err error
	for _, f := range fields {
		if *f.dst, err = strconv.ParseFloat(f.raw, 64); err != nil {
			return c, fmt.Errorf("%s %q: %w", f.name, f.raw, err)
		}
	}
	return c, nil
}
