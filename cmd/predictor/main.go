package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neuroforecast/config"
	"neuroforecast/internal/codec"
	"neuroforecast/internal/indicator"
	"neuroforecast/internal/logger"
	"neuroforecast/internal/market"
	"neuroforecast/internal/metrics"
	"neuroforecast/internal/model"
	"neuroforecast/internal/notification"
	"neuroforecast/internal/prediction"
	"neuroforecast/internal/predictor"
	"neuroforecast/internal/ringbuf"
	redisstore "neuroforecast/internal/store/redis"
	sqlitestore "neuroforecast/internal/store/sqlite"
	"neuroforecast/internal/training"
)

// predictor runs the trained network against live market data. One-shot mode
// fetches a single window, emits one decision and exits. Live mode streams
// closed candles over websocket and emits a decision per candle close.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	cfg := config.Load()

	var (
		live = flag.Bool("live", false, "stream candles and predict continuously")
		end  = flag.String("end", "", "one-shot window end time, '2006-01-02 15:04:05' UTC (default: now)")
	)
	flag.Parse()

	logger.Init("predictor", slog.LevelInfo)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	prom := metrics.NewMetrics()
	health := metrics.NewHealthStatus()
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, health)
	metricsSrv.Start()
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		metricsSrv.Stop(stopCtx)
	}()

	// ---- Storage: sqlite candle cache + decision journal ----
	store, err := sqlitestore.New(sqlitestore.StoreConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[predictor] sqlite init failed: %v", err)
	}
	defer store.Close()
	health.SetSQLiteOK(true)

	client := market.NewCachedClient(market.NewClient(market.ClientConfig{
		BaseURL: cfg.BinanceBaseURL,
	}), store)

	// ---- Redis publisher (optional, degraded mode without it) ----
	var pub *redisstore.Publisher
	pub, err = redisstore.New(redisstore.PublisherConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		log.Printf("[predictor] WARNING: redis init failed: %v (continuing without redis)", err)
		pub = nil
		health.SetRedisOK(false)
	} else {
		defer pub.Close()
		health.SetRedisOK(true)
	}

	// ---- Notifier ----
	var notifier notification.Notifier = notification.NewLogNotifier()
	if cfg.WebhookURL != "" {
		notifier = notification.NewWebhookNotifier(cfg.WebhookURL)
	}

	// ---- Restore trained network ----
	inputs := cfg.CandleLimit * codec.ValuesPerCandle
	net := predictor.New(inputs, cfg.HiddenSize, codec.OutputLen)
	orch := training.New(net, cfg.NetworkStatePath)
	if err := orch.LoadState(); err != nil {
		log.Fatalf("[predictor] state restore failed: %v", err)
	}
	svc := prediction.New(net)

	runID := logger.NewRunID(cfg.Symbol, time.Now())
	ctx = logger.WithRunID(ctx, runID)

	emitter := &emitter{
		cfg:      cfg,
		prom:     prom,
		journal:  store,
		pub:      pub,
		notifier: notifier,
	}

	if *live {
		runLive(ctx, cfg, client, svc, emitter, prom, health)
		return
	}

	endTime := time.Now().UTC()
	if *end != "" {
		endTime, err = time.ParseInLocation("2006-01-02 15:04:05", *end, time.UTC)
		if err != nil {
			log.Fatalf("[predictor] parse end time: %v", err)
		}
	}

	d, err := predictOnce(ctx, cfg, client, svc, emitter, prom, endTime)
	if err != nil {
		log.Fatalf("[predictor] %v", err)
	}
	fmt.Println(string(d.JSON()))
}

// predictOnce fetches one window for the target and reference symbols,
// enriches it and emits a single decision.
func predictOnce(ctx context.Context, cfg *config.Config, client model.MarketClient,
	svc *prediction.Service, em *emitter, prom *metrics.Metrics, endTime time.Time) (model.Decision, error) {

	candles, err := client.FetchCandles(ctx, cfg.Symbol, cfg.Interval, cfg.CandleLimit, endTime)
	if err != nil {
		return model.Decision{}, fmt.Errorf("fetch %s: %w", cfg.Symbol, err)
	}
	prom.CandlesFetched.WithLabelValues(cfg.Symbol).Add(float64(len(candles)))

	reference, err := client.FetchCandles(ctx, cfg.ReferenceSymbol, cfg.Interval, cfg.CandleLimit, endTime)
	if err != nil {
		return model.Decision{}, fmt.Errorf("fetch %s: %w", cfg.ReferenceSymbol, err)
	}
	prom.CandlesFetched.WithLabelValues(cfg.ReferenceSymbol).Add(float64(len(reference)))

	return em.predict(ctx, svc, candles, reference)
}

// runLive seeds rolling windows over REST, then streams closed candles for
// the target and reference symbols and predicts on every target close. The
// target stream feeds a ring buffer so a slow prediction never backs up the
// websocket reader.
func runLive(ctx context.Context, cfg *config.Config, client model.MarketClient,
	svc *prediction.Service, em *emitter, prom *metrics.Metrics, health *metrics.HealthStatus) {

	now := time.Now().UTC()
	window, err := client.FetchCandles(ctx, cfg.Symbol, cfg.Interval, cfg.CandleLimit, now)
	if err != nil {
		log.Fatalf("[predictor] seed %s window: %v", cfg.Symbol, err)
	}
	refWindow, err := client.FetchCandles(ctx, cfg.ReferenceSymbol, cfg.Interval, cfg.CandleLimit, now)
	if err != nil {
		log.Fatalf("[predictor] seed %s window: %v", cfg.ReferenceSymbol, err)
	}
	log.Printf("[predictor] windows seeded: %s=%d candles, %s=%d candles",
		cfg.Symbol, len(window), cfg.ReferenceSymbol, len(refWindow))

	targetCh := make(chan model.Candle, 256)
	refCh := make(chan model.Candle, 256)

	targetStream := market.NewStream(market.StreamConfig{
		URL:      cfg.BinanceWSURL,
		Symbol:   cfg.Symbol,
		Interval: cfg.Interval,
	})
	targetStream.OnReconnect = func() { prom.StreamReconnect.Inc() }

	refStream := market.NewStream(market.StreamConfig{
		URL:      cfg.BinanceWSURL,
		Symbol:   cfg.ReferenceSymbol,
		Interval: cfg.Interval,
	})
	refStream.OnReconnect = func() { prom.StreamReconnect.Inc() }

	go targetStream.Run(ctx, targetCh)
	go refStream.Run(ctx, refCh)
	health.SetStreamConnected(true)

	// Target closes go through the SPSC ring; the websocket side never
	// blocks on prediction latency.
	ring := ringbuf.New[model.Candle](256)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case c, ok := <-targetCh:
				if !ok {
					return
				}
				if !ring.Push(c) {
					log.Printf("[predictor] ring full, dropped candle openTime=%d (overflow=%d)",
						c.OpenTime, ring.Overflow())
				}
			}
		}
	}()

	log.Printf("[predictor] live: %s/%s closes drive prediction, %s feeds correlation",
		cfg.Symbol, cfg.Interval, cfg.ReferenceSymbol)

	poll := time.NewTicker(250 * time.Millisecond)
	defer poll.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[predictor] shutting down")
			return

		case rc, ok := <-refCh:
			if !ok {
				return
			}
			refWindow = roll(refWindow, rc, cfg.CandleLimit)

		case <-poll.C:
			for {
				c, ok := ring.Pop()
				if !ok {
					break
				}
				health.RecordCandle(time.Now())
				window = roll(window, c, cfg.CandleLimit)
				if len(window) < cfg.CandleLimit {
					continue
				}
				if _, err := em.predict(ctx, svc, window, refWindow); err != nil {
					log.Printf("[predictor] predict failed: %v", err)
				}
			}
		}
	}
}

// roll appends a candle and trims the window to at most limit entries.
func roll(window []model.Candle, c model.Candle, limit int) []model.Candle {
	window = append(window, c)
	if len(window) > limit {
		window = window[len(window)-limit:]
	}
	return window
}

// emitter runs enrichment + prediction and fans the decision out to the
// journal, publisher and notifier. Downstream failures are logged, never
// fatal; the decision itself is already made.
type emitter struct {
	cfg      *config.Config
	prom     *metrics.Metrics
	journal  model.DecisionJournal
	pub      *redisstore.Publisher
	notifier notification.Notifier
}

func (em *emitter) predict(ctx context.Context, svc *prediction.Service,
	candles, reference []model.Candle) (model.Decision, error) {

	enrichStart := time.Now()
	enriched := indicator.NewEngine().Enrich(candles, reference)
	em.prom.EnrichDur.Observe(time.Since(enrichStart).Seconds())

	ld := model.LearningData{
		Symbol:   em.cfg.Symbol,
		Interval: em.cfg.Interval,
		Candles:  enriched,
	}

	start := time.Now()
	d, err := svc.Predict(ld)
	if err != nil {
		return model.Decision{}, fmt.Errorf("predict %s: %w", ld.Key(), err)
	}
	em.prom.PredictDur.Observe(time.Since(start).Seconds())
	em.prom.PredictionsTotal.WithLabelValues(string(d.Position)).Inc()

	slog.Info("decision",
		append(logger.WithRun(ctx),
			slog.String("symbol", em.cfg.Symbol),
			slog.String("interval", em.cfg.Interval),
			slog.String("position", string(d.Position)),
			slog.Float64("take_profit", d.TakeProfit),
			slog.Float64("stop_loss", d.StopLoss))...)

	now := time.Now().UTC()
	if err := em.journal.RecordDecision(ctx, em.cfg.Symbol, em.cfg.Interval, now, d); err != nil {
		log.Printf("[predictor] journal write failed: %v", err)
	}

	if em.pub != nil {
		if err := em.pub.PublishDecision(ctx, em.cfg.Symbol, em.cfg.Interval, d); err != nil {
			log.Printf("[predictor] redis publish failed: %v", err)
		}
		if len(enriched) > 0 {
			last := enriched[len(enriched)-1]
			if err := em.pub.PublishEnriched(ctx, em.cfg.Symbol, em.cfg.Interval, last); err != nil {
				log.Printf("[predictor] redis enriched publish failed: %v", err)
			}
		}
	}

	if d.Position != model.PositionNone {
		alert := notification.DecisionAlert(em.cfg.Symbol, em.cfg.Interval, d)
		if err := em.notifier.Send(ctx, alert); err != nil {
			log.Printf("[predictor] notify failed: %v", err)
		}
	}

	return d, nil
}
