package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"neuroforecast/config"
	"neuroforecast/internal/dataset"
	"neuroforecast/internal/logger"
	"neuroforecast/internal/market"
	"neuroforecast/internal/model"
	sqlitestore "neuroforecast/internal/store/sqlite"
)

// collector appends one labeled training example to the dataset: it fetches
// a candle window for the target symbol plus the reference symbol, enriches
// it with indicators and stores the example with the operator's decision.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	cfg := config.Load()

	var (
		symbol     = flag.String("symbol", cfg.Symbol, "target symbol, e.g. ETHUSDT")
		interval   = flag.String("interval", cfg.Interval, "candle interval, e.g. 1h")
		limit      = flag.Int("limit", cfg.CandleLimit, "candles per example")
		end        = flag.String("end", "", "window end time, '2006-01-02 15:04:05' UTC (default: now)")
		position   = flag.String("position", "", "decision label: LONG, SHORT or NO")
		takeProfit = flag.Float64("tp", 0, "take-profit price for the label")
		stopLoss   = flag.Float64("sl", 0, "stop-loss price for the label")
		orderPrice = flag.Float64("price", 0, "entry price (0 = market entry)")
	)
	flag.Parse()

	logger.Init("collector", slog.LevelInfo)

	pos, err := model.ParsePosition(*position)
	if err != nil {
		log.Fatalf("[collector] %v", err)
	}

	endTime := *end
	if endTime == "" {
		endTime = time.Now().UTC().Format(dataset.EndTimeLayout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// Write-through sqlite cache in front of the exchange client, so
	// repeated collections over the same window skip the network.
	cache, err := sqlitestore.New(sqlitestore.StoreConfig{DBPath: cfg.SQLitePath})
	if err != nil {
		log.Fatalf("[collector] sqlite init failed: %v", err)
	}
	defer cache.Close()

	client := market.NewCachedClient(market.NewClient(market.ClientConfig{
		BaseURL: cfg.BinanceBaseURL,
	}), cache)

	ds, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		log.Fatalf("[collector] dataset load failed: %v", err)
	}

	runID := logger.NewRunID(*symbol, time.Now())
	ctx = logger.WithRunID(ctx, runID)
	slog.Info("collecting example",
		append(logger.WithRun(ctx),
			slog.String("symbol", *symbol),
			slog.String("interval", *interval),
			slog.Int("limit", *limit),
			slog.String("end", endTime),
			slog.String("position", string(pos)))...)

	req := dataset.MarketRequest{
		Symbol:   *symbol,
		Interval: *interval,
		Limit:    *limit,
		EndTime:  endTime,
		Decision: model.Decision{
			Position:   pos,
			TakeProfit: *takeProfit,
			StopLoss:   *stopLoss,
		},
		OrderPrice: *orderPrice,
	}

	if err := ds.AppendFromMarket(ctx, req, cfg.ReferenceSymbol, client); err != nil {
		log.Fatalf("[collector] append failed: %v", err)
	}

	slog.Info("example appended",
		append(logger.WithRun(ctx),
			slog.Int("dataset_size", ds.Len()),
			slog.String("path", ds.Path()))...)
}
