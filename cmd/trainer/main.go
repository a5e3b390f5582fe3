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
	"neuroforecast/internal/codec"
	"neuroforecast/internal/dataset"
	"neuroforecast/internal/logger"
	"neuroforecast/internal/metrics"
	"neuroforecast/internal/model"
	"neuroforecast/internal/predictor"
	"neuroforecast/internal/training"
)

// trainer retrains the network over the full dataset from its current
// persisted state and writes the new state back on completion.
func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)
	cfg := config.Load()

	var (
		iterations = flag.Int("iterations", cfg.MaxIterations, "training iteration count")
		learnRate  = flag.Float64("rate", cfg.LearnRate, "backpropagation learning rate")
	)
	flag.Parse()

	logger.Init("trainer", slog.LevelInfo)

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

	ds, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		log.Fatalf("[trainer] dataset load failed: %v", err)
	}
	prom.DatasetSize.Set(float64(ds.Len()))

	pairs := training.BuildPairs(ds)
	if len(pairs) == 0 {
		log.Fatalf("[trainer] dataset %s is empty, nothing to train on", ds.Path())
	}

	net := predictor.New(len(pairs[0].Input), cfg.HiddenSize, codec.OutputLen)
	orch := training.New(net, cfg.NetworkStatePath)
	if err := orch.LoadState(); err != nil {
		log.Fatalf("[trainer] state restore failed: %v", err)
	}

	runID := logger.NewRunID(cfg.Symbol, time.Now())
	ctx = logger.WithRunID(ctx, runID)
	slog.Info("training started",
		append(logger.WithRun(ctx),
			slog.Int("examples", ds.Len()),
			slog.Int("inputs", len(pairs[0].Input)),
			slog.Int("hidden", cfg.HiddenSize),
			slog.Int("iterations", *iterations),
			slog.Float64("learn_rate", *learnRate))...)

	trainCfg := model.TrainConfig{
		MaxError:      cfg.MaxError,
		MaxIterations: *iterations,
		LearnRate:     *learnRate,
	}

	start := time.Now()
	err = orch.Train(ctx, ds, trainCfg, func(ev model.ProgressEvent) {
		prom.TrainIterations.Inc()
		prom.TrainError.Set(ev.Error)
		slog.Info("training progress",
			append(logger.WithRun(ctx),
				slog.Int("iteration", ev.Iteration),
				slog.Int("total", ev.Total),
				slog.Float64("error", ev.Error))...)
	})
	if err != nil {
		log.Fatalf("[trainer] training failed: %v", err)
	}

	slog.Info("training complete",
		append(logger.WithRun(ctx),
			slog.Duration("elapsed", time.Since(start)),
			slog.String("state_path", cfg.NetworkStatePath))...)
}
