// Package metrics exposes Prometheus metrics and a health endpoint for the
// forecasting pipeline binaries.
package metrics

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the forecasting pipeline.
type Metrics struct {
	CandlesFetched  *prometheus.CounterVec // labels: symbol
	FetchDur        prometheus.Histogram
	StreamReconnect prometheus.Counter

	EnrichDur prometheus.Histogram

	DatasetSize     prometheus.Gauge
	ExamplesAdded   prometheus.Counter
	TrainIterations prometheus.Counter
	TrainError      prometheus.Gauge

	PredictionsTotal *prometheus.CounterVec // labels: position
	PredictDur       prometheus.Histogram
}

// NewMetrics registers and returns all Prometheus metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		CandlesFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_candles_fetched_total",
			Help: "Total candles fetched from the exchange",
		}, []string{"symbol"}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_fetch_duration_seconds",
			Help:    "Kline fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		StreamReconnect: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_stream_reconnects_total",
			Help: "Total live stream reconnects",
		}),
		EnrichDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_enrich_duration_seconds",
			Help:    "Indicator enrichment latency per candle window",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
		DatasetSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_dataset_examples",
			Help: "Current training example count",
		}),
		ExamplesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_dataset_examples_added_total",
			Help: "Training examples appended",
		}),
		TrainIterations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "forecast_train_iterations_total",
			Help: "Training iterations completed",
		}),
		TrainError: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "forecast_train_error",
			Help: "Most recent training epoch error",
		}),
		PredictionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_predictions_total",
			Help: "Decisions emitted by position",
		}, []string{"position"}),
		PredictDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "forecast_predict_duration_seconds",
			Help:    "Flatten + activate + decode latency",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		}),
	}

	prometheus.MustRegister(
		m.CandlesFetched, m.FetchDur, m.StreamReconnect,
		m.EnrichDur,
		m.DatasetSize, m.ExamplesAdded, m.TrainIterations, m.TrainError,
		m.PredictionsTotal, m.PredictDur,
	)
	return m
}

// HealthStatus tracks liveness of pipeline dependencies.
type HealthStatus struct {
	mu sync.RWMutex

	StartedAt       time.Time
	StreamConnected bool
	LastCandleTime  time.Time
	RedisConnected  bool
	SQLiteOK        bool
	LastCheckAt     time.Time
}

// NewHealthStatus creates a HealthStatus with the start time set.
func NewHealthStatus() *HealthStatus {
	return &HealthStatus{StartedAt: time.Now()}
}

// SetStreamConnected records live stream connectivity.
func (h *HealthStatus) SetStreamConnected(ok bool) {
	h.mu.Lock()
	h.StreamConnected = ok
	h.mu.Unlock()
}

// RecordCandle records receipt of a closed candle.
func (h *HealthStatus) RecordCandle(ts time.Time) {
	h.mu.Lock()
	h.LastCandleTime = ts
	h.mu.Unlock()
}

// SetRedisOK records the last Redis probe result.
func (h *HealthStatus) SetRedisOK(ok bool) {
	h.mu.Lock()
	h.RedisConnected = ok
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// SetSQLiteOK records the last SQLite probe result.
func (h *HealthStatus) SetSQLiteOK(ok bool) {
	h.mu.Lock()
	h.SQLiteOK = ok
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// ServeHTTP handles the /healthz endpoint.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	candleAge := ""
	if !h.LastCandleTime.IsZero() {
		candleAge = time.Since(h.LastCandleTime).Round(time.Millisecond).String()
	}

	status := struct {
		Uptime          string `json:"uptime"`
		StreamConnected bool   `json:"stream_connected"`
		LastCandleTime  string `json:"last_candle_time"`
		CandleAge       string `json:"candle_age"`
		RedisConnected  bool   `json:"redis_connected"`
		SQLiteOK        bool   `json:"sqlite_ok"`
		LastCheckAt     string `json:"last_check_at"`
	}{
		Uptime:          time.Since(h.StartedAt).Round(time.Second).String(),
		StreamConnected: h.StreamConnected,
		LastCandleTime:  h.LastCandleTime.Format(time.RFC3339),
		CandleAge:       candleAge,
		RedisConnected:  h.RedisConnected,
		SQLiteOK:        h.SQLiteOK,
		LastCheckAt:     h.LastCheckAt.Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	addr string
	srv  *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, health *HealthStatus) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", health.ServeHTTP)

	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: mux},
	}
}

// Start launches the HTTP server in a goroutine.
func (s *Server) Start() {
	go func() {
		log.Printf("[metrics] server listening on %s", s.addr)
		if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Printf("[metrics] server error: %v", err)
		}
	}()
}

// Stop gracefully shuts down the metrics server.
func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}
