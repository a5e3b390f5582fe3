package model

import (
	"context"
	"time"
)

// ── Collaborator Port Interfaces ──
// These interfaces decouple the feature-engineering core from its external
// collaborators (exchange client, predictor, storage). Each concrete
// implementation satisfies one or more of these interfaces.

// MarketClient fetches closed candles from an exchange.
// It is passed into the operations that need it rather than stored, keeping
// the core free of any exchange-specific type.
type MarketClient interface {
	// FetchCandles returns up to limit closed candles for symbol/interval
	// ending at endTime, ordered chronologically (oldest first).
	FetchCandles(ctx context.Context, symbol, interval string, limit int, endTime time.Time) ([]Candle, error)
}

// VectorPair is one flattened training example: an input feature vector of
// length 8·N and an output vector of length 5.
type VectorPair struct {
	Input  []float64
	Output []float64
}

// TrainConfig parameterizes a single Predictor training run.
type TrainConfig struct {
	// MaxError is the target cross-entropy error; training stops early when
	// the epoch error drops below it.
	MaxError float64

	// MaxIterations is the fixed total iteration (epoch) count.
	MaxIterations int

	// LearnRate is the backpropagation learning rate.
	LearnRate float64
}

// ProgressEvent is an advisory training progress notification. It never
// alters training state; consumers use it for logging and metrics only.
type ProgressEvent struct {
	Iteration int
	Total     int
	Error     float64
}

// Predictor is the external learning collaborator consumed through a generic
// train/activate/serialize contract. Its learned state is opaque to the core.
type Predictor interface {
	// Train retrains from the predictor's current state over the full pair
	// set. onProgress, if non-nil, receives advisory progress events at a
	// steady cadence.
	Train(ctx context.Context, pairs []VectorPair, cfg TrainConfig, onProgress func(ProgressEvent)) error

	// Activate runs a single forward pass and returns the raw output vector.
	Activate(input []float64) ([]float64, error)

	// Snapshot serializes the learned state as an opaque blob.
	Snapshot() ([]byte, error)

	// Restore replaces the learned state from an opaque blob.
	Restore(data []byte) error
}

// ── Storage Port Interfaces ──

// CandleCache is a write-through cache of fetched candles.
type CandleCache interface {
	// SaveCandles upserts a fetched candle batch for symbol/interval.
	SaveCandles(ctx context.Context, symbol, interval string, candles []Candle) error

	// LoadCandles reads up to limit cached candles ending at or before
	// endTime, ordered chronologically.
	LoadCandles(ctx context.Context, symbol, interval string, limit int, endTime time.Time) ([]Candle, error)

	// Close releases underlying resources.
	Close() error
}

// DecisionJournal records every emitted decision for later review.
type DecisionJournal interface {
	// RecordDecision appends one decision with its evaluation context.
	RecordDecision(ctx context.Context, symbol, interval string, ts time.Time, d Decision) error

	// Close releases underlying resources.
	Close() error
}

// DecisionPublisher pushes live decisions to downstream consumers.
type DecisionPublisher interface {
	// PublishDecision publishes a decision and refreshes the latest-value key.
	PublishDecision(ctx context.Context, symbol, interval string, d Decision) error

	// Close releases underlying resources.
	Close() error
}
