// Package training drives predictor training runs over the accumulated
// dataset and owns persistence of the predictor's learned state.
package training

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"neuroforecast/internal/codec"
	"neuroforecast/internal/dataset"
	"neuroforecast/internal/model"
)

// DefaultMaxError is the target cross-entropy error threshold.
const DefaultMaxError = 0.005

// Orchestrator composes the dataset and vector codec into training runs for
// one predictor. It exclusively owns the predictor's mutable learned state;
// concurrent callers must serialize access themselves.
type Orchestrator struct {
	predictor model.Predictor
	statePath string
}

// New creates an orchestrator for the given predictor. statePath is where
// the learned-state blob is persisted after each successful run.
func New(p model.Predictor, statePath string) *Orchestrator {
	return &Orchestrator{predictor: p, statePath: statePath}
}

// LoadState restores the predictor's learned state from statePath. A missing
// file is an informational no-op: the predictor keeps its freshly
// initialized state.
func (o *Orchestrator) LoadState() error {
	data, err := os.ReadFile(o.statePath)
	if os.IsNotExist(err) {
		log.Printf("[training] no predictor state at %s, keeping fresh state", o.statePath)
		return nil
	}
	if err != nil {
		return fmt.Errorf("training: read state %s: %w", o.statePath, err)
	}
	if err := o.predictor.Restore(data); err != nil {
		return fmt.Errorf("training: restore state: %w", err)
	}
	log.Printf("[training] restored predictor state from %s", o.statePath)
	return nil
}

// BuildPairs flattens every training example in dataset order. No shuffling
// happens at this layer; per-epoch shuffling is the predictor's concern.
func BuildPairs(ds *dataset.Dataset) []model.VectorPair {
	examples := ds.Examples()
	pairs := make([]model.VectorPair, 0, len(examples))
	for _, ex := range examples {
		pairs = append(pairs, model.VectorPair{
			Input:  codec.FlattenInput(ex.Input),
			Output: codec.FlattenOutput(ex.Output),
		})
	}
	return pairs
}

// Train retrains the predictor from its current state over the full current
// dataset, forwarding progress events to onProgress, and persists the learned
// state on normal completion. Training is not resumable within a call.
func (o *Orchestrator) Train(ctx context.Context, ds *dataset.Dataset, cfg model.TrainConfig, onProgress func(model.ProgressEvent)) error {
	pairs := BuildPairs(ds)
	log.Printf("[training] starting run: %d pairs, maxError=%g, iterations=%d, learnRate=%g",
		len(pairs), cfg.MaxError, cfg.MaxIterations, cfg.LearnRate)

	if err := o.predictor.Train(ctx, pairs, cfg, onProgress); err != nil {
		return fmt.Errorf("training: predictor run: %w", err)
	}
	return o.saveState()
}

func (o *Orchestrator) saveState() error {
	data, err := o.predictor.Snapshot()
	if err != nil {
		return fmt.Errorf("training: snapshot state: %w", err)
	}
	if dir := filepath.Dir(o.statePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("training: mkdir %s: %w", dir, err)
		}
	}
	tmp := o.statePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("training: write state %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, o.statePath); err != nil {
		return fmt.Errorf("training: rename state %s: %w", tmp, err)
	}
	log.Printf("[training] persisted predictor state to %s (%d bytes)", o.statePath, len(data))
	return nil
}
