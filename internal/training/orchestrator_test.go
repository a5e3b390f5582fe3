package training

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"neuroforecast/internal/dataset"
	"neuroforecast/internal/model"
)

// fakePredictor records calls and serves canned state blobs.
type fakePredictor struct {
	trainedPairs []model.VectorPair
	trainedCfg   model.TrainConfig
	restored     []byte
	blob         []byte
	trainErr     error
}

func (f *fakePredictor) Train(ctx context.Context, pairs []model.VectorPair, cfg model.TrainConfig, onProgress func(model.ProgressEvent)) error {
	f.trainedPairs = pairs
	f.trainedCfg = cfg
	if onProgress != nil {
		onProgress(model.ProgressEvent{Iteration: 1, Total: cfg.MaxIterations, Error: 0.5})
	}
	return f.trainErr
}

func (f *fakePredictor) Activate(input []float64) ([]float64, error) { return nil, nil }
func (f *fakePredictor) Snapshot() ([]byte, error)                   { return f.blob, nil }
func (f *fakePredictor) Restore(data []byte) error {
	f.restored = data
	return nil
}

func loadDataset(t *testing.T, examples ...model.TrainingExample) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Load(filepath.Join(t.TempDir(), "dataset.json"))
	if err != nil {
		t.Fatal(err)
	}
	for _, ex := range examples {
		if err := ds.Append(ex); err != nil {
			t.Fatal(err)
		}
	}
	return ds
}

func exampleWithClose(close float64, pos model.Position) model.TrainingExample {
	return model.TrainingExample{
		Input: model.LearningData{
			Symbol:   "ETHUSDT",
			Interval: "1h",
			Candles:  []model.EnrichedCandle{{Candle: model.Candle{Close: close}}},
		},
		Output: model.Decision{Position: pos, TakeProfit: close + 5, StopLoss: close - 5},
	}
}

func TestBuildPairs_DatasetOrderPreserved(t *testing.T) {
	ds := loadDataset(t,
		exampleWithClose(100, model.PositionLong),
		exampleWithClose(200, model.PositionShort),
		exampleWithClose(300, model.PositionNone),
	)

	pairs := BuildPairs(ds)
	if len(pairs) != 3 {
		t.Fatalf("pairs: got %d, want 3", len(pairs))
	}
	wantCloses := []float64{100, 200, 300}
	for i, p := range pairs {
		if len(p.Input) != 8 {
			t.Errorf("pair %d input length: got %d, want 8", i, len(p.Input))
		}
		if len(p.Output) != 5 {
			t.Errorf("pair %d output length: got %d, want 5", i, len(p.Output))
		}
		// Close is slot 3 of the single candle.
		if p.Input[3] != wantCloses[i] {
			t.Errorf("pair %d: got close %v, want %v (order changed?)", i, p.Input[3], wantCloses[i])
		}
	}
	// One-hot slots follow dataset order LONG, SHORT, NO.
	if pairs[0].Output[0] != 1 || pairs[1].Output[1] != 1 || pairs[2].Output[2] != 1 {
		t.Error("one-hot outputs do not follow dataset order")
	}
}

func TestTrain_PersistsStateOnCompletion(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "state", "network.json")
	fp := &fakePredictor{blob: []byte(`{"w":"trained"}`)}
	o := New(fp, statePath)

	ds := loadDataset(t, exampleWithClose(100, model.PositionLong))
	cfg := model.TrainConfig{MaxError: DefaultMaxError, MaxIterations: 10, LearnRate: 0.1}

	var events []model.ProgressEvent
	if err := o.Train(context.Background(), ds, cfg, func(e model.ProgressEvent) { events = append(events, e) }); err != nil {
		t.Fatalf("Train: %v", err)
	}

	if len(fp.trainedPairs) != 1 {
		t.Errorf("trained pairs: got %d, want 1", len(fp.trainedPairs))
	}
	if fp.trainedCfg.MaxError != DefaultMaxError {
		t.Errorf("config max error: got %v, want %v", fp.trainedCfg.MaxError, DefaultMaxError)
	}
	if len(events) != 1 {
		t.Errorf("progress events: got %d, want 1", len(events))
	}

	persisted, err := os.ReadFile(statePath)
	if err != nil {
		t.Fatalf("state not persisted: %v", err)
	}
	if string(persisted) != `{"w":"trained"}` {
		t.Errorf("persisted state: got %q", persisted)
	}
}

func TestLoadState_MissingFileIsNoOp(t *testing.T) {
	fp := &fakePredictor{}
	o := New(fp, filepath.Join(t.TempDir(), "missing.json"))
	if err := o.LoadState(); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if fp.restored != nil {
		t.Error("Restore called for missing state file")
	}
}

func TestLoadState_RestoresExistingBlob(t *testing.T) {
	statePath := filepath.Join(t.TempDir(), "network.json")
	if err := os.WriteFile(statePath, []byte(`{"w":"prior"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	fp := &fakePredictor{}
	o := New(fp, statePath)
	if err := o.LoadState(); err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if string(fp.restored) != `{"w":"prior"}` {
		t.Errorf("restored blob: got %q", fp.restored)
	}
}
