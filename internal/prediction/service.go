// Package prediction turns one enriched candle sequence into one trading
// decision through the predictor's activation routine.
package prediction

import (
	"fmt"

	"neuroforecast/internal/codec"
	"neuroforecast/internal/model"
)

// Service decodes predictor activations into decisions. It is stateless with
// respect to the dataset: output is a pure function of the predictor's
// current learned state and the input sequence.
type Service struct {
	predictor model.Predictor
}

// New creates a prediction service over the given predictor.
func New(p model.Predictor) *Service {
	return &Service{predictor: p}
}

// Predict flattens the sequence, invokes the predictor's activation routine
// once (no windowing or batching) and decodes the raw output vector.
func (s *Service) Predict(ld model.LearningData) (model.Decision, error) {
	input := codec.FlattenInput(ld)
	output, err := s.predictor.Activate(input)
	if err != nil {
		return model.Decision{}, fmt.Errorf("prediction: activate %s: %w", ld.Key(), err)
	}
	if len(output) != codec.OutputLen {
		return model.Decision{}, fmt.Errorf("prediction: output length %d, want %d", len(output), codec.OutputLen)
	}
	return codec.UnflattenOutput(output), nil
}
