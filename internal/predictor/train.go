package predictor

import (
	"context"
	"fmt"
	"math"

	"neuroforecast/internal/model"
)

// progressSteps bounds how many advisory events one training run emits.
const progressSteps = 100

// Train retrains from the network's current weights over the full pair set.
// Each iteration is one epoch: the visit order is reshuffled once, every pair
// is backpropagated, and the mean cross-entropy error is tracked. Training
// stops at cfg.MaxIterations or as soon as the epoch error drops below
// cfg.MaxError. There is no cancellation point once the run has started; ctx
// is consulted only before the first epoch.
func (n *Network) Train(ctx context.Context, pairs []model.VectorPair, cfg model.TrainConfig, onProgress func(model.ProgressEvent)) error {
	if len(pairs) == 0 {
		return fmt.Errorf("predictor: train: empty pair set")
	}
	for i, p := range pairs {
		if len(p.Input) != n.inputs {
			return fmt.Errorf("predictor: train: pair %d input length %d, want %d", i, len(p.Input), n.inputs)
		}
		if len(p.Output) != n.outputs {
			return fmt.Errorf("predictor: train: pair %d output length %d, want %d", i, len(p.Output), n.outputs)
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	cadence := cfg.MaxIterations / progressSteps
	if cadence < 1 {
		cadence = 1
	}

	order := make([]int, len(pairs))
	for i := range order {
		order[i] = i
	}

	for iter := 1; iter <= cfg.MaxIterations; iter++ {
		// One shuffle pass per epoch; the orchestrator never shuffles.
		n.rng.Shuffle(len(order), func(a, b int) { order[a], order[b] = order[b], order[a] })

		var errSum float64
		for _, idx := range order {
			errSum += n.backprop(pairs[idx].Input, pairs[idx].Output, cfg.LearnRate)
		}
		epochErr := errSum / float64(len(pairs))

		if onProgress != nil && (iter%cadence == 0 || iter == cfg.MaxIterations || epochErr < cfg.MaxError) {
			onProgress(model.ProgressEvent{Iteration: iter, Total: cfg.MaxIterations, Error: epochErr})
		}
		if epochErr < cfg.MaxError {
			break
		}
	}
	return nil
}

// backprop runs one forward/backward pass for a single pair and applies the
// weight update immediately. Returns the pair's cross-entropy error.
//
// With sigmoid outputs and a cross-entropy cost the output-layer delta
// reduces to (out - target).
func (n *Network) backprop(input, target []float64, learnRate float64) float64 {
	hidden, output := n.forward(input)

	deltaOut := make([]float64, n.outputs)
	var ce float64
	for o := 0; o < n.outputs; o++ {
		deltaOut[o] = output[o] - target[o]
		ce -= target[o]*math.Log(output[o]+1e-15) + (1-target[o])*math.Log(1-output[o]+1e-15)
	}

	deltaHidden := make([]float64, n.hidden)
	for h := 0; h < n.hidden; h++ {
		var sum float64
		for o := 0; o < n.outputs; o++ {
			sum += deltaOut[o] * n.w2[o][h]
		}
		deltaHidden[h] = sum * hidden[h] * (1 - hidden[h])
	}

	for o := 0; o < n.outputs; o++ {
		for h := 0; h < n.hidden; h++ {
			n.w2[o][h] -= learnRate * deltaOut[o] * hidden[h]
		}
		n.b2[o] -= learnRate * deltaOut[o]
	}
	for h := 0; h < n.hidden; h++ {
		for i := 0; i < n.inputs; i++ {
			n.w1[h][i] -= learnRate * deltaHidden[h] * input[i]
		}
		n.b1[h] -= learnRate * deltaHidden[h]
	}
	return ce
}
