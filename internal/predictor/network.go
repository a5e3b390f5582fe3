// Package predictor implements the learning collaborator behind the
// model.Predictor port: a small feedforward network with one sigmoid hidden
// layer, trained by backpropagation with a cross-entropy cost. The core
// pipeline consumes it only through the port and treats its learned state as
// an opaque blob.
package predictor

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Network is a fully connected input → hidden → output net. Weight layout:
// w1[h][i] connects input i to hidden unit h, w2[o][h] connects hidden unit h
// to output o. Both layers use the logistic activation.
type Network struct {
	inputs  int
	hidden  int
	outputs int

	w1 [][]float64
	b1 []float64
	w2 [][]float64
	b2 []float64

	rng *rand.Rand
}

// New creates a network with randomly initialized weights.
func New(inputs, hidden, outputs int) *Network {
	return NewWithSeed(inputs, hidden, outputs, time.Now().UnixNano())
}

// NewWithSeed creates a network with a fixed weight-initialization seed.
func NewWithSeed(inputs, hidden, outputs int, seed int64) *Network {
	n := &Network{
		inputs:  inputs,
		hidden:  hidden,
		outputs: outputs,
		rng:     rand.New(rand.NewSource(seed)),
	}
	n.w1 = n.randMatrix(hidden, inputs)
	n.b1 = n.randVector(hidden)
	n.w2 = n.randMatrix(outputs, hidden)
	n.b2 = n.randVector(outputs)
	return n
}

func (n *Network) randMatrix(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for r := range m {
		m[r] = n.randVector(cols)
	}
	return m
}

func (n *Network) randVector(size int) []float64 {
	v := make([]float64, size)
	for i := range v {
		v[i] = n.rng.Float64() - 0.5
	}
	return v
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

// forward runs one pass and returns both layer activations.
func (n *Network) forward(input []float64) (hidden, output []float64) {
	hidden = make([]float64, n.hidden)
	for h := 0; h < n.hidden; h++ {
		sum := n.b1[h]
		for i := 0; i < n.inputs; i++ {
			sum += n.w1[h][i] * input[i]
		}
		hidden[h] = sigmoid(sum)
	}
	output = make([]float64, n.outputs)
	for o := 0; o < n.outputs; o++ {
		sum := n.b2[o]
		for h := 0; h < n.hidden; h++ {
			sum += n.w2[o][h] * hidden[h]
		}
		output[o] = sigmoid(sum)
	}
	return hidden, output
}

// Activate runs a single forward pass and returns the raw output vector.
func (n *Network) Activate(input []float64) ([]float64, error) {
	if len(input) != n.inputs {
		return nil, fmt.Errorf("predictor: activate: input length %d, want %d", len(input), n.inputs)
	}
	_, out := n.forward(input)
	return out, nil
}
