package predictor

import (
	"encoding/json"
	"fmt"
)

// networkSnapshot is the serialized learned state. The blob is opaque to
// callers: they only move it between Snapshot, Restore and durable storage.
type networkSnapshot struct {
	Inputs  int         `json:"inputs"`
	Hidden  int         `json:"hidden"`
	Outputs int         `json:"outputs"`
	W1      [][]float64 `json:"w1"`
	B1      []float64   `json:"b1"`
	W2      [][]float64 `json:"w2"`
	B2      []float64   `json:"b2"`
}

// Snapshot serializes the learned state.
func (n *Network) Snapshot() ([]byte, error) {
	snap := networkSnapshot{
		Inputs:  n.inputs,
		Hidden:  n.hidden,
		Outputs: n.outputs,
		W1:      n.w1,
		B1:      n.b1,
		W2:      n.w2,
		B2:      n.b2,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("predictor: snapshot: %w", err)
	}
	return data, nil
}

// Restore replaces the learned state from a snapshot blob. The stored
// topology must match the network's.
func (n *Network) Restore(data []byte) error {
	var snap networkSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("predictor: restore: %w", err)
	}
	if snap.Inputs != n.inputs || snap.Hidden != n.hidden || snap.Outputs != n.outputs {
		return fmt.Errorf("predictor: restore: topology (%d, %d, %d) does not match network (%d, %d, %d)",
			snap.Inputs, snap.Hidden, snap.Outputs, n.inputs, n.hidden, n.outputs)
	}
	if len(snap.W1) != snap.Hidden || len(snap.W2) != snap.Outputs ||
		len(snap.B1) != snap.Hidden || len(snap.B2) != snap.Outputs {
		return fmt.Errorf("predictor: restore: malformed weight shape")
	}
	n.w1 = snap.W1
	n.b1 = snap.B1
	n.w2 = snap.W2
	n.b2 = snap.B2
	return nil
}
