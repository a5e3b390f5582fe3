package model

import (
	"encoding/json"
	"fmt"
)

// Position is one of the three mutually exclusive position states.
type Position string

const (
	PositionLong  Position = "LONG"
	PositionShort Position = "SHORT"
	PositionNone  Position = "NO"
)

// ParsePosition validates and normalizes a position string.
func ParsePosition(s string) (Position, error) {
	switch Position(s) {
	case PositionLong, PositionShort, PositionNone:
		return Position(s), nil
	}
	return "", fmt.Errorf("invalid position %q (want LONG, SHORT or NO)", s)
}

// Decision is the supervised label and prediction output: a position state
// plus take-profit and stop-loss prices. The prices are meaningful only when
// Position != NO but are always present as numbers.
type Decision struct {
	Position   Position `json:"position"`
	TakeProfit float64  `json:"takeProfitPrice"`
	StopLoss   float64  `json:"stopLossPrice"`
}

// JSON returns the JSON-encoded decision (ignoring errors for hot-path usage).
func (d *Decision) JSON() []byte {
	b, _ := json.Marshal(d)
	return b
}

// TrainingExample is one (LearningData, Decision) pair, the supervised signal
// accumulated into the dataset.
type TrainingExample struct {
	Input  LearningData `json:"input"`
	Output Decision     `json:"output"`
}
