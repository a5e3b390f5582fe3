// Package notification delivers prediction alerts to external channels.
// The live predictor raises an alert whenever the network decides to open
// a position; operators hook a webhook endpoint (Slack, Discord, custom)
// or fall back to the log notifier during development.
package notification

import (
	"context"
	"fmt"
	"log"

	"neuroforecast/internal/model"
)

// AlertLevel represents the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert represents a notification to be sent.
type Alert struct {
	Level    AlertLevel      `json:"level"`
	Title    string          `json:"title"`
	Message  string          `json:"message"`
	Decision *model.Decision `json:"decision,omitempty"`
}

// DecisionAlert builds an alert for a network decision on a symbol.
// LONG and SHORT decisions are INFO level; a NO decision is not usually
// alerted, but callers that do get it at INFO as well.
func DecisionAlert(symbol, interval string, d model.Decision) Alert {
	title := fmt.Sprintf("%s %s: %s", symbol, interval, d.Position)
	msg := fmt.Sprintf("position=%s takeProfit=%.8g stopLoss=%.8g", d.Position, d.TakeProfit, d.StopLoss)
	return Alert{
		Level:    AlertInfo,
		Title:    title,
		Message:  msg,
		Decision: &d,
	}
}

// Notifier is the interface for all notification backends.
type Notifier interface {
	// Send delivers an alert. Returns error if delivery fails.
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier is a simple notifier that logs alerts (useful for development).
type LogNotifier struct{}

// NewLogNotifier creates a log-based notifier.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}
