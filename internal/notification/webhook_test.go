package notification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"neuroforecast/internal/model"
)

func TestWebhookNotifier_SendsDecision(t *testing.T) {
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	alert := DecisionAlert("ETHUSDT", "1h", model.Decision{
		Position:   model.PositionLong,
		TakeProfit: 115,
		StopLoss:   98,
	})

	n := NewWebhookNotifier(srv.URL)
	if err := n.Send(context.Background(), alert); err != nil {
		t.Fatalf("send: %v", err)
	}

	var payload struct {
		Level    string          `json:"level"`
		Title    string          `json:"title"`
		Decision *model.Decision `json:"decision"`
		TS       string          `json:"ts"`
	}
	if err := json.Unmarshal(gotBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Level != string(AlertInfo) {
		t.Errorf("level = %q, want INFO", payload.Level)
	}
	if payload.Decision == nil || payload.Decision.Position != model.PositionLong {
		t.Errorf("decision = %+v, want LONG", payload.Decision)
	}
	if payload.Decision.TakeProfit != 115 || payload.Decision.StopLoss != 98 {
		t.Errorf("prices = %+v, want tp=115 sl=98", payload.Decision)
	}
	if payload.TS == "" {
		t.Error("expected timestamp in payload")
	}
}

func TestWebhookNotifier_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewWebhookNotifier(srv.URL)
	err := n.Send(context.Background(), Alert{Level: AlertInfo, Title: "t"})
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
}
