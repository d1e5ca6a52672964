package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestNew_AddsRequestIDFromContext(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "info", "json")

	ctx := WithRequestID(context.Background(), "req-42")
	log.InfoContext(ctx, "joined", "meetup_id", 7)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("invalid json log: %v", err)
	}
	if rec["request_id"] != "req-42" {
		t.Errorf("expected request_id req-42, got %v", rec["request_id"])
	}
	if rec["msg"] != "joined" {
		t.Errorf("unexpected msg %v", rec["msg"])
	}
}

func TestNew_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn", "text")
	log.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
	log.Warn("kept")
	if buf.Len() == 0 {
		t.Error("warn not logged")
	}
}

func TestRequestID_Missing(t *testing.T) {
	if got := RequestID(context.Background()); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
