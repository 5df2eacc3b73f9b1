package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func newTestLogger(level LogLevel) (*Logger, *bytes.Buffer) {
	l := NewLogger(Config{Level: level, NodeID: "test-node"})
	buf := &bytes.Buffer{}
	l.AddWriter(buf)
	return l, buf
}

func TestLoggerWritesStructuredJSON(t *testing.T) {
	l, buf := newTestLogger(DEBUG)

	l.Info(context.Background(), ComponentFilter, ActionInsert, "item inserted", map[string]interface{}{"size": 3})

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected a single JSON line, got error: %v (buf=%q)", err, buf.String())
	}
	if entry.Level != "INFO" {
		t.Errorf("expected level INFO, got %s", entry.Level)
	}
	if entry.Component != ComponentFilter || entry.Action != ActionInsert {
		t.Errorf("expected component/action %s/%s, got %s/%s", ComponentFilter, ActionInsert, entry.Component, entry.Action)
	}
	if entry.NodeID != "test-node" {
		t.Errorf("expected node_id test-node, got %s", entry.NodeID)
	}
	if entry.Fields["size"] != float64(3) {
		t.Errorf("expected fields.size == 3, got %v", entry.Fields["size"])
	}
}

func TestLoggerFiltersBelowConfiguredLevel(t *testing.T) {
	l, buf := newTestLogger(WARN)

	l.Debug(context.Background(), ComponentFilter, ActionInsert, "should be dropped")
	l.Info(context.Background(), ComponentFilter, ActionInsert, "should also be dropped")

	if buf.Len() != 0 {
		t.Fatalf("expected no output below the configured level, got %q", buf.String())
	}

	l.Warn(context.Background(), ComponentFilter, ActionInsert, "should appear")
	if buf.Len() == 0 {
		t.Fatalf("expected the warn-level entry to be written")
	}
}

func TestLoggerIncludesCorrelationID(t *testing.T) {
	l, buf := newTestLogger(DEBUG)
	ctx := WithCorrelationID(context.Background(), "corr-123")

	l.Info(ctx, ComponentBench, ActionStart, "benchmark started")

	if !strings.Contains(buf.String(), "corr-123") {
		t.Fatalf("expected correlation id in output, got %q", buf.String())
	}
}

func TestLoggerWithDurationSetsDurationMs(t *testing.T) {
	l, buf := newTestLogger(DEBUG)

	stop := l.StartTimer(context.Background(), ComponentBench, ActionInsert, "phase")
	stop()

	var entry LogEntry
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("failed to parse logged entry: %v", err)
	}
	if entry.Duration == nil {
		t.Fatalf("expected StartTimer's stop function to record a duration")
	}
}

func TestGlobalLoggerConvenienceFunctions(t *testing.T) {
	l, buf := newTestLogger(DEBUG)
	prev := GetGlobalLogger()
	SetGlobalLogger(l)
	defer SetGlobalLogger(prev)

	Info(context.Background(), ComponentMain, ActionStart, "via package-level helper")

	if buf.Len() == 0 {
		t.Fatalf("expected the package-level Info helper to reach the global logger")
	}
}
