package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestLoggerWritesServiceAndTraceID(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelInfo, "orderdesk", func(context.Context) string { return "abc123" })

	log.Info(context.Background(), "order_created", "order_id", "ORD-1")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v (%s)", err, buf.String())
	}
	if rec["service"] != "orderdesk" {
		t.Fatalf("expected service field, got %v", rec["service"])
	}
	if rec["trace_id"] != "abc123" {
		t.Fatalf("expected trace_id abc123, got %v", rec["trace_id"])
	}
	if rec["order_id"] != "ORD-1" {
		t.Fatalf("expected order_id ORD-1, got %v", rec["order_id"])
	}
}

func TestLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, LevelWarn, "orderdesk", nil)

	log.Info(context.Background(), "ignored")
	if buf.Len() != 0 {
		t.Fatalf("info record written at warn level: %s", buf.String())
	}
	log.Error(context.Background(), "kept")
	if buf.Len() == 0 {
		t.Fatal("error record not written")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{"debug": LevelDebug, "WARN": LevelWarn, "error": LevelError, "": LevelInfo, "bogus": LevelInfo}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %d, want %d", in, got, want)
		}
	}
}
