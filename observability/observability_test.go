package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func TestNopTracer(t *testing.T) {
	tracer := NopTracer()
	ctx := context.Background()
	ctx2, span := tracer.StartSpan(ctx, "test")
	if ctx2 != ctx {
		t.Fatalf("nop tracer should return same context")
	}
	span.SetTag("key", "value")
	span.SetError(nil)
	span.Finish()
}

func TestSlogLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	log := NewSlogLogger(base).With(String("request_id", "abc"))

	log.Info("page recognized",
		Int("page", 3),
		Int64("bytes", 42),
		Duration("took", 2*time.Second),
		Error("error", errors.New("boom")),
	)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "page recognized" {
		t.Fatalf("unexpected msg: %v", rec["msg"])
	}
	if rec["request_id"] != "abc" {
		t.Fatalf("With fields not carried: %v", rec)
	}
	if rec["page"] != float64(3) || rec["bytes"] != float64(42) {
		t.Fatalf("numeric fields wrong: %v", rec)
	}
	if rec["error"] != "boom" {
		t.Fatalf("error field wrong: %v", rec["error"])
	}
}

func TestSlogLoggerSkipsNilError(t *testing.T) {
	var buf bytes.Buffer
	log := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	log.Warn("done", Error("error", nil))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if _, ok := rec["error"]; ok {
		t.Fatalf("nil error should be omitted: %v", rec)
	}
}
