package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func newTestHandler(buf *bytes.Buffer, format logFormat) (*structuredHandler, *asyncWriter) {
	aw := newAsyncWriter([]io.Writer{buf}, 1024)
	return newStructuredHandler(handlerConfig{
		level:    slog.LevelInfo,
		writer:   aw,
		format:   format,
		keyOrder: append([]string(nil), defaultKeyOrder...),
	}), aw
}

func TestStructuredHandlerKVOrder(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	ctx := WithRID(context.Background(), "rid-123")
	ctx = WithUpdateMeta(ctx, 42, 7, 9)

	log := slog.New(handler).With("component", "service.conversation")
	LogEvent(ctx, log, slog.LevelInfo, "sale.step",
		slog.String("status", "ok"),
		slog.String("step", "year"),
	)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	tokens := strings.Split(strings.TrimSpace(buf.String()), " ")
	expected := []string{"ts=", "level=INFO", "component=service.conversation", "event=sale.step", "status=ok", "rid=rid-123", "update_id=42", "chat_id=9", "user_id=7", "step=year"}
	if len(tokens) < len(expected) {
		t.Fatalf("unexpected token count: %d (%v)", len(tokens), tokens)
	}
	for i, prefix := range expected {
		if !strings.HasPrefix(tokens[i], prefix) {
			t.Fatalf("token %d = %s, expected prefix %s", i, tokens[i], prefix)
		}
	}
}

func TestStructuredHandlerJSONCompactsRID(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	ctx := WithRID(context.Background(), BuildRID(100, 36, 72))

	LogEvent(ctx, slog.New(handler), slog.LevelError, "order.failed",
		slog.String("err", "boom"),
		slog.Duration("duration", 1500*time.Microsecond),
	)
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	line := strings.TrimSpace(buf.String())
	var got map[string]any
	if err := json.Unmarshal([]byte(line), &got); err != nil {
		t.Fatalf("decode %q: %v", line, err)
	}
	if got["rid"] != "2s.10.20" || got["rid_full"] != "100:36:72" {
		t.Fatalf("rid fields = %v / %v", got["rid"], got["rid_full"])
	}
	if got["component"] != "app" {
		t.Fatalf("default component = %v", got["component"])
	}
	if got["duration_ms"] != float64(2) {
		t.Fatalf("duration_ms = %v", got["duration_ms"])
	}
	if !strings.HasPrefix(line, `{"ts":`) {
		t.Fatalf("ts must lead the record: %s", line)
	}
}

func TestStructuredHandlerAddsHandlerFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatJSON)
	ctx := WithHandler(context.Background(), "sale")

	LogEvent(ctx, slog.New(handler), slog.LevelInfo, "flow.step")
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &got); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if got["handler"] != "sale" {
		t.Fatalf("handler = %v", got["handler"])
	}
}

func TestStructuredHandlerLevelFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	handler, aw := newTestHandler(buf, formatKV)
	slog.New(handler).Debug("hidden")
	if err := aw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("debug record leaked: %q", buf.String())
	}
}

func TestKVQuotesValuesWithSpaces(t *testing.T) {
	line := string(formatKVLine(map[string]any{"event": "x", "text": "hello world"}, []string{"event", "text"}))
	if line != `event=x text="hello world"` {
		t.Fatalf("line = %s", line)
	}
}

func TestRatioSampler(t *testing.T) {
	s := newRatioSampler(1, 3)
	allowed := 0
	for i := 0; i < 9; i++ {
		if s.Allow() {
			allowed++
		}
	}
	if allowed != 3 {
		t.Fatalf("allowed = %d, want 3", allowed)
	}
	s.Set(0, 0)
	if s.Allow() {
		t.Fatal("disabled sampler must not allow")
	}
}

func TestParseRatioSpec(t *testing.T) {
	if n, d := parseRatioSpec("2/10"); n != 2 || d != 10 {
		t.Fatalf("parse 2/10 = %d/%d", n, d)
	}
	if n, d := parseRatioSpec("off"); n != 0 || d != 0 {
		t.Fatalf("parse off = %d/%d", n, d)
	}
	if n, _ := parseRatioSpec("junk"); n != -1 {
		t.Fatalf("parse junk = %d", n)
	}
}

func TestCompactRIDPassthrough(t *testing.T) {
	if got := CompactRID("not-a-rid"); got != "not-a-rid" {
		t.Fatalf("CompactRID = %q", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("  Привет мир ", 6); got != "Привет…" {
		t.Fatalf("Truncate = %q", got)
	}
}
