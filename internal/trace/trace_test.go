package trace

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestGenerateIDs(t *testing.T) {
	if id := generateTraceID(); len(id) != 32 {
		t.Errorf("trace ID should be 32 chars, got %d", len(id))
	}
	if id := generateSpanID(); len(id) != 16 {
		t.Errorf("span ID should be 16 chars, got %d", len(id))
	}
}

func TestIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := generateTraceID()
		if seen[id] {
			t.Error("generated duplicate trace ID")
		}
		seen[id] = true
	}
}

func TestNewChild(t *testing.T) {
	parent := New()
	child := NewChild(parent)

	if child.TraceID != parent.TraceID {
		t.Error("child should inherit trace ID")
	}
	if child.SpanID == parent.SpanID {
		t.Error("child should have new span ID")
	}
	if child.ParentSpanID != parent.SpanID {
		t.Error("child's parent should be parent's span ID")
	}
}

func TestContextRoundTrip(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("empty context should not carry a trace")
	}

	tc := New()
	got, ok := FromContext(WithContext(context.Background(), tc))
	if !ok || got != tc {
		t.Errorf("FromContext = %+v, %v; want %+v", got, ok, tc)
	}
}

func TestStartSpanNesting(t *testing.T) {
	ctx, root := StartSpan(context.Background(), "session")
	if root.Ctx.ParentSpanID != "" {
		t.Error("root span should have no parent")
	}

	_, child := StartSpan(ctx, "reference_capture")
	if child.Ctx.TraceID != root.Ctx.TraceID {
		t.Error("child span should share trace ID")
	}
	if child.Ctx.ParentSpanID != root.Ctx.SpanID {
		t.Error("child span parent should be root span")
	}
}

func TestSpanDuration(t *testing.T) {
	_, s := StartSpan(context.Background(), "tick")
	if s.Duration() != 0 {
		t.Error("open span should report zero duration")
	}

	time.Sleep(2 * time.Millisecond)
	s.End()
	d := s.Duration()
	if d <= 0 {
		t.Errorf("Duration() = %v, want > 0", d)
	}

	s.End()
	if s.Duration() != d {
		t.Error("second End should not move the end time")
	}
}

func TestLoggerCarriesTraceIDs(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, nil))

	ctx, span := StartSpan(context.Background(), "session")
	span.SetAttr("threshold", 0.9)
	Logger(ctx, base).Info("monitor started", "span", span)

	out := buf.String()
	if !strings.Contains(out, "trace_id="+span.Ctx.TraceID) {
		t.Errorf("log line missing trace_id: %s", out)
	}
	if !strings.Contains(out, "span.threshold=0.9") {
		t.Errorf("log line missing span attribute: %s", out)
	}
}

func TestLoggerWithoutTrace(t *testing.T) {
	base := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	if Logger(context.Background(), base) != base {
		t.Error("Logger without trace should return base unchanged")
	}
}
