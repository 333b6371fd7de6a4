package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerTagsComponentOnce(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentRouter, Output: &buf})
	l.Info("hello")
	if n := strings.Count(buf.String(), "component="); n != 1 {
		t.Fatalf("expected one component attribute, got %d in %q", n, buf.String())
	}
	if !strings.Contains(buf.String(), "component=router") {
		t.Fatalf("missing component: %q", buf.String())
	}
}

func TestToSliceIsOrdered(t *testing.T) {
	got := NewFields().WithResult("ok", "").WithIntent("customer", "", "").WithOperation(OpRoute).ToSlice()
	want := []any{FieldKind, "customer", FieldOperation, OpRoute, FieldStatus, "ok"}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestFromContext(t *testing.T) {
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
	l := New(Config{Component: ComponentHTTP, Output: &bytes.Buffer{}})
	if FromContext(WithLogger(context.Background(), l)) != l {
		t.Fatal("expected stored logger")
	}
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Component: ComponentHTTP, Output: &buf})
	h := Middleware(base)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).InfoContext(r.Context(), "inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("request id not propagated: %q", buf.String())
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Component: ComponentRouter, Output: &buf}))
	ctx := context.Background()

	sl.LogRouted(ctx, "business_metric", "top_products", "", "ok", "", 3*time.Millisecond)
	sl.LogHTTPEnd(ctx, httptest.NewRequest(http.MethodGet, "/api/metrics/summary", nil), 503, time.Second, "127.0.0.1")
	sl.LogError(ctx, "boom", errors.New("store down"), OpRoute, nil)

	out := buf.String()
	for _, want := range []string{"metric=top_products", "result_status=ok", "level=ERROR", "status_code=503", "error=\"store down\""} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %q", want, out)
		}
	}
}

func TestWithComponentReplacesTag(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Component: ComponentApp, Output: &buf}).With(FieldRequestID, "req_1").WithComponent(ComponentHTTP)
	l.Info("hello")
	out := buf.String()
	if n := strings.Count(out, "component="); n != 1 {
		t.Fatalf("expected one component attribute, got %d in %q", n, out)
	}
	if !strings.Contains(out, "component=http") || !strings.Contains(out, "request_id=req_1") {
		t.Fatalf("unexpected output %q", out)
	}
	if l.Component() != ComponentHTTP {
		t.Fatalf("Component() = %q", l.Component())
	}
}
