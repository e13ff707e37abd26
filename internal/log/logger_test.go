package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestComponentAttachedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelInfo, ComponentApp).
		With(FieldRequestID, "r-1").
		WithComponent(ComponentHTTP)

	logger.Info("hello")

	out := buf.String()
	if n := strings.Count(out, "component="); n != 1 {
		t.Fatalf("component attribute written %d times: %s", n, out)
	}
	if !strings.Contains(out, "component=http") || !strings.Contains(out, "request_id=r-1") {
		t.Fatalf("unexpected output: %s", out)
	}
	if logger.Component() != ComponentHTTP {
		t.Fatalf("Component() = %q", logger.Component())
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewText(&buf, slog.LevelWarn, ComponentWorker)
	logger.Info("dropped")
	logger.Warn("kept")

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Fatalf("level filtering failed: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	logger := NewText(&bytes.Buffer{}, slog.LevelInfo, ComponentHTTP)
	ctx := context.WithValue(context.Background(), LoggerContextKey, logger)
	if FromContext(ctx) != logger {
		t.Fatalf("FromContext did not return the attached logger")
	}
	if got := FromContext(context.Background()).Component(); got != "unknown" {
		t.Fatalf("fallback component = %q", got)
	}
}

func TestStructuredLogger(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(NewText(&buf, slog.LevelDebug, ComponentLedger))
	ctx := context.Background()

	sl.LogMutation(ctx, OpAddExpense, "e-1", 8000, 10000)
	sl.LogError(ctx, "Failed to publish ledger event", errors.New("broker down"), ComponentAMQP, OpAddExpense, NewFields().WithEventType("balance.low"))

	r := httptest.NewRequest("POST", "/api/expenses", nil)
	sl.LogHTTPEnd(ctx, r, 503, 12, "10.0.0.1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d:\n%s", len(lines), buf.String())
	}

	checks := []struct {
		line int
		want []string
	}{
		{0, []string{"level=INFO", "Ledger updated", "operation=add_expense", "record_id=e-1", "balance_cents=8000", "threshold_cents=10000", "component=ledger"}},
		{1, []string{"level=ERROR", "component=amqp", "error=\"broker down\"", "event_type=balance.low"}},
		{2, []string{"level=ERROR", "status_code=503", "success=false", "client_ip=10.0.0.1"}},
	}
	for _, c := range checks {
		for _, want := range c.want {
			if !strings.Contains(lines[c.line], want) {
				t.Fatalf("line %d missing %q: %s", c.line, want, lines[c.line])
			}
		}
	}
	if strings.Contains(lines[1], "component=ledger") {
		t.Fatalf("error line kept the ledger component: %s", lines[1])
	}
}

func TestToSliceSorted(t *testing.T) {
	got := NewFields().WithOperation("reset").WithClientIP("1.2.3.4").ToSlice()
	if len(got) != 4 || got[0] != FieldClientIP || got[2] != FieldOperation {
		t.Fatalf("ToSlice() = %v", got)
	}
}
