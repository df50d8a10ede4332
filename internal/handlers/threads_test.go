package handlers

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/omnidesk/omnidesk/internal/thread"
)

type testFlusher struct{}

func (f *testFlusher) Flush() {}

func TestParseSinceParam(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC().Truncate(time.Second)
	parsed, ok, err := parseSinceParam(now.Format(time.RFC3339))
	if err != nil {
		t.Fatalf("parse RFC3339 failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected parseSinceParam ok=true")
	}
	if !parsed.Equal(now) {
		t.Fatalf("expected parsed time %s, got %s", now, parsed)
	}

	parsedEpoch, ok, err := parseSinceParam("1735689600000")
	if err != nil {
		t.Fatalf("parse epoch millis failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected epoch parse ok=true")
	}
	if parsedEpoch.UnixMilli() != 1735689600000 {
		t.Fatalf("expected parsed epoch millis 1735689600000, got %d", parsedEpoch.UnixMilli())
	}

	if _, _, err := parseSinceParam("invalid-time"); err == nil {
		t.Fatalf("expected invalid since parameter error")
	}
}

func TestParseLimitParam(t *testing.T) {
	t.Parallel()

	if got := parseLimitParam("", 50); got != 50 {
		t.Fatalf("expected fallback 50, got %d", got)
	}
	if got := parseLimitParam("25", 50); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
	if got := parseLimitParam("0", 50); got != 50 {
		t.Fatalf("expected fallback for zero, got %d", got)
	}
	if got := parseLimitParam("9999", 50); got != 50 {
		t.Fatalf("expected fallback for out-of-range, got %d", got)
	}
	if got := parseLimitParam("abc", 50); got != 50 {
		t.Fatalf("expected fallback for non-numeric, got %d", got)
	}
}

func TestWriteSSEJSON(t *testing.T) {
	t.Parallel()

	var output bytes.Buffer
	writer := bufio.NewWriter(&output)
	flusher := &testFlusher{}

	if err := writeSSEJSON(writer, flusher, map[string]any{"type": "ping"}); err != nil {
		t.Fatalf("writeSSEJSON failed: %v", err)
	}
	raw := output.String()
	if !strings.HasPrefix(raw, "data: ") {
		t.Fatalf("expected SSE data prefix, got %q", raw)
	}
	if !strings.HasSuffix(raw, "\n\n") {
		t.Fatalf("expected SSE payload suffix, got %q", raw)
	}
	payloadText := strings.TrimSuffix(strings.TrimPrefix(raw, "data: "), "\n\n")
	var payload map[string]any
	if err := json.Unmarshal([]byte(payloadText), &payload); err != nil {
		t.Fatalf("decode SSE payload failed: %v", err)
	}
	if payload["type"] != "ping" {
		t.Fatalf("expected ping payload, got %v", payload)
	}
}

func TestListThreadsRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	handler := NewThreadHandler(slog.Default(), thread.NewService(nil, nil), nil, nil)
	e := echo.New()
	handler.Register(e)

	req := httptest.NewRequest(http.MethodGet, "/threads?status=bogus", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
}
