package handlers

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/omnidesk/omnidesk/internal/inbound"
)

func TestWebhookReceiveRejectsInvalidPayload(t *testing.T) {
	t.Parallel()

	pipeline := inbound.NewPipeline(slog.Default(), nil, nil, nil, nil, nil, nil, 0)
	handler := NewWebhookHandler(slog.Default(), pipeline)

	e := echo.New()
	handler.Register(e)

	// Missing identifier_type and identifier_value fails validation.
	req := httptest.NewRequest(http.MethodPost, "/webhooks/sms", strings.NewReader(`{"content":"hi"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWebhookReceiveWithoutPipeline(t *testing.T) {
	t.Parallel()

	handler := NewWebhookHandler(slog.Default(), nil)
	e := echo.New()
	handler.Register(e)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/sms", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}
