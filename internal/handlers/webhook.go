package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/omnidesk/omnidesk/internal/inbound"
)

// WebhookHandler receives normalized channel webhook payloads and feeds the
// inbound pipeline.
type WebhookHandler struct {
	pipeline *inbound.Pipeline
	logger   *slog.Logger
}

// NewWebhookHandler creates a WebhookHandler.
func NewWebhookHandler(log *slog.Logger, pipeline *inbound.Pipeline) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	return &WebhookHandler{
		pipeline: pipeline,
		logger:   log.With(slog.String("handler", "webhook")),
	}
}

// Register registers webhook routes.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST("/webhooks/:channel", h.Receive)
}

// Receive ingests one inbound message for the channel named in the path.
func (h *WebhookHandler) Receive(c echo.Context) error {
	if h.pipeline == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "inbound pipeline not available")
	}
	channel := strings.TrimSpace(c.Param("channel"))
	if channel == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "channel is required")
	}

	var raw inbound.RawMessage
	if err := c.Bind(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	// The path segment is authoritative for the channel.
	raw.Channel = channel

	if err := h.pipeline.Process(c.Request().Context(), raw); err != nil {
		if errors.Is(err, inbound.ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Error("inbound processing failed",
			slog.String("channel", channel),
			slog.Any("error", err),
		)
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
