package handlers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/omnidesk/omnidesk/internal/auth"
	messagepkg "github.com/omnidesk/omnidesk/internal/message"
	messageevent "github.com/omnidesk/omnidesk/internal/message/event"
	"github.com/omnidesk/omnidesk/internal/outbound"
	"github.com/omnidesk/omnidesk/internal/thread"
)

// ThreadHandler handles thread listing, lifecycle, replies, and the SSE
// message stream.
type ThreadHandler struct {
	threadService  *thread.Service
	messageService *messagepkg.DBService
	replyService   *outbound.Service
	messageEvents  messageevent.Subscriber
	logger         *slog.Logger
}

// NewThreadHandler creates a ThreadHandler.
func NewThreadHandler(log *slog.Logger, threadService *thread.Service, messageService *messagepkg.DBService, replyService *outbound.Service, eventSubscribers ...messageevent.Subscriber) *ThreadHandler {
	if log == nil {
		log = slog.Default()
	}
	var messageEvents messageevent.Subscriber
	if len(eventSubscribers) > 0 {
		messageEvents = eventSubscribers[0]
	}
	return &ThreadHandler{
		threadService:  threadService,
		messageService: messageService,
		replyService:   replyService,
		messageEvents:  messageEvents,
		logger:         log.With(slog.String("handler", "thread")),
	}
}

// Register registers all thread routes.
func (h *ThreadHandler) Register(e *echo.Echo) {
	e.GET("/threads", h.List)
	group := e.Group("/threads/:id")
	group.GET("", h.Get)
	group.GET("/messages", h.ListMessages)
	group.GET("/stream", h.StreamMessageEvents)
	group.POST("/reply", h.Reply)
	group.POST("/transition", h.Transition)
	group.POST("/assign", h.Assign)
	group.POST("/read", h.MarkRead)
	e.POST("/messages/:message_id/status", h.UpdateMessageStatus)
}

// List returns threads, optionally filtered by status, most recent first.
func (h *ThreadHandler) List(c echo.Context) error {
	if h.threadService == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "thread service not available")
	}
	limit := parseLimitParam(c.QueryParam("limit"), 50)

	status := strings.TrimSpace(c.QueryParam("status"))
	var (
		items []thread.Thread
		err   error
	)
	if status == "" {
		items, err = h.threadService.ListRecent(c.Request().Context(), limit)
	} else {
		items, err = h.threadService.ListByStatus(c.Request().Context(), status, limit)
	}
	if err != nil {
		if errors.Is(err, thread.ErrInvalidStatus) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, thread.ListThreadsResponse{Items: items})
}

// Get returns a single thread by ID.
func (h *ThreadHandler) Get(c echo.Context) error {
	th, err := h.requireThread(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, th)
}

// ListMessages returns thread messages, newest first.
func (h *ThreadHandler) ListMessages(c echo.Context) error {
	th, err := h.requireThread(c)
	if err != nil {
		return err
	}
	if h.messageService == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "message service not available")
	}
	limit := parseLimitParam(c.QueryParam("limit"), 50)

	items, err := h.messageService.List(c.Request().Context(), th.ID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	total, err := h.messageService.Count(c.Request().Context(), th.ID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, messagepkg.ListMessagesResponse{Items: items, Total: total})
}

type replyRequest struct {
	Content     string                  `json:"content" validate:"required"`
	ContentType string                  `json:"content_type,omitempty"`
	Attachments []messagepkg.Attachment `json:"attachments,omitempty"`
}

// Reply sends an operator reply out through the thread's channel provider.
// The operator identity comes from the JWT, not the body.
func (h *ThreadHandler) Reply(c echo.Context) error {
	if h.replyService == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "reply service not available")
	}
	threadID := strings.TrimSpace(c.Param("id"))
	if threadID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "thread id is required")
	}
	operator, err := auth.OperatorFromContext(c)
	if err != nil {
		return err
	}

	var req replyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.replyService.SendReply(c.Request().Context(), threadID, outbound.ReplyRequest{
		Content:      req.Content,
		ContentType:  req.ContentType,
		Attachments:  req.Attachments,
		OperatorID:   operator.ID,
		OperatorName: operator.Name,
	})
	if err != nil {
		if errors.Is(err, thread.ErrThreadNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "thread not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

// Transition moves the thread to a new lifecycle status.
func (h *ThreadHandler) Transition(c echo.Context) error {
	if h.threadService == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "thread service not available")
	}
	threadID := strings.TrimSpace(c.Param("id"))
	if threadID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "thread id is required")
	}

	var req thread.TransitionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	th, err := h.threadService.Transition(c.Request().Context(), threadID, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, thread.ErrThreadNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "thread not found")
		case errors.Is(err, thread.ErrThreadClosed):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, thread.ErrInvalidTransition):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, th)
}

// Assign sets the thread's assignee (last writer wins).
func (h *ThreadHandler) Assign(c echo.Context) error {
	if h.threadService == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "thread service not available")
	}
	threadID := strings.TrimSpace(c.Param("id"))
	if threadID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "thread id is required")
	}

	var req thread.AssignRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.threadService.Assign(c.Request().Context(), threadID, req.AssigneeID, req.AssigneeName); err != nil {
		if errors.Is(err, thread.ErrThreadNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "thread not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// MarkRead resets the thread's unread counter.
func (h *ThreadHandler) MarkRead(c echo.Context) error {
	if h.threadService == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "thread service not available")
	}
	threadID := strings.TrimSpace(c.Param("id"))
	if threadID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "thread id is required")
	}
	if err := h.threadService.MarkRead(c.Request().Context(), threadID); err != nil {
		if errors.Is(err, thread.ErrThreadNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "thread not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

type messageStatusRequest struct {
	Status            string `json:"status" validate:"required,oneof=pending sent delivered read failed"`
	ExternalMessageID string `json:"external_message_id,omitempty"`
}

// UpdateMessageStatus advances a message's delivery status. Statuses never
// move backward; regressions are rejected as conflicts.
func (h *ThreadHandler) UpdateMessageStatus(c echo.Context) error {
	if h.messageService == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "message service not available")
	}
	messageID := strings.TrimSpace(c.Param("message_id"))
	if messageID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message id is required")
	}

	var req messageStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	msg, err := h.messageService.UpdateStatus(c.Request().Context(), messageID, req.Status, req.ExternalMessageID)
	if err != nil {
		switch {
		case errors.Is(err, messagepkg.ErrMessageNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "message not found")
		case errors.Is(err, messagepkg.ErrStatusRegression):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, msg)
}

func (h *ThreadHandler) requireThread(c echo.Context) (thread.Thread, error) {
	if h.threadService == nil {
		return thread.Thread{}, echo.NewHTTPError(http.StatusServiceUnavailable, "thread service not available")
	}
	threadID := strings.TrimSpace(c.Param("id"))
	if threadID == "" {
		return thread.Thread{}, echo.NewHTTPError(http.StatusBadRequest, "thread id is required")
	}
	th, err := h.threadService.Get(c.Request().Context(), threadID)
	if err != nil {
		if errors.Is(err, thread.ErrThreadNotFound) {
			return thread.Thread{}, echo.NewHTTPError(http.StatusNotFound, "thread not found")
		}
		return thread.Thread{}, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return th, nil
}

// --- SSE ---

func writeSSEData(writer *bufio.Writer, flusher http.Flusher, payload string) error {
	if _, err := writer.WriteString(fmt.Sprintf("data: %s\n\n", payload)); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func writeSSEJSON(writer *bufio.Writer, flusher http.Flusher, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return writeSSEData(writer, flusher, string(data))
}

func parseSinceParam(raw string) (time.Time, bool, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return time.Time{}, false, nil
	}
	layouts := []string{time.RFC3339Nano, time.RFC3339}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, trimmed)
		if err == nil {
			return parsed.UTC(), true, nil
		}
	}
	if epochMillis, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return time.UnixMilli(epochMillis).UTC(), true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid since parameter")
}

func parseLimitParam(raw string, fallback int) int {
	if s := strings.TrimSpace(raw); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 200 {
			return n
		}
	}
	return fallback
}

// StreamMessageEvents streams thread-scoped message events to clients.
func (h *ThreadHandler) StreamMessageEvents(c echo.Context) error {
	th, err := h.requireThread(c)
	if err != nil {
		return err
	}
	if h.messageService == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "message service not configured")
	}
	if h.messageEvents == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "message events not configured")
	}

	since, hasSince, err := parseSinceParam(c.QueryParam("since"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/event-stream")
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache")
	c.Response().Header().Set(echo.HeaderConnection, "keep-alive")
	c.Response().WriteHeader(http.StatusOK)

	flusher, ok := c.Response().Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusInternalServerError, "streaming not supported")
	}
	writer := bufio.NewWriter(c.Response().Writer)

	sentMessageIDs := map[string]struct{}{}
	writeCreatedEvent := func(message messagepkg.Message) error {
		msgID := strings.TrimSpace(message.ID)
		if msgID != "" {
			if _, exists := sentMessageIDs[msgID]; exists {
				return nil
			}
			sentMessageIDs[msgID] = struct{}{}
		}
		return writeSSEJSON(writer, flusher, map[string]any{
			"type":      string(messageevent.TypeMessageCreated),
			"thread_id": th.ID,
			"message":   message,
		})
	}

	_, stream, cancel := h.messageEvents.Subscribe(th.ID, 128)
	defer cancel()

	if hasSince {
		backlog, err := h.messageService.ListSince(c.Request().Context(), th.ID, since)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		for _, message := range backlog {
			if err := writeCreatedEvent(message); err != nil {
				return nil
			}
		}
	}

	heartbeatTicker := time.NewTicker(20 * time.Second)
	defer heartbeatTicker.Stop()

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case <-heartbeatTicker.C:
			if err := writeSSEJSON(writer, flusher, map[string]any{"type": "ping"}); err != nil {
				return nil
			}
		case event, ok := <-stream:
			if !ok {
				return nil
			}
			if strings.TrimSpace(event.ThreadID) != th.ID {
				continue
			}
			if len(event.Data) == 0 {
				continue
			}
			switch event.Type {
			case messageevent.TypeMessageCreated:
				var message messagepkg.Message
				if err := json.Unmarshal(event.Data, &message); err != nil {
					h.logger.Warn("decode message event failed", slog.Any("error", err))
					continue
				}
				if err := writeCreatedEvent(message); err != nil {
					return nil
				}
			case messageevent.TypeMessageStatus:
				if err := writeSSEJSON(writer, flusher, map[string]any{
					"type":      string(messageevent.TypeMessageStatus),
					"thread_id": th.ID,
					"message":   json.RawMessage(event.Data),
				}); err != nil {
					return nil
				}
			default:
				continue
			}
		}
	}
}
