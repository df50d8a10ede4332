package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/omnidesk/omnidesk/internal/config"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/thread"
)

const linkedInDefaultBaseURL = "https://api.linkedin.com/v2"

// LinkedInSender delivers professional-network messages as replies to an
// existing conversation.
type LinkedInSender struct {
	accessToken string
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
}

func NewLinkedInSender(log *slog.Logger, cfg config.LinkedInConfig) *LinkedInSender {
	if log == nil {
		log = slog.Default()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = linkedInDefaultBaseURL
	}
	return &LinkedInSender{
		accessToken: cfg.AccessToken,
		baseURL:     baseURL,
		httpClient:  http.DefaultClient,
		logger:      log.With(slog.String("provider", "linkedin")),
	}
}

func (s *LinkedInSender) Name() string { return "linkedin" }

func (s *LinkedInSender) Send(ctx context.Context, th thread.Thread, content string, attachments []message.Attachment) (string, error) {
	conversation := strings.TrimSpace(th.ExternalConversationID)
	if conversation == "" {
		return "", fmt.Errorf("thread has no external conversation")
	}

	payload := map[string]any{
		"body": content,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/conversations/%s/events?action=create", s.baseURL, conversation)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("linkedin request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read linkedin response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("linkedin status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	// The event URN comes back in the created entity id header.
	eventID := resp.Header.Get("X-Restli-Id")
	if eventID == "" {
		var result struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(respBody, &result); err == nil {
			eventID = result.ID
		}
	}
	s.logger.Debug("message dispatched",
		slog.String("thread_id", th.ID),
		slog.String("event_id", eventID))
	return eventID, nil
}
