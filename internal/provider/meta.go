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

const metaDefaultBaseURL = "https://graph.facebook.com/v19.0"

// MetaSender delivers Facebook and Instagram direct messages through the
// social-graph provider's Send API.
type MetaSender struct {
	pageAccessToken string
	baseURL         string
	httpClient      *http.Client
	logger          *slog.Logger
}

func NewMetaSender(log *slog.Logger, cfg config.MetaConfig) *MetaSender {
	if log == nil {
		log = slog.Default()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = metaDefaultBaseURL
	}
	return &MetaSender{
		pageAccessToken: cfg.PageAccessToken,
		baseURL:         baseURL,
		httpClient:      http.DefaultClient,
		logger:          log.With(slog.String("provider", "meta")),
	}
}

func (s *MetaSender) Name() string { return "meta" }

type metaSendRequest struct {
	Recipient struct {
		ID string `json:"id"`
	} `json:"recipient"`
	Message struct {
		Text       string          `json:"text,omitempty"`
		Attachment *metaAttachment `json:"attachment,omitempty"`
	} `json:"message"`
	MessagingType string `json:"messaging_type"`
}

type metaAttachment struct {
	Type    string `json:"type"`
	Payload struct {
		URL string `json:"url"`
	} `json:"payload"`
}

func (s *MetaSender) Send(ctx context.Context, th thread.Thread, content string, attachments []message.Attachment) (string, error) {
	recipient := strings.TrimSpace(th.ExternalRecipientID)
	if recipient == "" {
		return "", fmt.Errorf("thread has no external recipient")
	}

	payload := metaSendRequest{MessagingType: "RESPONSE"}
	payload.Recipient.ID = recipient
	payload.Message.Text = content
	if len(attachments) > 0 {
		attachment := &metaAttachment{Type: attachments[0].Type}
		if attachment.Type == "" {
			attachment.Type = "file"
		}
		attachment.Payload.URL = attachments[0].URL
		payload.Message.Attachment = attachment
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	endpoint := fmt.Sprintf("%s/me/messages?access_token=%s", s.baseURL, s.pageAccessToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("meta request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read meta response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("meta status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var result struct {
		MessageID string `json:"message_id"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode meta response: %w", err)
	}
	s.logger.Debug("message dispatched",
		slog.String("thread_id", th.ID),
		slog.String("message_id", result.MessageID))
	return result.MessageID, nil
}
