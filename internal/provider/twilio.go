package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/omnidesk/omnidesk/internal/config"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/thread"
)

const twilioDefaultBaseURL = "https://api.twilio.com"

// TwilioSender delivers SMS, LINE and WhatsApp messages through the
// conversations provider's Messages endpoint.
type TwilioSender struct {
	accountSID string
	authToken  string
	fromNumber string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewTwilioSender(log *slog.Logger, cfg config.TwilioConfig) *TwilioSender {
	if log == nil {
		log = slog.Default()
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = twilioDefaultBaseURL
	}
	return &TwilioSender{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		fromNumber: cfg.FromNumber,
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		logger:     log.With(slog.String("provider", "twilio")),
	}
}

func (s *TwilioSender) Name() string { return "twilio" }

func (s *TwilioSender) Send(ctx context.Context, th thread.Thread, content string, attachments []message.Attachment) (string, error) {
	recipient := strings.TrimSpace(th.ExternalRecipientID)
	if recipient == "" {
		return "", fmt.Errorf("thread has no external recipient")
	}
	to := recipient
	from := s.fromNumber
	if th.Channel == ChannelWhatsApp {
		to = "whatsapp:" + recipient
		from = "whatsapp:" + s.fromNumber
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", from)
	form.Set("Body", content)
	for _, attachment := range attachments {
		if attachment.URL != "" {
			form.Add("MediaUrl", attachment.URL)
		}
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read twilio response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("twilio status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Sid string `json:"sid"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode twilio response: %w", err)
	}
	s.logger.Debug("message dispatched",
		slog.String("thread_id", th.ID),
		slog.String("sid", payload.Sid))
	return payload.Sid, nil
}
