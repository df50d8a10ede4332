package provider

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	mg "github.com/mailgun/mailgun-go/v5"
	mail "github.com/wneessen/go-mail"

	"github.com/omnidesk/omnidesk/internal/config"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/thread"
)

// NewEmailSender picks the configured email transport. Unknown provider
// names fall back to SMTP.
func NewEmailSender(log *slog.Logger, cfg config.EmailConfig) Sender {
	if cfg.Provider == "mailgun" {
		return NewMailgunSender(log, cfg)
	}
	return NewSMTPSender(log, cfg)
}

// MailgunSender delivers outbound email through the Mailgun API.
type MailgunSender struct {
	domain string
	from   string
	client *mg.Client
	logger *slog.Logger
}

func NewMailgunSender(log *slog.Logger, cfg config.EmailConfig) *MailgunSender {
	if log == nil {
		log = slog.Default()
	}
	client := mg.NewMailgun(cfg.MailgunAPIKey)
	if cfg.MailgunRegion == "eu" {
		client.SetAPIBase(mg.APIBaseEU)
	}
	from := cfg.FromAddress
	if from == "" {
		from = fmt.Sprintf("noreply@%s", cfg.MailgunDomain)
	}
	return &MailgunSender{
		domain: cfg.MailgunDomain,
		from:   from,
		client: client,
		logger: log.With(slog.String("provider", "mailgun")),
	}
}

func (s *MailgunSender) Name() string { return "mailgun" }

func (s *MailgunSender) Send(ctx context.Context, th thread.Thread, content string, attachments []message.Attachment) (string, error) {
	to := strings.TrimSpace(th.ExternalRecipientID)
	if to == "" {
		return "", fmt.Errorf("thread has no recipient address")
	}
	body := content
	for _, attachment := range attachments {
		if attachment.URL != "" {
			body += "\n\n" + attachment.URL
		}
	}
	m := mg.NewMessage(s.domain, s.from, emailSubject(th), body, to)
	resp, err := s.client.Send(ctx, m)
	if err != nil {
		return "", fmt.Errorf("mailgun send: %w", err)
	}
	s.logger.Debug("message dispatched",
		slog.String("thread_id", th.ID),
		slog.String("message_id", resp.ID))
	return resp.ID, nil
}

// SMTPSender delivers outbound email through a plain SMTP relay.
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
	logger   *slog.Logger
}

func NewSMTPSender(log *slog.Logger, cfg config.EmailConfig) *SMTPSender {
	if log == nil {
		log = slog.Default()
	}
	from := cfg.FromAddress
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &SMTPSender{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     from,
		logger:   log.With(slog.String("provider", "smtp")),
	}
}

func (s *SMTPSender) Name() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, th thread.Thread, content string, attachments []message.Attachment) (string, error) {
	to := strings.TrimSpace(th.ExternalRecipientID)
	if to == "" {
		return "", fmt.Errorf("thread has no recipient address")
	}

	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return "", fmt.Errorf("set from: %w", err)
	}
	if err := m.To(to); err != nil {
		return "", fmt.Errorf("set to: %w", err)
	}
	body := content
	for _, attachment := range attachments {
		if attachment.URL != "" {
			body += "\n\n" + attachment.URL
		}
	}
	m.Subject(emailSubject(th))
	m.SetBodyString(mail.TypeTextPlain, body)
	m.SetMessageID()

	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.username),
		mail.WithPassword(s.password),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return "", fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	s.logger.Debug("message dispatched",
		slog.String("thread_id", th.ID),
		slog.String("message_id", m.GetMessageID()))
	return m.GetMessageID(), nil
}

func emailSubject(th thread.Thread) string {
	if subject, ok := th.Metadata["subject"].(string); ok && strings.TrimSpace(subject) != "" {
		return subject
	}
	return "New message from support"
}
