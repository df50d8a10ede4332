// Package outbound dispatches operator replies through the originating
// channel's provider and records the result.
package outbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/notify"
	"github.com/omnidesk/omnidesk/internal/provider"
	"github.com/omnidesk/omnidesk/internal/thread"
)

// ThreadStore is the thread access the pipeline needs.
type ThreadStore interface {
	Get(ctx context.Context, threadID string) (thread.Thread, error)
	RecordOutbound(ctx context.Context, threadID string, at time.Time, preview string) error
}

// MessageStore persists outbound messages.
type MessageStore interface {
	Persist(ctx context.Context, input message.PersistInput) (message.Message, error)
}

// ProviderResolver maps a channel tag to its sender.
type ProviderResolver interface {
	ForChannel(channel string) (provider.Sender, error)
}

// ReplyRequest is one operator reply to a thread.
type ReplyRequest struct {
	Content      string               `json:"content" validate:"required"`
	ContentType  string               `json:"content_type,omitempty"`
	Attachments  []message.Attachment `json:"attachments,omitempty"`
	OperatorID   string               `json:"operator_id" validate:"required"`
	OperatorName string               `json:"operator_name,omitempty"`
}

type Service struct {
	threads       ThreadStore
	messages      MessageStore
	providers     ProviderResolver
	notifier      notify.Gateway
	sendTimeout   time.Duration
	previewLength int
	logger        *slog.Logger
}

func NewService(log *slog.Logger, threads ThreadStore, messages MessageStore, providers ProviderResolver, notifier notify.Gateway, sendTimeout time.Duration, previewLength int) *Service {
	if log == nil {
		log = slog.Default()
	}
	if notifier == nil {
		notifier = notify.NoopGateway{}
	}
	if sendTimeout <= 0 {
		sendTimeout = 30 * time.Second
	}
	return &Service{
		threads:       threads,
		messages:      messages,
		providers:     providers,
		notifier:      notifier,
		sendTimeout:   sendTimeout,
		previewLength: previewLength,
		logger:        log.With(slog.String("service", "outbound")),
	}
}

// SendReply dispatches one reply. Provider failures are folded into the
// returned SendResult, never raised; no message is persisted for a failed
// send. An unknown thread returns thread.ErrThreadNotFound alongside a
// failed result.
func (s *Service) SendReply(ctx context.Context, threadID string, req ReplyRequest) (provider.SendResult, error) {
	th, err := s.threads.Get(ctx, threadID)
	if err != nil {
		if errors.Is(err, thread.ErrThreadNotFound) {
			return provider.SendResult{
				Success:   false,
				Error:     "Thread not found",
				Timestamp: time.Now(),
			}, err
		}
		return provider.SendResult{}, err
	}

	sender, err := s.providers.ForChannel(th.Channel)
	if err != nil {
		result := provider.SendResult{
			Success:   false,
			Error:     err.Error(),
			Timestamp: time.Now(),
		}
		s.notifySendResult(ctx, th, result)
		return result, nil
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.sendTimeout)
	externalID, sendErr := sender.Send(sendCtx, th, req.Content, req.Attachments)
	cancel()

	result := provider.SendResult{Timestamp: time.Now()}
	if sendErr != nil {
		result.Error = sendErr.Error()
		s.logger.Warn("provider send failed",
			slog.String("thread_id", th.ID),
			slog.String("channel", th.Channel),
			slog.String("provider", sender.Name()),
			slog.Any("error", sendErr))
		s.notifySendResult(ctx, th, result)
		return result, nil
	}
	result.Success = true
	result.ExternalMessageID = externalID

	persisted, err := s.messages.Persist(ctx, message.PersistInput{
		ThreadID:          th.ID,
		CustomerID:        th.CustomerID,
		Channel:           th.Channel,
		Direction:         message.DirectionOutbound,
		Content:           req.Content,
		ContentType:       req.ContentType,
		Attachments:       req.Attachments,
		SenderID:          req.OperatorID,
		SenderName:        req.OperatorName,
		Status:            message.StatusSent,
		ExternalMessageID: externalID,
	})
	if err != nil {
		// The reply already left the building; report the storage failure
		// instead of pretending the send failed.
		return result, fmt.Errorf("persist outbound message: %w", err)
	}

	preview := message.Preview(req.Content, s.previewLength)
	if err := s.threads.RecordOutbound(ctx, th.ID, persisted.CreatedAt, preview); err != nil {
		s.logger.Warn("record outbound activity failed",
			slog.String("thread_id", th.ID),
			slog.Any("error", err))
	}

	s.notifySendResult(ctx, th, result)
	return result, nil
}

func (s *Service) notifySendResult(ctx context.Context, th thread.Thread, result provider.SendResult) {
	if err := s.notifier.NotifySendResult(ctx, th, result); err != nil {
		s.logger.Warn("send result notification failed",
			slog.String("thread_id", th.ID),
			slog.Any("error", err))
	}
}
