// Package inbound orchestrates webhook ingestion: identity resolution,
// thread routing, persistence, rule evaluation and notification dispatch.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/omnidesk/omnidesk/internal/automation"
	"github.com/omnidesk/omnidesk/internal/customer"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/notify"
	"github.com/omnidesk/omnidesk/internal/outbound"
	"github.com/omnidesk/omnidesk/internal/provider"
	"github.com/omnidesk/omnidesk/internal/thread"
)

// ErrValidation marks malformed inbound payloads rejected before any write.
var ErrValidation = errors.New("invalid inbound message")

// RawMessage is the normalized tuple every channel adapter delivers.
type RawMessage struct {
	Channel           string               `json:"channel" validate:"required"`
	IdentifierType    string               `json:"identifier_type" validate:"required"`
	IdentifierValue   string               `json:"identifier_value" validate:"required"`
	Content           string               `json:"content"`
	ContentType       string               `json:"content_type,omitempty"`
	Attachments       []message.Attachment `json:"attachments,omitempty"`
	SenderID          string               `json:"sender_id,omitempty"`
	SenderName        string               `json:"sender_name,omitempty"`
	Timestamp         time.Time            `json:"timestamp"`
	ExternalMessageID string               `json:"external_message_id,omitempty"`
	Metadata          map[string]any       `json:"metadata,omitempty"`
}

// CustomerResolver finds or creates customers and applies rule tags.
type CustomerResolver interface {
	Resolve(ctx context.Context, identifierType, identifierValue, channel string, hints customer.Hints) (customer.Customer, error)
	AddTag(ctx context.Context, customerID, tag string) error
}

// ThreadRouter routes messages onto threads and applies rule mutations.
type ThreadRouter interface {
	RouteInbound(ctx context.Context, customerID, channel, externalConversationID, externalRecipientID string) (thread.Thread, error)
	RecordInbound(ctx context.Context, threadID string, at time.Time, preview string) error
	Assign(ctx context.Context, threadID, assigneeID, assigneeName string) error
	SetPriority(ctx context.Context, threadID, priority string) error
}

// MessageStore persists inbound messages.
type MessageStore interface {
	Persist(ctx context.Context, input message.PersistInput) (message.Message, error)
}

// RuleEngine evaluates automation rules against one message.
type RuleEngine interface {
	Evaluate(msg message.Message, cust customer.Customer, th thread.Thread) []automation.Action
}

// ReplySender executes auto_reply actions through the outbound pipeline.
type ReplySender interface {
	SendReply(ctx context.Context, threadID string, req outbound.ReplyRequest) (provider.SendResult, error)
}

type Pipeline struct {
	customers     CustomerResolver
	threads       ThreadRouter
	messages      MessageStore
	rules         RuleEngine
	replies       ReplySender
	notifier      notify.Gateway
	previewLength int
	logger        *slog.Logger
}

func NewPipeline(log *slog.Logger, customers CustomerResolver, threads ThreadRouter, messages MessageStore, rules RuleEngine, replies ReplySender, notifier notify.Gateway, previewLength int) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if notifier == nil {
		notifier = notify.NoopGateway{}
	}
	if previewLength <= 0 {
		previewLength = 80
	}
	return &Pipeline{
		customers:     customers,
		threads:       threads,
		messages:      messages,
		rules:         rules,
		replies:       replies,
		notifier:      notifier,
		previewLength: previewLength,
		logger:        log.With(slog.String("service", "inbound")),
	}
}

// Process ingests one normalized message. Steps after persistence are
// best-effort: rule application and notification failures are logged, never
// rolled back.
func (p *Pipeline) Process(ctx context.Context, raw RawMessage) error {
	if err := validate(raw); err != nil {
		return err
	}

	cust, err := p.customers.Resolve(ctx, raw.IdentifierType, raw.IdentifierValue, raw.Channel, customer.Hints{
		DisplayName: raw.SenderName,
	})
	if err != nil {
		return fmt.Errorf("resolve customer: %w", err)
	}

	th, err := p.threads.RouteInbound(ctx, cust.ID, raw.Channel, externalConversationID(raw), raw.IdentifierValue)
	if err != nil {
		return fmt.Errorf("route thread: %w", err)
	}

	timestamp := raw.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	msg, err := p.messages.Persist(ctx, message.PersistInput{
		ThreadID:          th.ID,
		CustomerID:        cust.ID,
		Channel:           raw.Channel,
		Direction:         message.DirectionInbound,
		Content:           raw.Content,
		ContentType:       raw.ContentType,
		Attachments:       raw.Attachments,
		SenderID:          raw.SenderID,
		SenderName:        raw.SenderName,
		Status:            message.StatusDelivered,
		ExternalMessageID: raw.ExternalMessageID,
		Metadata:          raw.Metadata,
	})
	if err != nil {
		return fmt.Errorf("persist inbound message: %w", err)
	}

	preview := message.Preview(raw.Content, p.previewLength)
	if err := p.threads.RecordInbound(ctx, th.ID, timestamp, preview); err != nil {
		return fmt.Errorf("record inbound activity: %w", err)
	}
	th.UnreadCount++
	th.LastMessageAt = timestamp
	th.LastMessagePreview = preview

	p.applyRules(ctx, msg, cust, th)

	if err := p.notifier.NotifyNewMessage(ctx, msg, cust, th); err != nil {
		p.logger.Warn("new message notification failed",
			slog.String("thread_id", th.ID),
			slog.Any("error", err))
	}
	return nil
}

func (p *Pipeline) applyRules(ctx context.Context, msg message.Message, cust customer.Customer, th thread.Thread) {
	if p.rules == nil {
		return
	}
	for _, action := range p.rules.Evaluate(msg, cust, th) {
		switch action.Kind {
		case automation.ActionTag:
			if err := p.customers.AddTag(ctx, cust.ID, action.Tag); err != nil {
				p.logActionFailure(th.ID, "tag", err)
			}
		case automation.ActionPriority:
			if err := p.threads.SetPriority(ctx, th.ID, action.Priority); err != nil {
				p.logActionFailure(th.ID, "priority", err)
			}
		case automation.ActionAssign:
			if err := p.threads.Assign(ctx, th.ID, action.AssigneeID, action.AssigneeName); err != nil {
				p.logActionFailure(th.ID, "assign", err)
			}
		case automation.ActionAutoReply:
			if p.replies == nil {
				continue
			}
			result, err := p.replies.SendReply(ctx, th.ID, outbound.ReplyRequest{
				Content:      action.Reply,
				OperatorID:   "automation",
				OperatorName: "Automation",
			})
			if err != nil {
				p.logActionFailure(th.ID, "auto_reply", err)
			} else if !result.Success {
				p.logger.Warn("auto reply not delivered",
					slog.String("thread_id", th.ID),
					slog.String("error", result.Error))
			}
		case automation.ActionNotify:
			// The pipeline already notifies for every inbound message.
		}
	}
}

func (p *Pipeline) logActionFailure(threadID, kind string, err error) {
	p.logger.Warn("rule action failed",
		slog.String("thread_id", threadID),
		slog.String("action", kind),
		slog.Any("error", err))
}

func validate(raw RawMessage) error {
	if strings.TrimSpace(raw.Channel) == "" {
		return fmt.Errorf("%w: channel is required", ErrValidation)
	}
	if strings.TrimSpace(raw.IdentifierType) == "" {
		return fmt.Errorf("%w: identifier_type is required", ErrValidation)
	}
	if strings.TrimSpace(raw.IdentifierValue) == "" {
		return fmt.Errorf("%w: identifier_value is required", ErrValidation)
	}
	return nil
}

func externalConversationID(raw RawMessage) string {
	if raw.Metadata == nil {
		return ""
	}
	if id, ok := raw.Metadata["external_conversation_id"].(string); ok {
		return id
	}
	return ""
}
