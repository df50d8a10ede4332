// Package provider dispatches outbound messages to channel-specific
// transports. Each channel maps to exactly one provider via a static table.
package provider

import (
	"context"
	"time"

	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/thread"
)

// Sender delivers one outbound message for a thread and returns the
// provider-side message id.
type Sender interface {
	Name() string
	Send(ctx context.Context, th thread.Thread, content string, attachments []message.Attachment) (string, error)
}

// SendResult is the outcome reported to callers and the notification
// gateway. Provider errors are folded in, never raised.
type SendResult struct {
	Success           bool      `json:"success"`
	ExternalMessageID string    `json:"external_message_id,omitempty"`
	Error             string    `json:"error,omitempty"`
	Timestamp         time.Time `json:"timestamp"`
}

// Channel tags understood by the routing table.
const (
	ChannelSMS       = "sms"
	ChannelLine      = "line"
	ChannelWhatsApp  = "whatsapp"
	ChannelFacebook  = "facebook"
	ChannelInstagram = "instagram"
	ChannelLinkedIn  = "linkedin"
	ChannelEmail     = "email"
)
