package notify

import (
	"context"

	"github.com/omnidesk/omnidesk/internal/customer"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/provider"
	"github.com/omnidesk/omnidesk/internal/thread"
)

// NoopGateway discards notifications. Used when no workspace token is
// configured.
type NoopGateway struct{}

func (NoopGateway) NotifyNewMessage(context.Context, message.Message, customer.Customer, thread.Thread) error {
	return nil
}

func (NoopGateway) NotifySendResult(context.Context, thread.Thread, provider.SendResult) error {
	return nil
}
