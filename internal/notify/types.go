// Package notify mirrors engine activity into the team chat workspace as
// interactive cards. Dispatch is best-effort; failures never abort the
// message pipelines.
package notify

import (
	"context"

	"github.com/omnidesk/omnidesk/internal/customer"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/provider"
	"github.com/omnidesk/omnidesk/internal/thread"
)

// Gateway is the notification contract consumed by the pipelines.
type Gateway interface {
	NotifyNewMessage(ctx context.Context, msg message.Message, cust customer.Customer, th thread.Thread) error
	NotifySendResult(ctx context.Context, th thread.Thread, result provider.SendResult) error
}

// CardStore remembers the workspace card posted for a thread so later
// notifications can update it in place.
type CardStore interface {
	SetCard(ctx context.Context, threadID, cardChannel, cardTs string) error
}
