package thread

import "time"

type Thread struct {
	ID                     string         `json:"id"`
	CustomerID             string         `json:"customer_id"`
	Channel                string         `json:"channel"`
	ExternalConversationID string         `json:"external_conversation_id,omitempty"`
	Status                 string         `json:"status"`
	AssignedTo             string         `json:"assigned_to,omitempty"`
	AssignedName           string         `json:"assigned_name,omitempty"`
	LastMessageAt          time.Time      `json:"last_message_at,omitempty"`
	LastMessagePreview     string         `json:"last_message_preview,omitempty"`
	UnreadCount            int            `json:"unread_count"`
	CardChannel            string         `json:"card_channel,omitempty"`
	CardTs                 string         `json:"card_ts,omitempty"`
	ExternalRecipientID    string         `json:"external_recipient_id,omitempty"`
	Metadata               map[string]any `json:"metadata,omitempty"`
	CreatedAt              time.Time      `json:"created_at"`
	UpdatedAt              time.Time      `json:"updated_at"`
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required,oneof=open pending closed"`
}

type AssignRequest struct {
	AssigneeID   string `json:"assignee_id" validate:"required"`
	AssigneeName string `json:"assignee_name,omitempty"`
}

type ListThreadsResponse struct {
	Items []Thread `json:"items"`
}

const (
	StatusOpen    = "open"
	StatusPending = "pending"
	StatusClosed  = "closed"
)
