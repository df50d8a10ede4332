package message

import "time"

// Message is one inbound or outbound message on a thread.
type Message struct {
	ID                string         `json:"id"`
	ThreadID          string         `json:"thread_id"`
	CustomerID        string         `json:"customer_id"`
	Channel           string         `json:"channel"`
	Direction         string         `json:"direction"`
	Content           string         `json:"content"`
	ContentType       string         `json:"content_type"`
	Attachments       []Attachment   `json:"attachments,omitempty"`
	SenderID          string         `json:"sender_id,omitempty"`
	SenderName        string         `json:"sender_name,omitempty"`
	Status            string         `json:"status"`
	ExternalMessageID string         `json:"external_message_id,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
}

// Attachment is a channel-agnostic media reference carried on a message.
type Attachment struct {
	Type string `json:"type"`
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// PersistInput carries everything needed to write one message.
type PersistInput struct {
	ThreadID          string
	CustomerID        string
	Channel           string
	Direction         string
	Content           string
	ContentType       string
	Attachments       []Attachment
	SenderID          string
	SenderName        string
	Status            string
	ExternalMessageID string
	Metadata          map[string]any
}

type ListMessagesResponse struct {
	Items []Message `json:"items"`
	Total int64     `json:"total"`
}

const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

const (
	StatusPending   = "pending"
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
	StatusFailed    = "failed"
)

const ContentTypeText = "text"

// Preview truncates content to at most limit runes for thread summaries.
func Preview(content string, limit int) string {
	if limit <= 0 {
		return content
	}
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit])
}
