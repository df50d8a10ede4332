package customer

import "time"

type Customer struct {
	ID          string       `json:"id"`
	DisplayName string       `json:"display_name,omitempty"`
	AvatarURL   string       `json:"avatar_url,omitempty"`
	Identifiers []Identifier `json:"identifiers,omitempty"`
	Tags        []string     `json:"tags"`
	IsVip       bool         `json:"is_vip"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

type Identifier struct {
	Type      string    `json:"type"`
	Value     string    `json:"value"`
	Channel   string    `json:"channel"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// Hints carry optional profile fields observed on an inbound message. They
// seed a newly created Customer and never mutate an existing one.
type Hints struct {
	DisplayName string
	AvatarURL   string
}

type AddIdentifierRequest struct {
	Type     string `json:"type" validate:"required"`
	Value    string `json:"value" validate:"required"`
	Channel  string `json:"channel" validate:"required"`
	Verified bool   `json:"verified"`
}

type AddTagRequest struct {
	Tag string `json:"tag" validate:"required"`
}

type SetVipRequest struct {
	IsVip bool `json:"is_vip"`
}

const (
	IdentifierPhone      = "phone"
	IdentifierEmail      = "email"
	IdentifierLineUserID = "line_user_id"
	IdentifierPSID       = "psid"
	IdentifierMemberURN  = "member_urn"
)
