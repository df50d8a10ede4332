package automation

// Rule pairs an AND-combined condition set with the actions emitted when
// every condition holds.
type Rule struct {
	Name       string      `toml:"name" json:"name"`
	Conditions []Condition `toml:"conditions" json:"conditions"`
	Actions    []Action    `toml:"actions" json:"actions"`
}

// Condition is one predicate over an inbound message and its customer/thread.
type Condition struct {
	Kind     string   `toml:"kind" json:"kind"`
	Channels []string `toml:"channels,omitempty" json:"channels,omitempty"`
	Keywords []string `toml:"keywords,omitempty" json:"keywords,omitempty"`
	Vip      bool     `toml:"vip,omitempty" json:"vip,omitempty"`
	Tag      string   `toml:"tag,omitempty" json:"tag,omitempty"`
}

// Action is an opaque instruction interpreted by the caller.
type Action struct {
	Kind         string `toml:"kind" json:"kind"`
	Tag          string `toml:"tag,omitempty" json:"tag,omitempty"`
	Priority     string `toml:"priority,omitempty" json:"priority,omitempty"`
	AssigneeID   string `toml:"assignee_id,omitempty" json:"assignee_id,omitempty"`
	AssigneeName string `toml:"assignee_name,omitempty" json:"assignee_name,omitempty"`
	Reply        string `toml:"reply,omitempty" json:"reply,omitempty"`
}

const (
	ConditionChannel       = "channel"
	ConditionKeyword       = "keyword"
	ConditionVip           = "vip"
	ConditionTag           = "tag"
	ConditionBusinessHours = "business_hours"
)

const (
	ActionNotify    = "notify"
	ActionAssign    = "assign"
	ActionTag       = "tag"
	ActionPriority  = "priority"
	ActionAutoReply = "auto_reply"
)
