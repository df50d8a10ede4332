package inbound

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/omnidesk/omnidesk/internal/automation"
	"github.com/omnidesk/omnidesk/internal/customer"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/outbound"
	"github.com/omnidesk/omnidesk/internal/provider"
	"github.com/omnidesk/omnidesk/internal/thread"
)

type fakeResolver struct {
	byIdentifier map[string]customer.Customer
	created      int
	tags         map[string][]string
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		byIdentifier: map[string]customer.Customer{},
		tags:         map[string][]string{},
	}
}

func (f *fakeResolver) Resolve(_ context.Context, identifierType, identifierValue, _ string, hints customer.Hints) (customer.Customer, error) {
	key := identifierType + ":" + identifierValue
	if cust, ok := f.byIdentifier[key]; ok {
		return cust, nil
	}
	f.created++
	cust := customer.Customer{
		ID:          fmt.Sprintf("c-%d", f.created),
		DisplayName: hints.DisplayName,
		Tags:        []string{},
	}
	f.byIdentifier[key] = cust
	return cust, nil
}

func (f *fakeResolver) AddTag(_ context.Context, customerID, tag string) error {
	f.tags[customerID] = append(f.tags[customerID], tag)
	return nil
}

type fakeRouter struct {
	active     map[string]thread.Thread
	created    int
	unread     map[string]int
	priorities map[string]string
	assignees  map[string]string
}

func newFakeRouter() *fakeRouter {
	return &fakeRouter{
		active:     map[string]thread.Thread{},
		unread:     map[string]int{},
		priorities: map[string]string{},
		assignees:  map[string]string{},
	}
}

func (f *fakeRouter) RouteInbound(_ context.Context, customerID, channel, _, externalRecipientID string) (thread.Thread, error) {
	key := customerID + ":" + channel
	if th, ok := f.active[key]; ok {
		return th, nil
	}
	f.created++
	th := thread.Thread{
		ID:                  fmt.Sprintf("t-%d", f.created),
		CustomerID:          customerID,
		Channel:             channel,
		Status:              thread.StatusOpen,
		ExternalRecipientID: externalRecipientID,
	}
	f.active[key] = th
	return th, nil
}

func (f *fakeRouter) RecordInbound(_ context.Context, threadID string, _ time.Time, _ string) error {
	f.unread[threadID]++
	return nil
}

func (f *fakeRouter) Assign(_ context.Context, threadID, assigneeID, _ string) error {
	f.assignees[threadID] = assigneeID
	return nil
}

func (f *fakeRouter) SetPriority(_ context.Context, threadID, priority string) error {
	f.priorities[threadID] = priority
	return nil
}

type fakeMessages struct {
	persisted []message.PersistInput
}

func (f *fakeMessages) Persist(_ context.Context, input message.PersistInput) (message.Message, error) {
	f.persisted = append(f.persisted, input)
	return message.Message{
		ID:         fmt.Sprintf("m-%d", len(f.persisted)),
		ThreadID:   input.ThreadID,
		CustomerID: input.CustomerID,
		Channel:    input.Channel,
		Direction:  input.Direction,
		Content:    input.Content,
		Status:     input.Status,
		CreatedAt:  time.Now(),
	}, nil
}

type fakeReplies struct {
	sent []outbound.ReplyRequest
}

func (f *fakeReplies) SendReply(_ context.Context, _ string, req outbound.ReplyRequest) (provider.SendResult, error) {
	f.sent = append(f.sent, req)
	return provider.SendResult{Success: true, ExternalMessageID: "auto-1"}, nil
}

type notifyCall struct {
	msg message.Message
	th  thread.Thread
}

type fakeGateway struct {
	calls []notifyCall
	err   error
}

func (f *fakeGateway) NotifyNewMessage(_ context.Context, msg message.Message, _ customer.Customer, th thread.Thread) error {
	f.calls = append(f.calls, notifyCall{msg: msg, th: th})
	return f.err
}

func (f *fakeGateway) NotifySendResult(context.Context, thread.Thread, provider.SendResult) error {
	return nil
}

func rawSMS(content string) RawMessage {
	return RawMessage{
		Channel:         "sms",
		IdentifierType:  "phone",
		IdentifierValue: "+81900000001",
		Content:         content,
		SenderID:        "+81900000001",
		SenderName:      "Taro",
		Timestamp:       time.Now(),
	}
}

func TestProcessFirstContact(t *testing.T) {
	resolver := newFakeResolver()
	router := newFakeRouter()
	messages := &fakeMessages{}
	gateway := &fakeGateway{}
	pipeline := NewPipeline(nil, resolver, router, messages, nil, nil, gateway, 80)

	if err := pipeline.Process(context.Background(), rawSMS("hello")); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if resolver.created != 1 {
		t.Errorf("expected 1 customer created, got %d", resolver.created)
	}
	if router.created != 1 {
		t.Errorf("expected 1 thread created, got %d", router.created)
	}
	if len(messages.persisted) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages.persisted))
	}
	got := messages.persisted[0]
	if got.Direction != message.DirectionInbound || got.Status != message.StatusDelivered {
		t.Errorf("unexpected message %+v", got)
	}
	if router.unread["t-1"] != 1 {
		t.Errorf("expected unread 1, got %d", router.unread["t-1"])
	}
	if len(gateway.calls) != 1 {
		t.Errorf("expected 1 notification, got %d", len(gateway.calls))
	}
}

func TestProcessSecondMessageReusesThread(t *testing.T) {
	resolver := newFakeResolver()
	router := newFakeRouter()
	messages := &fakeMessages{}
	pipeline := NewPipeline(nil, resolver, router, messages, nil, nil, &fakeGateway{}, 80)

	ctx := context.Background()
	if err := pipeline.Process(ctx, rawSMS("hello")); err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	if err := pipeline.Process(ctx, rawSMS("anyone there?")); err != nil {
		t.Fatalf("second process failed: %v", err)
	}

	if resolver.created != 1 || router.created != 1 {
		t.Errorf("expected customer and thread reuse, got %d customers %d threads", resolver.created, router.created)
	}
	if len(messages.persisted) != 2 {
		t.Errorf("expected 2 messages, got %d", len(messages.persisted))
	}
	if router.unread["t-1"] != 2 {
		t.Errorf("expected unread 2, got %d", router.unread["t-1"])
	}
}

func TestProcessValidation(t *testing.T) {
	pipeline := NewPipeline(nil, newFakeResolver(), newFakeRouter(), &fakeMessages{}, nil, nil, &fakeGateway{}, 80)

	raw := rawSMS("hello")
	raw.IdentifierValue = ""
	if err := pipeline.Process(context.Background(), raw); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	raw = rawSMS("hello")
	raw.IdentifierType = "  "
	if err := pipeline.Process(context.Background(), raw); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestProcessNotificationFailureDoesNotAbort(t *testing.T) {
	gateway := &fakeGateway{err: errors.New("workspace down")}
	pipeline := NewPipeline(nil, newFakeResolver(), newFakeRouter(), &fakeMessages{}, nil, nil, gateway, 80)

	if err := pipeline.Process(context.Background(), rawSMS("hello")); err != nil {
		t.Fatalf("notification failure must not fail processing: %v", err)
	}
}

func TestProcessAppliesRuleActions(t *testing.T) {
	resolver := newFakeResolver()
	router := newFakeRouter()
	replies := &fakeReplies{}
	engine := automation.NewEngine(nil, []automation.Rule{
		{
			Name:       "urgent",
			Conditions: []automation.Condition{{Kind: automation.ConditionKeyword, Keywords: []string{"urgent"}}},
			Actions: []automation.Action{
				{Kind: automation.ActionTag, Tag: "urgent"},
				{Kind: automation.ActionPriority, Priority: "high"},
				{Kind: automation.ActionAssign, AssigneeID: "op-1"},
				{Kind: automation.ActionAutoReply, Reply: "We are on it."},
			},
		},
	})
	pipeline := NewPipeline(nil, resolver, router, &fakeMessages{}, engine, replies, &fakeGateway{}, 80)

	if err := pipeline.Process(context.Background(), rawSMS("URGENT: order missing")); err != nil {
		t.Fatalf("process failed: %v", err)
	}

	if tags := resolver.tags["c-1"]; len(tags) != 1 || tags[0] != "urgent" {
		t.Errorf("expected urgent tag, got %v", tags)
	}
	if router.priorities["t-1"] != "high" {
		t.Errorf("expected high priority, got %q", router.priorities["t-1"])
	}
	if router.assignees["t-1"] != "op-1" {
		t.Errorf("expected assignment to op-1, got %q", router.assignees["t-1"])
	}
	if len(replies.sent) != 1 || replies.sent[0].Content != "We are on it." {
		t.Errorf("expected auto reply, got %v", replies.sent)
	}
	if replies.sent[0].OperatorID != "automation" {
		t.Errorf("expected automation operator id, got %q", replies.sent[0].OperatorID)
	}
}

func TestProcessPreviewTruncation(t *testing.T) {
	router := newFakeRouter()
	gateway := &fakeGateway{}
	pipeline := NewPipeline(nil, newFakeResolver(), router, &fakeMessages{}, nil, nil, gateway, 10)

	long := "0123456789 this tail is cut"
	if err := pipeline.Process(context.Background(), rawSMS(long)); err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if len(gateway.calls) != 1 {
		t.Fatalf("expected notification, got %d", len(gateway.calls))
	}
	if got := gateway.calls[0].th.LastMessagePreview; got != "0123456789" {
		t.Errorf("expected truncated preview, got %q", got)
	}
}
