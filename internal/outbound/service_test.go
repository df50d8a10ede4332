package outbound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/omnidesk/omnidesk/internal/customer"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/provider"
	"github.com/omnidesk/omnidesk/internal/thread"
)

type fakeThreadStore struct {
	threads      map[string]thread.Thread
	recordedAt   time.Time
	recordedOn   string
	recordedText string
}

func (f *fakeThreadStore) Get(_ context.Context, threadID string) (thread.Thread, error) {
	th, ok := f.threads[threadID]
	if !ok {
		return thread.Thread{}, thread.ErrThreadNotFound
	}
	return th, nil
}

func (f *fakeThreadStore) RecordOutbound(_ context.Context, threadID string, at time.Time, preview string) error {
	f.recordedOn = threadID
	f.recordedAt = at
	f.recordedText = preview
	return nil
}

type fakeMessageStore struct {
	persisted []message.PersistInput
	err       error
}

func (f *fakeMessageStore) Persist(_ context.Context, input message.PersistInput) (message.Message, error) {
	if f.err != nil {
		return message.Message{}, f.err
	}
	f.persisted = append(f.persisted, input)
	return message.Message{
		ID:        "m-1",
		ThreadID:  input.ThreadID,
		Status:    input.Status,
		CreatedAt: time.Now(),
	}, nil
}

type fakeSender struct {
	externalID string
	err        error
}

func (f *fakeSender) Name() string { return "fake" }

func (f *fakeSender) Send(context.Context, thread.Thread, string, []message.Attachment) (string, error) {
	return f.externalID, f.err
}

type fakeResolver struct {
	sender provider.Sender
	err    error
}

func (f *fakeResolver) ForChannel(string) (provider.Sender, error) {
	return f.sender, f.err
}

type fakeNotifier struct {
	results []provider.SendResult
}

func (f *fakeNotifier) NotifyNewMessage(context.Context, message.Message, customer.Customer, thread.Thread) error {
	return nil
}

func (f *fakeNotifier) NotifySendResult(_ context.Context, _ thread.Thread, result provider.SendResult) error {
	f.results = append(f.results, result)
	return nil
}

func newTestService(threads *fakeThreadStore, messages *fakeMessageStore, resolver *fakeResolver, notifier *fakeNotifier) *Service {
	return NewService(nil, threads, messages, resolver, notifier, time.Second, 80)
}

func TestSendReplySuccess(t *testing.T) {
	threads := &fakeThreadStore{threads: map[string]thread.Thread{
		"t1": {ID: "t1", CustomerID: "c1", Channel: "sms", ExternalRecipientID: "+81900000001"},
	}}
	messages := &fakeMessageStore{}
	notifier := &fakeNotifier{}
	svc := newTestService(threads, messages, &fakeResolver{sender: &fakeSender{externalID: "X1"}}, notifier)

	result, err := svc.SendReply(context.Background(), "t1", ReplyRequest{
		Content:    "hi back",
		OperatorID: "op-1",
	})
	if err != nil {
		t.Fatalf("send reply failed: %v", err)
	}
	if !result.Success || result.ExternalMessageID != "X1" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(messages.persisted) != 1 {
		t.Fatalf("expected exactly one persisted message, got %d", len(messages.persisted))
	}
	got := messages.persisted[0]
	if got.Direction != message.DirectionOutbound || got.Status != message.StatusSent {
		t.Errorf("unexpected message %+v", got)
	}
	if got.SenderID != "op-1" || got.ExternalMessageID != "X1" {
		t.Errorf("unexpected sender/external id %+v", got)
	}
	if threads.recordedOn != "t1" || threads.recordedText != "hi back" {
		t.Errorf("expected thread activity recorded, got %q on %q", threads.recordedText, threads.recordedOn)
	}
	if len(notifier.results) != 1 || !notifier.results[0].Success {
		t.Errorf("expected success notification, got %v", notifier.results)
	}
}

func TestSendReplyThreadNotFound(t *testing.T) {
	threads := &fakeThreadStore{threads: map[string]thread.Thread{}}
	messages := &fakeMessageStore{}
	svc := newTestService(threads, messages, &fakeResolver{sender: &fakeSender{}}, &fakeNotifier{})

	result, err := svc.SendReply(context.Background(), "00000000-0000-0000-0000-000000000000", ReplyRequest{Content: "hi"})
	if !errors.Is(err, thread.ErrThreadNotFound) {
		t.Fatalf("expected ErrThreadNotFound, got %v", err)
	}
	if result.Success || result.Error != "Thread not found" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(messages.persisted) != 0 {
		t.Fatal("no message must be persisted for unknown thread")
	}
}

func TestSendReplyProviderFailure(t *testing.T) {
	threads := &fakeThreadStore{threads: map[string]thread.Thread{
		"t1": {ID: "t1", CustomerID: "c1", Channel: "sms"},
	}}
	messages := &fakeMessageStore{}
	notifier := &fakeNotifier{}
	svc := newTestService(threads, messages, &fakeResolver{sender: &fakeSender{err: errors.New("gateway timeout")}}, notifier)

	result, err := svc.SendReply(context.Background(), "t1", ReplyRequest{Content: "hi", OperatorID: "op-1"})
	if err != nil {
		t.Fatalf("provider failure must fold into the result, got error %v", err)
	}
	if result.Success || result.Error != "gateway timeout" {
		t.Fatalf("unexpected result %+v", result)
	}
	if len(messages.persisted) != 0 {
		t.Fatal("failed send must not persist a message")
	}
	if len(notifier.results) != 1 || notifier.results[0].Success {
		t.Fatalf("expected failure notification, got %v", notifier.results)
	}
}

func TestSendReplyUnknownChannel(t *testing.T) {
	threads := &fakeThreadStore{threads: map[string]thread.Thread{
		"t1": {ID: "t1", Channel: "telegram"},
	}}
	svc := newTestService(threads, &fakeMessageStore{}, &fakeResolver{err: provider.ErrUnknownChannel}, &fakeNotifier{})

	result, err := svc.SendReply(context.Background(), "t1", ReplyRequest{Content: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatalf("expected failed result, got %+v", result)
	}
}

func TestSendReplyPersistFailureSurfaces(t *testing.T) {
	threads := &fakeThreadStore{threads: map[string]thread.Thread{
		"t1": {ID: "t1", CustomerID: "c1", Channel: "sms"},
	}}
	messages := &fakeMessageStore{err: errors.New("storage unavailable")}
	svc := newTestService(threads, messages, &fakeResolver{sender: &fakeSender{externalID: "X1"}}, &fakeNotifier{})

	result, err := svc.SendReply(context.Background(), "t1", ReplyRequest{Content: "hi", OperatorID: "op-1"})
	if err == nil {
		t.Fatal("expected storage error to surface")
	}
	if !result.Success {
		t.Fatalf("send itself succeeded, result must say so: %+v", result)
	}
}
