package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/slack-go/slack"

	"github.com/omnidesk/omnidesk/internal/config"
	"github.com/omnidesk/omnidesk/internal/customer"
	"github.com/omnidesk/omnidesk/internal/message"
	"github.com/omnidesk/omnidesk/internal/provider"
	"github.com/omnidesk/omnidesk/internal/thread"
)

type recordingCardStore struct {
	threadID    string
	cardChannel string
	cardTs      string
}

func (r *recordingCardStore) SetCard(_ context.Context, threadID, cardChannel, cardTs string) error {
	r.threadID = threadID
	r.cardChannel = cardChannel
	r.cardTs = cardTs
	return nil
}

func newTestGateway(t *testing.T, handler http.HandlerFunc, cards CardStore) (*SlackGateway, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	gateway := NewSlackGateway(nil, config.SlackConfig{
		BotToken: "xoxb-test",
		Channel:  "C123",
		APIBase:  server.URL,
	}, cards)
	return gateway, server.Close
}

func TestNotifyNewMessagePostsCard(t *testing.T) {
	var calledPath string
	cards := &recordingCardStore{}
	gateway, closeServer := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calledPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":      true,
			"channel": "C123",
			"ts":      "1700000000.000100",
		})
	}, cards)
	defer closeServer()

	err := gateway.NotifyNewMessage(context.Background(),
		message.Message{Channel: "sms", Content: "hello"},
		customer.Customer{DisplayName: "Alice"},
		thread.Thread{ID: "t1", Status: thread.StatusOpen, UnreadCount: 1},
	)
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if calledPath != "/chat.postMessage" {
		t.Errorf("expected chat.postMessage call, got %s", calledPath)
	}
	if cards.threadID != "t1" || cards.cardTs != "1700000000.000100" {
		t.Errorf("expected card reference stored, got %+v", cards)
	}
}

func TestNotifySendResultUpdatesExistingCard(t *testing.T) {
	var calledPath string
	gateway, closeServer := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calledPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":      true,
			"channel": "C123",
			"ts":      "1700000000.000100",
		})
	}, nil)
	defer closeServer()

	err := gateway.NotifySendResult(context.Background(),
		thread.Thread{ID: "t1", Channel: "sms", CardChannel: "C123", CardTs: "1700000000.000100"},
		provider.SendResult{Success: true, ExternalMessageID: "X1"},
	)
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if calledPath != "/chat.update" {
		t.Errorf("expected chat.update call, got %s", calledPath)
	}
}

func TestNotifySendResultFallsBackToPost(t *testing.T) {
	var calledPath string
	gateway, closeServer := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calledPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "channel": "C123", "ts": "1"})
	}, nil)
	defer closeServer()

	err := gateway.NotifySendResult(context.Background(),
		thread.Thread{ID: "t1", Channel: "sms"},
		provider.SendResult{Success: false, Error: "provider down"},
	)
	if err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if calledPath != "/chat.postMessage" {
		t.Errorf("expected fallback to chat.postMessage, got %s", calledPath)
	}
}

func TestNewMessageBlocksTruncatesOnRunes(t *testing.T) {
	content := strings.Repeat("日", 600)
	blocks := newMessageBlocks(
		message.Message{Channel: "line", Content: content},
		customer.Customer{DisplayName: "Yuki"},
		thread.Thread{ID: "t1", Status: "open"},
	)

	var body string
	for _, block := range blocks {
		section, ok := block.(*slack.SectionBlock)
		if !ok || section.Text == nil {
			continue
		}
		if strings.Contains(section.Text.Text, "日") {
			body = section.Text.Text
		}
	}
	if body == "" {
		t.Fatalf("expected a content section block")
	}
	if !utf8.ValidString(body) {
		t.Fatalf("expected valid UTF-8 card content")
	}
	if !strings.HasPrefix(body, strings.Repeat("日", 500)) || !strings.HasSuffix(body, "…") {
		t.Fatalf("expected 500-rune truncation with ellipsis, got %d bytes", len(body))
	}
}
