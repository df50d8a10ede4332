package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/omnidesk/omnidesk/internal/config"
	"github.com/omnidesk/omnidesk/internal/thread"
)

func TestTwilioSenderSend(t *testing.T) {
	var gotForm map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Messages.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Errorf("unexpected basic auth %s/%s", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = map[string]string{
			"To":   r.PostFormValue("To"),
			"From": r.PostFormValue("From"),
			"Body": r.PostFormValue("Body"),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"sid": "SM1"})
	}))
	defer server.Close()

	sender := NewTwilioSender(nil, config.TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550000000",
		BaseURL:    server.URL,
	})
	th := thread.Thread{ID: "t1", Channel: ChannelSMS, ExternalRecipientID: "+81900000001"}
	sid, err := sender.Send(context.Background(), th, "hello", nil)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if sid != "SM1" {
		t.Errorf("expected sid SM1, got %s", sid)
	}
	if gotForm["To"] != "+81900000001" || gotForm["Body"] != "hello" {
		t.Errorf("unexpected form %v", gotForm)
	}
}

func TestTwilioSenderWhatsAppPrefix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.PostFormValue("To"); got != "whatsapp:+81900000001" {
			t.Errorf("expected whatsapp prefix on To, got %s", got)
		}
		if got := r.PostFormValue("From"); got != "whatsapp:+15550000000" {
			t.Errorf("expected whatsapp prefix on From, got %s", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"sid": "SM2"})
	}))
	defer server.Close()

	sender := NewTwilioSender(nil, config.TwilioConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+15550000000",
		BaseURL:    server.URL,
	})
	th := thread.Thread{Channel: ChannelWhatsApp, ExternalRecipientID: "+81900000001"}
	if _, err := sender.Send(context.Background(), th, "hi", nil); err != nil {
		t.Fatalf("send failed: %v", err)
	}
}

func TestTwilioSenderErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid number"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	sender := NewTwilioSender(nil, config.TwilioConfig{AccountSID: "AC", AuthToken: "x", BaseURL: server.URL})
	th := thread.Thread{Channel: ChannelSMS, ExternalRecipientID: "+000"}
	if _, err := sender.Send(context.Background(), th, "hi", nil); err == nil {
		t.Fatal("expected error on 400 response")
	}
}

func TestMetaSenderSend(t *testing.T) {
	var gotBody metaSendRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if token := r.URL.Query().Get("access_token"); token != "pat-1" {
			t.Errorf("unexpected token %s", token)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"message_id": "m_1"})
	}))
	defer server.Close()

	sender := NewMetaSender(nil, config.MetaConfig{PageAccessToken: "pat-1", BaseURL: server.URL})
	th := thread.Thread{ID: "t1", Channel: ChannelFacebook, ExternalRecipientID: "psid-9"}
	id, err := sender.Send(context.Background(), th, "hello there", nil)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if id != "m_1" {
		t.Errorf("expected message id m_1, got %s", id)
	}
	if gotBody.Recipient.ID != "psid-9" || gotBody.Message.Text != "hello there" {
		t.Errorf("unexpected request body %+v", gotBody)
	}
}

func TestLinkedInSenderSend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/conversations/conv-7/events" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok-1" {
			t.Errorf("unexpected auth header %s", auth)
		}
		w.Header().Set("X-Restli-Id", "evt-1")
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	sender := NewLinkedInSender(nil, config.LinkedInConfig{AccessToken: "tok-1", BaseURL: server.URL})
	th := thread.Thread{ID: "t1", Channel: ChannelLinkedIn, ExternalConversationID: "conv-7"}
	id, err := sender.Send(context.Background(), th, "hello", nil)
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}
	if id != "evt-1" {
		t.Errorf("expected event id evt-1, got %s", id)
	}
}

func TestSendersRequireRecipient(t *testing.T) {
	twilio := NewTwilioSender(nil, config.TwilioConfig{AccountSID: "AC", AuthToken: "x"})
	if _, err := twilio.Send(context.Background(), thread.Thread{Channel: ChannelSMS}, "hi", nil); err == nil {
		t.Error("expected error for missing twilio recipient")
	}
	meta := NewMetaSender(nil, config.MetaConfig{PageAccessToken: "p"})
	if _, err := meta.Send(context.Background(), thread.Thread{Channel: ChannelFacebook}, "hi", nil); err == nil {
		t.Error("expected error for missing meta recipient")
	}
	linkedIn := NewLinkedInSender(nil, config.LinkedInConfig{AccessToken: "t"})
	if _, err := linkedIn.Send(context.Background(), thread.Thread{Channel: ChannelLinkedIn}, "hi", nil); err == nil {
		t.Error("expected error for missing linkedin conversation")
	}
}
