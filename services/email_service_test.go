package services

import (
	"context"
	"errors"
	"html"
	"strings"
	"sync"
	"testing"

	"eventboard-api/config"
	"eventboard-api/models"
)

type recordingSender struct {
	mu   sync.Mutex
	sent []Message
	err  error
}

func (s *recordingSender) Send(_ context.Context, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, msg)
	return s.err
}

func TestNotifySubmitted(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotificationService(sender, []string{"mod@example.org"}, nil)

	event := picnicDraft().ToEvent("u1")
	event.Description = "<script>alert(1)</script>"
	if err := n.NotifySubmitted(context.Background(), event); err != nil {
		t.Fatalf("NotifySubmitted: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.To[0] != "mod@example.org" || !strings.Contains(msg.Subject, "Pride Picnic") {
		t.Errorf("message = %+v", msg)
	}
	body := html.UnescapeString(msg.HTML)
	if !strings.Contains(body, "Trans, LGBT+") || !strings.Contains(body, "Discovery Green") {
		t.Errorf("body missing event details:\n%s", msg.HTML)
	}
	if strings.Contains(msg.HTML, "<script>") {
		t.Error("description was not escaped")
	}
}

func TestNotificationsWithoutModerators(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotificationService(sender, nil, nil)

	if err := n.NotifySubmitted(context.Background(), picnicDraft().ToEvent("u1")); err != nil {
		t.Fatal(err)
	}
	if err := n.SendPendingDigest(context.Background(), []models.CommunityEvent{picnicDraft().ToEvent("u1")}); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 0 {
		t.Errorf("sent %d messages with no recipients", len(sender.sent))
	}
}

func TestPendingDigest(t *testing.T) {
	sender := &recordingSender{}
	n := NewNotificationService(sender, []string{"a@example.org", "b@example.org"}, nil)

	if err := n.SendPendingDigest(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 0 {
		t.Fatal("digest sent for an empty queue")
	}

	pending := []models.CommunityEvent{picnicDraft().ToEvent("u1"), picnicDraft().ToEvent("u2")}
	if err := n.SendPendingDigest(context.Background(), pending); err != nil {
		t.Fatalf("SendPendingDigest: %v", err)
	}
	if len(sender.sent) != 1 || len(sender.sent[0].To) != 2 {
		t.Fatalf("sent = %+v", sender.sent)
	}
	if !strings.Contains(sender.sent[0].HTML, "2 events waiting") {
		t.Errorf("digest body:\n%s", sender.sent[0].HTML)
	}

	sender.err = errors.New("provider down")
	if err := n.SendPendingDigest(context.Background(), pending); err == nil {
		t.Error("send failure not returned")
	}
}

func TestNewSenderSelection(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want string
	}{
		{"default", config.Config{}, "services.NoopSender"},
		{"smtp", config.Config{EmailProvider: "smtp", SMTPHost: "localhost", SMTPPort: 2525}, "*services.SMTPSender"},
		{"smtp without host", config.Config{EmailProvider: "smtp"}, "services.NoopSender"},
		{"resend", config.Config{EmailProvider: "Resend", ResendAPIKey: "re_test"}, "*services.ResendSender"},
		{"resend without key", config.Config{EmailProvider: "resend"}, "services.NoopSender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.cfg
			if got := typeName(NewSender(&cfg)); got != tt.want {
				t.Errorf("NewSender = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(v any) string {
	switch v.(type) {
	case NoopSender:
		return "services.NoopSender"
	case *SMTPSender:
		return "*services.SMTPSender"
	case *ResendSender:
		return "*services.ResendSender"
	default:
		return "unknown"
	}
}
