package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"eventboard-api/config"
	"eventboard-api/models"

	"github.com/resend/resend-go/v2"
	"gopkg.in/gomail.v2"
)

// Message is one outgoing HTML email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers email through one provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender picks the provider named by cfg.EmailProvider. Unknown or
// unconfigured providers fall back to logging only.
func NewSender(cfg *config.Config) Sender {
	from := fmt.Sprintf("%s <%s>", cfg.FromName, cfg.FromEmail)
	switch strings.ToLower(cfg.EmailProvider) {
	case "smtp":
		if cfg.SMTPHost != "" {
			return NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, from)
		}
	case "resend":
		if cfg.ResendAPIKey != "" {
			return NewResendSender(cfg.ResendAPIKey, from)
		}
	}
	return NoopSender{}
}

type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	slog.Debug("resend_sent", "message_id", sent.Id, "subject", msg.Subject)
	return nil
}

// NoopSender logs instead of delivering.
type NoopSender struct{}

func (NoopSender) Send(_ context.Context, msg Message) error {
	slog.Info("noop_email_send", "to", msg.To, "subject", msg.Subject)
	return nil
}

var (
	submittedTemplate = template.Must(template.New("submitted").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>New event awaiting review</h2>
  <p><strong>{{.Title}}</strong></p>
  <p>{{.Date.Format "Monday, January 2, 2006"}}{{if .Time}} at {{.Time}}{{end}}<br>{{.Location}}</p>
  <p>{{.Description}}</p>
  <p>Focus: {{range $i, $t := .CommunityFocus}}{{if $i}}, {{end}}{{$t}}{{end}}</p>
  <p style="color: #666; font-size: 13px;">Submitted by {{.SubmittedBy}}</p>
</body>
</html>`))

	digestTemplate = template.Must(template.New("digest").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{len .}} event{{if ne (len .) 1}}s{{end}} waiting for review</h2>
  <ul>
  {{range .}}<li><strong>{{.Title}}</strong> on {{.Date.Format "Jan 2, 2006"}}, {{.Location}}</li>
  {{end}}</ul>
</body>
</html>`))
)

// NotificationService emails moderators about the review queue.
type NotificationService struct {
	sender     Sender
	moderators []string
	metrics    *Metrics
}

func NewNotificationService(sender Sender, moderators []string, metrics *Metrics) *NotificationService {
	return &NotificationService{
		sender:     sender,
		moderators: moderators,
		metrics:    metrics,
	}
}

// NotifySubmitted tells moderators a new event is pending.
func (n *NotificationService) NotifySubmitted(ctx context.Context, event models.CommunityEvent) error {
	if len(n.moderators) == 0 {
		return nil
	}

	var body bytes.Buffer
	if err := submittedTemplate.Execute(&body, event); err != nil {
		return fmt.Errorf("render submission email: %w", err)
	}

	err := n.sender.Send(ctx, Message{
		To:      n.moderators,
		Subject: "New event submitted: " + event.Title,
		HTML:    body.String(),
	})
	n.metrics.Notification("submitted", err)
	return err
}

// SendPendingDigest summarises the queue. Nothing is sent when it is empty.
func (n *NotificationService) SendPendingDigest(ctx context.Context, pending []models.CommunityEvent) error {
	if len(pending) == 0 || len(n.moderators) == 0 {
		return nil
	}

	var body bytes.Buffer
	if err := digestTemplate.Execute(&body, pending); err != nil {
		return fmt.Errorf("render digest email: %w", err)
	}

	err := n.sender.Send(ctx, Message{
		To:      n.moderators,
		Subject: fmt.Sprintf("%d event(s) waiting for review", len(pending)),
		HTML:    body.String(),
	})
	n.metrics.Notification("digest", err)
	if err == nil {
		slog.Info("pending_digest_sent", "pending", len(pending), "recipients", len(n.moderators))
	}
	return err
}
