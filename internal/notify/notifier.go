// Package notify turns workflow audit events into outbound messages: it
// resolves recipients and channels from the routing policy, composes the
// agency-voiced texts, and delivers them best-effort with retry, a
// per-channel circuit breaker, and a per-recipient rate limit. A delivery
// failure is logged and recorded on the audit event, never surfaced to the
// workflow.
package notify

import (
	"context"

	"propcare_backend/internal/email"
	"propcare_backend/internal/sms"
	"propcare_backend/internal/whatsapp"
	"propcare_backend/internal/workflow/domain"
)

// Message is one outbound notification addressed to one recipient on one
// channel.
type Message struct {
	Recipient domain.Recipient
	Channel   domain.Channel
	To        string // phone number or email address
	Subject   string // email only
	Body      string
	Urgent    bool // urgent deliveries skip the per-recipient rate limit
}

// Notifier delivers messages on a single channel. All three channels sit
// behind this one interface so the dispatch pipeline treats them uniformly.
type Notifier interface {
	Channel() domain.Channel
	Notify(ctx context.Context, msg Message) error
}

// WhatsAppNotifier adapts the gateway client to the Notifier interface.
type WhatsAppNotifier struct {
	client *whatsapp.Client
}

func NewWhatsAppNotifier(client *whatsapp.Client) *WhatsAppNotifier {
	return &WhatsAppNotifier{client: client}
}

func (n *WhatsAppNotifier) Channel() domain.Channel { return domain.ChannelWhatsApp }

func (n *WhatsAppNotifier) Notify(ctx context.Context, msg Message) error {
	return n.client.SendMessage(ctx, msg.To, msg.Body)
}

// SMSNotifier adapts the SMS gateway client to the Notifier interface.
type SMSNotifier struct {
	client *sms.Client
}

func NewSMSNotifier(client *sms.Client) *SMSNotifier {
	return &SMSNotifier{client: client}
}

func (n *SMSNotifier) Channel() domain.Channel { return domain.ChannelSMS }

func (n *SMSNotifier) Notify(ctx context.Context, msg Message) error {
	return n.client.SendMessage(ctx, msg.To, msg.Body)
}

// EmailNotifier adapts the SMTP sender to the Notifier interface.
type EmailNotifier struct {
	sender *email.Sender
}

func NewEmailNotifier(sender *email.Sender) *EmailNotifier {
	return &EmailNotifier{sender: sender}
}

func (n *EmailNotifier) Channel() domain.Channel { return domain.ChannelEmail }

func (n *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	return n.sender.Send(ctx, msg.To, msg.Subject, msg.Body)
}
