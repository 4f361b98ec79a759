// Package email delivers notification emails over SMTP via go-mail.
package email

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"propcare_backend/platform/config"
	"propcare_backend/platform/logger"

	gomail "github.com/wneessen/go-mail"
)

type Sender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	log       *logger.Logger
}

// NewSender creates an SMTP sender, or nil when email is disabled.
func NewSender(cfg config.EmailConfig, log *logger.Logger) *Sender {
	if !cfg.GetEmailEnabled() || cfg.GetSMTPHost() == "" {
		return nil
	}

	return &Sender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		log:       log,
	}
}

// Send delivers a plain-text notification as a minimal HTML email.
func (s *Sender) Send(ctx context.Context, toEmail, subject, body string) error {
	if s == nil {
		return nil
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	msg.AddAlternativeString(gomail.TypeTextHTML, renderHTML(body))

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	s.log.Debug("email sent", "to", toEmail, "subject", subject)
	return nil
}

func renderHTML(body string) string {
	var b strings.Builder
	b.WriteString("<html><body style=\"font-family:sans-serif\">")
	for _, line := range strings.Split(body, "\n") {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}
