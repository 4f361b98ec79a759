// Package intake is the inbound message pipeline: it receives webhook
// deliveries from the message gateways, resolves who is talking, and routes
// tenant traffic into ticket creation and contractor traffic into quote
// decisions. Every path produces a reply string; a failure anywhere in the
// pipeline degrades to a fixed apology rather than an error, because the
// sender is a person on a phone, not an API client.
package intake

import (
	"context"
	"fmt"
	"strings"

	"propcare_backend/internal/classifier"
	"propcare_backend/internal/directory"
	"propcare_backend/internal/intent"
	"propcare_backend/internal/session"
	"propcare_backend/internal/workflow/domain"
	"propcare_backend/internal/workflow/repository"
	workflowsvc "propcare_backend/internal/workflow/service"
	"propcare_backend/platform/apperr"
	"propcare_backend/platform/config"
	"propcare_backend/platform/logger"

	"github.com/google/uuid"
)

// InboundMessage is one delivery from a message gateway.
type InboundMessage struct {
	DeliveryID string
	Channel    string
	From       string
	Body       string
	MediaURLs  []string
}

// Workflow is the slice of the ticket engine the pipeline drives.
type Workflow interface {
	CreateTicket(ctx context.Context, params workflowsvc.CreateTicketParams) (*repository.Ticket, error)
	AssignContractor(ctx context.Context, ticketID uuid.UUID, actor domain.ActorClass) (*repository.Ticket, error)
	ApplyContractorReply(ctx context.Context, contractorID uuid.UUID, reply intent.Reply) (string, error)
	GetTicket(ctx context.Context, id uuid.UUID) (*repository.Ticket, error)
}

// SenderResolver identifies who is behind an inbound phone number.
type SenderResolver interface {
	ResolveSender(ctx context.Context, rawPhone string) (directory.Sender, error)
}

// Classifier turns tenant free text into a structured classification. It
// never fails; the fallback inside the adapter guarantees a result.
type Classifier interface {
	Classify(ctx context.Context, text string, attachmentCount int) classifier.Classification
}

// Sessions is the per-number conversation store.
type Sessions interface {
	Get(ctx context.Context, channel, phone string) (*session.Session, error)
	Update(ctx context.Context, channel, phone string, mutate func(*session.Session)) (*session.Session, error)
	Clear(ctx context.Context, channel, phone string) error
}

// Service is the intake pipeline.
type Service struct {
	directory       SenderResolver
	sessions        Sessions
	classify        Classifier
	workflow        Workflow
	dedupe          *Deduper
	agencyName      string
	escalationPhone string
	log             *logger.Logger
}

// NewService creates the intake pipeline. dedupe may be nil when no redis
// is configured; deliveries are then processed without replay protection.
func NewService(
	dir SenderResolver,
	sessions Sessions,
	classify Classifier,
	workflow Workflow,
	dedupe *Deduper,
	cfg config.WorkflowConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		directory:       dir,
		sessions:        sessions,
		classify:        classify,
		workflow:        workflow,
		dedupe:          dedupe,
		agencyName:      cfg.GetAgencyName(),
		escalationPhone: cfg.GetEscalationPhone(),
		log:             log,
	}
}

// HandleInbound processes one delivery and returns the reply to send back
// on the same channel. Redeliveries of the same delivery id replay the
// original reply without running the pipeline again.
func (s *Service) HandleInbound(ctx context.Context, msg InboundMessage) string {
	if msg.DeliveryID != "" {
		if prior, duplicate := s.dedupe.Claim(ctx, msg.DeliveryID); duplicate {
			s.log.Debug("duplicate delivery replayed", "delivery_id", msg.DeliveryID)
			return prior
		}
	}

	reply := s.process(ctx, msg)

	if msg.DeliveryID != "" {
		s.dedupe.StoreReply(ctx, msg.DeliveryID, reply)
	}
	return reply
}

func (s *Service) process(ctx context.Context, msg InboundMessage) string {
	sender, err := s.directory.ResolveSender(ctx, msg.From)
	if err != nil {
		s.log.Error("sender resolution failed", "error", err)
		return s.apology()
	}

	switch sender.Kind {
	case directory.SenderContractor:
		reply, err := s.workflow.ApplyContractorReply(ctx, sender.Contractor.ID, intent.Parse(msg.Body))
		if err != nil {
			s.log.Error("contractor reply failed", "contractor_id", sender.Contractor.ID, "error", err)
			return s.apology()
		}
		return reply

	case directory.SenderTenant:
		return s.handleTenant(ctx, sender, msg)

	default:
		return fmt.Sprintf(
			"Sorry, we don't recognize this number. If you're a tenant of %s, please contact the office so we can register your details.",
			s.agencyName,
		)
	}
}

// handleTenant continues the tenant's open ticket when their session has
// one, otherwise classifies the message and opens a new ticket.
func (s *Service) handleTenant(ctx context.Context, sender directory.Sender, msg InboundMessage) string {
	sess, err := s.sessions.Get(ctx, msg.Channel, sender.Phone)
	if err != nil {
		// A broken session store must not block intake; treat as a fresh
		// conversation.
		s.log.Error("session lookup failed", "error", err)
		sess = nil
	}

	if sess != nil && sess.ActiveTicketID != nil {
		ticket, err := s.workflow.GetTicket(ctx, *sess.ActiveTicketID)
		if err == nil && !ticket.WorkflowStatus.Terminal() {
			s.touchSession(ctx, msg.Channel, sender, ticket.ID, msg.Body)
			return fmt.Sprintf(
				"Thanks, we've added your message to maintenance request %s. We'll be in touch if we need anything else.\n\n— %s",
				ticket.TicketNumber, s.agencyName,
			)
		}
		// Ticket finished or gone; drop the stale session and start over.
		_ = s.sessions.Clear(ctx, msg.Channel, sender.Phone)
	}

	return s.openTicket(ctx, sender, msg)
}

func (s *Service) openTicket(ctx context.Context, sender directory.Sender, msg InboundMessage) string {
	cls := s.classify.Classify(ctx, msg.Body, len(msg.MediaURLs))

	subject := cls.Summary
	if subject == "" {
		subject = firstLine(msg.Body)
	}

	ticket, err := s.workflow.CreateTicket(ctx, workflowsvc.CreateTicketParams{
		TenantID:    sender.Tenant.ID,
		PropertyID:  sender.Tenant.PropertyID,
		Category:    cls.Category,
		Subject:     subject,
		Description: msg.Body,
		Priority:    cls.Priority,
		IsEmergency: cls.IsEmergency,
		Attachments: msg.MediaURLs,
	})
	if err != nil {
		s.log.Error("ticket creation failed", "tenant_id", sender.Tenant.ID, "error", err)
		return s.apology()
	}

	// Offer the job to the best-matching contractor straight away. An empty
	// candidate pool is not an intake failure: the ticket stays in manual
	// assignment and the property manager has already been alerted.
	if ticket.Category.Specialization() != "" {
		if _, err := s.workflow.AssignContractor(ctx, ticket.ID, domain.ActorSystem); err != nil {
			if apperr.GetKind(err) != apperr.KindNotFound {
				s.log.Error("auto-assignment failed", "ticket", ticket.TicketNumber, "error", err)
			}
		}
	}

	s.touchSession(ctx, msg.Channel, sender, ticket.ID, msg.Body)

	if cls.SuggestedReply != "" {
		return fmt.Sprintf("%s\n\nYour reference is %s.\n\n— %s", cls.SuggestedReply, ticket.TicketNumber, s.agencyName)
	}
	return fmt.Sprintf(
		"Thanks for letting us know. We've logged your maintenance request as %s and will be back in touch shortly.\n\n— %s",
		ticket.TicketNumber, s.agencyName,
	)
}

func (s *Service) touchSession(ctx context.Context, channel string, sender directory.Sender, ticketID uuid.UUID, body string) {
	_, err := s.sessions.Update(ctx, channel, sender.Phone, func(sess *session.Session) {
		sess.TenantID = sender.Tenant.ID
		sess.PropertyID = sender.Tenant.PropertyID
		sess.ActiveTicketID = &ticketID
		sess.AppendContext(firstLine(body))
	})
	if err != nil {
		s.log.Error("session update failed", "error", err)
	}
}

func (s *Service) apology() string {
	apology := "Sorry, something went wrong handling your message. Please try again in a few minutes"
	if s.escalationPhone != "" {
		return fmt.Sprintf("%s, or call us on %s.", apology, s.escalationPhone)
	}
	return apology + "."
}

func firstLine(text string) string {
	line := strings.TrimSpace(text)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}
	const maxSubject = 120
	if runes := []rune(line); len(runes) > maxSubject {
		line = string(runes[:maxSubject])
	}
	return line
}
