package notify

import (
	"context"
	"fmt"

	"propcare_backend/internal/contractors"
	"propcare_backend/internal/directory"
	"propcare_backend/internal/workflow/domain"
	"propcare_backend/internal/workflow/repository"
	"propcare_backend/platform/apperr"
	"propcare_backend/platform/logger"

	"github.com/google/uuid"
)

// WorkflowStore is the subset of the workflow repository the processor needs.
type WorkflowStore interface {
	GetEvent(ctx context.Context, id uuid.UUID) (*repository.WorkflowEvent, error)
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Ticket, error)
	GetQuote(ctx context.Context, id uuid.UUID) (*repository.Quote, error)
	MarkEventNotification(ctx context.Context, eventID uuid.UUID, channels []string, sent bool) error
}

// TenantStore resolves tenants for notification addressing.
type TenantStore interface {
	GetTenantByID(ctx context.Context, id uuid.UUID) (*directory.Tenant, error)
}

// ContractorStore resolves contractors for notification addressing.
type ContractorStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (contractors.Contractor, error)
}

// CandidateSuggester ranks contractors for the manager's ticket-created
// email. Satisfied by contractors.Matcher.
type CandidateSuggester interface {
	TopCandidates(ctx context.Context, specialization string, emergency bool, limit int) ([]contractors.Contractor, error)
}

// suggestedCandidates caps the contractor list in the ticket-created email.
const suggestedCandidates = 3

// Processor turns a committed workflow event into outbound notifications.
// It runs inside the background worker, one invocation per queued event.
type Processor struct {
	store       WorkflowStore
	tenants     TenantStore
	contractors ContractorStore
	matcher     CandidateSuggester
	router      *Router
	sender      *Service
	log         *logger.Logger
}

// NewProcessor creates the processor.
func NewProcessor(store WorkflowStore, tenants TenantStore, contractors ContractorStore, matcher CandidateSuggester, router *Router, sender *Service, log *logger.Logger) *Processor {
	return &Processor{
		store:       store,
		tenants:     tenants,
		contractors: contractors,
		matcher:     matcher,
		router:      router,
		sender:      sender,
		log:         log,
	}
}

// Process loads the event's full context, composes the routed messages, and
// dispatches them. The event is marked with the attempted channels either
// way; delivery is best-effort and never fails the task permanently once
// the context loaded.
func (p *Processor) Process(ctx context.Context, eventID, ticketID uuid.UUID) error {
	event, err := p.store.GetEvent(ctx, eventID)
	if err != nil {
		// The event row is the source of truth; without it there is
		// nothing to send and nothing to retry.
		if apperr.GetKind(err) == apperr.KindNotFound {
			p.log.Warn("notification event no longer exists", "event_id", eventID)
			return nil
		}
		return fmt.Errorf("load workflow event: %w", err)
	}
	if event.NotificationSent {
		return nil
	}

	ec, err := p.loadContext(ctx, event, ticketID)
	if err != nil {
		return err
	}

	messages := p.router.Messages(ec)
	if len(messages) == 0 {
		return p.store.MarkEventNotification(ctx, eventID, nil, true)
	}

	channels, allSent := p.sender.Dispatch(ctx, messages)
	if err := p.store.MarkEventNotification(ctx, eventID, channels, allSent); err != nil {
		// Delivery already happened; losing the bookkeeping update is
		// not worth re-sending everything.
		p.log.Error("failed to record notification result", "event_id", eventID, "error", err)
	}
	return nil
}

func (p *Processor) loadContext(ctx context.Context, event *repository.WorkflowEvent, ticketID uuid.UUID) (EventContext, error) {
	ec := EventContext{Event: *event}

	ticket, err := p.store.GetByID(ctx, ticketID)
	if err != nil {
		return ec, fmt.Errorf("load ticket: %w", err)
	}
	ec.Ticket = *ticket

	tenant, err := p.tenants.GetTenantByID(ctx, ticket.TenantID)
	if err != nil && apperr.GetKind(err) != apperr.KindNotFound {
		return ec, fmt.Errorf("load tenant: %w", err)
	}
	ec.Tenant = tenant

	if event.QuoteID != nil {
		quote, err := p.store.GetQuote(ctx, *event.QuoteID)
		if err != nil && apperr.GetKind(err) != apperr.KindNotFound {
			return ec, fmt.Errorf("load quote: %w", err)
		}
		ec.Quote = quote
	}

	contractorID := ticket.ContractorID
	if ec.Quote != nil {
		contractorID = &ec.Quote.ContractorID
	}
	if contractorID != nil {
		contractor, err := p.contractors.GetByID(ctx, *contractorID)
		if err != nil {
			if apperr.GetKind(err) != apperr.KindNotFound {
				return ec, fmt.Errorf("load contractor: %w", err)
			}
		} else {
			ec.Contractor = &contractor
		}
	}

	if event.EventType == domain.EventTicketCreated {
		if spec := ticket.Category.Specialization(); spec != "" {
			suggested, err := p.matcher.TopCandidates(ctx, spec, ticket.IsEmergency, suggestedCandidates)
			if err != nil {
				// The manager still needs the ticket-created email,
				// just without the shortlist.
				p.log.Warn("failed to load suggested contractors", "ticket", ticket.TicketNumber, "error", err)
			} else {
				ec.Suggested = suggested
			}
		}
	}

	return ec, nil
}
