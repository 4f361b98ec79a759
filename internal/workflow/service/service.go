// Package service implements the ticket workflow engine: the single owner
// of ticket and quote state. Every status change flows through here, is
// validated against the transition table, and leaves exactly one audit
// event behind.
package service

import (
	"context"
	"fmt"
	"time"

	"propcare_backend/internal/contractors"
	"propcare_backend/internal/events"
	"propcare_backend/internal/intent"
	"propcare_backend/internal/workflow/domain"
	"propcare_backend/internal/workflow/repository"
	"propcare_backend/platform/apperr"
	"propcare_backend/platform/logger"

	"github.com/google/uuid"
)

// Store is the persistence surface the engine needs. Implemented by
// repository.Repository.
type Store interface {
	CreateTicket(ctx context.Context, t *repository.Ticket) error
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Ticket, error)
	GetByNumber(ctx context.Context, number string) (*repository.Ticket, error)
	List(ctx context.Context, params repository.ListParams) (*repository.ListResult, error)
	ApplyTransition(ctx context.Context, tr *repository.Transition) error
	RecordEvent(ctx context.Context, ev *repository.WorkflowEvent) error
	FindOpenTicketForContractor(ctx context.Context, contractorID uuid.UUID) (*repository.Ticket, error)
	GetQuote(ctx context.Context, id uuid.UUID) (*repository.Quote, error)
	ListQuotesByTicket(ctx context.Context, ticketID uuid.UUID) ([]repository.Quote, error)
	ListEventsByTicket(ctx context.Context, ticketID uuid.UUID) ([]repository.WorkflowEvent, error)
}

// ContractorPool finds and resolves contractors for assignment.
type ContractorPool interface {
	FindCandidate(ctx context.Context, specialization string, emergency bool, excludeIDs []uuid.UUID) (*contractors.Contractor, error)
}

// Service is the workflow engine.
type Service struct {
	store Store
	pool  ContractorPool
	bus   events.Bus
	log   *logger.Logger
}

// New creates the workflow engine.
func New(store Store, pool ContractorPool, bus events.Bus, log *logger.Logger) *Service {
	return &Service{store: store, pool: pool, bus: bus, log: log}
}

// Contractor-facing reply texts. These go back on the same channel the
// contractor wrote in on.
const (
	replyAccepted  = "Thanks, you're confirmed for this job. We'll follow up with scheduling details."
	replyQuoted    = "Quote received, thank you. We'll confirm with you once it's been reviewed."
	replyDeclined  = "No problem, thanks for letting us know. We'll offer the job to someone else."
	replyNoOpenJob = "We have no job awaiting your reply right now. If you think this is a mistake, please contact the office."
)

// ── Ticket creation ───────────────────────────────────────────────────────────

// CreateTicketParams carries everything intake resolved about a new report.
type CreateTicketParams struct {
	TenantID    uuid.UUID
	PropertyID  uuid.UUID
	Category    domain.Category
	Subject     string
	Description string
	Priority    domain.Priority
	IsEmergency bool
	Attachments []string
}

// CreateTicket persists a new ticket in status new and records the creation
// audit event. Emergencies additionally get an emergency_alert event so the
// property manager is paged on every channel.
func (s *Service) CreateTicket(ctx context.Context, params CreateTicketParams) (*repository.Ticket, error) {
	if !params.Category.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("unknown category %q", params.Category))
	}

	now := time.Now()
	status := domain.TicketOpen
	if params.IsEmergency {
		status = domain.TicketUrgent
	}
	ticket := &repository.Ticket{
		ID:             uuid.New(),
		TenantID:       params.TenantID,
		PropertyID:     params.PropertyID,
		Category:       params.Category,
		Subject:        params.Subject,
		Description:    params.Description,
		Priority:       params.Priority,
		Status:         status,
		WorkflowStatus: domain.WorkflowNew,
		IsEmergency:    params.IsEmergency,
		Attachments:    params.Attachments,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateTicket(ctx, ticket); err != nil {
		return nil, err
	}

	created := s.newEvent(ticket, nil, domain.EventTicketCreated, domain.WorkflowNew, domain.WorkflowNew, domain.ActorTenant,
		"Ticket created",
		fmt.Sprintf("%s reported: %s", ticket.TicketNumber, ticket.Subject),
		map[string]any{"category": ticket.Category, "priority": ticket.Priority},
	)
	if err := s.store.RecordEvent(ctx, created); err != nil {
		return nil, err
	}
	s.publishAudit(ctx, ticket, created)

	if params.IsEmergency {
		alert := s.newEvent(ticket, nil, domain.EventEmergencyAlert, domain.WorkflowNew, domain.WorkflowNew, domain.ActorSystem,
			"Emergency reported",
			fmt.Sprintf("%s flagged as an emergency: %s", ticket.TicketNumber, ticket.Subject),
			nil,
		)
		if err := s.store.RecordEvent(ctx, alert); err != nil {
			return nil, err
		}
		s.publishAudit(ctx, ticket, alert)
	}

	return ticket, nil
}

// ── Contractor assignment ─────────────────────────────────────────────────────

// AssignContractor finds the best eligible contractor for a new ticket,
// creates a pending quote, and moves the ticket to contractor_notified.
// Contractors who already declined or were rejected on this ticket are
// never offered it again.
func (s *Service) AssignContractor(ctx context.Context, ticketID uuid.UUID, actor domain.ActorClass) (*repository.Ticket, error) {
	ticket, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.WorkflowStatus != domain.WorkflowNew {
		return nil, apperr.Conflict(fmt.Sprintf("ticket is %s, not awaiting assignment", ticket.WorkflowStatus))
	}

	specialization := ticket.Category.Specialization()
	if specialization == "" {
		return nil, apperr.Validation("this category is handled by the agency office, not a contractor")
	}

	exclude, err := s.priorContractors(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	candidate, err := s.pool.FindCandidate(ctx, specialization, ticket.IsEmergency, exclude)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		escalation := s.newEvent(ticket, nil, domain.EventManualEscalation, ticket.WorkflowStatus, ticket.WorkflowStatus, domain.ActorSystem,
			"Escalated",
			fmt.Sprintf("%s has no eligible %s contractor; manual assignment needed", ticket.TicketNumber, specialization),
			map[string]any{"reason": fmt.Sprintf("no eligible %s contractor", specialization), "declinedCount": len(exclude)},
		)
		if err := s.store.RecordEvent(ctx, escalation); err != nil {
			return nil, err
		}
		s.publishAudit(ctx, ticket, escalation)
		return nil, apperr.NotFound("no eligible contractor for this ticket")
	}

	return s.assignTo(ctx, ticket, *candidate, actor, domain.EventContractorNotified, nil, nil)
}

// assignTo moves a ticket to contractor_notified with a fresh pending quote
// for the given contractor. Used both for first assignment (from new) and
// reassignment after a decline or rejection, where closingUpdate closes the
// outgoing quote and priorEvent records why, all in one transaction.
func (s *Service) assignTo(ctx context.Context, ticket *repository.Ticket, contractor contractors.Contractor, actor domain.ActorClass, eventType domain.EventType, closingUpdate *repository.QuoteUpdate, priorEvent *repository.WorkflowEvent) (*repository.Ticket, error) {
	if !domain.CanTransition(ticket.WorkflowStatus, domain.WorkflowContractorNotified) {
		return nil, apperr.Conflict(fmt.Sprintf("cannot assign a contractor while ticket is %s", ticket.WorkflowStatus))
	}

	now := time.Now()
	quote := &repository.Quote{
		ID:           uuid.New(),
		TicketID:     ticket.ID,
		ContractorID: contractor.ID,
		Status:       domain.QuotePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	event := s.newEvent(ticket, &quote.ID, eventType, ticket.WorkflowStatus, domain.WorkflowContractorNotified, actor,
		"Contractor notified",
		fmt.Sprintf("%s offered to %s", ticket.TicketNumber, contractor.CompanyName),
		map[string]any{"contractorId": contractor.ID},
	)

	tr := &repository.Transition{
		TicketID:         ticket.ID,
		ExpectedStatus:   ticket.WorkflowStatus,
		NewStatus:        domain.WorkflowContractorNotified,
		SetContractorID:  &contractor.ID,
		SetActiveQuoteID: &quote.ID,
		QuoteUpdate:      closingUpdate,
		NewQuote:         quote,
		PriorEvent:       priorEvent,
		Event:            *event,
	}
	if err := s.store.ApplyTransition(ctx, tr); err != nil {
		return nil, err
	}

	s.log.WorkflowTransition(ticket.TicketNumber, string(ticket.WorkflowStatus), string(domain.WorkflowContractorNotified), string(eventType), string(actor))
	s.publishAudit(ctx, ticket, event)

	ticket.WorkflowStatus = domain.WorkflowContractorNotified
	ticket.ContractorID = &contractor.ID
	ticket.ActiveQuoteID = &quote.ID
	return ticket, nil
}

// ── Contractor replies ────────────────────────────────────────────────────────

// ApplyContractorReply processes a parsed reply from a contractor against
// their pending job and returns the text to send back on the same channel.
func (s *Service) ApplyContractorReply(ctx context.Context, contractorID uuid.UUID, reply intent.Reply) (string, error) {
	if reply.Kind == intent.KindUnknown {
		return intent.InstructionMenu, nil
	}

	ticket, err := s.store.FindOpenTicketForContractor(ctx, contractorID)
	if err != nil {
		return "", err
	}
	if ticket == nil || ticket.ActiveQuoteID == nil {
		return replyNoOpenJob, nil
	}
	quote, err := s.store.GetQuote(ctx, *ticket.ActiveQuoteID)
	if err != nil {
		return "", err
	}
	if quote.ContractorID != contractorID || quote.Status != domain.QuotePending {
		return replyNoOpenJob, nil
	}

	switch reply.Kind {
	case intent.KindAccept:
		return replyAccepted, s.acceptQuote(ctx, ticket, quote)
	case intent.KindQuote:
		return replyQuoted, s.quoteAmount(ctx, ticket, quote, reply)
	case intent.KindDecline:
		return replyDeclined, s.declineQuote(ctx, ticket, quote, reply.Reason)
	default:
		return intent.InstructionMenu, nil
	}
}

func (s *Service) acceptQuote(ctx context.Context, ticket *repository.Ticket, quote *repository.Quote) error {
	inProgress := domain.TicketInProgress
	event := s.newEvent(ticket, &quote.ID, domain.EventContractorAccepted, ticket.WorkflowStatus, domain.WorkflowQuoteReceived, domain.ActorContractor,
		"Contractor accepted",
		fmt.Sprintf("%s accepted at the listed rate", ticket.TicketNumber),
		nil,
	)
	tr := &repository.Transition{
		TicketID:        ticket.ID,
		ExpectedStatus:  ticket.WorkflowStatus,
		NewStatus:       domain.WorkflowQuoteReceived,
		NewTicketStatus: &inProgress,
		QuoteUpdate: &repository.QuoteUpdate{
			QuoteID: quote.ID,
			Status:  domain.QuoteAccepted,
		},
		Event: *event,
	}
	if err := s.store.ApplyTransition(ctx, tr); err != nil {
		return err
	}
	s.log.WorkflowTransition(ticket.TicketNumber, string(ticket.WorkflowStatus), string(domain.WorkflowQuoteReceived), "accept", string(domain.ActorContractor))
	s.publishAudit(ctx, ticket, event)
	return nil
}

func (s *Service) quoteAmount(ctx context.Context, ticket *repository.Ticket, quote *repository.Quote, reply intent.Reply) error {
	inProgress := domain.TicketInProgress
	metadata := map[string]any{"amountPence": reply.AmountPence}
	if reply.Date != nil {
		metadata["proposedDate"] = reply.Date.Format("2006-01-02")
	}
	event := s.newEvent(ticket, &quote.ID, domain.EventQuoteReceived, ticket.WorkflowStatus, domain.WorkflowQuoteReceived, domain.ActorContractor,
		"Quote received",
		fmt.Sprintf("%s quoted at £%.2f", ticket.TicketNumber, float64(reply.AmountPence)/100),
		metadata,
	)
	tr := &repository.Transition{
		TicketID:        ticket.ID,
		ExpectedStatus:  ticket.WorkflowStatus,
		NewStatus:       domain.WorkflowQuoteReceived,
		NewTicketStatus: &inProgress,
		QuoteUpdate: &repository.QuoteUpdate{
			QuoteID:      quote.ID,
			Status:       domain.QuoteQuoted,
			AmountPence:  &reply.AmountPence,
			ProposedDate: reply.Date,
		},
		Event: *event,
	}
	if err := s.store.ApplyTransition(ctx, tr); err != nil {
		return err
	}
	s.log.WorkflowTransition(ticket.TicketNumber, string(ticket.WorkflowStatus), string(domain.WorkflowQuoteReceived), "quote", string(domain.ActorContractor))
	s.publishAudit(ctx, ticket, event)
	return nil
}

func (s *Service) declineQuote(ctx context.Context, ticket *repository.Ticket, quote *repository.Quote, reason string) error {
	closing := &repository.QuoteUpdate{
		QuoteID: quote.ID,
		Status:  domain.QuoteDeclined,
	}
	if reason != "" {
		closing.DeclineReason = &reason
	}
	return s.reofferOrPark(ctx, ticket, closing, domain.EventContractorDeclined, domain.ActorContractor, reason)
}

// reofferOrPark closes out the current quote and either reassigns the
// ticket to the next eligible contractor or parks it back in new for manual
// assignment. Shared by the decline and rejection paths.
func (s *Service) reofferOrPark(ctx context.Context, ticket *repository.Ticket, closing *repository.QuoteUpdate, eventType domain.EventType, actor domain.ActorClass, reason string) error {
	exclude, err := s.priorContractors(ctx, ticket.ID)
	if err != nil {
		return err
	}
	// The quote being closed hasn't been written yet; exclude its
	// contractor explicitly.
	if ticket.ContractorID != nil {
		exclude = append(exclude, *ticket.ContractorID)
	}

	specialization := ticket.Category.Specialization()
	candidate, err := s.pool.FindCandidate(ctx, specialization, ticket.IsEmergency, exclude)
	if err != nil {
		return err
	}

	metadata := map[string]any{}
	if reason != "" {
		metadata["reason"] = reason
	}

	if candidate != nil {
		// Close the outgoing quote and hand the job to the next
		// contractor in one transaction. The reassignment emits its own
		// contractor_notified event via assignTo.
		metadata["reassignedTo"] = candidate.ID
		event := s.newEvent(ticket, &closing.QuoteID, eventType, ticket.WorkflowStatus, ticket.WorkflowStatus, actor,
			eventTitle(eventType),
			fmt.Sprintf("%s: offer closed, reoffering to %s", ticket.TicketNumber, candidate.CompanyName),
			metadata,
		)
		if _, err := s.assignTo(ctx, ticket, *candidate, actor, domain.EventContractorNotified, closing, event); err != nil {
			return err
		}
		s.publishAudit(ctx, ticket, event)
		return nil
	}

	// Nobody left. Park the ticket for manual assignment and page the
	// property manager.
	event := s.newEvent(ticket, &closing.QuoteID, eventType, ticket.WorkflowStatus, domain.WorkflowNew, actor,
		eventTitle(eventType),
		fmt.Sprintf("%s: no alternative contractor available, manual assignment needed", ticket.TicketNumber),
		metadata,
	)
	tr := &repository.Transition{
		TicketID:         ticket.ID,
		ExpectedStatus:   ticket.WorkflowStatus,
		NewStatus:        domain.WorkflowNew,
		ClearContractor:  true,
		ClearActiveQuote: true,
		QuoteUpdate:      closing,
		Event:            *event,
	}
	if err := s.store.ApplyTransition(ctx, tr); err != nil {
		return err
	}
	s.log.WorkflowTransition(ticket.TicketNumber, string(ticket.WorkflowStatus), string(domain.WorkflowNew), string(eventType), string(actor))
	s.publishAudit(ctx, ticket, event)

	escalation := s.newEvent(ticket, nil, domain.EventManualEscalation, domain.WorkflowNew, domain.WorkflowNew, domain.ActorSystem,
		"Escalated",
		fmt.Sprintf("%s has no alternative %s contractor after %d declines; manual assignment needed", ticket.TicketNumber, specialization, len(exclude)),
		map[string]any{"reason": fmt.Sprintf("no alternative %s contractor after %d declines", specialization, len(exclude)), "declinedCount": len(exclude)},
	)
	if err := s.store.RecordEvent(ctx, escalation); err != nil {
		return err
	}
	s.publishAudit(ctx, ticket, escalation)
	return nil
}

// ── Property manager actions ──────────────────────────────────────────────────

// ApproveQuoteParams carries the approval decision. A confirmed date moves
// the ticket straight to scheduled; without one it waits in quote_approved.
type ApproveQuoteParams struct {
	Date     *time.Time
	TimeSlot *string
}

// ApproveQuote approves the ticket's active quote. When a date is supplied
// this is the moment the tenant is first told a contractor will attend.
func (s *Service) ApproveQuote(ctx context.Context, ticketID uuid.UUID, params ApproveQuoteParams) (*repository.Ticket, error) {
	ticket, quote, err := s.ticketWithActiveQuote(ctx, ticketID, domain.WorkflowQuoteReceived)
	if err != nil {
		return nil, err
	}

	newStatus := domain.WorkflowQuoteApproved
	quoteStatus := domain.QuoteApproved
	eventType := domain.EventQuoteApproved
	description := fmt.Sprintf("%s: quote approved", ticket.TicketNumber)
	if params.Date != nil {
		newStatus = domain.WorkflowScheduled
		quoteStatus = domain.QuoteScheduled
		eventType = domain.EventWorkScheduled
		description = fmt.Sprintf("%s: work scheduled for %s", ticket.TicketNumber, params.Date.Format("Monday 2 January"))
	}

	metadata := map[string]any{}
	if params.Date != nil {
		metadata["scheduledDate"] = params.Date.Format("2006-01-02")
	}
	if params.TimeSlot != nil {
		metadata["timeSlot"] = *params.TimeSlot
	}

	event := s.newEvent(ticket, &quote.ID, eventType, ticket.WorkflowStatus, newStatus, domain.ActorPropertyManager,
		eventTitle(eventType), description, metadata)
	tr := &repository.Transition{
		TicketID:       ticket.ID,
		ExpectedStatus: ticket.WorkflowStatus,
		NewStatus:      newStatus,
		QuoteUpdate: &repository.QuoteUpdate{
			QuoteID:       quote.ID,
			Status:        quoteStatus,
			ConfirmedDate: params.Date,
		},
		Event: *event,
	}
	if err := s.store.ApplyTransition(ctx, tr); err != nil {
		return nil, err
	}
	s.log.WorkflowTransition(ticket.TicketNumber, string(ticket.WorkflowStatus), string(newStatus), "approve", string(domain.ActorPropertyManager))
	s.publishAudit(ctx, ticket, event)

	ticket.WorkflowStatus = newStatus
	return ticket, nil
}

// RejectQuote rejects the active quote. With reassign set the ticket is
// offered to the next eligible contractor, mirroring the decline path;
// otherwise it returns to new for manual handling.
func (s *Service) RejectQuote(ctx context.Context, ticketID uuid.UUID, reason string, reassign bool) (*repository.Ticket, error) {
	ticket, quote, err := s.ticketWithActiveQuote(ctx, ticketID, domain.WorkflowQuoteReceived)
	if err != nil {
		return nil, err
	}

	closing := &repository.QuoteUpdate{
		QuoteID: quote.ID,
		Status:  domain.QuoteRejected,
	}
	if reason != "" {
		closing.DeclineReason = &reason
	}

	if reassign {
		if err := s.reofferOrPark(ctx, ticket, closing, domain.EventQuoteRejected, domain.ActorPropertyManager, reason); err != nil {
			return nil, err
		}
		return s.store.GetByID(ctx, ticket.ID)
	}

	event := s.newEvent(ticket, &quote.ID, domain.EventQuoteRejected, ticket.WorkflowStatus, domain.WorkflowNew, domain.ActorPropertyManager,
		eventTitle(domain.EventQuoteRejected),
		fmt.Sprintf("%s: quote rejected", ticket.TicketNumber),
		map[string]any{"reason": reason},
	)
	tr := &repository.Transition{
		TicketID:         ticket.ID,
		ExpectedStatus:   ticket.WorkflowStatus,
		NewStatus:        domain.WorkflowNew,
		ClearContractor:  true,
		ClearActiveQuote: true,
		QuoteUpdate:      closing,
		Event:            *event,
	}
	if err := s.store.ApplyTransition(ctx, tr); err != nil {
		return nil, err
	}
	s.log.WorkflowTransition(ticket.TicketNumber, string(ticket.WorkflowStatus), string(domain.WorkflowNew), "reject", string(domain.ActorPropertyManager))
	s.publishAudit(ctx, ticket, event)

	ticket.WorkflowStatus = domain.WorkflowNew
	ticket.ContractorID = nil
	ticket.ActiveQuoteID = nil
	return ticket, nil
}

// StartWork marks the contractor as on site. Valid from scheduled, or from
// quote_approved when work begins without a confirmed date ever being set.
func (s *Service) StartWork(ctx context.Context, ticketID uuid.UUID, actor domain.ActorClass) (*repository.Ticket, error) {
	ticket, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(ticket.WorkflowStatus, domain.WorkflowInWork) {
		return nil, apperr.Conflict(fmt.Sprintf("cannot start work while ticket is %s", ticket.WorkflowStatus))
	}
	if ticket.ActiveQuoteID == nil {
		return nil, apperr.Conflict("ticket has no active quote")
	}

	event := s.newEvent(ticket, ticket.ActiveQuoteID, domain.EventWorkStarted, ticket.WorkflowStatus, domain.WorkflowInWork, actor,
		eventTitle(domain.EventWorkStarted),
		fmt.Sprintf("%s: work started", ticket.TicketNumber),
		nil,
	)
	tr := &repository.Transition{
		TicketID:       ticket.ID,
		ExpectedStatus: ticket.WorkflowStatus,
		NewStatus:      domain.WorkflowInWork,
		QuoteUpdate: &repository.QuoteUpdate{
			QuoteID: *ticket.ActiveQuoteID,
			Status:  domain.QuoteInProgress,
		},
		Event: *event,
	}
	if err := s.store.ApplyTransition(ctx, tr); err != nil {
		return nil, err
	}
	s.log.WorkflowTransition(ticket.TicketNumber, string(ticket.WorkflowStatus), string(domain.WorkflowInWork), "start_work", string(actor))
	s.publishAudit(ctx, ticket, event)

	ticket.WorkflowStatus = domain.WorkflowInWork
	return ticket, nil
}

// CompleteWork closes out the job: quote gets its completion fields, the
// ticket resolves, and the tenant is told the work is done.
func (s *Service) CompleteWork(ctx context.Context, ticketID uuid.UUID, notes string, finalAmountPence *int64, actor domain.ActorClass) (*repository.Ticket, error) {
	ticket, quote, err := s.ticketWithActiveQuote(ctx, ticketID, domain.WorkflowInWork)
	if err != nil {
		return nil, err
	}

	resolved := domain.TicketResolved
	update := &repository.QuoteUpdate{
		QuoteID:     quote.ID,
		Status:      domain.QuoteCompleted,
		FinalAmount: finalAmountPence,
	}
	if notes != "" {
		update.CompletionNotes = &notes
	}

	event := s.newEvent(ticket, &quote.ID, domain.EventWorkCompleted, ticket.WorkflowStatus, domain.WorkflowCompleted, actor,
		eventTitle(domain.EventWorkCompleted),
		fmt.Sprintf("%s: work completed", ticket.TicketNumber),
		map[string]any{"notes": notes},
	)
	tr := &repository.Transition{
		TicketID:        ticket.ID,
		ExpectedStatus:  ticket.WorkflowStatus,
		NewStatus:       domain.WorkflowCompleted,
		NewTicketStatus: &resolved,
		QuoteUpdate:     update,
		Event:           *event,
	}
	if err := s.store.ApplyTransition(ctx, tr); err != nil {
		return nil, err
	}
	s.log.WorkflowTransition(ticket.TicketNumber, string(ticket.WorkflowStatus), string(domain.WorkflowCompleted), "complete", string(actor))
	s.publishAudit(ctx, ticket, event)

	ticket.WorkflowStatus = domain.WorkflowCompleted
	ticket.Status = resolved
	return ticket, nil
}

// Escalate records a manual escalation without changing workflow status,
// paging the property manager urgently.
func (s *Service) Escalate(ctx context.Context, ticketID uuid.UUID, reason string, actor domain.ActorClass) error {
	ticket, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return err
	}
	event := s.newEvent(ticket, nil, domain.EventManualEscalation, ticket.WorkflowStatus, ticket.WorkflowStatus, actor,
		eventTitle(domain.EventManualEscalation),
		fmt.Sprintf("%s escalated: %s", ticket.TicketNumber, reason),
		map[string]any{"reason": reason},
	)
	if err := s.store.RecordEvent(ctx, event); err != nil {
		return err
	}
	s.publishAudit(ctx, ticket, event)
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

// GetTicket retrieves a single ticket.
func (s *Service) GetTicket(ctx context.Context, id uuid.UUID) (*repository.Ticket, error) {
	return s.store.GetByID(ctx, id)
}

// GetTicketByNumber retrieves a ticket by its human-readable number.
func (s *Service) GetTicketByNumber(ctx context.Context, number string) (*repository.Ticket, error) {
	return s.store.GetByNumber(ctx, number)
}

// ListTickets returns a filtered page of tickets.
func (s *Service) ListTickets(ctx context.Context, params repository.ListParams) (*repository.ListResult, error) {
	return s.store.List(ctx, params)
}

// ListTicketEvents returns a ticket's full audit trail.
func (s *Service) ListTicketEvents(ctx context.Context, ticketID uuid.UUID) ([]repository.WorkflowEvent, error) {
	if _, err := s.store.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.store.ListEventsByTicket(ctx, ticketID)
}

// ListTicketQuotes returns every quote ever raised for a ticket.
func (s *Service) ListTicketQuotes(ctx context.Context, ticketID uuid.UUID) ([]repository.Quote, error) {
	if _, err := s.store.GetByID(ctx, ticketID); err != nil {
		return nil, err
	}
	return s.store.ListQuotesByTicket(ctx, ticketID)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// priorContractors lists every contractor who has ever held a quote on the
// ticket. The matcher treats this as a hard exclusion list.
func (s *Service) priorContractors(ctx context.Context, ticketID uuid.UUID) ([]uuid.UUID, error) {
	quotes, err := s.store.ListQuotesByTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(quotes))
	var ids []uuid.UUID
	for _, q := range quotes {
		if !seen[q.ContractorID] {
			seen[q.ContractorID] = true
			ids = append(ids, q.ContractorID)
		}
	}
	return ids, nil
}

// ticketWithActiveQuote loads a ticket, checks it sits in the expected
// workflow status, and resolves its active quote.
func (s *Service) ticketWithActiveQuote(ctx context.Context, ticketID uuid.UUID, expected domain.WorkflowStatus) (*repository.Ticket, *repository.Quote, error) {
	ticket, err := s.store.GetByID(ctx, ticketID)
	if err != nil {
		return nil, nil, err
	}
	if ticket.WorkflowStatus != expected {
		return nil, nil, apperr.Conflict(fmt.Sprintf("ticket is %s, expected %s", ticket.WorkflowStatus, expected))
	}
	if ticket.ActiveQuoteID == nil {
		return nil, nil, apperr.Conflict("ticket has no active quote")
	}
	quote, err := s.store.GetQuote(ctx, *ticket.ActiveQuoteID)
	if err != nil {
		return nil, nil, err
	}
	return ticket, quote, nil
}

func (s *Service) newEvent(ticket *repository.Ticket, quoteID *uuid.UUID, eventType domain.EventType, prev, next domain.WorkflowStatus, actor domain.ActorClass, title, description string, metadata map[string]any) *repository.WorkflowEvent {
	return &repository.WorkflowEvent{
		ID:             uuid.New(),
		TicketID:       ticket.ID,
		QuoteID:        quoteID,
		EventType:      eventType,
		PreviousStatus: prev,
		NewStatus:      next,
		ActorClass:     actor,
		Title:          title,
		Description:    description,
		Metadata:       metadata,
		CreatedAt:      time.Now(),
	}
}

// publishAudit fans the audit event out to the notification dispatcher.
func (s *Service) publishAudit(ctx context.Context, ticket *repository.Ticket, ev *repository.WorkflowEvent) {
	s.bus.Publish(ctx, events.TicketTransitioned{
		BaseEvent:     events.NewBaseEvent(),
		TicketID:      ticket.ID,
		TicketNumber:  ticket.TicketNumber,
		WorkflowEvent: string(ev.EventType),
		FromStatus:    string(ev.PreviousStatus),
		ToStatus:      string(ev.NewStatus),
		ActorClass:    string(ev.ActorClass),
		AuditEventID:  ev.ID,
	})
}

func eventTitle(t domain.EventType) string {
	switch t {
	case domain.EventTicketCreated:
		return "Ticket created"
	case domain.EventEmergencyAlert:
		return "Emergency reported"
	case domain.EventContractorNotified:
		return "Contractor notified"
	case domain.EventContractorAccepted:
		return "Contractor accepted"
	case domain.EventQuoteReceived:
		return "Quote received"
	case domain.EventContractorDeclined:
		return "Contractor declined"
	case domain.EventQuoteApproved:
		return "Quote approved"
	case domain.EventWorkScheduled:
		return "Work scheduled"
	case domain.EventQuoteRejected:
		return "Quote rejected"
	case domain.EventWorkStarted:
		return "Work started"
	case domain.EventWorkCompleted:
		return "Work completed"
	case domain.EventManualEscalation:
		return "Escalated"
	default:
		return string(t)
	}
}
