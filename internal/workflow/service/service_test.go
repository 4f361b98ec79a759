package service

import (
	"context"
	"testing"
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

// ── Fakes ─────────────────────────────────────────────────────────────────────

type fakeStore struct {
	tickets map[uuid.UUID]*repository.Ticket
	quotes  map[uuid.UUID]*repository.Quote
	events  []repository.WorkflowEvent
	seq     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tickets: make(map[uuid.UUID]*repository.Ticket),
		quotes:  make(map[uuid.UUID]*repository.Quote),
	}
}

func (f *fakeStore) CreateTicket(_ context.Context, t *repository.Ticket) error {
	f.seq++
	t.TicketNumber = repository.NewTicketNumber(time.Now())
	copied := *t
	f.tickets[t.ID] = &copied
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Ticket, error) {
	t, ok := f.tickets[id]
	if !ok {
		return nil, apperr.NotFound("ticket not found")
	}
	copied := *t
	return &copied, nil
}

func (f *fakeStore) GetByNumber(_ context.Context, number string) (*repository.Ticket, error) {
	for _, t := range f.tickets {
		if t.TicketNumber == number {
			copied := *t
			return &copied, nil
		}
	}
	return nil, apperr.NotFound("ticket not found")
}

func (f *fakeStore) List(_ context.Context, params repository.ListParams) (*repository.ListResult, error) {
	var items []repository.Ticket
	for _, t := range f.tickets {
		items = append(items, *t)
	}
	return &repository.ListResult{Items: items, Total: len(items), Page: 1, PageSize: 20, TotalPages: 1}, nil
}

func (f *fakeStore) ApplyTransition(_ context.Context, tr *repository.Transition) error {
	t, ok := f.tickets[tr.TicketID]
	if !ok {
		return apperr.NotFound("ticket not found")
	}
	if t.WorkflowStatus != tr.ExpectedStatus {
		return apperr.Conflict("ticket state changed, retry")
	}

	t.WorkflowStatus = tr.NewStatus
	if tr.NewTicketStatus != nil {
		t.Status = *tr.NewTicketStatus
	}
	if tr.ClearContractor {
		t.ContractorID = nil
	} else if tr.SetContractorID != nil {
		id := *tr.SetContractorID
		t.ContractorID = &id
	}
	if tr.ClearActiveQuote {
		t.ActiveQuoteID = nil
	} else if tr.SetActiveQuoteID != nil {
		id := *tr.SetActiveQuoteID
		t.ActiveQuoteID = &id
	}

	if tr.QuoteUpdate != nil {
		q, ok := f.quotes[tr.QuoteUpdate.QuoteID]
		if !ok {
			return apperr.NotFound("quote not found")
		}
		q.Status = tr.QuoteUpdate.Status
		if tr.QuoteUpdate.AmountPence != nil {
			q.AmountPence = tr.QuoteUpdate.AmountPence
		}
		if tr.QuoteUpdate.ProposedDate != nil {
			q.ProposedDate = tr.QuoteUpdate.ProposedDate
		}
		if tr.QuoteUpdate.ConfirmedDate != nil {
			q.ConfirmedDate = tr.QuoteUpdate.ConfirmedDate
		}
		if tr.QuoteUpdate.DeclineReason != nil {
			q.DeclineReason = tr.QuoteUpdate.DeclineReason
		}
		if tr.QuoteUpdate.CompletionNotes != nil {
			q.CompletionNotes = tr.QuoteUpdate.CompletionNotes
		}
		if tr.QuoteUpdate.FinalAmount != nil {
			q.FinalAmount = tr.QuoteUpdate.FinalAmount
		}
	}
	if tr.NewQuote != nil {
		copied := *tr.NewQuote
		f.quotes[tr.NewQuote.ID] = &copied
	}
	if tr.PriorEvent != nil {
		f.events = append(f.events, *tr.PriorEvent)
	}
	f.events = append(f.events, tr.Event)
	return nil
}

func (f *fakeStore) RecordEvent(_ context.Context, ev *repository.WorkflowEvent) error {
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeStore) FindOpenTicketForContractor(_ context.Context, contractorID uuid.UUID) (*repository.Ticket, error) {
	for _, t := range f.tickets {
		if t.ContractorID != nil && *t.ContractorID == contractorID && t.WorkflowStatus == domain.WorkflowContractorNotified {
			copied := *t
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetQuote(_ context.Context, id uuid.UUID) (*repository.Quote, error) {
	q, ok := f.quotes[id]
	if !ok {
		return nil, apperr.NotFound("quote not found")
	}
	copied := *q
	return &copied, nil
}

func (f *fakeStore) ListQuotesByTicket(_ context.Context, ticketID uuid.UUID) ([]repository.Quote, error) {
	var quotes []repository.Quote
	for _, q := range f.quotes {
		if q.TicketID == ticketID {
			quotes = append(quotes, *q)
		}
	}
	return quotes, nil
}

func (f *fakeStore) ListEventsByTicket(_ context.Context, ticketID uuid.UUID) ([]repository.WorkflowEvent, error) {
	var out []repository.WorkflowEvent
	for _, ev := range f.events {
		if ev.TicketID == ticketID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakePool struct {
	contractors []contractors.Contractor
}

func (f *fakePool) FindCandidate(_ context.Context, specialization string, emergency bool, excludeIDs []uuid.UUID) (*contractors.Contractor, error) {
	for _, c := range f.contractors {
		if !c.HasSpecialization(specialization) {
			continue
		}
		excluded := false
		for _, id := range excludeIDs {
			if c.ID == id {
				excluded = true
				break
			}
		}
		if !excluded {
			candidate := c
			return &candidate, nil
		}
	}
	return nil, nil
}

func (f *fakePool) GetByID(_ context.Context, id uuid.UUID) (contractors.Contractor, error) {
	for _, c := range f.contractors {
		if c.ID == id {
			return c, nil
		}
	}
	return contractors.Contractor{}, apperr.NotFound("contractor not found")
}

type recordingBus struct {
	published []events.Event
}

func (b *recordingBus) Publish(_ context.Context, ev events.Event) {
	b.published = append(b.published, ev)
}

func (b *recordingBus) PublishSync(_ context.Context, ev events.Event) error {
	b.published = append(b.published, ev)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

// ── Setup helpers ─────────────────────────────────────────────────────────────

func newEngine(t *testing.T, pool *fakePool) (*Service, *fakeStore, *recordingBus) {
	t.Helper()
	store := newFakeStore()
	bus := &recordingBus{}
	return New(store, pool, bus, logger.New("development")), store, bus
}

func plumber(name string) contractors.Contractor {
	return contractors.Contractor{
		ID:              uuid.New(),
		CompanyName:     name,
		Phone:           "+447700900010",
		Active:          true,
		Specializations: []string{"plumbing"},
	}
}

func createTicket(t *testing.T, svc *Service) *repository.Ticket {
	t.Helper()
	ticket, err := svc.CreateTicket(context.Background(), CreateTicketParams{
		TenantID:    uuid.New(),
		PropertyID:  uuid.New(),
		Category:    domain.CategoryPlumbing,
		Subject:     "Kitchen tap dripping",
		Description: "The kitchen tap has been dripping for two days",
		Priority:    domain.PriorityMedium,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	return ticket
}

func lastEventOfType(evs []repository.WorkflowEvent, eventType domain.EventType) *repository.WorkflowEvent {
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].EventType == eventType {
			return &evs[i]
		}
	}
	return nil
}

func assignedTicket(t *testing.T, svc *Service) *repository.Ticket {
	t.Helper()
	ticket := createTicket(t, svc)
	ticket, err := svc.AssignContractor(context.Background(), ticket.ID, domain.ActorSystem)
	if err != nil {
		t.Fatalf("AssignContractor: %v", err)
	}
	return ticket
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreateTicket(t *testing.T) {
	svc, store, _ := newEngine(t, &fakePool{})

	ticket := createTicket(t, svc)

	if ticket.WorkflowStatus != domain.WorkflowNew {
		t.Fatalf("workflow status = %q, want new", ticket.WorkflowStatus)
	}
	if ticket.Status != domain.TicketOpen {
		t.Fatalf("status = %q, want open", ticket.Status)
	}
	if ticket.TicketNumber == "" {
		t.Fatal("ticket number not generated")
	}
	evs, _ := store.ListEventsByTicket(context.Background(), ticket.ID)
	if len(evs) != 1 || evs[0].EventType != domain.EventTicketCreated {
		t.Fatalf("events = %+v, want single ticket_created", evs)
	}
}

func TestCreateEmergencyTicketRecordsAlert(t *testing.T) {
	svc, store, _ := newEngine(t, &fakePool{})

	ticket, err := svc.CreateTicket(context.Background(), CreateTicketParams{
		TenantID:    uuid.New(),
		PropertyID:  uuid.New(),
		Category:    domain.CategoryHeating,
		Subject:     "Boiler leaking gas",
		Priority:    domain.PriorityUrgent,
		IsEmergency: true,
	})
	if err != nil {
		t.Fatalf("CreateTicket: %v", err)
	}
	if ticket.Status != domain.TicketUrgent {
		t.Fatalf("status = %q, want urgent", ticket.Status)
	}

	evs, _ := store.ListEventsByTicket(context.Background(), ticket.ID)
	if len(evs) != 2 {
		t.Fatalf("got %d events, want creation + emergency alert", len(evs))
	}
	if evs[1].EventType != domain.EventEmergencyAlert {
		t.Fatalf("second event = %q, want emergency_alert", evs[1].EventType)
	}
}

func TestCreateTicketRejectsUnknownCategory(t *testing.T) {
	svc, _, _ := newEngine(t, &fakePool{})

	_, err := svc.CreateTicket(context.Background(), CreateTicketParams{
		TenantID: uuid.New(), Category: domain.Category("gardening"),
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestAssignContractor(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, store, bus := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)

	if ticket.WorkflowStatus != domain.WorkflowContractorNotified {
		t.Fatalf("workflow status = %q, want contractor_notified", ticket.WorkflowStatus)
	}
	if ticket.ContractorID == nil || *ticket.ContractorID != first.ID {
		t.Fatalf("contractor = %v, want %s", ticket.ContractorID, first.ID)
	}
	if ticket.ActiveQuoteID == nil {
		t.Fatal("no active quote created")
	}
	quote, err := store.GetQuote(context.Background(), *ticket.ActiveQuoteID)
	if err != nil {
		t.Fatalf("GetQuote: %v", err)
	}
	if quote.Status != domain.QuotePending {
		t.Fatalf("quote status = %q, want pending", quote.Status)
	}

	var notified bool
	for _, ev := range bus.published {
		if tr, ok := ev.(events.TicketTransitioned); ok && tr.WorkflowEvent == string(domain.EventContractorNotified) {
			notified = true
		}
	}
	if !notified {
		t.Fatal("contractor_notified transition not published")
	}
}

func TestAssignContractorNoCandidate(t *testing.T) {
	svc, store, bus := newEngine(t, &fakePool{})

	ticket := createTicket(t, svc)
	_, err := svc.AssignContractor(context.Background(), ticket.ID, domain.ActorSystem)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("err = %v, want not found", err)
	}

	// The manager is paged via a recorded escalation event, urgent per the
	// routing policy.
	evs, _ := store.ListEventsByTicket(context.Background(), ticket.ID)
	escalation := lastEventOfType(evs, domain.EventManualEscalation)
	if escalation == nil {
		t.Fatal("no manual_escalation event recorded")
	}
	if escalation.ActorClass != domain.ActorSystem {
		t.Fatalf("escalation actor = %q, want system", escalation.ActorClass)
	}

	var published bool
	for _, ev := range bus.published {
		if tr, ok := ev.(events.TicketTransitioned); ok && tr.AuditEventID == escalation.ID {
			published = true
		}
	}
	if !published {
		t.Fatal("escalation event not published to the bus")
	}
}

func TestAssignContractorWrongState(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, _, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)
	_, err := svc.AssignContractor(context.Background(), ticket.ID, domain.ActorSystem)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestContractorAccept(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)
	reply, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindAccept})
	if err != nil {
		t.Fatalf("ApplyContractorReply: %v", err)
	}
	if reply != replyAccepted {
		t.Fatalf("reply = %q", reply)
	}

	got, _ := store.GetByID(context.Background(), ticket.ID)
	if got.WorkflowStatus != domain.WorkflowQuoteReceived {
		t.Fatalf("workflow status = %q, want quote_received", got.WorkflowStatus)
	}
	if got.Status != domain.TicketInProgress {
		t.Fatalf("status = %q, want in_progress", got.Status)
	}
	quote, _ := store.GetQuote(context.Background(), *got.ActiveQuoteID)
	if quote.Status != domain.QuoteAccepted {
		t.Fatalf("quote status = %q, want accepted", quote.Status)
	}
}

func TestContractorQuote(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)
	date := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	_, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{
		Kind: intent.KindQuote, AmountPence: 15000, Date: &date,
	})
	if err != nil {
		t.Fatalf("ApplyContractorReply: %v", err)
	}

	got, _ := store.GetByID(context.Background(), ticket.ID)
	quote, _ := store.GetQuote(context.Background(), *got.ActiveQuoteID)
	if quote.Status != domain.QuoteQuoted {
		t.Fatalf("quote status = %q, want quoted", quote.Status)
	}
	if quote.AmountPence == nil || *quote.AmountPence != 15000 {
		t.Fatalf("amount = %v, want 15000", quote.AmountPence)
	}
	if quote.ProposedDate == nil || !quote.ProposedDate.Equal(date) {
		t.Fatalf("proposed date = %v, want %v", quote.ProposedDate, date)
	}
}

// Decline with an alternative available: ticket stays contractor_notified
// with a fresh pending quote for the next plumber, and the decliner is
// never offered it again.
func TestContractorDeclineReassigns(t *testing.T) {
	first := plumber("Apex Plumbing")
	second := plumber("Borough Drains")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first, second}})

	ticket := assignedTicket(t, svc)
	reply, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{
		Kind: intent.KindDecline, Reason: "too busy",
	})
	if err != nil {
		t.Fatalf("ApplyContractorReply: %v", err)
	}
	if reply != replyDeclined {
		t.Fatalf("reply = %q", reply)
	}

	got, _ := store.GetByID(context.Background(), ticket.ID)
	if got.WorkflowStatus != domain.WorkflowContractorNotified {
		t.Fatalf("workflow status = %q, want contractor_notified", got.WorkflowStatus)
	}
	if got.ContractorID == nil || *got.ContractorID != second.ID {
		t.Fatalf("contractor = %v, want reassignment to %s", got.ContractorID, second.ID)
	}

	quotes, _ := store.ListQuotesByTicket(context.Background(), ticket.ID)
	if len(quotes) != 2 {
		t.Fatalf("got %d quotes, want declined + new pending", len(quotes))
	}
	var declined *repository.Quote
	for i := range quotes {
		if quotes[i].ContractorID == first.ID {
			declined = &quotes[i]
		}
	}
	if declined == nil || declined.Status != domain.QuoteDeclined {
		t.Fatalf("first quote = %+v, want declined", declined)
	}
	if declined.DeclineReason == nil || *declined.DeclineReason != "too busy" {
		t.Fatalf("decline reason = %v, want %q", declined.DeclineReason, "too busy")
	}
}

// Full decline chain: once every plumber has declined, the ticket reverts
// to new with contractor and active quote cleared.
func TestDeclineChainExhaustsPool(t *testing.T) {
	first := plumber("Apex Plumbing")
	second := plumber("Borough Drains")
	svc, store, bus := newEngine(t, &fakePool{contractors: []contractors.Contractor{first, second}})

	ticket := assignedTicket(t, svc)
	if _, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindDecline}); err != nil {
		t.Fatalf("first decline: %v", err)
	}
	if _, err := svc.ApplyContractorReply(context.Background(), second.ID, intent.Reply{Kind: intent.KindDecline}); err != nil {
		t.Fatalf("second decline: %v", err)
	}

	got, _ := store.GetByID(context.Background(), ticket.ID)
	if got.WorkflowStatus != domain.WorkflowNew {
		t.Fatalf("workflow status = %q, want new", got.WorkflowStatus)
	}
	if got.ContractorID != nil || got.ActiveQuoteID != nil {
		t.Fatalf("contractor/active quote not cleared: %+v", got)
	}

	// Exhausting the pool records an escalation so the manager gets the
	// urgent no-alternative page.
	evs, _ := store.ListEventsByTicket(context.Background(), ticket.ID)
	escalation := lastEventOfType(evs, domain.EventManualEscalation)
	if escalation == nil {
		t.Fatal("no manual_escalation event recorded")
	}
	if escalation.PreviousStatus != domain.WorkflowNew || escalation.NewStatus != domain.WorkflowNew {
		t.Fatalf("escalation statuses = %s -> %s, want new -> new", escalation.PreviousStatus, escalation.NewStatus)
	}

	var published bool
	for _, ev := range bus.published {
		if tr, ok := ev.(events.TicketTransitioned); ok && tr.AuditEventID == escalation.ID {
			published = true
		}
	}
	if !published {
		t.Fatal("escalation event not published to the bus")
	}
}

func TestContractorUnknownReplyGetsMenu(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)
	reply, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindUnknown})
	if err != nil {
		t.Fatalf("ApplyContractorReply: %v", err)
	}
	if reply != intent.InstructionMenu {
		t.Fatalf("reply = %q, want instruction menu", reply)
	}

	got, _ := store.GetByID(context.Background(), ticket.ID)
	if got.WorkflowStatus != domain.WorkflowContractorNotified {
		t.Fatalf("unknown reply moved the ticket to %q", got.WorkflowStatus)
	}
}

func TestContractorReplyWithNoOpenJob(t *testing.T) {
	svc, _, _ := newEngine(t, &fakePool{})

	reply, err := svc.ApplyContractorReply(context.Background(), uuid.New(), intent.Reply{Kind: intent.KindAccept})
	if err != nil {
		t.Fatalf("ApplyContractorReply: %v", err)
	}
	if reply != replyNoOpenJob {
		t.Fatalf("reply = %q, want no-open-job text", reply)
	}
}

func TestApproveQuoteWithoutDate(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)
	if _, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindQuote, AmountPence: 15000}); err != nil {
		t.Fatalf("quote: %v", err)
	}

	got, err := svc.ApproveQuote(context.Background(), ticket.ID, ApproveQuoteParams{})
	if err != nil {
		t.Fatalf("ApproveQuote: %v", err)
	}
	if got.WorkflowStatus != domain.WorkflowQuoteApproved {
		t.Fatalf("workflow status = %q, want quote_approved", got.WorkflowStatus)
	}
	quote, _ := store.GetQuote(context.Background(), *got.ActiveQuoteID)
	if quote.Status != domain.QuoteApproved {
		t.Fatalf("quote status = %q, want approved", quote.Status)
	}
}

func TestApproveQuoteWithDateSchedules(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)
	if _, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindQuote, AmountPence: 15000}); err != nil {
		t.Fatalf("quote: %v", err)
	}

	date := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	slot := "morning"
	got, err := svc.ApproveQuote(context.Background(), ticket.ID, ApproveQuoteParams{Date: &date, TimeSlot: &slot})
	if err != nil {
		t.Fatalf("ApproveQuote: %v", err)
	}
	if got.WorkflowStatus != domain.WorkflowScheduled {
		t.Fatalf("workflow status = %q, want scheduled", got.WorkflowStatus)
	}
	quote, _ := store.GetQuote(context.Background(), *got.ActiveQuoteID)
	if quote.Status != domain.QuoteScheduled {
		t.Fatalf("quote status = %q, want scheduled", quote.Status)
	}
	if quote.ConfirmedDate == nil || !quote.ConfirmedDate.Equal(date) {
		t.Fatalf("confirmed date = %v, want %v", quote.ConfirmedDate, date)
	}

	evs, _ := store.ListEventsByTicket(context.Background(), ticket.ID)
	last := evs[len(evs)-1]
	if last.EventType != domain.EventWorkScheduled {
		t.Fatalf("last event = %q, want work_scheduled", last.EventType)
	}
}

func TestRejectQuoteWithReassignment(t *testing.T) {
	first := plumber("Apex Plumbing")
	second := plumber("Borough Drains")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first, second}})

	ticket := assignedTicket(t, svc)
	if _, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindQuote, AmountPence: 95000}); err != nil {
		t.Fatalf("quote: %v", err)
	}

	got, err := svc.RejectQuote(context.Background(), ticket.ID, "over budget", true)
	if err != nil {
		t.Fatalf("RejectQuote: %v", err)
	}
	if got.WorkflowStatus != domain.WorkflowContractorNotified {
		t.Fatalf("workflow status = %q, want contractor_notified", got.WorkflowStatus)
	}
	if got.ContractorID == nil || *got.ContractorID != second.ID {
		t.Fatalf("contractor = %v, want %s", got.ContractorID, second.ID)
	}

	quotes, _ := store.ListQuotesByTicket(context.Background(), ticket.ID)
	var rejected bool
	for _, q := range quotes {
		if q.ContractorID == first.ID && q.Status == domain.QuoteRejected {
			rejected = true
		}
	}
	if !rejected {
		t.Fatal("original quote not marked rejected")
	}
}

func TestRejectQuoteWithoutReassignment(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, _, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)
	if _, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindQuote, AmountPence: 95000}); err != nil {
		t.Fatalf("quote: %v", err)
	}

	got, err := svc.RejectQuote(context.Background(), ticket.ID, "over budget", false)
	if err != nil {
		t.Fatalf("RejectQuote: %v", err)
	}
	if got.WorkflowStatus != domain.WorkflowNew {
		t.Fatalf("workflow status = %q, want new", got.WorkflowStatus)
	}
	if got.ContractorID != nil || got.ActiveQuoteID != nil {
		t.Fatalf("contractor/active quote not cleared: %+v", got)
	}
}

func TestStartAndCompleteWork(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)
	if _, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindQuote, AmountPence: 15000}); err != nil {
		t.Fatalf("quote: %v", err)
	}
	date := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	if _, err := svc.ApproveQuote(context.Background(), ticket.ID, ApproveQuoteParams{Date: &date}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	got, err := svc.StartWork(context.Background(), ticket.ID, domain.ActorContractor)
	if err != nil {
		t.Fatalf("StartWork: %v", err)
	}
	if got.WorkflowStatus != domain.WorkflowInWork {
		t.Fatalf("workflow status = %q, want in_work", got.WorkflowStatus)
	}

	final := int64(14500)
	got, err = svc.CompleteWork(context.Background(), ticket.ID, "replaced tap washer", &final, domain.ActorContractor)
	if err != nil {
		t.Fatalf("CompleteWork: %v", err)
	}
	if got.WorkflowStatus != domain.WorkflowCompleted {
		t.Fatalf("workflow status = %q, want completed", got.WorkflowStatus)
	}
	if got.Status != domain.TicketResolved {
		t.Fatalf("status = %q, want resolved", got.Status)
	}

	quote, _ := store.GetQuote(context.Background(), *got.ActiveQuoteID)
	if quote.Status != domain.QuoteCompleted {
		t.Fatalf("quote status = %q, want completed", quote.Status)
	}
	if quote.FinalAmount == nil || *quote.FinalAmount != final {
		t.Fatalf("final amount = %v, want %d", quote.FinalAmount, final)
	}
	if quote.CompletionNotes == nil || *quote.CompletionNotes != "replaced tap washer" {
		t.Fatalf("completion notes = %v", quote.CompletionNotes)
	}
}

func TestStartWorkFromWrongState(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, _, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)
	_, err := svc.StartWork(context.Background(), ticket.ID, domain.ActorContractor)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

// Replaying the audit trail in order must land on the ticket's current
// workflow status, with every adjacent pair chaining prev -> new.
func TestEventReplayReconstructsStatus(t *testing.T) {
	first := plumber("Apex Plumbing")
	second := plumber("Borough Drains")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first, second}})

	ticket := assignedTicket(t, svc)
	if _, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindDecline, Reason: "on holiday"}); err != nil {
		t.Fatalf("decline: %v", err)
	}
	if _, err := svc.ApplyContractorReply(context.Background(), second.ID, intent.Reply{Kind: intent.KindQuote, AmountPence: 22000}); err != nil {
		t.Fatalf("quote: %v", err)
	}
	date := time.Date(2026, 12, 25, 0, 0, 0, 0, time.UTC)
	if _, err := svc.ApproveQuote(context.Background(), ticket.ID, ApproveQuoteParams{Date: &date}); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := svc.StartWork(context.Background(), ticket.ID, domain.ActorContractor); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.CompleteWork(context.Background(), ticket.ID, "done", nil, domain.ActorContractor); err != nil {
		t.Fatalf("complete: %v", err)
	}

	current, _ := store.GetByID(context.Background(), ticket.ID)
	evs, err := svc.ListTicketEvents(context.Background(), ticket.ID)
	if err != nil {
		t.Fatalf("ListTicketEvents: %v", err)
	}

	status := domain.WorkflowNew
	for _, ev := range evs {
		if ev.PreviousStatus != status {
			t.Fatalf("event %s has prev %q, replay was at %q", ev.EventType, ev.PreviousStatus, status)
		}
		status = ev.NewStatus
	}
	if status != current.WorkflowStatus {
		t.Fatalf("replay landed on %q, ticket is %q", status, current.WorkflowStatus)
	}
}

// Only one quote may be active at a time: after the full happy path the
// ticket has exactly one quote in an active status.
func TestSingleActiveQuote(t *testing.T) {
	first := plumber("Apex Plumbing")
	second := plumber("Borough Drains")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first, second}})

	ticket := assignedTicket(t, svc)
	if _, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindDecline}); err != nil {
		t.Fatalf("decline: %v", err)
	}

	quotes, _ := store.ListQuotesByTicket(context.Background(), ticket.ID)
	active := 0
	for _, q := range quotes {
		if q.Status.IsActive() {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("got %d active quotes, want 1", active)
	}
}

func TestConcurrentTransitionConflicts(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)

	// Move the ticket out from under a stale caller.
	if _, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindAccept}); err != nil {
		t.Fatalf("accept: %v", err)
	}

	// A second accept against the already-moved ticket finds no pending
	// quote, so the contractor just gets the no-open-job text.
	reply, err := svc.ApplyContractorReply(context.Background(), first.ID, intent.Reply{Kind: intent.KindAccept})
	if err != nil {
		t.Fatalf("second accept: %v", err)
	}
	if reply != replyNoOpenJob {
		t.Fatalf("reply = %q, want no-open-job text", reply)
	}

	// And a stale direct transition is refused outright.
	got, _ := store.GetByID(context.Background(), ticket.ID)
	err = store.ApplyTransition(context.Background(), &repository.Transition{
		TicketID:       got.ID,
		ExpectedStatus: domain.WorkflowContractorNotified,
		NewStatus:      domain.WorkflowQuoteReceived,
	})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("err = %v, want conflict", err)
	}
}

func TestEscalateRecordsEventWithoutTransition(t *testing.T) {
	first := plumber("Apex Plumbing")
	svc, store, _ := newEngine(t, &fakePool{contractors: []contractors.Contractor{first}})

	ticket := assignedTicket(t, svc)
	if err := svc.Escalate(context.Background(), ticket.ID, "tenant called twice", domain.ActorPropertyManager); err != nil {
		t.Fatalf("Escalate: %v", err)
	}

	got, _ := store.GetByID(context.Background(), ticket.ID)
	if got.WorkflowStatus != domain.WorkflowContractorNotified {
		t.Fatalf("escalation moved the ticket to %q", got.WorkflowStatus)
	}
	evs, _ := store.ListEventsByTicket(context.Background(), ticket.ID)
	last := evs[len(evs)-1]
	if last.EventType != domain.EventManualEscalation {
		t.Fatalf("last event = %q, want manual_escalation", last.EventType)
	}
}
