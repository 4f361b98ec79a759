package transport

import (
	"time"

	"propcare_backend/internal/workflow/repository"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateTicketRequest is the request body for creating a ticket through the
// internal API, bypassing channel intake.
type CreateTicketRequest struct {
	TenantID    uuid.UUID `json:"tenantId" validate:"required"`
	PropertyID  uuid.UUID `json:"propertyId" validate:"required"`
	Category    string    `json:"category" validate:"required,oneof=plumbing electrical heating appliances structural pest exterior billing general"`
	Subject     string    `json:"subject" validate:"required,min=3,max=200"`
	Description string    `json:"description" validate:"max=4000"`
	Priority    string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	IsEmergency bool      `json:"isEmergency"`
	Attachments []string  `json:"attachments" validate:"omitempty,dive,uri"`
}

// ApproveQuoteRequest approves the active quote, optionally scheduling it.
type ApproveQuoteRequest struct {
	Date     *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	TimeSlot *string `json:"timeSlot" validate:"omitempty,max=100"`
}

// RejectQuoteRequest rejects the active quote.
type RejectQuoteRequest struct {
	Reason   string `json:"reason" validate:"max=500"`
	Reassign bool   `json:"reassign"`
}

// CompleteWorkRequest closes out the job.
type CompleteWorkRequest struct {
	Notes            string `json:"notes" validate:"max=2000"`
	FinalAmountPence *int64 `json:"finalAmountPence" validate:"omitempty,min=0"`
}

// EscalateRequest flags a ticket for urgent attention.
type EscalateRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// TicketResponse is the API representation of a ticket.
type TicketResponse struct {
	ID             uuid.UUID  `json:"id"`
	TicketNumber   string     `json:"ticketNumber"`
	TenantID       uuid.UUID  `json:"tenantId"`
	PropertyID     uuid.UUID  `json:"propertyId"`
	Category       string     `json:"category"`
	Subject        string     `json:"subject"`
	Description    string     `json:"description"`
	Priority       string     `json:"priority"`
	Status         string     `json:"status"`
	WorkflowStatus string     `json:"workflowStatus"`
	IsEmergency    bool       `json:"isEmergency"`
	ContractorID   *uuid.UUID `json:"contractorId,omitempty"`
	ActiveQuoteID  *uuid.UUID `json:"activeQuoteId,omitempty"`
	Attachments    []string   `json:"attachments,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// QuoteResponse is the API representation of a quote.
type QuoteResponse struct {
	ID               uuid.UUID  `json:"id"`
	TicketID         uuid.UUID  `json:"ticketId"`
	ContractorID     uuid.UUID  `json:"contractorId"`
	Status           string     `json:"status"`
	AmountPence      *int64     `json:"amountPence,omitempty"`
	ProposedDate     *time.Time `json:"proposedDate,omitempty"`
	ConfirmedDate    *time.Time `json:"confirmedDate,omitempty"`
	TimeSlot         *string    `json:"timeSlot,omitempty"`
	DeclineReason    *string    `json:"declineReason,omitempty"`
	CompletionNotes  *string    `json:"completionNotes,omitempty"`
	FinalAmountPence *int64     `json:"finalAmountPence,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// EventResponse is the API representation of a workflow audit event.
type EventResponse struct {
	ID                   uuid.UUID      `json:"id"`
	TicketID             uuid.UUID      `json:"ticketId"`
	QuoteID              *uuid.UUID     `json:"quoteId,omitempty"`
	EventType            string         `json:"eventType"`
	PreviousStatus       string         `json:"previousStatus"`
	NewStatus            string         `json:"newStatus"`
	ActorClass           string         `json:"actorClass"`
	Title                string         `json:"title"`
	Description          string         `json:"description"`
	Metadata             map[string]any `json:"metadata,omitempty"`
	NotificationChannels []string       `json:"notificationChannels,omitempty"`
	NotificationSent     bool           `json:"notificationSent"`
	CreatedAt            time.Time      `json:"createdAt"`
}

// ListTicketsResponse is a paginated ticket listing.
type ListTicketsResponse struct {
	Items      []TicketResponse `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}

// FromTicket converts a repository ticket to its API shape.
func FromTicket(t *repository.Ticket) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		TicketNumber:   t.TicketNumber,
		TenantID:       t.TenantID,
		PropertyID:     t.PropertyID,
		Category:       string(t.Category),
		Subject:        t.Subject,
		Description:    t.Description,
		Priority:       string(t.Priority),
		Status:         string(t.Status),
		WorkflowStatus: string(t.WorkflowStatus),
		IsEmergency:    t.IsEmergency,
		ContractorID:   t.ContractorID,
		ActiveQuoteID:  t.ActiveQuoteID,
		Attachments:    t.Attachments,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// FromQuote converts a repository quote to its API shape.
func FromQuote(q *repository.Quote) QuoteResponse {
	return QuoteResponse{
		ID:               q.ID,
		TicketID:         q.TicketID,
		ContractorID:     q.ContractorID,
		Status:           string(q.Status),
		AmountPence:      q.AmountPence,
		ProposedDate:     q.ProposedDate,
		ConfirmedDate:    q.ConfirmedDate,
		TimeSlot:         q.TimeSlot,
		DeclineReason:    q.DeclineReason,
		CompletionNotes:  q.CompletionNotes,
		FinalAmountPence: q.FinalAmount,
		CreatedAt:        q.CreatedAt,
		UpdatedAt:        q.UpdatedAt,
	}
}

// FromEvent converts a repository workflow event to its API shape.
func FromEvent(ev *repository.WorkflowEvent) EventResponse {
	return EventResponse{
		ID:                   ev.ID,
		TicketID:             ev.TicketID,
		QuoteID:              ev.QuoteID,
		EventType:            string(ev.EventType),
		PreviousStatus:       string(ev.PreviousStatus),
		NewStatus:            string(ev.NewStatus),
		ActorClass:           string(ev.ActorClass),
		Title:                ev.Title,
		Description:          ev.Description,
		Metadata:             ev.Metadata,
		NotificationChannels: ev.NotificationChannels,
		NotificationSent:     ev.NotificationSent,
		CreatedAt:            ev.CreatedAt,
	}
}

// FromListResult converts a repository page to its API shape.
func FromListResult(res *repository.ListResult) ListTicketsResponse {
	items := make([]TicketResponse, 0, len(res.Items))
	for i := range res.Items {
		items = append(items, FromTicket(&res.Items[i]))
	}
	return ListTicketsResponse{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
	}
}
