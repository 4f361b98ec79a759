package repository

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"propcare_backend/internal/workflow/domain"
	"propcare_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ── Domain Models ─────────────────────────────────────────────────────────────

// Ticket is the database model for a maintenance ticket.
type Ticket struct {
	ID             uuid.UUID             `db:"id"`
	TicketNumber   string                `db:"ticket_number"`
	TenantID       uuid.UUID             `db:"tenant_id"`
	PropertyID     uuid.UUID             `db:"property_id"`
	Category       domain.Category       `db:"category"`
	Subject        string                `db:"subject"`
	Description    string                `db:"description"`
	Priority       domain.Priority       `db:"priority"`
	Status         domain.TicketStatus   `db:"status"`
	WorkflowStatus domain.WorkflowStatus `db:"workflow_status"`
	IsEmergency    bool                  `db:"is_emergency"`
	ContractorID   *uuid.UUID            `db:"contractor_id"`
	ActiveQuoteID  *uuid.UUID            `db:"active_quote_id"`
	Attachments    []string              `db:"attachments"`
	CreatedAt      time.Time             `db:"created_at"`
	UpdatedAt      time.Time             `db:"updated_at"`
}

// Quote is the database model for one contractor's engagement on one ticket.
type Quote struct {
	ID              uuid.UUID          `db:"id"`
	TicketID        uuid.UUID          `db:"ticket_id"`
	ContractorID    uuid.UUID          `db:"contractor_id"`
	Status          domain.QuoteStatus `db:"status"`
	AmountPence     *int64             `db:"amount_pence"`
	ProposedDate    *time.Time         `db:"proposed_date"`
	ConfirmedDate   *time.Time         `db:"confirmed_date"`
	TimeSlot        *string            `db:"time_slot"`
	DeclineReason   *string            `db:"decline_reason"`
	CompletionNotes *string            `db:"completion_notes"`
	FinalAmount     *int64             `db:"final_amount_pence"`
	CreatedAt       time.Time          `db:"created_at"`
	UpdatedAt       time.Time          `db:"updated_at"`
}

// WorkflowEvent is the append-only audit record written once per transition.
type WorkflowEvent struct {
	ID                   uuid.UUID             `db:"id"`
	TicketID             uuid.UUID             `db:"ticket_id"`
	QuoteID              *uuid.UUID            `db:"quote_id"`
	EventType            domain.EventType      `db:"event_type"`
	PreviousStatus       domain.WorkflowStatus `db:"previous_status"`
	NewStatus            domain.WorkflowStatus `db:"new_status"`
	ActorClass           domain.ActorClass     `db:"actor_class"`
	Title                string                `db:"title"`
	Description          string                `db:"description"`
	Metadata             map[string]any        `db:"metadata"`
	NotificationChannels []string              `db:"notification_channels"`
	NotificationSent     bool                  `db:"notification_sent"`
	CreatedAt            time.Time             `db:"created_at"`
}

// ListParams contains parameters for listing tickets.
type ListParams struct {
	Status         *domain.TicketStatus
	WorkflowStatus *domain.WorkflowStatus
	Category       *domain.Category
	TenantID       *uuid.UUID
	ContractorID   *uuid.UUID
	Page           int
	PageSize       int
}

// ListResult contains the paginated result of listing tickets.
type ListResult struct {
	Items      []Ticket
	Total      int
	Page       int
	PageSize   int
	TotalPages int
}

// Transition describes one atomic status change: the ticket's status write
// guarded by the expected prior workflow status, the quote mutation that
// accompanies it, and the audit event recording it. The repository applies
// all three in a single database transaction.
type Transition struct {
	TicketID         uuid.UUID
	ExpectedStatus   domain.WorkflowStatus
	NewStatus        domain.WorkflowStatus
	NewTicketStatus  *domain.TicketStatus
	SetContractorID  *uuid.UUID
	ClearContractor  bool
	SetActiveQuoteID *uuid.UUID
	ClearActiveQuote bool
	QuoteUpdate      *QuoteUpdate
	NewQuote         *Quote
	// PriorEvent, when set, is inserted before Event in the same
	// transaction. Used when closing out one quote and opening another
	// produces two audit entries that must land together.
	PriorEvent *WorkflowEvent
	Event      WorkflowEvent
}

// QuoteUpdate mutates an existing quote inside a transition.
type QuoteUpdate struct {
	QuoteID         uuid.UUID
	Status          domain.QuoteStatus
	AmountPence     *int64
	ProposedDate    *time.Time
	ConfirmedDate   *time.Time
	DeclineReason   *string
	CompletionNotes *string
	FinalAmount     *int64
}

// ── Repository ────────────────────────────────────────────────────────────────

const ticketNotFoundMsg = "ticket not found"

const ticketColumns = `id, ticket_number, tenant_id, property_id, category, subject, description,
		priority, status, workflow_status, is_emergency, contractor_id, active_quote_id,
		attachments, created_at, updated_at`

// Repository provides database operations for tickets, quotes, and
// workflow events.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new workflow repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// NewTicketNumber generates a human-readable ticket number of the form
// MNT-YYYYMMDD-XXXX. The suffix is random, not sequential; uniqueness is
// enforced by the database index and CreateTicket retries on collision.
func NewTicketNumber(now time.Time) string {
	const alphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform RNG is broken; fall back
		// to something still unique enough for a retry loop.
		binaryFill(buf, now.UnixNano())
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return fmt.Sprintf("MNT-%s-%s", now.Format("20060102"), string(buf))
}

func binaryFill(buf []byte, seed int64) {
	for i := range buf {
		buf[i] = byte(seed >> (8 * i))
	}
}

// CreateTicket inserts a new ticket, generating the ticket number and
// retrying on the (unlikely) unique collision.
func (r *Repository) CreateTicket(ctx context.Context, t *Ticket) error {
	query := `
		INSERT INTO tickets (
			id, ticket_number, tenant_id, property_id, category, subject, description,
			priority, status, workflow_status, is_emergency, contractor_id, active_quote_id,
			attachments, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	for attempt := 0; attempt < 3; attempt++ {
		t.TicketNumber = NewTicketNumber(time.Now())
		_, err := r.pool.Exec(ctx, query,
			t.ID, t.TicketNumber, t.TenantID, t.PropertyID, t.Category, t.Subject, t.Description,
			t.Priority, t.Status, t.WorkflowStatus, t.IsEmergency, t.ContractorID, t.ActiveQuoteID,
			t.Attachments, t.CreatedAt, t.UpdatedAt,
		)
		if err == nil {
			return nil
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "tickets_ticket_number_key" {
			continue
		}
		return fmt.Errorf("failed to insert ticket: %w", err)
	}
	return apperr.Internal("could not generate a unique ticket number")
}

// GetByID retrieves a ticket by its ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return r.getTicket(ctx, query, id)
}

// GetByNumber retrieves a ticket by its human-readable number.
func (r *Repository) GetByNumber(ctx context.Context, number string) (*Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_number = $1`
	return r.getTicket(ctx, query, number)
}

func (r *Repository) getTicket(ctx context.Context, query string, args ...any) (*Ticket, error) {
	var t Ticket
	err := r.pool.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.TicketNumber, &t.TenantID, &t.PropertyID, &t.Category, &t.Subject, &t.Description,
		&t.Priority, &t.Status, &t.WorkflowStatus, &t.IsEmergency, &t.ContractorID, &t.ActiveQuoteID,
		&t.Attachments, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound(ticketNotFoundMsg)
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &t, nil
}

// List retrieves a paginated, filtered page of tickets.
func (r *Repository) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	where := ""
	args := []any{}
	addFilter := func(column string, value any) {
		args = append(args, value)
		clause := fmt.Sprintf("%s = $%d", column, len(args))
		if where == "" {
			where = " WHERE " + clause
		} else {
			where += " AND " + clause
		}
	}
	if params.Status != nil {
		addFilter("status", *params.Status)
	}
	if params.WorkflowStatus != nil {
		addFilter("workflow_status", *params.WorkflowStatus)
	}
	if params.Category != nil {
		addFilter("category", *params.Category)
	}
	if params.TenantID != nil {
		addFilter("tenant_id", *params.TenantID)
	}
	if params.ContractorID != nil {
		addFilter("contractor_id", *params.ContractorID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM tickets"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count tickets: %w", err)
	}

	args = append(args, params.PageSize, (params.Page-1)*params.PageSize)
	query := fmt.Sprintf(
		"SELECT %s FROM tickets%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		ticketColumns, where, len(args)-1, len(args),
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tickets: %w", err)
	}
	defer rows.Close()

	var items []Ticket
	for rows.Next() {
		var t Ticket
		if err := rows.Scan(
			&t.ID, &t.TicketNumber, &t.TenantID, &t.PropertyID, &t.Category, &t.Subject, &t.Description,
			&t.Priority, &t.Status, &t.WorkflowStatus, &t.IsEmergency, &t.ContractorID, &t.ActiveQuoteID,
			&t.Attachments, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tickets: %w", err)
	}

	totalPages := (total + params.PageSize - 1) / params.PageSize
	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalPages: totalPages,
	}, nil
}

// ApplyTransition performs one atomic workflow transition: ticket status
// write guarded by the expected prior workflow status, quote insert or
// update, and the audit event — all in one transaction. When the guarded
// update matches zero rows the ticket moved under us and the whole
// transition aborts with a Conflict.
func (r *Repository) ApplyTransition(ctx context.Context, tr *Transition) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	setClauses := "workflow_status = $3, updated_at = $4"
	args := []any{tr.TicketID, tr.ExpectedStatus, tr.NewStatus, now}
	addSet := func(column string, value any) {
		args = append(args, value)
		setClauses += fmt.Sprintf(", %s = $%d", column, len(args))
	}
	if tr.NewTicketStatus != nil {
		addSet("status", *tr.NewTicketStatus)
	}
	if tr.ClearContractor {
		setClauses += ", contractor_id = NULL"
	} else if tr.SetContractorID != nil {
		addSet("contractor_id", *tr.SetContractorID)
	}
	if tr.ClearActiveQuote {
		setClauses += ", active_quote_id = NULL"
	} else if tr.SetActiveQuoteID != nil {
		addSet("active_quote_id", *tr.SetActiveQuoteID)
	}

	updateQuery := fmt.Sprintf(
		"UPDATE tickets SET %s WHERE id = $1 AND workflow_status = $2",
		setClauses,
	)
	result, err := tx.Exec(ctx, updateQuery, args...)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	if result.RowsAffected() == 0 {
		// Distinguish a moved ticket from a missing one for the caller.
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id = $1)`, tr.TicketID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check ticket existence: %w", err)
		}
		if !exists {
			return apperr.NotFound(ticketNotFoundMsg)
		}
		return apperr.Conflict("ticket state changed, retry")
	}

	if tr.QuoteUpdate != nil {
		if err := applyQuoteUpdate(ctx, tx, tr.QuoteUpdate, now); err != nil {
			return err
		}
	}
	if tr.NewQuote != nil {
		if err := insertQuote(ctx, tx, tr.NewQuote); err != nil {
			return err
		}
	}

	if tr.PriorEvent != nil {
		if err := insertEvent(ctx, tx, tr.PriorEvent); err != nil {
			return err
		}
	}
	if err := insertEvent(ctx, tx, &tr.Event); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func applyQuoteUpdate(ctx context.Context, tx pgx.Tx, qu *QuoteUpdate, now time.Time) error {
	set := "status = $2, updated_at = $3"
	args := []any{qu.QuoteID, qu.Status, now}
	add := func(column string, value any) {
		args = append(args, value)
		set += fmt.Sprintf(", %s = $%d", column, len(args))
	}
	if qu.AmountPence != nil {
		add("amount_pence", *qu.AmountPence)
	}
	if qu.ProposedDate != nil {
		add("proposed_date", *qu.ProposedDate)
	}
	if qu.ConfirmedDate != nil {
		add("confirmed_date", *qu.ConfirmedDate)
	}
	if qu.DeclineReason != nil {
		add("decline_reason", *qu.DeclineReason)
	}
	if qu.CompletionNotes != nil {
		add("completion_notes", *qu.CompletionNotes)
	}
	if qu.FinalAmount != nil {
		add("final_amount_pence", *qu.FinalAmount)
	}

	query := fmt.Sprintf("UPDATE quotes SET %s WHERE id = $1", set)
	result, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update quote: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperr.NotFound("quote not found")
	}
	return nil
}

func insertQuote(ctx context.Context, tx pgx.Tx, q *Quote) error {
	query := `
		INSERT INTO quotes (
			id, ticket_id, contractor_id, status, amount_pence, proposed_date, confirmed_date,
			time_slot, decline_reason, completion_notes, final_amount_pence, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := tx.Exec(ctx, query,
		q.ID, q.TicketID, q.ContractorID, q.Status, q.AmountPence, q.ProposedDate, q.ConfirmedDate,
		q.TimeSlot, q.DeclineReason, q.CompletionNotes, q.FinalAmount, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			// Partial unique index on active quotes per ticket.
			return apperr.Conflict("ticket already has an active quote")
		}
		return fmt.Errorf("failed to insert quote: %w", err)
	}
	return nil
}

func insertEvent(ctx context.Context, tx pgx.Tx, ev *WorkflowEvent) error {
	metadata, err := json.Marshal(ev.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal event metadata: %w", err)
	}

	query := `
		INSERT INTO workflow_events (
			id, ticket_id, quote_id, event_type, previous_status, new_status, actor_class,
			title, description, metadata, notification_channels, notification_sent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	if _, err := tx.Exec(ctx, query,
		ev.ID, ev.TicketID, ev.QuoteID, ev.EventType, ev.PreviousStatus, ev.NewStatus, ev.ActorClass,
		ev.Title, ev.Description, metadata, ev.NotificationChannels, ev.NotificationSent, ev.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert workflow event: %w", err)
	}
	return nil
}

// FindOpenTicketForContractor returns the ticket currently awaiting a reply
// from the given contractor, or nil when there is none. A contractor has at
// most one job pending reply at a time on the shared inbound channel; if
// several exist the most recently assigned wins.
func (r *Repository) FindOpenTicketForContractor(ctx context.Context, contractorID uuid.UUID) (*Ticket, error) {
	query := `SELECT ` + ticketColumns + `
		FROM tickets
		WHERE contractor_id = $1 AND workflow_status = $2
		ORDER BY updated_at DESC
		LIMIT 1`

	t, err := r.getTicket(ctx, query, contractorID, domain.WorkflowContractorNotified)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}

// RecordEvent appends an audit event outside a transition, for occurrences
// that are not status changes (ticket creation, emergency alerts, manual
// escalations).
func (r *Repository) RecordEvent(ctx context.Context, ev *WorkflowEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertEvent(ctx, tx, ev); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetQuote retrieves a quote by ID.
func (r *Repository) GetQuote(ctx context.Context, id uuid.UUID) (*Quote, error) {
	query := `
		SELECT id, ticket_id, contractor_id, status, amount_pence, proposed_date, confirmed_date,
			time_slot, decline_reason, completion_notes, final_amount_pence, created_at, updated_at
		FROM quotes WHERE id = $1`

	var q Quote
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&q.ID, &q.TicketID, &q.ContractorID, &q.Status, &q.AmountPence, &q.ProposedDate, &q.ConfirmedDate,
		&q.TimeSlot, &q.DeclineReason, &q.CompletionNotes, &q.FinalAmount, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("quote not found")
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	return &q, nil
}

// ListQuotesByTicket retrieves all quotes for a ticket, oldest first.
// Declined and rejected quotes are retained, so this is also the decline
// history the matcher excludes against.
func (r *Repository) ListQuotesByTicket(ctx context.Context, ticketID uuid.UUID) ([]Quote, error) {
	query := `
		SELECT id, ticket_id, contractor_id, status, amount_pence, proposed_date, confirmed_date,
			time_slot, decline_reason, completion_notes, final_amount_pence, created_at, updated_at
		FROM quotes WHERE ticket_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query quotes: %w", err)
	}
	defer rows.Close()

	var quotes []Quote
	for rows.Next() {
		var q Quote
		if err := rows.Scan(
			&q.ID, &q.TicketID, &q.ContractorID, &q.Status, &q.AmountPence, &q.ProposedDate, &q.ConfirmedDate,
			&q.TimeSlot, &q.DeclineReason, &q.CompletionNotes, &q.FinalAmount, &q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}
		quotes = append(quotes, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}
	return quotes, nil
}

// ListEventsByTicket retrieves the full audit trail for a ticket in
// insertion order. Replaying the events in this order must reconstruct the
// ticket's current workflow status.
func (r *Repository) ListEventsByTicket(ctx context.Context, ticketID uuid.UUID) ([]WorkflowEvent, error) {
	query := `
		SELECT id, ticket_id, quote_id, event_type, previous_status, new_status, actor_class,
			title, description, metadata, notification_channels, notification_sent, created_at
		FROM workflow_events WHERE ticket_id = $1
		ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflow events: %w", err)
	}
	defer rows.Close()

	var events []WorkflowEvent
	for rows.Next() {
		var ev WorkflowEvent
		var metadata []byte
		if err := rows.Scan(
			&ev.ID, &ev.TicketID, &ev.QuoteID, &ev.EventType, &ev.PreviousStatus, &ev.NewStatus, &ev.ActorClass,
			&ev.Title, &ev.Description, &metadata, &ev.NotificationChannels, &ev.NotificationSent, &ev.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan workflow event: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &ev.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
			}
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workflow events: %w", err)
	}
	return events, nil
}

// GetEvent retrieves a single workflow event by ID.
func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (*WorkflowEvent, error) {
	query := `
		SELECT id, ticket_id, quote_id, event_type, previous_status, new_status, actor_class,
			title, description, metadata, notification_channels, notification_sent, created_at
		FROM workflow_events WHERE id = $1`

	var ev WorkflowEvent
	var metadata []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ev.ID, &ev.TicketID, &ev.QuoteID, &ev.EventType, &ev.PreviousStatus, &ev.NewStatus, &ev.ActorClass,
		&ev.Title, &ev.Description, &metadata, &ev.NotificationChannels, &ev.NotificationSent, &ev.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("workflow event not found")
		}
		return nil, fmt.Errorf("failed to get workflow event: %w", err)
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &ev.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal event metadata: %w", err)
		}
	}
	return &ev, nil
}

// MarkEventNotification records which channels were attempted for an audit
// event and whether all sends succeeded. Called after dispatch, outside the
// transition transaction; a failure here is logged by the caller, never
// propagated to the workflow.
func (r *Repository) MarkEventNotification(ctx context.Context, eventID uuid.UUID, channels []string, sent bool) error {
	query := `UPDATE workflow_events SET notification_channels = $2, notification_sent = $3 WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, eventID, channels, sent); err != nil {
		return fmt.Errorf("failed to mark event notification: %w", err)
	}
	return nil
}
