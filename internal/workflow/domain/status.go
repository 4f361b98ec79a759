// Package domain defines the ticket workflow state machine: statuses,
// triggers, and the closed transition table the engine validates against.
package domain

// Category is the maintenance category assigned at intake.
type Category string

const (
	CategoryPlumbing   Category = "plumbing"
	CategoryElectrical Category = "electrical"
	CategoryHeating    Category = "heating"
	CategoryAppliances Category = "appliances"
	CategoryStructural Category = "structural"
	CategoryPest       Category = "pest"
	CategoryExterior   Category = "exterior"
	CategoryBilling    Category = "billing"
	CategoryGeneral    Category = "general"
)

// Categories lists all categories in their fixed classification priority
// order. The fallback classifier scans them in this order.
var Categories = []Category{
	CategoryPlumbing,
	CategoryElectrical,
	CategoryHeating,
	CategoryAppliances,
	CategoryStructural,
	CategoryPest,
	CategoryExterior,
	CategoryBilling,
	CategoryGeneral,
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// specializations maps a ticket category to the contractor trade tag the
// matcher searches on. Billing has no trade: those tickets are handled by
// the agency office and are never assigned to a contractor.
var specializations = map[Category]string{
	CategoryPlumbing:   "plumbing",
	CategoryElectrical: "electrical",
	CategoryHeating:    "heating",
	CategoryAppliances: "appliances",
	CategoryStructural: "general_builder",
	CategoryPest:       "pest_control",
	CategoryExterior:   "roofing",
	CategoryBilling:    "",
	CategoryGeneral:    "general_maintenance",
}

// Specialization returns the contractor trade tag for the category, or ""
// when the category is never dispatched to a contractor.
func (c Category) Specialization() string {
	return specializations[c]
}

// Priority is the ticket priority.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// TicketStatus is the coarse tenant-facing status.
type TicketStatus string

const (
	TicketOpen       TicketStatus = "open"
	TicketInProgress TicketStatus = "in_progress"
	TicketResolved   TicketStatus = "resolved"
	TicketClosed     TicketStatus = "closed"
	TicketUrgent     TicketStatus = "urgent"
)

// WorkflowStatus is the fine-grained fulfillment state of a ticket.
type WorkflowStatus string

const (
	WorkflowNew                WorkflowStatus = "new"
	WorkflowContractorNotified WorkflowStatus = "contractor_notified"
	WorkflowQuoteReceived      WorkflowStatus = "quote_received"
	WorkflowQuoteApproved      WorkflowStatus = "quote_approved"
	WorkflowScheduled          WorkflowStatus = "scheduled"
	WorkflowInWork             WorkflowStatus = "in_work"
	WorkflowCompleted          WorkflowStatus = "completed"
	WorkflowClosed             WorkflowStatus = "closed"
)

// QuoteStatus is the lifecycle state of one contractor's engagement.
type QuoteStatus string

const (
	QuotePending    QuoteStatus = "pending"
	QuoteAccepted   QuoteStatus = "accepted"
	QuoteDeclined   QuoteStatus = "declined"
	QuoteQuoted     QuoteStatus = "quoted"
	QuoteApproved   QuoteStatus = "approved"
	QuoteRejected   QuoteStatus = "rejected"
	QuoteScheduled  QuoteStatus = "scheduled"
	QuoteInProgress QuoteStatus = "in_progress"
	QuoteCompleted  QuoteStatus = "completed"
)

// ActiveQuoteStatuses are the statuses in which a quote counts as the
// ticket's single active quote. A ticket never holds two quotes in any of
// these statuses at once.
var ActiveQuoteStatuses = []QuoteStatus{
	QuotePending,
	QuoteAccepted,
	QuoteQuoted,
	QuoteApproved,
	QuoteScheduled,
	QuoteInProgress,
}

// IsActive reports whether the quote status counts against the
// one-active-quote invariant.
func (s QuoteStatus) IsActive() bool {
	for _, active := range ActiveQuoteStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// ActorClass identifies who triggered a workflow transition.
type ActorClass string

const (
	ActorSystem          ActorClass = "system"
	ActorContractor      ActorClass = "contractor"
	ActorPropertyManager ActorClass = "property_manager"
	ActorTenant          ActorClass = "tenant"
)

// transitions is the closed adjacency set of the workflow state machine.
// Anything not listed here is an invalid transition and is rejected; the
// engine never silently no-ops on an unexpected trigger.
var transitions = map[WorkflowStatus][]WorkflowStatus{
	WorkflowNew: {WorkflowContractorNotified},
	WorkflowContractorNotified: {
		WorkflowQuoteReceived,
		WorkflowContractorNotified, // reassignment after a decline
		WorkflowNew,                // decline with no alternative contractor
	},
	WorkflowQuoteReceived: {
		WorkflowQuoteApproved,
		WorkflowScheduled,          // approval with a confirmed date
		WorkflowContractorNotified, // rejection with reassignment
		WorkflowNew,                // rejection, no alternative
	},
	WorkflowQuoteApproved: {WorkflowScheduled, WorkflowInWork},
	WorkflowScheduled:     {WorkflowInWork},
	WorkflowInWork:        {WorkflowCompleted},
	WorkflowCompleted:     {WorkflowClosed},
}

// CanTransition reports whether from -> to is a legal workflow edge.
func CanTransition(from, to WorkflowStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the status ends the fulfillment pipeline.
func (s WorkflowStatus) Terminal() bool {
	return s == WorkflowCompleted || s == WorkflowClosed
}
