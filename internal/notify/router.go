package notify

import (
	"fmt"
	"strings"

	"propcare_backend/internal/contractors"
	"propcare_backend/internal/directory"
	"propcare_backend/internal/intent"
	"propcare_backend/internal/workflow/domain"
	"propcare_backend/internal/workflow/repository"
	"propcare_backend/platform/config"
)

// EventContext bundles everything the router needs to compose messages for
// one audit event. Tenant, Contractor and Quote are optional: routes whose
// recipient cannot be resolved are dropped, not errored.
type EventContext struct {
	Event      repository.WorkflowEvent
	Ticket     repository.Ticket
	Tenant     *directory.Tenant
	Contractor *contractors.Contractor
	Quote      *repository.Quote
	Suggested  []contractors.Contractor // ranked shortlist for the ticket-created email
}

// Router resolves the routing policy for an event into concrete messages.
type Router struct {
	agencyName string
	pmEmail    string
	pmPhone    string
}

// NewRouter creates a notification router.
func NewRouter(cfg config.WorkflowConfig) *Router {
	return &Router{
		agencyName: cfg.GetAgencyName(),
		pmEmail:    cfg.GetPropertyManagerEmail(),
		pmPhone:    cfg.GetPropertyManagerPhone(),
	}
}

// Messages expands the event's policy routes into addressed messages.
// All texts speak with the agency's voice. The tenant-facing scheduling
// message never names the contractor or exposes their contact details;
// cross-party communication is always mediated by the agency.
func (r *Router) Messages(ec EventContext) []Message {
	var out []Message
	for _, route := range domain.RoutesFor(ec.Event.EventType) {
		body, subject := r.compose(ec, route.Recipient)
		if body == "" {
			continue
		}
		for _, channel := range route.Channels {
			to := r.address(ec, route.Recipient, channel)
			if to == "" {
				continue
			}
			out = append(out, Message{
				Recipient: route.Recipient,
				Channel:   channel,
				To:        to,
				Subject:   subject,
				Body:      body,
				Urgent:    route.Urgent,
			})
		}
	}
	return out
}

func (r *Router) address(ec EventContext, recipient domain.Recipient, channel domain.Channel) string {
	switch recipient {
	case domain.RecipientTenant:
		if ec.Tenant == nil {
			return ""
		}
		if channel == domain.ChannelEmail {
			return ec.Tenant.Email
		}
		return ec.Tenant.Phone
	case domain.RecipientContractor:
		if ec.Contractor == nil {
			return ""
		}
		if channel == domain.ChannelEmail {
			return ec.Contractor.Email
		}
		return ec.Contractor.Phone
	case domain.RecipientPropertyManager:
		if channel == domain.ChannelEmail {
			return r.pmEmail
		}
		return r.pmPhone
	}
	return ""
}

// compose returns the body and email subject for one recipient of the
// event. An empty body drops the route.
func (r *Router) compose(ec EventContext, recipient domain.Recipient) (string, string) {
	number := ec.Ticket.TicketNumber
	subjectLine := ec.Ticket.Subject

	switch ec.Event.EventType {
	case domain.EventTicketCreated:
		if recipient == domain.RecipientTenant {
			return fmt.Sprintf(
				"Thanks for getting in touch. We've logged your maintenance request as %s and will be back to you shortly.\n\n— %s",
				number, r.agencyName,
			), ""
		}
		var b strings.Builder
		fmt.Fprintf(&b, "New maintenance ticket %s.\n\n", number)
		fmt.Fprintf(&b, "Category: %s\nPriority: %s\nIssue: %s\n", ec.Ticket.Category, ec.Ticket.Priority, subjectLine)
		if len(ec.Suggested) > 0 {
			b.WriteString("\nSuggested contractors:\n")
			for i, c := range ec.Suggested {
				marker := ""
				if c.Preferred {
					marker = ", preferred"
				}
				fmt.Fprintf(&b, "%d. %s (rating %.1f%s)\n", i+1, c.CompanyName, c.Rating, marker)
			}
		} else if ec.Ticket.Category.Specialization() != "" {
			b.WriteString("\nNo matching contractor on the books; manual assignment needed.\n")
		}
		return b.String(), fmt.Sprintf("New ticket %s: %s", number, subjectLine)

	case domain.EventEmergencyAlert:
		return fmt.Sprintf(
				"EMERGENCY: ticket %s requires immediate attention.\n\nIssue: %s\n%s",
				number, subjectLine, ec.Ticket.Description,
			),
			fmt.Sprintf("EMERGENCY: %s", subjectLine)

	case domain.EventContractorNotified:
		var b strings.Builder
		fmt.Fprintf(&b, "New job from %s (ref %s).\n\n", r.agencyName, number)
		fmt.Fprintf(&b, "Category: %s\nIssue: %s\n", ec.Ticket.Category, subjectLine)
		if ec.Ticket.Description != "" {
			fmt.Fprintf(&b, "Details: %s\n", ec.Ticket.Description)
		}
		if ec.Ticket.IsEmergency {
			b.WriteString("This is an EMERGENCY call-out.\n")
		}
		b.WriteString("\n" + intent.InstructionMenu)
		return b.String(), fmt.Sprintf("New job %s: %s", number, subjectLine)

	case domain.EventContractorAccepted:
		return fmt.Sprintf("Ticket %s: the contractor accepted the job at the listed rate.", number),
			fmt.Sprintf("Ticket %s accepted", number)

	case domain.EventQuoteReceived:
		amount := "an unspecified amount"
		if ec.Quote != nil && ec.Quote.AmountPence != nil {
			amount = fmt.Sprintf("£%.2f", float64(*ec.Quote.AmountPence)/100)
		}
		body := fmt.Sprintf("Ticket %s: quote received for %s.", number, amount)
		if ec.Quote != nil && ec.Quote.ProposedDate != nil {
			body += fmt.Sprintf(" Proposed date: %s.", ec.Quote.ProposedDate.Format("Monday 2 January"))
		}
		body += " Please review and approve or reject."
		return body, fmt.Sprintf("Quote received for %s", number)

	case domain.EventContractorDeclined:
		body := fmt.Sprintf("Ticket %s: the contractor declined the job.", number)
		if reason, ok := ec.Event.Metadata["reason"].(string); ok && reason != "" {
			body += fmt.Sprintf(" Reason: %s.", reason)
		}
		if _, reassigned := ec.Event.Metadata["reassignedTo"]; reassigned {
			body += " The job has been offered to the next available contractor."
		} else {
			body += " No alternative contractor is available. Manual assignment needed."
		}
		return body, fmt.Sprintf("Ticket %s declined", number)

	case domain.EventQuoteApproved:
		return fmt.Sprintf(
				"Your quote for job %s has been approved. We'll confirm the attendance date with you shortly.\n\n— %s",
				number, r.agencyName,
			),
			fmt.Sprintf("Quote approved for job %s", number)

	case domain.EventWorkScheduled:
		date := ""
		if d, ok := ec.Event.Metadata["scheduledDate"].(string); ok {
			date = d
		}
		slot := ""
		if sl, ok := ec.Event.Metadata["timeSlot"].(string); ok && sl != "" {
			slot = fmt.Sprintf(" (%s)", sl)
		}
		if recipient == domain.RecipientContractor {
			return fmt.Sprintf(
					"Job %s is confirmed for %s%s. Please attend as agreed.\n\n— %s",
					number, date, slot, r.agencyName,
				),
				fmt.Sprintf("Job %s confirmed", number)
		}
		// Tenant message. Worded as the agency arranging attendance; the
		// contractor is never named.
		return fmt.Sprintf(
				"Good news about your maintenance request %s: we've arranged for someone to attend on %s%s. Please make sure the property is accessible.\n\n— %s",
				number, date, slot, r.agencyName,
			),
			fmt.Sprintf("Attendance arranged for %s", number)

	case domain.EventQuoteRejected:
		return fmt.Sprintf(
			"Unfortunately we won't be going ahead with your quote for job %s this time. Thanks for responding.\n\n— %s",
			number, r.agencyName,
		), ""

	case domain.EventWorkCompleted:
		if recipient == domain.RecipientTenant {
			return fmt.Sprintf(
					"Your maintenance request %s has been completed. If anything doesn't look right, just reply to this message.\n\n— %s",
					number, r.agencyName,
				),
				fmt.Sprintf("Work completed on %s", number)
		}
		body := fmt.Sprintf("Ticket %s: work completed.", number)
		if ec.Quote != nil && ec.Quote.FinalAmount != nil {
			body += fmt.Sprintf(" Final amount: £%.2f.", float64(*ec.Quote.FinalAmount)/100)
		}
		if ec.Quote != nil && ec.Quote.CompletionNotes != nil {
			body += fmt.Sprintf(" Notes: %s", *ec.Quote.CompletionNotes)
		}
		return body, fmt.Sprintf("Ticket %s completed", number)

	case domain.EventManualEscalation:
		body := fmt.Sprintf("Ticket %s has been escalated and needs your attention.", number)
		if reason, ok := ec.Event.Metadata["reason"].(string); ok && reason != "" {
			body += fmt.Sprintf(" Reason: %s.", reason)
		}
		return body, fmt.Sprintf("Escalation on %s", number)
	}

	return "", ""
}
