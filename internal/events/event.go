// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"propcare_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// TicketTransitioned is published once per audit event the workflow engine
// records, status change or not. The notification dispatcher fans it out
// per the routing policy; it is the engine's only published event.
type TicketTransitioned struct {
	BaseEvent
	TicketID      uuid.UUID `json:"ticketId"`
	TicketNumber  string    `json:"ticketNumber"`
	WorkflowEvent string    `json:"workflowEvent"`
	FromStatus    string    `json:"fromStatus"`
	ToStatus      string    `json:"toStatus"`
	ActorClass    string    `json:"actorClass"`
	AuditEventID  uuid.UUID `json:"auditEventId"`
}

func (e TicketTransitioned) EventName() string { return "workflow.ticket.transitioned" }
