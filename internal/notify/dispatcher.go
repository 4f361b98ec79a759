package notify

import (
	"context"

	"propcare_backend/internal/events"
	"propcare_backend/platform/logger"

	"github.com/google/uuid"
)

// Enqueuer hands a notification job to the background queue. Implemented
// by the scheduler client.
type Enqueuer interface {
	EnqueueWorkflowEventNotification(ctx context.Context, eventID, ticketID uuid.UUID) error
}

// Dispatcher listens for workflow transitions on the event bus and queues
// their notifications for asynchronous delivery. The workflow transition
// has already committed by the time this runs; a failed enqueue is logged
// and dropped.
type Dispatcher struct {
	queue Enqueuer
	log   *logger.Logger
}

// NewDispatcher creates the dispatcher.
func NewDispatcher(queue Enqueuer, log *logger.Logger) *Dispatcher {
	return &Dispatcher{queue: queue, log: log}
}

// Register subscribes the dispatcher to the event bus.
func (d *Dispatcher) Register(bus events.Bus) {
	bus.Subscribe(events.TicketTransitioned{}.EventName(), events.HandlerFunc(d.handleTransition))
}

func (d *Dispatcher) handleTransition(ctx context.Context, event events.Event) error {
	transitioned, ok := event.(events.TicketTransitioned)
	if !ok {
		return nil
	}
	if err := d.queue.EnqueueWorkflowEventNotification(ctx, transitioned.AuditEventID, transitioned.TicketID); err != nil {
		d.log.Error("failed to queue notification",
			"ticket", transitioned.TicketNumber,
			"event", transitioned.WorkflowEvent,
			"error", err,
		)
	}
	return nil
}
