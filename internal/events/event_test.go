package events

import (
	"testing"
	"time"
)

// The event name is the dispatcher's subscription key; changing it would
// silently detach the notification pipeline.
func TestTicketTransitionedEventName(t *testing.T) {
	ev := TicketTransitioned{BaseEvent: NewBaseEvent()}
	if got := ev.EventName(); got != "workflow.ticket.transitioned" {
		t.Fatalf("event name = %q", got)
	}
	if ev.OccurredAt().IsZero() || time.Since(ev.OccurredAt()) > time.Minute {
		t.Fatalf("occurred at = %v", ev.OccurredAt())
	}
}
