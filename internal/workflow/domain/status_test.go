package domain

import "testing"

func TestCanTransition_HappyPath(t *testing.T) {
	path := []WorkflowStatus{
		WorkflowNew,
		WorkflowContractorNotified,
		WorkflowQuoteReceived,
		WorkflowScheduled,
		WorkflowInWork,
		WorkflowCompleted,
	}

	for i := 0; i < len(path)-1; i++ {
		if !CanTransition(path[i], path[i+1]) {
			t.Fatalf("expected %s -> %s to be legal", path[i], path[i+1])
		}
	}
}

func TestCanTransition_RecoveryEdges(t *testing.T) {
	cases := []struct {
		from, to WorkflowStatus
	}{
		{WorkflowQuoteReceived, WorkflowContractorNotified}, // quote rejected, reassigned
		{WorkflowQuoteReceived, WorkflowNew},                // quote rejected, no alternative
		{WorkflowContractorNotified, WorkflowContractorNotified}, // decline, reassigned
		{WorkflowContractorNotified, WorkflowNew},                // decline, no alternative
	}

	for _, tc := range cases {
		if !CanTransition(tc.from, tc.to) {
			t.Fatalf("expected recovery edge %s -> %s to be legal", tc.from, tc.to)
		}
	}
}

func TestCanTransition_RejectsUndefinedEdges(t *testing.T) {
	cases := []struct {
		from, to WorkflowStatus
	}{
		{WorkflowNew, WorkflowQuoteReceived},
		{WorkflowNew, WorkflowCompleted},
		{WorkflowScheduled, WorkflowQuoteReceived},
		{WorkflowCompleted, WorkflowNew},
		{WorkflowInWork, WorkflowScheduled},
		{WorkflowClosed, WorkflowNew},
	}

	for _, tc := range cases {
		if CanTransition(tc.from, tc.to) {
			t.Fatalf("expected %s -> %s to be rejected", tc.from, tc.to)
		}
	}
}

func TestActiveQuoteStatuses(t *testing.T) {
	for _, s := range ActiveQuoteStatuses {
		if !s.IsActive() {
			t.Fatalf("expected %s to be active", s)
		}
	}

	for _, s := range []QuoteStatus{QuoteDeclined, QuoteRejected, QuoteCompleted} {
		if s.IsActive() {
			t.Fatalf("expected %s to be inactive", s)
		}
	}
}

func TestNotificationPolicy_CoversAllEventTypes(t *testing.T) {
	all := []EventType{
		EventTicketCreated,
		EventEmergencyAlert,
		EventContractorNotified,
		EventContractorAccepted,
		EventQuoteReceived,
		EventContractorDeclined,
		EventQuoteApproved,
		EventWorkScheduled,
		EventQuoteRejected,
		EventWorkStarted,
		EventWorkCompleted,
		EventManualEscalation,
	}

	for _, et := range all {
		if _, ok := NotificationPolicy[et]; !ok {
			t.Fatalf("notification policy missing entry for %s", et)
		}
	}
}

func TestNotificationPolicy_NeverPairsTenantAndContractor(t *testing.T) {
	// Tenants and contractors must never be notified by the same event in a
	// way that attributes the other party; the policy keeps work_started
	// silent for tenants and routes assignment detail only to contractors.
	for et, routes := range NotificationPolicy {
		for _, r := range routes {
			if r.Recipient != RecipientTenant {
				continue
			}
			if et == EventContractorNotified || et == EventQuoteApproved {
				t.Fatalf("tenant must not be notified on %s", et)
			}
		}
	}
}

func TestWorkStarted_HasNoTenantRoute(t *testing.T) {
	for _, r := range RoutesFor(EventWorkStarted) {
		if r.Recipient == RecipientTenant {
			t.Fatal("tenant was already told at scheduling; work_started must not notify them again")
		}
	}
}
