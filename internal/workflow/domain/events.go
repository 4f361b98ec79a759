package domain

// EventType is the closed set of workflow audit event types. The
// notification policy is keyed by this enum rather than by free strings, so
// an unhandled event type is a compile-time hole, not a runtime default
// branch.
type EventType string

const (
	EventTicketCreated      EventType = "ticket_created"
	EventEmergencyAlert     EventType = "emergency_alert"
	EventContractorNotified EventType = "contractor_notified"
	EventContractorAccepted EventType = "contractor_accepted"
	EventQuoteReceived      EventType = "quote_received"
	EventContractorDeclined EventType = "contractor_declined"
	EventQuoteApproved      EventType = "quote_approved"
	EventWorkScheduled      EventType = "work_scheduled"
	EventQuoteRejected      EventType = "quote_rejected"
	EventWorkStarted        EventType = "work_started"
	EventWorkCompleted      EventType = "work_completed"
	EventManualEscalation   EventType = "manual_escalation"
)

// Channel is a notification delivery channel.
type Channel string

const (
	ChannelWhatsApp Channel = "whatsapp"
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
)

// Recipient identifies who a notification route addresses.
type Recipient string

const (
	RecipientTenant          Recipient = "tenant"
	RecipientContractor      Recipient = "contractor"
	RecipientPropertyManager Recipient = "property_manager"
)

// Route pairs a recipient with the channels used to reach them.
type Route struct {
	Recipient Recipient
	Channels  []Channel
	Urgent    bool
}

// NotificationPolicy maps every workflow event type to its fixed set of
// notification routes. Tenants and contractors never appear on the same
// route: all cross-party communication is mediated by the agency.
var NotificationPolicy = map[EventType][]Route{
	EventTicketCreated: {
		{Recipient: RecipientPropertyManager, Channels: []Channel{ChannelEmail}},
		{Recipient: RecipientTenant, Channels: []Channel{ChannelWhatsApp}},
	},
	EventEmergencyAlert: {
		{Recipient: RecipientPropertyManager, Channels: []Channel{ChannelWhatsApp, ChannelSMS, ChannelEmail}, Urgent: true},
	},
	EventContractorNotified: {
		{Recipient: RecipientContractor, Channels: []Channel{ChannelWhatsApp, ChannelEmail}},
	},
	EventContractorAccepted: {
		{Recipient: RecipientPropertyManager, Channels: []Channel{ChannelEmail}},
	},
	EventQuoteReceived: {
		{Recipient: RecipientPropertyManager, Channels: []Channel{ChannelEmail}},
	},
	EventContractorDeclined: {
		{Recipient: RecipientPropertyManager, Channels: []Channel{ChannelEmail}},
	},
	EventQuoteApproved: {
		{Recipient: RecipientContractor, Channels: []Channel{ChannelWhatsApp, ChannelEmail}},
	},
	EventWorkScheduled: {
		{Recipient: RecipientContractor, Channels: []Channel{ChannelWhatsApp, ChannelEmail}},
		// The only point at which the tenant learns a contractor will
		// attend. Message is worded as coming from the agency.
		{Recipient: RecipientTenant, Channels: []Channel{ChannelWhatsApp, ChannelEmail}},
	},
	EventQuoteRejected: {
		{Recipient: RecipientContractor, Channels: []Channel{ChannelWhatsApp}},
	},
	EventWorkStarted: {},
	EventWorkCompleted: {
		{Recipient: RecipientTenant, Channels: []Channel{ChannelWhatsApp, ChannelEmail}},
		{Recipient: RecipientPropertyManager, Channels: []Channel{ChannelEmail}},
	},
	EventManualEscalation: {
		{Recipient: RecipientPropertyManager, Channels: []Channel{ChannelWhatsApp, ChannelEmail}, Urgent: true},
	},
}

// RoutesFor returns the notification routes for an event type. The policy
// is total over EventType; an unknown value returns no routes.
func RoutesFor(eventType EventType) []Route {
	return NotificationPolicy[eventType]
}
