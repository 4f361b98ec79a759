package intake

import (
	apphttp "propcare_backend/internal/http"
)

// Module represents the intake module: the inbound webhook pipeline.
type Module struct {
	handler *Handler
}

// NewModule wraps an already-wired service in the module interface. The
// composition root builds the service because its dependencies span most
// of the application.
func NewModule(h *Handler) *Module {
	return &Module{handler: h}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "intake"
}

// RegisterRoutes registers the webhook routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Webhooks)
}
