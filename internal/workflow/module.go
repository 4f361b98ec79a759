// Package workflow provides the ticket workflow domain module: the state
// machine owning ticket and quote lifecycle.
package workflow

import (
	"propcare_backend/internal/contractors"
	"propcare_backend/internal/events"
	apphttp "propcare_backend/internal/http"
	"propcare_backend/internal/workflow/handler"
	"propcare_backend/internal/workflow/repository"
	"propcare_backend/internal/workflow/service"
	"propcare_backend/platform/logger"
	"propcare_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the workflow domain module.
type Module struct {
	handler     *handler.Handler
	service     *service.Service
	repo        *repository.Repository
	contractors *contractors.Repository
}

// contractorPool adapts the contractors matcher and repository to the
// engine's ContractorPool interface.
type contractorPool struct {
	*contractors.Matcher
	*contractors.Repository
}

// NewModule creates a new workflow module with all dependencies wired.
func NewModule(pool *pgxpool.Pool, eventBus *events.InMemoryBus, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	contractorRepo := contractors.New(pool)
	matcher := contractors.NewMatcher(contractorRepo)
	svc := service.New(repo, contractorPool{matcher, contractorRepo}, eventBus, log)
	h := handler.New(svc, val)

	return &Module{handler: h, service: svc, repo: repo, contractors: contractorRepo}
}

// Name returns the module name for logging.
func (m *Module) Name() string {
	return "workflow"
}

// Service returns the workflow engine for other modules (intake).
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the workflow repository, used by the notification
// worker to resolve audit events.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// Contractors returns the contractor repository, shared with the directory
// service and the notification worker.
func (m *Module) Contractors() *contractors.Repository {
	return m.contractors
}

// RegisterRoutes registers the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	tickets := ctx.Protected.Group("/tickets")
	m.handler.RegisterRoutes(tickets)
}
