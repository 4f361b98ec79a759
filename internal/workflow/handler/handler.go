// Package handler exposes the property manager's internal ticket API.
package handler

import (
	"net/http"
	"strconv"
	"time"

	"propcare_backend/internal/workflow/domain"
	"propcare_backend/internal/workflow/repository"
	"propcare_backend/internal/workflow/service"
	"propcare_backend/internal/workflow/transport"
	"propcare_backend/platform/httpkit"
	"propcare_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
)

// Handler handles HTTP requests for the ticket workflow.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new workflow handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the ticket routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.POST("", h.Create)
	rg.GET("/:id", h.GetByID)
	rg.GET("/number/:number", h.GetByNumber)
	rg.GET("/:id/events", h.ListEvents)
	rg.GET("/:id/quotes", h.ListQuotes)
	rg.POST("/:id/assign", h.Assign)
	rg.POST("/:id/approve", h.Approve)
	rg.POST("/:id/reject", h.Reject)
	rg.POST("/:id/start", h.Start)
	rg.POST("/:id/complete", h.Complete)
	rg.POST("/:id/escalate", h.Escalate)
}

func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	priority := domain.Priority(req.Priority)
	if req.Priority == "" {
		priority = domain.PriorityMedium
	}
	ticket, err := h.svc.CreateTicket(c.Request.Context(), service.CreateTicketParams{
		TenantID:    req.TenantID,
		PropertyID:  req.PropertyID,
		Category:    domain.Category(req.Category),
		Subject:     req.Subject,
		Description: req.Description,
		Priority:    priority,
		IsEmergency: req.IsEmergency,
		Attachments: req.Attachments,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.FromTicket(ticket))
}

func (h *Handler) List(c *gin.Context) {
	params := repository.ListParams{}
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		params.Status = &status
	}
	if v := c.Query("workflowStatus"); v != "" {
		status := domain.WorkflowStatus(v)
		params.WorkflowStatus = &status
	}
	if v := c.Query("category"); v != "" {
		category := domain.Category(v)
		params.Category = &category
	}
	if v := c.Query("contractorId"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		params.ContractorID = &id
	}
	params.Page = intQuery(c, "page", 1)
	params.PageSize = intQuery(c, "pageSize", 20)

	result, err := h.svc.ListTickets(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromListResult(result))
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ticket, err := h.svc.GetTicket(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromTicket(ticket))
}

func (h *Handler) GetByNumber(c *gin.Context) {
	ticket, err := h.svc.GetTicketByNumber(c.Request.Context(), c.Param("number"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromTicket(ticket))
}

func (h *Handler) ListEvents(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	evs, err := h.svc.ListTicketEvents(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.EventResponse, 0, len(evs))
	for i := range evs {
		out = append(out, transport.FromEvent(&evs[i]))
	}
	httpkit.OK(c, out)
}

func (h *Handler) ListQuotes(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	quotes, err := h.svc.ListTicketQuotes(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	out := make([]transport.QuoteResponse, 0, len(quotes))
	for i := range quotes {
		out = append(out, transport.FromQuote(&quotes[i]))
	}
	httpkit.OK(c, out)
}

func (h *Handler) Assign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ticket, err := h.svc.AssignContractor(c.Request.Context(), id, domain.ActorPropertyManager)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromTicket(ticket))
}

func (h *Handler) Approve(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transport.ApproveQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	params := service.ApproveQuoteParams{TimeSlot: req.TimeSlot}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
			return
		}
		params.Date = &date
	}

	ticket, err := h.svc.ApproveQuote(c.Request.Context(), id, params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromTicket(ticket))
}

func (h *Handler) Reject(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transport.RejectQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ticket, err := h.svc.RejectQuote(c.Request.Context(), id, req.Reason, req.Reassign)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromTicket(ticket))
}

func (h *Handler) Start(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	ticket, err := h.svc.StartWork(c.Request.Context(), id, domain.ActorPropertyManager)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromTicket(ticket))
}

func (h *Handler) Complete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transport.CompleteWorkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	ticket, err := h.svc.CompleteWork(c.Request.Context(), id, req.Notes, req.FinalAmountPence, domain.ActorPropertyManager)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromTicket(ticket))
}

func (h *Handler) Escalate(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req transport.EscalateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}

	if err := h.svc.Escalate(c.Request.Context(), id, req.Reason, domain.ActorPropertyManager); httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"status": "escalated"})
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return uuid.Nil, false
	}
	return id, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	n, err := strconv.Atoi(c.Query(name))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
