package intake

import (
	"net/http"

	"propcare_backend/platform/httpkit"
	"propcare_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

// inboundRequest is the gateway webhook payload. Channel defaults to
// whatsapp, which is where the shared inbound number lives.
type inboundRequest struct {
	From      string   `json:"from" validate:"required"`
	Body      string   `json:"body"`
	Channel   string   `json:"channel" validate:"omitempty,oneof=whatsapp sms"`
	MediaURLs []string `json:"mediaUrls"`
}

// Handler exposes the inbound webhook.
type Handler struct {
	svc *Service
	val *validator.Validator
}

// NewHandler creates the intake handler.
func NewHandler(svc *Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes mounts the webhook endpoints on the unauthenticated
// webhook group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/inbound", h.Inbound)
}

// Inbound handles one gateway delivery. The response always carries the
// reply text for the gateway to send back to the sender; processing
// failures surface as an apology reply, never as a 5xx, so gateways don't
// redeliver messages we already answered.
func (h *Handler) Inbound(c *gin.Context) {
	var req inboundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	channel := req.Channel
	if channel == "" {
		channel = "whatsapp"
	}

	reply := h.svc.HandleInbound(c.Request.Context(), InboundMessage{
		DeliveryID: c.GetHeader("X-Delivery-Id"),
		Channel:    channel,
		From:       req.From,
		Body:       req.Body,
		MediaURLs:  req.MediaURLs,
	})

	httpkit.OK(c, gin.H{"reply": reply})
}
