package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"introportal_backend/internal/leads/domain"
	"introportal_backend/internal/leads/service"
	"introportal_backend/internal/leads/transport"
	"introportal_backend/platform/apperr"
	"introportal_backend/platform/httpkit"
	"introportal_backend/platform/logger"
	"introportal_backend/platform/validator"
)

// Handler serves the provider-facing lead endpoints.
type Handler struct {
	svc      *service.Service
	validate *validator.Validator
	log      *logger.Logger
}

// New creates the provider lead handler.
func New(svc *service.Service, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, validate: validate, log: log}
}

// Accept handles POST /leads/:id/accept.
func (h *Handler) Accept(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	result, err := h.svc.Accept(c.Request.Context(), leadID, identity.UserID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, transport.AcceptResponse{
		Lead:           transport.ToLeadResponse(result.Lead),
		ConversationID: result.Conversation.ID,
	})
}

// Decline handles POST /leads/:id/decline.
func (h *Handler) Decline(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.DeclineRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
			return
		}
		if err := h.validate.Struct(req); err != nil {
			httpkit.HandleError(c, err)
			return
		}
	}

	lead, err := h.svc.Decline(c.Request.Context(), leadID, identity.UserID(), req.Reason)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, transport.ToLeadResponse(lead))
}

// UpdateStatus handles PATCH /leads/:id/status.
func (h *Handler) UpdateStatus(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	lead, err := h.svc.UpdateStatus(c.Request.Context(), service.UpdateStatusInput{
		LeadID:          leadID,
		ActorID:         identity.UserID(),
		ExpectedVersion: req.ExpectedVersion,
		NewStatus:       domain.Status(req.Status),
		DeclineReason:   req.DeclineReason,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, transport.ToLeadResponse(lead))
}

// Get handles GET /leads/:id.
func (h *Handler) Get(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	lead, err := h.svc.GetLead(c.Request.Context(), leadID, identity.UserID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, transport.ToLeadResponse(lead))
}

// GetConversation handles GET /leads/:id/conversation.
func (h *Handler) GetConversation(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	leadID, ok := parseLeadID(c)
	if !ok {
		return
	}

	conv, err := h.svc.GetConversation(c.Request.Context(), leadID, identity.UserID())
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, transport.ToConversationResponse(conv))
}

// List handles GET /leads?providerId=&status=&limit=&offset=.
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	providerID, err := uuid.Parse(c.Query("providerId"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("providerId is required"))
		return
	}

	var status *domain.Status
	if raw := c.Query("status"); raw != "" {
		parsed := domain.Status(raw)
		if !parsed.IsKnown() {
			httpkit.HandleError(c, apperr.Validation("unknown status filter"))
			return
		}
		status = &parsed
	}

	limit := intQuery(c, "limit", 25)
	offset := intQuery(c, "offset", 0)

	leads, total, err := h.svc.ListLeads(c.Request.Context(), providerID, identity.UserID(), status, limit, offset)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	responses := make([]transport.LeadResponse, 0, len(leads))
	for _, lead := range leads {
		responses = append(responses, transport.ToLeadResponse(lead))
	}

	c.JSON(http.StatusOK, transport.ListLeadsResponse{
		Leads:  responses,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

func parseLeadID(c *gin.Context) (uuid.UUID, bool) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid lead id"))
		return uuid.Nil, false
	}
	return leadID, true
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
