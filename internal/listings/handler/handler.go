// Package handler exposes the listings module over HTTP.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"introportal_backend/internal/listings/service"
	"introportal_backend/internal/listings/transport"
	"introportal_backend/platform/apperr"
	"introportal_backend/platform/httpkit"
	"introportal_backend/platform/logger"
	"introportal_backend/platform/validator"
)

// Handler serves the listing endpoints.
type Handler struct {
	svc      *service.Service
	validate *validator.Validator
	log      *logger.Logger
}

// New creates the listings handler.
func New(svc *service.Service, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{svc: svc, validate: validate, log: log}
}

// List handles GET /listings.
func (h *Handler) List(c *gin.Context) {
	limit := intQuery(c, "limit", 25)
	offset := intQuery(c, "offset", 0)

	listings, total, err := h.svc.ListActive(c.Request.Context(), limit, offset)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	responses := make([]transport.ListingResponse, 0, len(listings))
	for _, listing := range listings {
		responses = append(responses, transport.ToListingResponse(listing))
	}

	c.JSON(http.StatusOK, transport.ListListingsResponse{
		Listings: responses,
		Total:    total,
		Limit:    limit,
		Offset:   offset,
	})
}

// Get handles GET /listings/:id.
func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid listing id"))
		return
	}

	listing, err := h.svc.GetActive(c.Request.Context(), id)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, transport.ToListingResponse(listing))
}

// Create handles POST /admin/listings.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	listing, err := h.svc.Create(c.Request.Context(), req.ProviderID, req.Title, req.Description)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, transport.ToListingResponse(listing))
}

// SetActive handles PATCH /admin/listings/:id/active.
func (h *Handler) SetActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid listing id"))
		return
	}

	var req transport.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	listing, err := h.svc.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, transport.ToListingResponse(listing))
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
