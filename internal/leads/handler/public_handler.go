// Package handler exposes the leads module over HTTP.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	identityservice "introportal_backend/internal/identity/service"
	"introportal_backend/internal/leads/ports"
	"introportal_backend/internal/leads/service"
	"introportal_backend/internal/leads/transport"
	"introportal_backend/platform/apperr"
	"introportal_backend/platform/httpkit"
	"introportal_backend/platform/logger"
	"introportal_backend/platform/validator"
)

// PublicHandler serves the intake endpoints. Requests may be authenticated
// or carry a guest contact block.
type PublicHandler struct {
	svc      *service.Service
	resolver *identityservice.Resolver
	captcha  ports.CaptchaVerifier
	limiter  ports.RateLimiter
	validate *validator.Validator
	log      *logger.Logger
}

// NewPublicHandler creates the intake handler. captcha and limiter may be
// nil when those gates are not configured.
func NewPublicHandler(svc *service.Service, resolver *identityservice.Resolver, captcha ports.CaptchaVerifier, limiter ports.RateLimiter, validate *validator.Validator, log *logger.Logger) *PublicHandler {
	return &PublicHandler{
		svc:      svc,
		resolver: resolver,
		captcha:  captcha,
		limiter:  limiter,
		validate: validate,
		log:      log,
	}
}

// CreateLead handles POST /public/leads.
func (h *PublicHandler) CreateLead(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	resolution, ok := h.admitSubmission(c, req.Guest, req.CaptchaToken)
	if !ok {
		return
	}

	result, err := h.svc.CreateLead(c.Request.Context(), service.CreateLeadInput{
		ConsumerID:     resolution.ConsumerID,
		ListingID:      req.ListingID,
		Intake:         toIntakeDetails(req.Intake),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	status := http.StatusCreated
	if result.Outcome == service.OutcomeIdempotent {
		status = http.StatusOK
	}
	c.JSON(status, transport.CreateLeadResponse{
		LeadID:  result.Lead.ID,
		Outcome: result.Outcome,
	})
}

// CreateBatch handles POST /public/leads/batch.
func (h *PublicHandler) CreateBatch(c *gin.Context) {
	var req transport.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.HandleError(c, apperr.BadRequest("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpkit.HandleError(c, err)
		return
	}

	resolution, ok := h.admitSubmission(c, req.Guest, req.CaptchaToken)
	if !ok {
		return
	}

	result, err := h.svc.CreateBatch(c.Request.Context(), service.CreateBatchInput{
		ConsumerID:     resolution.ConsumerID,
		ListingIDs:     req.ListingIDs,
		Intake:         toIntakeDetails(req.Intake),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	createdIDs := make([]uuid.UUID, 0, len(result.Created))
	for _, lead := range result.Created {
		createdIDs = append(createdIDs, lead.ID)
	}
	skipped := make([]transport.SkippedTargetResponse, 0, len(result.Skipped))
	for _, skip := range result.Skipped {
		skipped = append(skipped, transport.SkippedTargetResponse{
			ListingID: skip.ListingID,
			Code:      skip.Code,
			Message:   skip.Message,
		})
	}

	c.JSON(http.StatusOK, transport.CreateBatchResponse{
		BatchID:        result.BatchID,
		CreatedLeadIDs: createdIDs,
		Skipped:        skipped,
	})
}

// admitSubmission runs the intake gates in order: captcha for guests,
// identity resolution, then the per-identity rate limit. Writes the error
// response itself and returns ok=false when the request must stop.
func (h *PublicHandler) admitSubmission(c *gin.Context, guest *transport.GuestContact, captchaToken string) (identityservice.Resolution, bool) {
	identity := httpkit.GetIdentity(c)

	input := identityservice.ResolveInput{}
	if identity.IsAuthenticated() {
		accountID := identity.UserID()
		input.AccountID = &accountID
	} else {
		if guest == nil {
			httpkit.HandleError(c, apperr.BadRequest("guest contact details are required without authentication"))
			return identityservice.Resolution{}, false
		}
		if h.captcha != nil {
			if err := h.captcha.Verify(c.Request.Context(), captchaToken, c.ClientIP()); err != nil {
				httpkit.HandleError(c, err)
				return identityservice.Resolution{}, false
			}
		}
		input.Guest = &identityservice.GuestContact{
			Email:     guest.Email,
			FirstName: guest.FirstName,
			LastName:  guest.LastName,
			Phone:     guest.Phone,
		}
	}

	resolution, err := h.resolver.Resolve(c.Request.Context(), input)
	if err != nil {
		httpkit.HandleError(c, err)
		return identityservice.Resolution{}, false
	}

	if h.limiter != nil {
		allowed, err := h.limiter.Allow(c.Request.Context(), resolution.RateLimitID)
		if err != nil {
			httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "rate limit check", err))
			return identityservice.Resolution{}, false
		}
		if !allowed {
			h.log.RateLimitExceeded(resolution.RateLimitID, c.Request.URL.Path)
			httpkit.HandleError(c, apperr.RateLimited("submission limit reached, try again later"))
			return identityservice.Resolution{}, false
		}
	}

	return resolution, true
}

func toIntakeDetails(payload transport.IntakePayload) service.IntakeDetails {
	return service.IntakeDetails{
		ProblemSummary:    payload.ProblemSummary,
		Goals:             payload.Goals,
		Timeline:          payload.Timeline,
		Budget:            payload.Budget,
		MeetingPreference: payload.MeetingPreference,
		PreferredTimes:    payload.PreferredTimes,
		Consent:           payload.Consent,
	}
}
