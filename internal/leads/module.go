// Package leads wires the lead intake and lifecycle bounded context.
package leads

import (
	"introportal_backend/internal/conversations"
	"introportal_backend/internal/events"
	"introportal_backend/internal/http"
	identityservice "introportal_backend/internal/identity/service"
	"introportal_backend/internal/leads/handler"
	"introportal_backend/internal/leads/ports"
	"introportal_backend/internal/leads/repository"
	"introportal_backend/internal/leads/service"
	"introportal_backend/platform/logger"
	"introportal_backend/platform/validator"
)

// Module bundles the leads repository, service, and handlers.
type Module struct {
	svc      *service.Service
	public   *handler.PublicHandler
	provider *handler.Handler
}

// NewModule constructs the leads module. captcha and limiter may be nil
// when those gates are not configured.
func NewModule(
	db repository.DB,
	resolver *identityservice.Resolver,
	listings ports.ListingReader,
	captcha ports.CaptchaVerifier,
	limiter ports.RateLimiter,
	bus events.Bus,
	validate *validator.Validator,
	log *logger.Logger,
) *Module {
	repo := repository.New(db)
	svc := service.New(repo, conversations.New(db), listings, bus, log)

	return &Module{
		svc:      svc,
		public:   handler.NewPublicHandler(svc, resolver, captcha, limiter, validate, log),
		provider: handler.New(svc, validate, log),
	}
}

// Name implements http.Module.
func (m *Module) Name() string { return "leads" }

// Service exposes the lead service for non-HTTP consumers such as the
// stale-lead sweep.
func (m *Module) Service() *service.Service { return m.svc }

// RegisterRoutes implements http.Module.
func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	public := ctx.V1.Group("/public/leads")
	public.Use(ctx.OptionalAuth)
	public.POST("", m.public.CreateLead)
	public.POST("/batch", m.public.CreateBatch)

	leads := ctx.Protected.Group("/leads")
	leads.GET("", m.provider.List)
	leads.GET("/:id", m.provider.Get)
	leads.GET("/:id/conversation", m.provider.GetConversation)
	leads.POST("/:id/accept", m.provider.Accept)
	leads.POST("/:id/decline", m.provider.Decline)
	leads.PATCH("/:id/status", m.provider.UpdateStatus)
}
