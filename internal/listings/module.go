// Package listings wires the listing bounded context.
package listings

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"introportal_backend/internal/http"
	"introportal_backend/internal/listings/handler"
	"introportal_backend/internal/listings/repository"
	"introportal_backend/internal/listings/service"
	"introportal_backend/platform/logger"
	"introportal_backend/platform/validator"
)

// Module bundles the listings repository, service, and handler.
type Module struct {
	svc     *service.Service
	handler *handler.Handler
}

// NewModule constructs the listings module.
func NewModule(pool *pgxpool.Pool, validate *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log)

	return &Module{
		svc:     svc,
		handler: handler.New(svc, validate, log),
	}
}

// Name implements http.Module.
func (m *Module) Name() string { return "listings" }

// Service exposes the listing service so the leads module can resolve
// intake targets.
func (m *Module) Service() *service.Service { return m.svc }

// RegisterRoutes implements http.Module.
func (m *Module) RegisterRoutes(ctx *http.RouterContext) {
	public := ctx.V1.Group("/listings")
	public.GET("", m.handler.List)
	public.GET("/:id", m.handler.Get)

	admin := ctx.Admin.Group("/listings")
	admin.POST("", m.handler.Create)
	admin.PATCH("/:id/active", m.handler.SetActive)
}
