// Package router assembles the Gin engine from the application's modules.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	apphttp "introportal_backend/internal/http"
	"introportal_backend/platform/httpkit"
)

// New builds the HTTP engine: global middleware, health endpoint, versioned
// route groups, and every module's routes.
func New(app *apphttp.App) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(httpkit.RequestLogger(app.Logger))
	engine.Use(httpkit.SecurityHeaders())
	engine.Use(corsMiddleware(app))

	globalLimiter := httpkit.NewIPRateLimiter(rate.Limit(50), 100, app.Logger)
	engine.Use(globalLimiter.RateLimit())

	engine.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := app.Health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authMiddleware := httpkit.AuthRequired(app.Config)
	optionalAuth := httpkit.AuthOptional(app.Config)

	v1 := engine.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(authMiddleware)
	admin := v1.Group("/admin")
	admin.Use(authMiddleware, httpkit.RequireRole("admin"))

	routerCtx := &apphttp.RouterContext{
		Engine:         engine,
		V1:             v1,
		Protected:      protected,
		Admin:          admin,
		Config:         app.Config,
		AuthMiddleware: authMiddleware,
		OptionalAuth:   optionalAuth,
	}

	for _, module := range app.Modules {
		module.RegisterRoutes(routerCtx)
		app.Logger.Info("registered module routes", "module", module.Name())
	}

	return engine
}

func corsMiddleware(app *apphttp.App) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: app.Config.GetCORSAllowCreds(),
		MaxAge:           12 * time.Hour,
	}

	if app.Config.GetCORSAllowAll() {
		corsConfig.AllowAllOrigins = true
		corsConfig.AllowCredentials = false
	} else {
		corsConfig.AllowOrigins = app.Config.GetCORSOrigins()
	}

	return cors.New(corsConfig)
}
