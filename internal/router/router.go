// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/turismo-api/internal/handler"
	"github.com/deppfellow/turismo-api/internal/middleware"
	"github.com/deppfellow/turismo-api/internal/server"
)

// NewRouter builds the Echo instance: global middleware, the error
// handler, system routes and the versioned API group.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	// Order matters: the request id must exist before the context logger is
	// built, and Recover sits innermost so a panic still gets logged and
	// timed by everything above it.
	router.Use(
		middlewares.Global.ProcessTime(),
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middlewares.Global.RequestLogger(),
		middlewares.RateLimit.Limit(),
		middlewares.Global.Recover(),
	)

	registerSystemRoutes(router, h)

	api := router.Group(s.Config.Server.APIPrefix)
	registerAPIRoutes(api, h)

	return router
}
