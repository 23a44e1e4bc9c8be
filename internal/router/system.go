package router

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/turismo-api/internal/handler"
	"github.com/deppfellow/turismo-api/static"
)

// registerSystemRoutes registers endpoints that are not part of the
// business API: service metadata, liveness, dependency status and docs.
func registerSystemRoutes(r *echo.Echo, h *handler.Handlers) {
	r.GET("/", h.Root.Root)

	r.GET("/health", h.Health.Liveness)
	r.HEAD("/health", h.Health.Liveness)

	r.GET("/status", h.Health.CheckHealth)

	// openapi.json and openapi.html, embedded in the binary.
	r.StaticFS("/static", static.FS)

	r.GET("/docs", h.OpenAPI.ServeOpenAPIUI)
}
