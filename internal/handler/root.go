package handler

import (
	"net/http"

	"github.com/deppfellow/turismo-api/internal/server"
	"github.com/labstack/echo/v4"
)

// RootHandler reports what this service is.
type RootHandler struct {
	Handler
}

func NewRootHandler(s *server.Server) *RootHandler {
	return &RootHandler{
		Handler: NewHandler(s),
	}
}

// ServiceInfo is the body of GET /.
type ServiceInfo struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	Status   string `json:"status"`
	Database string `json:"database"`
	Docs     string `json:"docs"`
}

func (h *RootHandler) Root(c echo.Context) error {
	app := h.server.Config.App
	return c.JSON(http.StatusOK, ServiceInfo{
		Name:     app.Name,
		Version:  app.Version,
		Status:   "online",
		Database: app.DatabaseName,
		Docs:     "/docs",
	})
}
