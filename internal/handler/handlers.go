package handler

import (
	"io/fs"

	"github.com/deppfellow/turismo-api/internal/server"
	"github.com/deppfellow/turismo-api/internal/service"
)

// Handlers is a container that groups all HTTP handlers.
type Handlers struct {
	Root    *RootHandler
	Health  *HealthHandler
	OpenAPI *OpenAPIHandler
	Events  *EventHandler
	Ratings *RatingHandler
}

// NewHandlers constructs the handler container. assets holds the docs
// UI and the OpenAPI document.
func NewHandlers(s *server.Server, services *service.Services, assets fs.FS) *Handlers {
	return &Handlers{
		Root:    NewRootHandler(s),
		Health:  NewHealthHandler(s),
		OpenAPI: NewOpenAPIHandler(s, assets),
		Events:  NewEventHandler(s, services.Events),
		Ratings: NewRatingHandler(s, services.Ratings),
	}
}
