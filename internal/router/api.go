package router

import (
	"net/http"

	"github.com/deppfellow/turismo-api/internal/handler"
	"github.com/deppfellow/turismo-api/internal/model/event"
	"github.com/deppfellow/turismo-api/internal/model/rating"
	"github.com/labstack/echo/v4"
)

func registerAPIRoutes(api *echo.Group, h *handler.Handlers) {
	api.GET("/ping", h.Health.Ping)

	events := api.Group("/events")
	events.POST("", handler.Handle(h.Events.Handler, h.Events.CreateEvent, http.StatusCreated, &event.CreateEventPayload{}))
	events.GET("", handler.Handle(h.Events.Handler, h.Events.ListEvents, http.StatusOK, &event.ListEventsPayload{}))
	// Static segment, matched before /:id.
	events.GET("/upcoming", handler.Handle(h.Events.Handler, h.Events.ListUpcomingEvents, http.StatusOK, &event.ListUpcomingPayload{}))
	events.GET("/:id", handler.Handle(h.Events.Handler, h.Events.GetEvent, http.StatusOK, &event.EventIDPayload{}))
	events.PUT("/:id", handler.Handle(h.Events.Handler, h.Events.UpdateEvent, http.StatusOK, &event.UpdateEventPayload{}))
	events.DELETE("/:id", handler.HandleNoContent(h.Events.Handler, h.Events.DeleteEvent, http.StatusNoContent, &event.EventIDPayload{}))

	ratings := api.Group("/ratings")
	ratings.POST("", handler.Handle(h.Ratings.Handler, h.Ratings.CreateRating, http.StatusCreated, &rating.CreateRatingPayload{}))
	ratings.GET("", handler.Handle(h.Ratings.Handler, h.Ratings.ListRatings, http.StatusOK, &rating.ListRatingsPayload{}))
	ratings.GET("/event/:event_name", handler.Handle(h.Ratings.Handler, h.Ratings.ListEventRatings, http.StatusOK, &rating.EventNamePayload{}))
	ratings.GET("/stats/:event_name", handler.Handle(h.Ratings.Handler, h.Ratings.GetRatingStats, http.StatusOK, &rating.EventNamePayload{}))
}
