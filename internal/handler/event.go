package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/deppfellow/turismo-api/internal/model/event"
	"github.com/deppfellow/turismo-api/internal/server"
	"github.com/deppfellow/turismo-api/internal/service"
)

type EventHandler struct {
	Handler
	eventService *service.EventService
}

func NewEventHandler(s *server.Server, eventService *service.EventService) *EventHandler {
	return &EventHandler{
		Handler:      NewHandler(s),
		eventService: eventService,
	}
}

func (h *EventHandler) CreateEvent(c echo.Context, payload *event.CreateEventPayload) (*event.Event, error) {
	return h.eventService.Create(c.Request().Context(), payload)
}

func (h *EventHandler) ListEvents(c echo.Context, payload *event.ListEventsPayload) ([]event.Event, error) {
	return h.eventService.List(c.Request().Context(), payload)
}

func (h *EventHandler) ListUpcomingEvents(c echo.Context, payload *event.ListUpcomingPayload) ([]event.Event, error) {
	return h.eventService.ListUpcoming(c.Request().Context(), payload)
}

func (h *EventHandler) GetEvent(c echo.Context, payload *event.EventIDPayload) (*event.Event, error) {
	return h.eventService.GetByID(c.Request().Context(), payload.ID)
}

func (h *EventHandler) UpdateEvent(c echo.Context, payload *event.UpdateEventPayload) (*event.Event, error) {
	return h.eventService.Update(c.Request().Context(), payload)
}

func (h *EventHandler) DeleteEvent(c echo.Context, payload *event.EventIDPayload) error {
	return h.eventService.Delete(c.Request().Context(), payload.ID)
}
