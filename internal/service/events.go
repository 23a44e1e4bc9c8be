package service

import (
	"context"
	"fmt"

	"github.com/deppfellow/turismo-api/internal/errs"
	"github.com/deppfellow/turismo-api/internal/middleware"
	"github.com/deppfellow/turismo-api/internal/model/event"
	"github.com/deppfellow/turismo-api/internal/repository"
	"github.com/deppfellow/turismo-api/internal/server"
)

type EventService struct {
	server *server.Server
	repo   *repository.EventRepository
}

func NewEventService(s *server.Server, repo *repository.EventRepository) *EventService {
	return &EventService{
		server: s,
		repo:   repo,
	}
}

func (s *EventService) Create(ctx context.Context, payload *event.CreateEventPayload) (*event.Event, error) {
	created, err := s.repo.Create(ctx, payload)
	if err != nil {
		return nil, err
	}
	// RETURNING * always yields the row; an empty result is reported as a
	// client error, not a server one.
	if created == nil {
		return nil, errs.NewBadRequestError("Failed to create event", false, nil, nil)
	}
	return created, nil
}

func (s *EventService) List(ctx context.Context, payload *event.ListEventsPayload) ([]event.Event, error) {
	return s.repo.List(ctx, repository.EventFilter{
		ActiveOnly: payload.ActiveOnly,
		Year:       payload.Year,
		Month:      payload.Month,
		Limit:      payload.EffectiveLimit(),
	})
}

func (s *EventService) ListUpcoming(ctx context.Context, payload *event.ListUpcomingPayload) ([]event.Event, error) {
	return s.repo.ListUpcoming(ctx, payload.EffectiveLimit())
}

func (s *EventService) GetByID(ctx context.Context, id int64) (*event.Event, error) {
	found, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, eventNotFound(id)
	}
	return found, nil
}

// Update applies only the fields present in the payload. An empty payload
// never reaches the database.
func (s *EventService) Update(ctx context.Context, payload *event.UpdateEventPayload) (*event.Event, error) {
	if payload.Empty() {
		return nil, errs.NewBadRequestError("No fields to update", false, nil, nil)
	}

	assignments := payload.Assignments()

	columns := make([]string, len(assignments))
	for i, a := range assignments {
		columns[i] = a.Column
	}
	middleware.LoggerFromContext(ctx).Debug().
		Int64("event_id", payload.ID).
		Strs("columns", columns).
		Msg("updating event")

	updated, err := s.repo.Update(ctx, payload.ID, assignments)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, eventNotFound(payload.ID)
	}
	return updated, nil
}

// Delete deactivates the event. The row stays fetchable by id.
func (s *EventService) Delete(ctx context.Context, id int64) error {
	found, err := s.repo.SoftDelete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return eventNotFound(id)
	}
	return nil
}

func eventNotFound(id int64) error {
	code := "EVENT_NOT_FOUND"
	return errs.NewNotFoundError(fmt.Sprintf("Event %d not found", id), false, &code)
}
