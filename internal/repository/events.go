package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/deppfellow/turismo-api/internal/database"
	"github.com/deppfellow/turismo-api/internal/model/event"
)

const eventsTable = "events"

// eventInsertColumns are written by Create, in this order.
var eventInsertColumns = []string{
	"image", "alt", "title", "date", "date_event", "year",
	"description", "button_text", "event_name", "cities",
	"active_event", "ecommerce_link",
}

// EventFilter narrows List. Zero values contribute no clause.
type EventFilter struct {
	ActiveOnly bool
	Year       string
	Month      int
	Limit      int
}

type EventRepository struct {
	db Executor
}

func NewEventRepository(db Executor) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts the event and returns the stored row, or nil if the
// statement returned none.
func (r *EventRepository) Create(ctx context.Context, payload *event.CreateEventPayload) (*event.Event, error) {
	stmt := statementBuilder.
		Insert(eventsTable).
		Columns(eventInsertColumns...).
		Values(
			payload.Image,
			payload.Alt,
			payload.Title,
			deref(payload.Date),
			payload.DateEvent,
			payload.Year,
			payload.Description,
			deref(payload.ButtonText),
			payload.EventName,
			event.CleanCities(payload.Cities),
			payload.ActiveEvent == nil || *payload.ActiveEvent,
			nullable(payload.EcommerceLink),
		).
		Suffix("RETURNING *")

	row, err := queryOne(ctx, r.db, stmt)
	if err != nil {
		return nil, err
	}
	return eventFromRow(row)
}

// List returns events ordered by event date, filters joined with AND in a
// fixed order: active flag, year, month.
func (r *EventRepository) List(ctx context.Context, filter EventFilter) ([]event.Event, error) {
	stmt := statementBuilder.
		Select("*").
		From(eventsTable).
		Where("1=1")

	if filter.ActiveOnly {
		stmt = stmt.Where("active_event = TRUE")
	}
	if filter.Year != "" {
		stmt = stmt.Where("year = ?", filter.Year)
	}
	if filter.Month != 0 {
		stmt = stmt.Where("EXTRACT(MONTH FROM date_event) = ?", filter.Month)
	}

	stmt = stmt.
		OrderBy("date_event ASC").
		Suffix("LIMIT ?", filter.Limit)

	rows, err := queryAll(ctx, r.db, stmt)
	if err != nil {
		return nil, err
	}
	return eventsFromRows(rows)
}

// ListUpcoming returns active events dated today or later, by the
// database clock.
func (r *EventRepository) ListUpcoming(ctx context.Context, limit int) ([]event.Event, error) {
	stmt := statementBuilder.
		Select("*").
		From(eventsTable).
		Where("active_event = TRUE").
		Where("date_event >= CURRENT_DATE").
		OrderBy("date_event ASC").
		Suffix("LIMIT ?", limit)

	rows, err := queryAll(ctx, r.db, stmt)
	if err != nil {
		return nil, err
	}
	return eventsFromRows(rows)
}

// GetByID returns the event with the given id whether active or not, or
// nil when there is none.
func (r *EventRepository) GetByID(ctx context.Context, id int64) (*event.Event, error) {
	stmt := statementBuilder.
		Select("*").
		From(eventsTable).
		Where("id = ?", id)

	row, err := queryOne(ctx, r.db, stmt)
	if err != nil {
		return nil, err
	}
	return eventFromRow(row)
}

// Update applies the assignments in order and returns the updated row, or
// nil when the id does not exist. assignments must not be empty.
func (r *EventRepository) Update(ctx context.Context, id int64, assignments []event.Assignment) (*event.Event, error) {
	if len(assignments) == 0 {
		return nil, fmt.Errorf("update of event %d without assignments", id)
	}

	stmt := statementBuilder.Update(eventsTable)
	for _, a := range assignments {
		stmt = stmt.Set(a.Column, a.Value)
	}
	stmt = stmt.
		Where("id = ?", id).
		Suffix("RETURNING *")

	row, err := queryOne(ctx, r.db, stmt)
	if err != nil {
		return nil, err
	}
	return eventFromRow(row)
}

// SoftDelete marks the event inactive. It reports false when the id does
// not exist.
func (r *EventRepository) SoftDelete(ctx context.Context, id int64) (bool, error) {
	stmt := statementBuilder.
		Update(eventsTable).
		Set("active_event", sq.Expr("FALSE")).
		Where("id = ?", id).
		Suffix("RETURNING id")

	row, err := queryOne(ctx, r.db, stmt)
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

func eventFromRow(row *database.Row) (*event.Event, error) {
	if row == nil {
		return nil, nil
	}
	e, err := event.FromFields(row)
	if err != nil {
		return nil, fmt.Errorf("failed to read event row: %w", err)
	}
	return &e, nil
}

func eventsFromRows(rows []database.Row) ([]event.Event, error) {
	events := make([]event.Event, 0, len(rows))
	for _, row := range rows {
		e, err := event.FromFields(row)
		if err != nil {
			return nil, fmt.Errorf("failed to read event row: %w", err)
		}
		events = append(events, e)
	}
	return events, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// nullable turns a nil pointer into an untyped nil parameter (SQL NULL).
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
