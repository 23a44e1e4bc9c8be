package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/deppfellow/turismo-api/internal/database"
	"github.com/deppfellow/turismo-api/internal/model/event"
	"github.com/deppfellow/turismo-api/internal/model/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	query  string
	params []any
}

// fakeExecutor records every statement and answers with canned rows.
type fakeExecutor struct {
	calls []call
	one   *database.Row
	all   []database.Row
	err   error
}

func (f *fakeExecutor) QueryOne(ctx context.Context, query string, params ...any) (*database.Row, error) {
	f.calls = append(f.calls, call{query, params})
	return f.one, f.err
}

func (f *fakeExecutor) QueryAll(ctx context.Context, query string, params ...any) ([]database.Row, error) {
	f.calls = append(f.calls, call{query, params})
	if f.all == nil && f.err == nil {
		return []database.Row{}, nil
	}
	return f.all, f.err
}

func (f *fakeExecutor) last() call {
	return f.calls[len(f.calls)-1]
}

func eventRow(id int64, title string) database.Row {
	columns := []string{
		"id", "image", "alt", "title", "date", "date_event", "year", "description",
		"button_text", "event_name", "cities", "active_event", "ecommerce_link",
		"created_at", "updated_at",
	}
	values := []any{
		id, "/img.jpg", "alt", title, "15 de Março", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), "2025",
		"Passeio pela serra.", "Reservar Vaga", "serra", []string{"Gramado"}, true, nil,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil,
	}
	return database.NewRow(columns, values)
}

func ptr[T any](v T) *T { return &v }

func TestEventCreate(t *testing.T) {
	row := eventRow(1, "Serra")
	db := &fakeExecutor{one: &row}

	created, err := NewEventRepository(db).Create(context.Background(), &event.CreateEventPayload{
		Image:       "/img.jpg",
		Alt:         "alt",
		Title:       "Serra",
		Date:        ptr("15 de Março"),
		DateEvent:   "2025-03-15",
		Year:        "2025",
		Description: "Passeio pela serra.",
		EventName:   "serra",
		ButtonText:  ptr("Reservar Vaga"),
		Cities:      []string{" Gramado ", ""},
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, int64(1), created.ID)

	c := db.last()
	assert.Equal(t,
		"INSERT INTO events (image,alt,title,date,date_event,year,description,button_text,event_name,cities,active_event,ecommerce_link) "+
			"VALUES (?,?,?,?,?,?,?,?,?,?,?,?) RETURNING *",
		c.query)
	assert.Equal(t, []any{
		"/img.jpg", "alt", "Serra", "15 de Março", "2025-03-15", "2025", "Passeio pela serra.",
		"Reservar Vaga", "serra", []string{"Gramado"}, true, nil,
	}, c.params)
}

func TestEventCreateNoRow(t *testing.T) {
	db := &fakeExecutor{}

	created, err := NewEventRepository(db).Create(context.Background(), &event.CreateEventPayload{Date: ptr("x")})
	require.NoError(t, err)
	assert.Nil(t, created)
}

func TestEventList(t *testing.T) {
	tests := []struct {
		name   string
		filter EventFilter
		query  string
		params []any
	}{
		{
			name:   "no filters",
			filter: EventFilter{Limit: 100},
			query:  "SELECT * FROM events WHERE 1=1 ORDER BY date_event ASC LIMIT ?",
			params: []any{100},
		},
		{
			name:   "all filters",
			filter: EventFilter{ActiveOnly: true, Year: "2025", Month: 3, Limit: 10},
			query:  "SELECT * FROM events WHERE 1=1 AND active_event = TRUE AND year = ? AND EXTRACT(MONTH FROM date_event) = ? ORDER BY date_event ASC LIMIT ?",
			params: []any{"2025", 3, 10},
		},
		{
			name:   "month only",
			filter: EventFilter{Month: 12, Limit: 5},
			query:  "SELECT * FROM events WHERE 1=1 AND EXTRACT(MONTH FROM date_event) = ? ORDER BY date_event ASC LIMIT ?",
			params: []any{12, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &fakeExecutor{all: []database.Row{eventRow(1, "Serra"), eventRow(2, "Praia")}}

			events, err := NewEventRepository(db).List(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Len(t, events, 2)
			assert.Equal(t, tt.query, db.last().query)
			assert.Equal(t, tt.params, db.last().params)
		})
	}
}

func TestEventListEmptyIsNotNil(t *testing.T) {
	events, err := NewEventRepository(&fakeExecutor{}).List(context.Background(), EventFilter{Limit: 1})
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.Empty(t, events)
}

func TestEventListUpcoming(t *testing.T) {
	db := &fakeExecutor{}

	_, err := NewEventRepository(db).ListUpcoming(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT * FROM events WHERE active_event = TRUE AND date_event >= CURRENT_DATE ORDER BY date_event ASC LIMIT ?",
		db.last().query)
	assert.Equal(t, []any{10}, db.last().params)
}

func TestEventGetByID(t *testing.T) {
	row := eventRow(4, "Serra")
	db := &fakeExecutor{one: &row}

	e, err := NewEventRepository(db).GetByID(context.Background(), 4)
	require.NoError(t, err)
	require.NotNil(t, e)
	assert.Equal(t, "SELECT * FROM events WHERE id = ?", db.last().query)
	assert.Equal(t, []any{int64(4)}, db.last().params)

	db.one = nil
	e, err = NewEventRepository(db).GetByID(context.Background(), 5)
	require.NoError(t, err)
	assert.Nil(t, e)
}

func TestEventUpdate(t *testing.T) {
	row := eventRow(4, "Nova")
	db := &fakeExecutor{one: &row}

	updated, err := NewEventRepository(db).Update(context.Background(), 4, []event.Assignment{
		{Column: "title", Value: "Nova"},
		{Column: "ecommerce_link", Value: nil},
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "UPDATE events SET title = ?, ecommerce_link = ? WHERE id = ? RETURNING *", db.last().query)
	assert.Equal(t, []any{"Nova", nil, int64(4)}, db.last().params)
}

func TestEventUpdateWithoutAssignments(t *testing.T) {
	db := &fakeExecutor{}

	_, err := NewEventRepository(db).Update(context.Background(), 4, nil)
	assert.Error(t, err)
	assert.Empty(t, db.calls)
}

func TestEventSoftDelete(t *testing.T) {
	row := database.NewRow([]string{"id"}, []any{int64(4)})
	db := &fakeExecutor{one: &row}

	found, err := NewEventRepository(db).SoftDelete(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "UPDATE events SET active_event = FALSE WHERE id = ? RETURNING id", db.last().query)
	assert.Equal(t, []any{int64(4)}, db.last().params)

	db.one = nil
	found, err = NewEventRepository(db).SoftDelete(context.Background(), 99)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestEventRepositoryPassesErrors(t *testing.T) {
	boom := errors.New("boom")
	db := &fakeExecutor{err: boom}

	_, err := NewEventRepository(db).GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, boom)
}

func ratingRow(id int64, score int32) database.Row {
	return database.NewRow(
		[]string{"id", "event_name", "reviewer_name", "score", "comment", "created_at"},
		[]any{id, "serra", "Ana", score, "Ótimo", time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
	)
}

func TestRatingCreate(t *testing.T) {
	row := ratingRow(1, 0)
	db := &fakeExecutor{one: &row}

	created, err := NewRatingRepository(db).Create(context.Background(), &rating.CreateRatingPayload{
		EventName:    "serra",
		ReviewerName: "Ana",
		Score:        ptr(0),
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 0, created.Score)

	assert.Equal(t, "INSERT INTO ratings (event_name,reviewer_name,score,comment) VALUES (?,?,?,?) RETURNING *", db.last().query)
	assert.Equal(t, []any{"serra", "Ana", 0, nil}, db.last().params)
}

func TestRatingList(t *testing.T) {
	db := &fakeExecutor{all: []database.Row{ratingRow(2, 5), ratingRow(1, 3)}}

	ratings, err := NewRatingRepository(db).List(context.Background(), 100)
	require.NoError(t, err)
	assert.Len(t, ratings, 2)
	assert.Equal(t, "SELECT * FROM ratings ORDER BY created_at DESC LIMIT ?", db.last().query)
	assert.Equal(t, []any{100}, db.last().params)
}

func TestRatingListByEvent(t *testing.T) {
	db := &fakeExecutor{}

	ratings, err := NewRatingRepository(db).ListByEvent(context.Background(), "serra")
	require.NoError(t, err)
	assert.Empty(t, ratings)
	assert.Equal(t, "SELECT * FROM ratings WHERE event_name = ? ORDER BY created_at DESC", db.last().query)
	assert.Equal(t, []any{"serra"}, db.last().params)
}

func TestRatingStats(t *testing.T) {
	row := database.NewRow(
		[]string{"total_ratings", "avg_rating", "max_rating", "min_rating"},
		[]any{int64(2), 4.5, int32(5), int32(4)},
	)
	db := &fakeExecutor{one: &row}

	stats, err := NewRatingRepository(db).Stats(context.Background(), "serra")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, rating.Stats{EventName: "serra", TotalRatings: 2, AvgRating: 4.5, MaxRating: 5, MinRating: 4}, *stats)
	assert.Equal(t,
		"SELECT COUNT(*) AS total_ratings, AVG(score)::float8 AS avg_rating, MAX(score) AS max_rating, MIN(score) AS min_rating FROM ratings WHERE event_name = ?",
		db.last().query)
}
