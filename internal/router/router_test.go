package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/deppfellow/turismo-api/internal/config"
	"github.com/deppfellow/turismo-api/internal/database"
	"github.com/deppfellow/turismo-api/internal/handler"
	"github.com/deppfellow/turismo-api/internal/logger"
	"github.com/deppfellow/turismo-api/internal/middleware"
	"github.com/deppfellow/turismo-api/internal/repository"
	"github.com/deppfellow/turismo-api/internal/server"
	"github.com/deppfellow/turismo-api/internal/service"
	"github.com/deppfellow/turismo-api/static"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// result is what the fake database answers for one statement.
type result struct {
	columns []string
	rows    [][]any
	err     error
}

type scriptedRows struct {
	result
	pos int
}

func (r *scriptedRows) Close()                        {}
func (r *scriptedRows) Err() error                    { return nil }
func (r *scriptedRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *scriptedRows) RawValues() [][]byte           { return nil }
func (r *scriptedRows) Conn() *pgx.Conn               { return nil }
func (r *scriptedRows) Scan(dest ...any) error        { return errors.New("not supported") }
func (r *scriptedRows) Values() ([]any, error)        { return r.rows[r.pos-1], nil }

func (r *scriptedRows) FieldDescriptions() []pgconn.FieldDescription {
	fields := make([]pgconn.FieldDescription, len(r.columns))
	for i, name := range r.columns {
		fields[i] = pgconn.FieldDescription{Name: name}
	}
	return fields
}

func (r *scriptedRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

// fakeDB answers statements by their leading SQL text. A statement whose
// prefix is in then changes the answers given to later statements.
type fakeDB struct {
	mu      sync.Mutex
	answers map[string]result
	then    map[string]func(answers map[string]result)
	seen    []string
}

func (f *fakeDB) connect(ctx context.Context) (database.Conn, error) {
	return &fakeConn{db: f}, nil
}

func (f *fakeDB) answer(sql string) result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seen = append(f.seen, sql)

	var res result
	for prefix, r := range f.answers {
		if strings.HasPrefix(sql, prefix) {
			res = r
			break
		}
	}
	for prefix, change := range f.then {
		if strings.HasPrefix(sql, prefix) {
			change(f.answers)
		}
	}
	return res
}

type fakeConn struct {
	db *fakeDB
}

func (c *fakeConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	res := c.db.answer(sql)
	if res.err != nil {
		return nil, res.err
	}
	return &scriptedRows{result: res}, nil
}

func (c *fakeConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, c.db.answer(sql).err
}

func (c *fakeConn) Close(ctx context.Context) error { return nil }

var eventColumns = []string{
	"id", "image", "alt", "title", "date", "date_event", "year", "description",
	"button_text", "event_name", "cities", "active_event", "ecommerce_link",
	"created_at", "updated_at",
}

func eventValues(id int64, title string) []any {
	return []any{
		id, "/img/serra.jpg", "Serra", title, "15 de Março", time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		"2025", "Passeio pela serra gaúcha.", "Reservar Vaga", "serra-2025", []string{"Gramado"}, true, nil,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nil,
	}
}

func newTestRouter(t *testing.T, answers map[string]result) (*echo.Echo, *fakeDB) {
	t.Helper()

	cfg := config.DefaultConfig()
	log := zerolog.Nop()
	fake := &fakeDB{answers: answers}

	s := server.NewWithDatabase(cfg, &log, &logger.LoggerService{}, database.NewWithConnector(fake.connect, &log))
	services, err := service.NewService(s, repository.NewRepositories(s))
	require.NoError(t, err)

	return NewRouter(s, handler.NewHandlers(s, services, static.FS)), fake
}

func do(r *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestRoot(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := do(r, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	info := decode[handler.ServiceInfo](t, rec)
	assert.Equal(t, handler.ServiceInfo{
		Name:     "Anderson Turismo API",
		Version:  "2.0.0",
		Status:   "online",
		Database: "Neon Postgres",
		Docs:     "/docs",
	}, info)

	assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
	assert.NotEmpty(t, rec.Header().Get(middleware.ProcessTimeHeader))
}

func TestHealth(t *testing.T) {
	r, fake := newTestRouter(t, nil)

	rec := do(r, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.IsType(t, float64(0), body["timestamp"])

	rec = do(r, http.MethodHead, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())

	assert.Empty(t, fake.seen)
}

func TestPing(t *testing.T) {
	r, _ := newTestRouter(t, map[string]result{
		"SELECT 1 AS ping": {columns: []string{"ping"}, rows: [][]any{{int32(1)}}},
	})

	rec := do(r, http.MethodGet, "/api/v1/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"database":"connected","ping":1}`, rec.Body.String())
}

func TestPingDisconnected(t *testing.T) {
	r, _ := newTestRouter(t, map[string]result{
		"SELECT 1": {err: errors.New("connection refused")},
	})

	rec := do(r, http.MethodGet, "/api/v1/ping", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"database":"disconnected","error":"connection refused"}`, rec.Body.String())

	rec = do(r, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDocs(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := do(r, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/static/openapi.json")

	rec = do(r, http.MethodGet, "/static/openapi.json", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"openapi"`)
}

func TestUnknownRoute(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := do(r, http.MethodGet, "/api/v1/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decode[map[string]any](t, rec)["message"])
}

func TestListEvents(t *testing.T) {
	r, fake := newTestRouter(t, map[string]result{
		"SELECT * FROM events": {columns: eventColumns, rows: [][]any{eventValues(1, "Serra"), eventValues(2, "Praia")}},
	})

	rec := do(r, http.MethodGet, "/api/v1/events?year=2025&month=3", "")
	require.Equal(t, http.StatusOK, rec.Code)

	events := decode[[]map[string]any](t, rec)
	require.Len(t, events, 2)
	assert.Equal(t, "Serra", events[0]["title"])
	assert.Equal(t, "2025-03-15", events[0]["date_event"])
	assert.Equal(t, "Reservar Vaga", events[0]["buttonText"])
	assert.Equal(t, "serra-2025", events[0]["eventName"])
	assert.Nil(t, events[0]["ecommerce_link"])

	require.Len(t, fake.seen, 1)
	assert.Equal(t,
		"SELECT * FROM events WHERE 1=1 AND active_event = TRUE AND year = $1 AND EXTRACT(MONTH FROM date_event) = $2 ORDER BY date_event ASC LIMIT $3",
		fake.seen[0])
}

func TestListEventsInvalidQuery(t *testing.T) {
	r, fake := newTestRouter(t, nil)

	rec := do(r, http.MethodGet, "/api/v1/events?month=13", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/events?limit=ten", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]any](t, rec)
	fieldErrors, ok := body["errors"].([]any)
	require.True(t, ok)
	assert.Equal(t, "limit", fieldErrors[0].(map[string]any)["field"])

	assert.Empty(t, fake.seen)
}

func TestListUpcomingIsNotAnID(t *testing.T) {
	r, fake := newTestRouter(t, nil)

	rec := do(r, http.MethodGet, "/api/v1/events/upcoming", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	require.Len(t, fake.seen, 1)
	assert.Contains(t, fake.seen[0], "CURRENT_DATE")
}

func TestGetEvent(t *testing.T) {
	r, _ := newTestRouter(t, map[string]result{
		"SELECT * FROM events WHERE id": {columns: eventColumns, rows: [][]any{eventValues(7, "Serra")}},
	})

	rec := do(r, http.MethodGet, "/api/v1/events/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), decode[map[string]any](t, rec)["id"])
}

func TestGetEventNotFound(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := do(r, http.MethodGet, "/api/v1/events/99", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "EVENT_NOT_FOUND", body["code"])
	assert.Equal(t, "Event 99 not found", body["message"])
}

func TestGetEventBadID(t *testing.T) {
	r, fake := newTestRouter(t, nil)

	rec := do(r, http.MethodGet, "/api/v1/events/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/events/0", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, fake.seen)
}

func TestCreateEvent(t *testing.T) {
	r, fake := newTestRouter(t, map[string]result{
		"INSERT INTO events": {columns: eventColumns, rows: [][]any{eventValues(3, "Serra Gaúcha")}},
	})

	rec := do(r, http.MethodPost, "/api/v1/events", `{
		"image": "/img/serra.jpg", "alt": "Serra", "title": "Serra Gaúcha",
		"date": "15 de Março", "date_event": "2025-03-15", "year": "2025",
		"description": "Passeio pela serra gaúcha.", "eventName": "serra-2025"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(3), decode[map[string]any](t, rec)["id"])
	require.Len(t, fake.seen, 1)
	assert.Contains(t, fake.seen[0], "RETURNING *")
}

func TestCreateEventValidation(t *testing.T) {
	r, fake := newTestRouter(t, nil)

	rec := do(r, http.MethodPost, "/api/v1/events", `{"title":"ab","year":"25"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Validation failed", body["message"])
	assert.NotEmpty(t, body["errors"])
	assert.Empty(t, fake.seen)
}

func TestUpdateEvent(t *testing.T) {
	r, fake := newTestRouter(t, map[string]result{
		"UPDATE events": {columns: eventColumns, rows: [][]any{eventValues(3, "Nova Serra")}},
	})

	rec := do(r, http.MethodPut, "/api/v1/events/3", `{"title":"Nova Serra","ecommerce_link":null}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Nova Serra", decode[map[string]any](t, rec)["title"])

	require.Len(t, fake.seen, 1)
	assert.Equal(t, "UPDATE events SET title = $1, ecommerce_link = $2 WHERE id = $3 RETURNING *", fake.seen[0])
}

func TestUpdateEventRejected(t *testing.T) {
	r, fake := newTestRouter(t, nil)

	rec := do(r, http.MethodPut, "/api/v1/events/3", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No fields to update", decode[map[string]any](t, rec)["message"])

	rec = do(r, http.MethodPut, "/api/v1/events/3", `{"id":5}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "id", body["errors"].([]any)[0].(map[string]any)["field"])

	rec = do(r, http.MethodPut, "/api/v1/events/3", `[1,2]`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, fake.seen)
}

func TestUpdateEventNotFound(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	rec := do(r, http.MethodPut, "/api/v1/events/3", `{"alt":"Nova"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteEvent(t *testing.T) {
	r, _ := newTestRouter(t, map[string]result{
		"UPDATE events SET active_event = FALSE": {columns: []string{"id"}, rows: [][]any{{int64(3)}}},
	})

	rec := do(r, http.MethodDelete, "/api/v1/events/3", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	r, _ = newTestRouter(t, nil)
	rec = do(r, http.MethodDelete, "/api/v1/events/3", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeletedEventStaysRetrievable(t *testing.T) {
	const deactivate = "UPDATE events SET active_event = FALSE"
	const byID = "SELECT * FROM events WHERE id"

	r, fake := newTestRouter(t, map[string]result{
		deactivate: {columns: []string{"id"}, rows: [][]any{{int64(3)}}},
		byID:       {columns: eventColumns, rows: [][]any{eventValues(3, "Serra")}},
	})
	fake.then = map[string]func(map[string]result){
		deactivate: func(answers map[string]result) {
			row := eventValues(3, "Serra")
			row[11] = false
			answers[byID] = result{columns: eventColumns, rows: [][]any{row}}
		},
	}

	rec := do(r, http.MethodDelete, "/api/v1/events/3", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(r, http.MethodGet, "/api/v1/events/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(3), body["id"])
	assert.Equal(t, false, body["active_event"])

	require.Len(t, fake.seen, 2)
	assert.Equal(t, "SELECT * FROM events WHERE id = $1", fake.seen[1])
	assert.NotContains(t, fake.seen[1], "active_event")
}

func TestCreateRating(t *testing.T) {
	r, _ := newTestRouter(t, map[string]result{
		"INSERT INTO ratings": {
			columns: []string{"id", "event_name", "reviewer_name", "score", "comment", "created_at"},
			rows:    [][]any{{int64(1), "serra-2025", "Ana", int32(0), nil, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)}},
		},
	})

	rec := do(r, http.MethodPost, "/api/v1/ratings", `{"event_name":"serra-2025","reviewer_name":"Ana","score":0}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(0), body["score"])
	assert.Nil(t, body["comment"])
}

func TestCreateRatingInvalidScore(t *testing.T) {
	r, fake := newTestRouter(t, nil)

	rec := do(r, http.MethodPost, "/api/v1/ratings", `{"event_name":"serra-2025","reviewer_name":"Ana","score":7}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "score", body["errors"].([]any)[0].(map[string]any)["field"])

	rec = do(r, http.MethodPost, "/api/v1/ratings", `{"event_name":"serra-2025","reviewer_name":"Ana"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, fake.seen)
}

func TestRatingStats(t *testing.T) {
	r, _ := newTestRouter(t, map[string]result{
		"SELECT COUNT(*)": {
			columns: []string{"total_ratings", "avg_rating", "max_rating", "min_rating"},
			rows:    [][]any{{int64(0), nil, nil, nil}},
		},
	})

	rec := do(r, http.MethodGet, "/api/v1/ratings/stats/serra-2025", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t,
		`{"event_name":"serra-2025","total_ratings":0,"avg_rating":0,"max_rating":0,"min_rating":0}`,
		rec.Body.String())
}

func TestListEventRatingsEmpty(t *testing.T) {
	r, fake := newTestRouter(t, nil)

	rec := do(r, http.MethodGet, "/api/v1/ratings/event/serra-2025", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	require.Len(t, fake.seen, 1)
	assert.NotContains(t, fake.seen[0], "LIMIT")
}

func TestDatabaseFailureEnvelope(t *testing.T) {
	r, _ := newTestRouter(t, map[string]result{
		"SELECT * FROM ratings": {err: &pgconn.PgError{Severity: "ERROR", Code: "42P01", Message: `relation "ratings" does not exist`}},
	})

	rec := do(r, http.MethodGet, "/api/v1/ratings", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "An error occurred while processing your request", body["error"])
	assert.Contains(t, body["detail"], "does not exist")
}
