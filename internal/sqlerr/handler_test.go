package sqlerr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/turismo-api/internal/database"
	"github.com/deppfellow/turismo-api/internal/errs"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dbError(err error) error {
	return &database.Error{Query: "INSERT INTO ratings ...", Err: err}
}

func TestHandleErrorCheckViolation(t *testing.T) {
	pgErr := &pgconn.PgError{
		Severity:   "ERROR",
		Code:       "23514",
		Message:    `new row for relation "ratings" violates check constraint "ratings_score_check"`,
		TableName:  "ratings",
		ColumnName: "score",
	}

	httpErr := HandleError(dbError(pgErr))

	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, "RATING_INVALID", httpErr.Code)
	assert.Equal(t, "Score has a value that is not allowed", httpErr.Message)
	assert.Equal(t, pgErr.Error(), httpErr.Detail)
}

func TestHandleErrorNotNull(t *testing.T) {
	httpErr := HandleError(dbError(&pgconn.PgError{
		Code:       "23502",
		TableName:  "events",
		ColumnName: "event_name",
	}))

	assert.Equal(t, "EVENT_REQUIRED", httpErr.Code)
	assert.Equal(t, "Event Name is required", httpErr.Message)
}

func TestHandleErrorUniqueUsesConstraintColumn(t *testing.T) {
	httpErr := HandleError(dbError(&pgconn.PgError{
		Code:           "23505",
		TableName:      "events",
		ConstraintName: "events_slug_key",
	}))

	assert.Equal(t, "EVENT_ALREADY_EXISTS", httpErr.Code)
	assert.Equal(t, "Event with the same Slug already exists", httpErr.Message)
}

func TestHandleErrorDatabaseFailure(t *testing.T) {
	httpErr := HandleError(dbError(errors.New("connect: dial tcp: connection refused")))

	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, "DATABASE_ERROR", httpErr.Code)
	assert.Equal(t, "Database error", httpErr.Message)
	assert.Equal(t, "connect: dial tcp: connection refused", httpErr.Detail)

	httpErr = HandleError(dbError(fmt.Errorf("connect: %w", context.DeadlineExceeded)))
	assert.Equal(t, "Database request canceled", httpErr.Message)
}

func TestHandleErrorPassesHTTPErrors(t *testing.T) {
	notFound := errs.NewNotFoundError("Event 1 not found", false, nil)
	assert.Same(t, notFound, HandleError(notFound))
}

func TestHandleErrorUnknown(t *testing.T) {
	httpErr := HandleError(errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.Equal(t, "Internal Server Error", httpErr.Message)
	assert.Equal(t, "boom", httpErr.Detail)
}

func TestErrCode(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23503", Severity: "FATAL", Message: "fk"}

	assert.Equal(t, ForeignKeyViolation, ErrCode(dbError(pgErr)))
	assert.Equal(t, Other, ErrCode(errors.New("x")))

	converted := ConvertPgError(pgErr)
	require.ErrorIs(t, converted, pgErr)
	assert.Equal(t, SeverityFatal, converted.Severity)
	assert.Equal(t, "FATAL: fk (SQLSTATE 23503)", converted.Error())
	assert.Equal(t, ForeignKeyViolation, ErrCode(converted))
}

func TestHandleErrorForeignKeyNamesReferencedEntity(t *testing.T) {
	httpErr := HandleError(dbError(&pgconn.PgError{
		Code:       "23503",
		TableName:  "ratings",
		ColumnName: "event_id",
	}))

	assert.Equal(t, "RATING_NOT_FOUND", httpErr.Code)
	assert.Equal(t, "The referenced Event does not exist", httpErr.Message)
}

func TestHandleErrorWithoutTable(t *testing.T) {
	httpErr := HandleError(dbError(&pgconn.PgError{Code: "08006"}))

	assert.Equal(t, "RECORD_UNAVAILABLE", httpErr.Code)
	assert.Equal(t, "Database unavailable", httpErr.Message)
}

func TestUniqueColumn(t *testing.T) {
	assert.Equal(t, "name", uniqueColumn("unique_events_name"))
	assert.Equal(t, "slug", uniqueColumn("events_slug_key"))
	assert.Empty(t, uniqueColumn("pk_events"))
}

func TestSingular(t *testing.T) {
	assert.Equal(t, "event", singular("events"))
	assert.Equal(t, "s", singular("s"))
	assert.Equal(t, "news_feed", singular("news_feed"))
}
