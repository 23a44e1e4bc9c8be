package sqlerr

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/turismo-api/internal/database"
	"github.com/deppfellow/turismo-api/internal/errs"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrCode returns the Code of the PostgreSQL error inside err, or Other.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return MapCode(pgerr.Code)
	}
	return Other
}

// ConvertPgError copies the fields of a driver error and maps its SQLSTATE.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// violation is how one class of PostgreSQL error is reported to clients.
type violation struct {
	action  string
	message func(e *Error) string
}

var violations = map[Code]violation{
	ForeignKeyViolation: {"NOT_FOUND", func(e *Error) string {
		return fmt.Sprintf("The referenced %s does not exist", entity(e))
	}},
	UniqueViolation:    {"ALREADY_EXISTS", duplicateMessage},
	ExclusionViolation: {"ALREADY_EXISTS", duplicateMessage},
	NotNullViolation: {"REQUIRED", func(e *Error) string {
		return fmt.Sprintf("%s is required", label(e.ColumnName, "A value"))
	}},
	CheckViolation: {"INVALID", func(e *Error) string {
		return fmt.Sprintf("%s has a value that is not allowed", label(e.ColumnName, "A field"))
	}},
	InvalidTextRep:     {"INVALID", fixed("One or more values have an invalid format")},
	InvalidDatetime:    {"INVALID", fixed("One or more values have an invalid format")},
	NumericOutOfRange:  {"INVALID", fixed("One or more values are out of range")},
	ConnectionFailure:  {"UNAVAILABLE", fixed("Database unavailable")},
	InvalidPassword:    {"UNAVAILABLE", fixed("Database unavailable")},
	TooManyConnections: {"UNAVAILABLE", fixed("Database unavailable")},
	QueryCanceled:      {"CANCELED", fixed("Database request canceled")},
}

var unknownViolation = violation{"ERROR", fixed("An error occurred while processing your request")}

func fixed(message string) func(*Error) string {
	return func(*Error) string { return message }
}

func duplicateMessage(e *Error) string {
	if column := uniqueColumn(e.ConstraintName); column != "" {
		return fmt.Sprintf("%s with the same %s already exists", entity(e), humanizeText(column))
	}
	return fmt.Sprintf("%s already exists", entity(e))
}

// machineCode builds <DOMAIN>_<ACTION>, e.g. ratings + check violation
// gives RATING_INVALID.
func machineCode(e *Error, action string) string {
	domain := "RECORD"
	if e.TableName != "" {
		domain = strings.ToUpper(singular(e.TableName))
	}
	return domain + "_" + action
}

// entity names what the error is about: the "<x>" of an "<x>_id" column,
// the singular table name, or "Record".
func entity(e *Error) string {
	column := strings.ToLower(e.ColumnName)
	if name, ok := strings.CutSuffix(column, "_id"); ok && name != "" {
		return humanizeText(name)
	}
	if e.TableName != "" {
		return humanizeText(singular(e.TableName))
	}
	return "Record"
}

func label(column, fallback string) string {
	if column == "" {
		return fallback
	}
	return humanizeText(column)
}

func singular(name string) string {
	if len(name) > 1 {
		if trimmed, ok := strings.CutSuffix(name, "s"); ok {
			return trimmed
		}
		if trimmed, ok := strings.CutSuffix(name, "S"); ok {
			return trimmed
		}
	}
	return name
}

// humanizeText converts snake_case into Title Case.
//
//	"event_name" -> "Event Name"
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

var uniqueKeyPattern = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// uniqueColumn guesses the column behind a unique constraint from the
// PostgreSQL naming conventions "unique_<table>_<column>" and
// "<table>_<column>_key".
func uniqueColumn(constraint string) string {
	if rest, ok := strings.CutPrefix(constraint, "unique_"); ok {
		if i := strings.LastIndexByte(rest, '_'); i >= 0 {
			return rest[i+1:]
		}
	}
	if m := uniqueKeyPattern.FindStringSubmatch(constraint); m != nil {
		return m[1]
	}
	return ""
}

// HandleError converts a data access failure into a server-error HTTPError.
//
// Output:
//   - *errs.HTTPError: returned unchanged
//   - pgconn.PgError: 500 with a domain code (e.g. EVENT_REQUIRED) and a readable message
//   - any other database.Error: 500 DATABASE_ERROR
//   - anything else: 500 INTERNAL_SERVER_ERROR
//
// The raw error text is always kept as Detail.
func HandleError(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		sqlErr := ConvertPgError(pgerr)

		v, ok := violations[sqlErr.Code]
		if !ok {
			v = unknownViolation
		}

		httpErr = errs.NewInternalServerError(v.message(sqlErr), err.Error())
		httpErr.Code = machineCode(sqlErr, v.action)
		return httpErr
	}

	var dbErr *database.Error
	if errors.As(err, &dbErr) {
		message := "Database error"
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			message = "Database request canceled"
		}
		httpErr = errs.NewInternalServerError(message, err.Error())
		httpErr.Code = "DATABASE_ERROR"
		return httpErr
	}

	return errs.NewInternalServerError("", err.Error())
}
