// Package repository handles all interactions with the database.
//
// It builds the SQL statements with squirrel, always with bound `?`
// parameters, runs them through the data access layer and maps result
// rows into model types. Deciding what an empty result means (404, 400,
// zero-filled stats) is left to the service layer.
package repository

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/deppfellow/turismo-api/internal/database"
)

// Executor runs one statement and returns its rows. *database.Database
// implements it.
type Executor interface {
	QueryOne(ctx context.Context, query string, params ...any) (*database.Row, error)
	QueryAll(ctx context.Context, query string, params ...any) ([]database.Row, error)
}

// statementBuilder keeps the generic `?` placeholder; the data access
// layer rewrites it into `$n` right before execution.
var statementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

func queryOne(ctx context.Context, db Executor, stmt sq.Sqlizer) (*database.Row, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, err
	}
	return db.QueryOne(ctx, query, args...)
}

func queryAll(ctx context.Context, db Executor, stmt sq.Sqlizer) ([]database.Row, error) {
	query, args, err := stmt.ToSql()
	if err != nil {
		return nil, err
	}
	return db.QueryAll(ctx, query, args...)
}
