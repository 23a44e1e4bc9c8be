// Package database contains the data access layer for the PostgreSQL database.
//
// Every call opens its own connection, runs exactly one statement and
// closes the connection again. There is no pool and nothing is retried.
//
// It handles:
//   - parsing the connection string once and enforcing TLS
//   - wiring query tracing/logging (pgx tracelog) and New Relic (nrpgx5)
//   - translating generic `?` placeholders to PostgreSQL `$n` parameters
//   - materializing result rows as ordered column/value pairs
package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/deppfellow/turismo-api/internal/config"
	loggerConfig "github.com/deppfellow/turismo-api/internal/logger"
	pgxzero "github.com/jackc/pgx-zerolog"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/tracelog"
	"github.com/newrelic/go-agent/v3/integrations/nrpgx5"
	"github.com/rs/zerolog"
)

// FetchMode tells Execute how much of the result to materialize.
type FetchMode int

const (
	// FetchNone runs the statement without reading any row.
	FetchNone FetchMode = iota
	// FetchOne materializes the first row, if any.
	FetchOne
	// FetchAll materializes every row.
	FetchAll
)

func (m FetchMode) String() string {
	switch m {
	case FetchNone:
		return "none"
	case FetchOne:
		return "one"
	case FetchAll:
		return "all"
	default:
		return fmt.Sprintf("FetchMode(%d)", int(m))
	}
}

// Conn is the part of *pgx.Conn the data access layer uses.
type Conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close(ctx context.Context) error
}

// Connector opens a new connection for a single statement.
type Connector func(ctx context.Context) (Conn, error)

// Database runs single statements, each on a fresh connection.
type Database struct {
	connect            Connector
	log                *zerolog.Logger
	slowQueryThreshold time.Duration
}

// multiTracer allows chaining multiple tracers.
//
// pgx supports a single Tracer in ConnConfig; this adapter runs the
// New Relic tracer and the local SQL log tracer side by side.
type multiTracer struct {
	tracers []pgx.QueryTracer
}

func (mt *multiTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, tracer := range mt.tracers {
		ctx = tracer.TraceQueryStart(ctx, conn, data)
	}
	return ctx
}

func (mt *multiTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, tracer := range mt.tracers {
		tracer.TraceQueryEnd(ctx, conn, data)
	}
}

// New parses the configured connection string and returns a Database that
// connects with it on every call.
//
// Behavior:
//   - sslmode from config is added when the URL does not carry one
//   - New Relic tracer is attached when the agent runs
//   - in local env the SQL tracelogger is attached as well
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerConfig.LoggerService) (*Database, error) {
	dsn, err := WithSSLMode(cfg.Database.URL, cfg.Database.SSLMode)
	if err != nil {
		return nil, err
	}

	connConfig, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx connection config: %w", err)
	}
	if cfg.Database.ConnectTimeout > 0 {
		connConfig.ConnectTimeout = cfg.Database.ConnectTimeout
	}

	var tracers []pgx.QueryTracer

	if loggerService.GetApplication() != nil {
		tracers = append(tracers, nrpgx5.NewTracer())
	}

	// Very noisy, which is why it's only on in local.
	if cfg.IsLocal() {
		globalLevel := logger.GetLevel()
		pgxLogger := loggerConfig.NewPgxLogger(globalLevel)
		tracers = append(tracers, &tracelog.TraceLog{
			Logger:   pgxzero.NewLogger(pgxLogger),
			LogLevel: loggerConfig.GetPgxTraceLogLevel(globalLevel),
		})
	}

	switch len(tracers) {
	case 0:
	case 1:
		connConfig.Tracer = tracers[0]
	default:
		connConfig.Tracer = &multiTracer{tracers: tracers}
	}

	connector := func(ctx context.Context) (Conn, error) {
		conn, err := pgx.ConnectConfig(ctx, connConfig)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	db := NewWithConnector(connector, logger)
	if cfg.Observability != nil {
		db.slowQueryThreshold = cfg.Observability.Logging.SlowQueryThreshold
	}

	return db, nil
}

// NewWithConnector builds a Database on top of an arbitrary connector.
func NewWithConnector(connect Connector, logger *zerolog.Logger) *Database {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Database{
		connect: connect,
		log:     logger,
	}
}

// WithSSLMode returns dsn with sslmode set to mode unless the dsn already
// chooses one. Both URL and keyword/value connection strings are accepted.
func WithSSLMode(dsn, mode string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("empty database connection string")
	}

	u, err := url.Parse(dsn)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		// keyword/value form: host=... user=...
		if containsKeyword(dsn, "sslmode") || mode == "" {
			return dsn, nil
		}
		return dsn + " sslmode=" + mode, nil
	}

	query := u.Query()
	if query.Get("sslmode") != "" || mode == "" {
		return dsn, nil
	}
	query.Set("sslmode", mode)
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// Execute runs one statement on a fresh connection.
//
// params bind to the `?` placeholders of query in order. The connection is
// released on every exit path. For FetchAll the result is never nil; for
// FetchOne it holds at most one row; for FetchNone it is always empty.
func (db *Database) Execute(ctx context.Context, query string, params []any, mode FetchMode) (rows []Row, err error) {
	start := time.Now()
	statement := Rebind(query)

	defer func() {
		if err != nil {
			err = &Error{Query: query, Params: params, Err: err}
			db.log.Error().
				Err(err).
				Str("query", query).
				Interface("params", params).
				Str("fetch", mode.String()).
				Dur("duration", time.Since(start)).
				Msg("database statement failed")
			return
		}
		if db.slowQueryThreshold > 0 && time.Since(start) > db.slowQueryThreshold {
			db.log.Warn().
				Str("query", query).
				Dur("duration", time.Since(start)).
				Msg("slow database statement")
		}
	}()

	conn, err := db.connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer func() {
		// Close on a fresh context so a canceled request still releases the socket.
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := conn.Close(closeCtx); cerr != nil {
			db.log.Warn().Err(cerr).Msg("failed to close database connection")
		}
	}()

	if mode == FetchNone {
		if _, err := conn.Exec(ctx, statement, params...); err != nil {
			return nil, err
		}
		return []Row{}, nil
	}

	result, err := conn.Query(ctx, statement, params...)
	if err != nil {
		return nil, err
	}
	defer result.Close()

	columns := columnNames(result.FieldDescriptions())
	rows = []Row{}
	for result.Next() {
		values, err := result.Values()
		if err != nil {
			return nil, err
		}
		rows = append(rows, NewRow(columns, values))
		if mode == FetchOne {
			break
		}
	}

	// A FetchOne that stops early must still see errors the server
	// reported for the statement, e.g. a failed INSERT.
	result.Close()
	if err := result.Err(); err != nil {
		return nil, err
	}

	return rows, nil
}

// QueryOne returns the first row of the statement, or nil when it returns none.
func (db *Database) QueryOne(ctx context.Context, query string, params ...any) (*Row, error) {
	rows, err := db.Execute(ctx, query, params, FetchOne)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// QueryAll returns every row of the statement; the slice is empty, not nil, when none match.
func (db *Database) QueryAll(ctx context.Context, query string, params ...any) ([]Row, error) {
	return db.Execute(ctx, query, params, FetchAll)
}

// Ping runs `SELECT 1 AS ping` and returns the value the server sent back.
func (db *Database) Ping(ctx context.Context) (any, error) {
	row, err := db.QueryOne(ctx, "SELECT 1 AS ping")
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, nil
	}
	value, _ := row.Lookup("ping")
	return value, nil
}

func columnNames(fields []pgconn.FieldDescription) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}
