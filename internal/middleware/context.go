package middleware

import (
	"context"

	"github.com/deppfellow/turismo-api/internal/logger"
	"github.com/deppfellow/turismo-api/internal/server"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// LoggerKey is where the request logger is kept in the echo context.
const LoggerKey = "logger"

type loggerCtxKey struct{}

var nopLogger = zerolog.Nop()

// ContextEnhancer attaches a request logger to every request. It must run
// after RequestID and the New Relic middleware.
type ContextEnhancer struct {
	server *server.Server
}

func NewContextEnhancer(s *server.Server) *ContextEnhancer {
	return &ContextEnhancer{server: s}
}

// EnhanceContext derives the request logger (request_id, method, route
// template, client ip, plus trace.id/span.id under New Relic) and stores
// it in the echo context and in the request's context.Context.
func (ce *ContextEnhancer) EnhanceContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()

			reqLogger := ce.server.Logger.With().
				Str("request_id", GetRequestID(c)).
				Str("method", req.Method).
				Str("path", c.Path()).
				Str("ip", c.RealIP()).
				Logger()
			if txn := newrelic.FromContext(req.Context()); txn != nil {
				reqLogger = logger.WithTraceContext(reqLogger, txn)
			}

			c.Set(LoggerKey, &reqLogger)
			c.SetRequest(req.WithContext(context.WithValue(req.Context(), loggerCtxKey{}, &reqLogger)))
			return next(c)
		}
	}
}

// GetLogger returns the request logger, or a no-op logger when
// EnhanceContext did not run.
func GetLogger(c echo.Context) *zerolog.Logger {
	if l, ok := c.Get(LoggerKey).(*zerolog.Logger); ok {
		return l
	}
	return &nopLogger
}

// LoggerFromContext is GetLogger for code below the handlers.
func LoggerFromContext(ctx context.Context) *zerolog.Logger {
	if l, ok := ctx.Value(loggerCtxKey{}).(*zerolog.Logger); ok {
		return l
	}
	return &nopLogger
}
