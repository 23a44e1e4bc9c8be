package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/deppfellow/turismo-api/internal/errs"
	"github.com/deppfellow/turismo-api/internal/server"
	"github.com/deppfellow/turismo-api/internal/sqlerr"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// ProcessTimeHeader carries the time spent handling the request, in seconds.
const ProcessTimeHeader = "X-Process-Time"

// GlobalMiddlewares groups “global” middleware and the global error handler.
type GlobalMiddlewares struct {
	server *server.Server
}

func NewGlobalMiddlewares(s *server.Server) *GlobalMiddlewares {
	return &GlobalMiddlewares{
		server: s,
	}
}

// CORS returns Echo’s CORS middleware configured by the server config.
// The default allows every origin, method and header.
func (global *GlobalMiddlewares) CORS() echo.MiddlewareFunc {
	return middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: global.server.Config.Server.CORSAllowedOrigins,
		AllowMethods: []string{
			http.MethodGet, http.MethodHead, http.MethodPost,
			http.MethodPut, http.MethodPatch, http.MethodDelete,
		},
		ExposeHeaders: []string{RequestIDHeader, ProcessTimeHeader},
	})
}

// RequestLogger writes one "API" line per request. 5xx is logged at
// error level, 4xx at warn.
func (global *GlobalMiddlewares) RequestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:     true,
		LogStatus:  true,
		LogError:   true,
		LogLatency: true,
		LogHost:    true,
		LogMethod:  true,

		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			status := responseStatus(v)

			line := levelFor(GetLogger(c), status)
			if status >= http.StatusInternalServerError {
				line = line.Err(v.Error)
			}
			if id := GetRequestID(c); id != "" {
				line = line.Str("request_id", id)
			}

			line.
				Int("status", status).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("host", v.Host).
				Str("ip", c.RealIP()).
				Str("user_agent", c.Request().UserAgent()).
				Dur("latency", v.Latency).
				Msg("API")
			return nil
		},
	})
}

// responseStatus is the status the client will see. When a handler returns
// an error, the response is written later by GlobalErrorHandler, so the
// status comes from the error instead.
func responseStatus(v middleware.RequestLoggerValues) int {
	if v.Error == nil {
		return v.Status
	}
	var httpErr *errs.HTTPError
	if errors.As(v.Error, &httpErr) {
		return httpErr.Status
	}
	var echoErr *echo.HTTPError
	if errors.As(v.Error, &echoErr) {
		return echoErr.Code
	}
	return http.StatusInternalServerError
}

func levelFor(logger *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return logger.Error()
	case status >= http.StatusBadRequest:
		return logger.Warn()
	default:
		return logger.Info()
	}
}

// ProcessTime sets X-Process-Time on every response, just before the
// header is written.
func (global *GlobalMiddlewares) ProcessTime() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			c.Response().Before(func() {
				elapsed := time.Since(start).Seconds()
				c.Response().Header().Set(ProcessTimeHeader, strconv.FormatFloat(elapsed, 'f', -1, 64))
			})
			return next(c)
		}
	}
}

// Recover turns handler panics into errors for GlobalErrorHandler.
func (global *GlobalMiddlewares) Recover() echo.MiddlewareFunc {
	return middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			GetLogger(c).Error().
				Err(err).
				Bytes("stack", stack).
				Msg("recovered from panic")
			return err
		},
	})
}

// Secure returns Echo’s secure headers middleware.
func (global *GlobalMiddlewares) Secure() echo.MiddlewareFunc {
	return middleware.Secure()
}

// GlobalErrorHandler is the final error funnel for the entire HTTP server.
//
// Client errors (4xx) are written as errs.HTTPError. Everything else
// ends as a 500 written as errs.Envelope, keeping the raw cause in
// "detail", so a single bad request never takes the process down.
func (global *GlobalMiddlewares) GlobalErrorHandler(err error, c echo.Context) {
	originalErr := err
	httpErr := classify(err)

	logger := *GetLogger(c)

	var event *zerolog.Event
	if httpErr.Status >= http.StatusInternalServerError {
		event = logger.Error().Stack().Err(originalErr).Str("detail", httpErr.Detail)
	} else {
		event = logger.Warn().Err(originalErr)
	}
	event.
		Int("status", httpErr.Status).
		Str("error_code", httpErr.Code).
		Msg(httpErr.Message)

	if c.Response().Committed {
		return
	}

	var writeErr error
	switch {
	case c.Request().Method == http.MethodHead:
		writeErr = c.NoContent(httpErr.Status)
	case httpErr.Status >= http.StatusInternalServerError:
		writeErr = c.JSON(httpErr.Status, httpErr.Envelope())
	default:
		writeErr = c.JSON(httpErr.Status, httpErr)
	}
	if writeErr != nil {
		logger.Error().Err(writeErr).Msg("failed to write error response")
	}
}

// classify maps any error onto an *errs.HTTPError.
func classify(err error) *errs.HTTPError {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var echoErr *echo.HTTPError
	if errors.As(err, &echoErr) {
		switch {
		case echoErr.Code == http.StatusNotFound:
			return errs.NewNotFoundError("Route not found", false, nil)
		case echoErr.Code == http.StatusMethodNotAllowed:
			return errs.NewMethodNotAllowedError("Method not allowed")
		case echoErr.Code == http.StatusTooManyRequests:
			return errs.NewTooManyRequestsError(echoMessage(echoErr))
		case echoErr.Code < http.StatusInternalServerError:
			return &errs.HTTPError{
				Code:    errs.MakeUpperCaseWithUnderscores(http.StatusText(echoErr.Code)),
				Message: echoMessage(echoErr),
				Status:  echoErr.Code,
			}
		default:
			detail := echoMessage(echoErr)
			if echoErr.Internal != nil {
				detail = echoErr.Internal.Error()
			}
			httpErr = errs.NewInternalServerError(http.StatusText(echoErr.Code), detail)
			httpErr.Status = echoErr.Code
			httpErr.Code = errs.MakeUpperCaseWithUnderscores(http.StatusText(echoErr.Code))
			return httpErr
		}
	}

	// Driver, data access and unknown errors.
	return sqlerr.HandleError(err)
}

func echoMessage(e *echo.HTTPError) string {
	if msg, ok := e.Message.(string); ok {
		return msg
	}
	if e.Message != nil {
		return fmt.Sprint(e.Message)
	}
	return http.StatusText(e.Code)
}
