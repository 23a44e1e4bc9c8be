package handler

import (
	"errors"
	"net/http"
	"reflect"
	"time"

	"github.com/deppfellow/turismo-api/internal/errs"
	"github.com/deppfellow/turismo-api/internal/middleware"
	"github.com/deppfellow/turismo-api/internal/server"
	"github.com/deppfellow/turismo-api/internal/validation"
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/rs/zerolog"
)

// Handler is embedded by every endpoint group and gives it the application container.
type Handler struct {
	server *server.Server
}

func NewHandler(s *server.Server) Handler {
	return Handler{server: s}
}

// HandlerFunc is a typed endpoint: it receives a bound and validated
// payload and returns the response body or an error.
//
// Req is a pointer type, e.g. *event.CreateEventPayload.
type HandlerFunc[Req validation.Validatable, Res any] func(c echo.Context, req Req) (Res, error)

// HandlerFuncNoContent is a typed endpoint that answers without a body.
type HandlerFuncNoContent[Req validation.Validatable] func(c echo.Context, req Req) error

// responder writes the result of a successful endpoint.
type responder struct {
	operation string
	status    int
	write     func(c echo.Context, status int, result any) error
}

func jsonResponder(status int) responder {
	return responder{
		operation: "handler",
		status:    status,
		write: func(c echo.Context, status int, result any) error {
			return c.JSON(status, result)
		},
	}
}

func noContentResponder(status int) responder {
	return responder{
		operation: "handler_no_content",
		status:    status,
		write: func(c echo.Context, status int, _ any) error {
			return c.NoContent(status)
		},
	}
}

// tracedRequest carries the per-request logger and the New Relic
// transaction (nil when the agent is off) through the phases of an endpoint.
type tracedRequest struct {
	txn   *newrelic.Transaction
	log   zerolog.Logger
	start time.Time
}

func newTracedRequest(c echo.Context, operation string) *tracedRequest {
	route := c.Path()

	t := &tracedRequest{
		txn: newrelic.FromContext(c.Request().Context()),
		log: middleware.GetLogger(c).With().
			Str("operation", operation).
			Str("method", c.Request().Method).
			Str("route", route).
			Logger(),
		start: time.Now(),
	}
	if t.txn != nil {
		t.txn.AddAttribute("handler.name", route)
	}
	return t
}

// phase records how long a phase took and whether it failed.
func (t *tracedRequest) phase(name string, started time.Time, err error, failed string) time.Duration {
	d := time.Since(started)
	if t.txn == nil {
		return d
	}

	status := "success"
	if err != nil {
		status = failed
		t.txn.NoticeError(nrpkgerrors.Wrap(err))
	}
	t.txn.AddAttribute(name+".status", status)
	t.txn.AddAttribute(name+".duration_ms", d.Milliseconds())
	return d
}

// finish adds the total duration and, for list results, the item count.
func (t *tracedRequest) finish(result any) time.Duration {
	total := time.Since(t.start)
	if t.txn == nil {
		return total
	}

	t.txn.AddAttribute("total.duration_ms", total.Milliseconds())
	if result != nil {
		if v := reflect.ValueOf(result); v.Kind() == reflect.Slice {
			t.txn.AddAttribute("response.items", v.Len())
		}
	}
	return total
}

// newRequest returns a zero value of the payload type for one request.
// Route registration hands in a single prototype value; binding into it
// directly would share it between concurrent requests.
func newRequest[Req validation.Validatable](prototype Req) Req {
	t := reflect.TypeOf(prototype)
	if t == nil || t.Kind() != reflect.Pointer {
		return prototype
	}
	return reflect.New(t.Elem()).Interface().(Req)
}

// serve is the pipeline shared by every endpoint: bind and validate,
// run, log and trace each phase, then write the result.
func serve[Req validation.Validatable](
	c echo.Context,
	req Req,
	run func(c echo.Context, req Req) (any, error),
	out responder,
) error {
	t := newTracedRequest(c, out.operation)
	t.log.Debug().Msg("handling request")

	validationStart := time.Now()
	err := validation.BindAndValidate(c, req)
	validationDuration := t.phase("validation", validationStart, err, "failed")
	if err != nil {
		t.log.Warn().
			Err(err).
			Dur("validation_duration", validationDuration).
			Msg("request validation failed")
		return err
	}

	handlerStart := time.Now()
	result, err := run(c, req)
	handlerDuration := t.phase("handler", handlerStart, err, "error")
	total := t.finish(result)

	if err != nil {
		// Not found and similar outcomes are expected; only server
		// errors are logged as failures.
		event := t.log.Error()
		var httpErr *errs.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status < http.StatusInternalServerError {
			event = t.log.Info()
		}
		event.
			Err(err).
			Dur("handler_duration", handlerDuration).
			Dur("total_duration", total).
			Msg("handler returned an error")
		return err
	}

	t.log.Info().
		Dur("validation_duration", validationDuration).
		Dur("handler_duration", handlerDuration).
		Dur("total_duration", total).
		Msg("request completed successfully")

	return out.write(c, out.status, result)
}

// Handle wraps a typed endpoint with binding, validation, logging and
// tracing, and writes its result as JSON with the given status.
//
//	g.POST("/events", handler.Handle(h.Handler, h.CreateEvent, http.StatusCreated, &event.CreateEventPayload{}))
//
// req only fixes the payload type; every request binds into a new value.
func Handle[Req validation.Validatable, Res any](
	h Handler,
	endpoint HandlerFunc[Req, Res],
	status int,
	req Req,
) echo.HandlerFunc {
	out := jsonResponder(status)
	return func(c echo.Context) error {
		return serve(c, newRequest(req), func(c echo.Context, req Req) (any, error) {
			return endpoint(c, req)
		}, out)
	}
}

// HandleNoContent is Handle for endpoints that answer without a body.
func HandleNoContent[Req validation.Validatable](
	h Handler,
	endpoint HandlerFuncNoContent[Req],
	status int,
	req Req,
) echo.HandlerFunc {
	out := noContentResponder(status)
	return func(c echo.Context) error {
		return serve(c, newRequest(req), func(c echo.Context, req Req) (any, error) {
			return nil, endpoint(c, req)
		}, out)
	}
}
