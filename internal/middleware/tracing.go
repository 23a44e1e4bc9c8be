package middleware

import (
	"github.com/labstack/echo/v4"
	"github.com/newrelic/go-agent/v3/integrations/nrecho-v4"
	"github.com/newrelic/go-agent/v3/integrations/nrpkgerrors"
	"github.com/newrelic/go-agent/v3/newrelic"

	"github.com/deppfellow/turismo-api/internal/server"
)

// TracingMiddleware wires New Relic into the router. With no application
// configured both of its middlewares pass requests straight through.
type TracingMiddleware struct {
	server *server.Server
	nrApp  *newrelic.Application
}

func NewTracingMiddleware(s *server.Server, nrApp *newrelic.Application) *TracingMiddleware {
	return &TracingMiddleware{server: s, nrApp: nrApp}
}

func passThrough(next echo.HandlerFunc) echo.HandlerFunc { return next }

// NewRelicMiddleware opens one transaction per request and puts it in the
// request context for newrelic.FromContext.
func (tm *TracingMiddleware) NewRelicMiddleware() echo.MiddlewareFunc {
	if tm.nrApp == nil {
		return passThrough
	}
	return nrecho.Middleware(tm.nrApp)
}

// EnhanceTracing tags the transaction with client and deployment details
// and the final status, and notices any error the chain returns.
func (tm *TracingMiddleware) EnhanceTracing() echo.MiddlewareFunc {
	env := tm.server.Config.Primary.Env

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			txn := newrelic.FromContext(c.Request().Context())
			if txn == nil {
				return next(c)
			}

			attrs := map[string]any{
				"http.real_ip":        c.RealIP(),
				"http.user_agent":     c.Request().UserAgent(),
				"service.environment": env,
			}
			if id := GetRequestID(c); id != "" {
				attrs["request.id"] = id
			}
			for k, v := range attrs {
				txn.AddAttribute(k, v)
			}

			err := next(c)
			if err != nil {
				txn.NoticeError(nrpkgerrors.Wrap(err))
			}
			txn.AddAttribute("http.status_code", c.Response().Status)
			return err
		}
	}
}
