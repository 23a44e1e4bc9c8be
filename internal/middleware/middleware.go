// Package middleware holds the echo middleware shared by every route:
// request ids, the request logger, tracing, CORS, rate limiting, panic
// recovery and the error handler that writes every failure response.
package middleware
