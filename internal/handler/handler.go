// Package handler is the first layer after the router.
//
// It binds requests into payloads, runs their validation, calls the
// service layer and writes the response. Every business endpoint goes
// through the same Handle pipeline for logging and tracing.
package handler
