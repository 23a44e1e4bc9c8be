// Package errs define custom error types and utilities.
//
// Its purpose is to create specific error structures
// (FieldErrors for payloads, HTTPError for API responses)
// so clients receive meaningful, actionable, and consistent
// error messages.
//
//   - Return consistent error shapes to API clients (JSON).
//   - Support field-level validation errors.
//   - Keep the raw cause of server errors for the error envelope.
//   - Provide errors that play nicely with Go's standard errors package.
package errs
