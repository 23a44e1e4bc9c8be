// Package sqlerr specifically handles database driver errors.
//
// It parses cryptic SQLSTATE codes from the database driver and
// converts them into machine codes and readable messages
// (e.g. a "not null violation" on events becomes EVENT_REQUIRED),
// keeping the raw driver text for the error envelope.
package sqlerr
