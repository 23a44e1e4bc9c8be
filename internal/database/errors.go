package database

// Error is returned for any failure while connecting to or executing
// against the database. It keeps the statement and its parameters for
// diagnosis; Error() only carries the underlying driver message.
type Error struct {
	Query  string
	Params []any
	Err    error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
