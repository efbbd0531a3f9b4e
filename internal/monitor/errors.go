package monitor

import "errors"

var (
	// ErrNetwork wraps every fetch failure: connection errors, timeouts and non-2xx responses.
	ErrNetwork = errors.New("network error")
	// ErrTooManyErrors is returned by Run when the consecutive error limit is reached.
	ErrTooManyErrors = errors.New("too many consecutive errors")
)
