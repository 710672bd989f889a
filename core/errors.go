package core

import "github.com/pkg/errors"

// FieldError attaches a message to a single named field of a request.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries per-field messages for a rejected request.
// Err is optional and holds the overall cause when there is one.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown marks an error the process cannot serve through, typically a dead
// database connection. The API error handler turns it into a graceful stop.
type shutdown struct {
	msg string
}

// NewShutdownError wraps msg as an unrecoverable error.
func NewShutdownError(msg string) error {
	return &shutdown{msg: msg}
}

func (s *shutdown) Error() string { return s.msg }

// IsShutdown reports whether err (or its cause) demands a process shutdown.
func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
