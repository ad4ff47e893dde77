package core

import "github.com/pkg/errors"

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrObjectNotFound = errors.New("object not found")
)

// FieldError is the message of one invalid request field, named by its JSON name.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a malformed input. It carries either field messages or a single message (Err's).
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

// NewFieldError reports err as the message of field.
func NewFieldError(field string, err error) error {
	return NewValidationError(err, FieldError{Field: field, Error: err.Error()})
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	if len(e.Fields) > 0 {
		return e.Fields[0].Field + ": " + e.Fields[0].Error
	}
	return "validation failed"
}

func (e *ValidationError) Unwrap() error { return e.Err }

// FieldMap returns the field messages keyed by field name, or nil when there are none.
func (e *ValidationError) FieldMap() map[string]string {
	if len(e.Fields) == 0 {
		return nil
	}
	m := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// shutdownError asks the server to stop gracefully once the current response is sent.
type shutdownError struct {
	reason string
}

func NewShutdownError(reason string) error {
	return &shutdownError{reason: reason}
}

func (e *shutdownError) Error() string { return e.reason }

func IsShutdown(err error) bool {
	var sErr *shutdownError
	return errors.As(err, &sErr)
}
