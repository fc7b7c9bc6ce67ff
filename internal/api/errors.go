// Package api provides error types for processing-service responses.
package api

import (
	"errors"
	"fmt"
)

// ServerError is an application-level failure: the server was reached and
// answered with a structured {"error": "..."} payload.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.StatusCode, e.Message)
}

// TransportError covers every failure where no usable response reached the
// client: connection errors, cancelled requests, unreadable or undecodable bodies,
// and non-OK list responses.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AsServerError reports whether err carries a *ServerError and returns it.
func AsServerError(err error) (*ServerError, bool) {
	var se *ServerError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsTransportError reports whether err is a transport-level failure.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func transportErr(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}
