package history

import (
	"errors"
	"fmt"
)

// Rejection reasons reported by a history backend.
const (
	ReasonNotFound  = "not_found"
	ReasonForbidden = "forbidden"
)

// TransportError means the backend could not be reached.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport error: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// RemoteRejection means the backend answered but refused the request.
type RemoteRejection struct {
	Op     string
	Reason string
	Status int
	Detail string
}

func (e *RemoteRejection) Error() string {
	msg := fmt.Sprintf("%s: rejected (%s)", e.Op, e.Reason)
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: rejected (%s, status %d)", e.Op, e.Reason, e.Status)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// ParseError means a page payload could not be decoded.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed history page: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a not_found rejection.
func IsNotFound(err error) bool {
	var rej *RemoteRejection
	return errors.As(err, &rej) && rej.Reason == ReasonNotFound
}

// IsForbidden reports whether err is a forbidden rejection.
func IsForbidden(err error) bool {
	var rej *RemoteRejection
	return errors.As(err, &rej) && rej.Reason == ReasonForbidden
}
