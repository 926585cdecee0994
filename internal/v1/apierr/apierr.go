// Package apierr defines the tagged failure type shared by every pure
// transition and by the room actor. Transitions never panic or return a
// bare error; callers branch on Kind, never on string matching.
package apierr

import "net/http"

// Kind classifies a failure the way spec.md §7 maps it to an HTTP status.
type Kind string

const (
	KindBadRequest   Kind = "bad_request"
	KindUnauthorised Kind = "unauthorised"
	KindForbidden    Kind = "forbidden"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindGone         Kind = "gone"
)

// Error is the tagged failure returned by every transition: Ok(state',
// event) | Err(kind, message) collapses to (state, nil event, *Error) in Go.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// New constructs a tagged failure.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func BadRequest(msg string) *Error   { return New(KindBadRequest, msg) }
func Unauthorised(msg string) *Error { return New(KindUnauthorised, msg) }
func Forbidden(msg string) *Error    { return New(KindForbidden, msg) }
func NotFound(msg string) *Error     { return New(KindNotFound, msg) }
func Conflict(msg string) *Error     { return New(KindConflict, msg) }
func Gone(msg string) *Error         { return New(KindGone, msg) }

// Status maps a Kind to the HTTP status code the control surface returns.
func Status(k Kind) int {
	switch k {
	case KindBadRequest:
		return http.StatusBadRequest
	case KindUnauthorised:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindGone:
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// As extracts an *Error from err, falling back to an internal BadRequest-free
// 500 classification for anything the core never tags (a programming error).
func As(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Kind: Kind("internal"), Message: err.Error()}
}
