package apperror

import (
	"errors"
	"net/http"
)

// Kind classifies a failure for the HTTP layer
type Kind int

const (
	Internal Kind = iota
	Validation
	NotFound
	Unauthorized
	InvalidOrExpired
	Conflict
)

func (k Kind) String() string {
	switch k {
	case Validation:
		return "VALIDATION_ERROR"
	case NotFound:
		return "NOT_FOUND"
	case Unauthorized:
		return "UNAUTHORIZED"
	case InvalidOrExpired:
		return "INVALID_OR_EXPIRED"
	case Conflict:
		return "CONFLICT"
	default:
		return "INTERNAL_ERROR"
	}
}

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind and code so sentinels survive wrapping
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// New builds a sentinel-style error; code defaults to the kind's name
func New(kind Kind, code, message string) *Error {
	if code == "" {
		code = kind.String()
	}
	return &Error{Kind: kind, Code: code, Message: message}
}

// Wrap attaches a cause while keeping the kind, code and message of base
func Wrap(base *Error, cause error) *Error {
	return &Error{Kind: base.Kind, Code: base.Code, Message: base.Message, Err: cause}
}

func NewValidation(message string) *Error {
	return New(Validation, "", message)
}

// NewInternal hides the cause behind a generic message
func NewInternal(cause error) *Error {
	return &Error{Kind: Internal, Code: Internal.String(), Message: "internal server error", Err: cause}
}

// KindOf reports the kind of err; anything that is not an *Error is Internal
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return Internal.String()
}

// MessageOf returns the client-safe message of err
func MessageOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "internal server error"
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case Validation, InvalidOrExpired, Conflict:
		return http.StatusBadRequest
	case Unauthorized:
		return http.StatusUnauthorized
	case NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
