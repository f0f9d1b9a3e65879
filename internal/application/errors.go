package application

import (
	"errors"
	"net/http"
)

// Kind classifies service failures so the HTTP layer can pick a status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuth
	KindNotFound
	KindConflict
	KindUpload
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUpload:
		return "upload"
	default:
		return "internal"
	}
}

// HTTPStatus maps a kind to its response status.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuth:
		return http.StatusUnauthorized
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is returned by every Service method. Message is safe to show to clients;
// Err carries the underlying cause for logs only.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(msg string) *Error { return &Error{Kind: KindValidation, Message: msg} }
func AuthError(msg string) *Error       { return &Error{Kind: KindAuth, Message: msg} }
func NotFoundError(msg string) *Error   { return &Error{Kind: KindNotFound, Message: msg} }
func ConflictError(msg string) *Error   { return &Error{Kind: KindConflict, Message: msg} }

func UploadError(msg string, err error) *Error {
	return &Error{Kind: KindUpload, Message: msg, Err: err}
}

func InternalError(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf reports the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
