package errors

import (
	stderrors "errors"
	"net/http"
)

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// Helper for common errors
var (
	ErrUnauthorized = func(msg string) *HTTPError { return NewHTTPError(http.StatusUnauthorized, msg) }
	ErrForbidden    = func(msg string) *HTTPError { return NewHTTPError(http.StatusForbidden, msg) }
	ErrBadRequest   = func(msg string) *HTTPError { return NewHTTPError(http.StatusBadRequest, msg) }
)

// IsDomain reports whether err is one of the rejection types a caller can act on.
func IsDomain(err error) bool {
	var (
		validation *ValidationError
		rng        *InvalidRangeError
		period     *InvalidPeriodError
		conflict   *ConflictError
		notFound   *NotFoundError
		closed     *AlreadyClosedError
		storage    *StorageError
	)
	return stderrors.As(err, &validation) ||
		stderrors.As(err, &rng) ||
		stderrors.As(err, &period) ||
		stderrors.As(err, &conflict) ||
		stderrors.As(err, &notFound) ||
		stderrors.As(err, &closed) ||
		stderrors.As(err, &storage)
}

// FromError maps an error to the HTTP status a client should see.
// Domain rejections are always 4xx; storage failures are 503.
func FromError(err error) *HTTPError {
	var (
		httpErr    *HTTPError
		validation *ValidationError
		rng        *InvalidRangeError
		period     *InvalidPeriodError
		conflict   *ConflictError
		notFound   *NotFoundError
		closed     *AlreadyClosedError
		storage    *StorageError
	)
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &httpErr):
		return httpErr
	case stderrors.As(err, &validation):
		return NewHTTPError(http.StatusBadRequest, validation.Error())
	case stderrors.As(err, &rng):
		return NewHTTPError(http.StatusBadRequest, rng.Error())
	case stderrors.As(err, &period):
		return NewHTTPError(http.StatusBadRequest, period.Error())
	case stderrors.As(err, &notFound):
		return NewHTTPError(http.StatusNotFound, notFound.Error())
	case stderrors.As(err, &conflict):
		return NewHTTPError(http.StatusConflict, conflict.Error())
	case stderrors.As(err, &closed):
		return NewHTTPError(http.StatusConflict, closed.Error())
	case stderrors.As(err, &storage):
		return NewHTTPError(http.StatusServiceUnavailable, "storage unavailable, please retry")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
