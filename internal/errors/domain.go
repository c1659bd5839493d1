package errors

import (
	"fmt"
	"time"
)

// ValidationError reports a malformed or incomplete request.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// MissingFieldError is the ValidationError for a required field that was not supplied.
func MissingFieldError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "field is required"}
}

// InvalidRangeError is returned when a time range does not satisfy start < end.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range: checkin %s must be before checkout %s",
		e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// InvalidPeriodError is returned by fee calculation when checkout does not follow checkin.
type InvalidPeriodError struct {
	Checkin  time.Time
	Checkout time.Time
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period: checkout %s is not after checkin %s",
		e.Checkout.Format(time.RFC3339), e.Checkin.Format(time.RFC3339))
}

type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return e.Reason
}

// NewConflict builds a ConflictError.
func NewConflict(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// NewNotFound builds a NotFoundError.
func NewNotFound(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// AlreadyClosedError is returned when closing out a ticket that is already closed.
type AlreadyClosedError struct {
	TicketID string
}

func (e *AlreadyClosedError) Error() string {
	return fmt.Sprintf("ticket %q is already closed", e.TicketID)
}

// StorageError wraps a failure of the record store. The operation was not applied.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err unless it already carries a domain error.
func NewStorageError(op string, err error) error {
	if err == nil || IsDomain(err) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
