package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate entry")
	// ErrConflict is returned when the database rejects a write because it
	// would overlap an existing reservation.
	ErrConflict = errors.New("conflicting reservation")
	// ErrSerialization means the transaction lost a race and was aborted.
	ErrSerialization = errors.New("serialization failure")
)

// PostgreSQL SQLSTATE codes we care about.
const (
	pqUniqueViolation      = "23505"
	pqExclusionViolation   = "23P01"
	pqSerializationFailure = "40001"
	pqDeadlockDetected     = "40P01"
)

// translate maps driver and gorm errors onto the repository sentinels. Errors
// it does not recognise are returned unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
		case pqExclusionViolation:
			return fmt.Errorf("%w: %s", ErrConflict, pqErr.Constraint)
		case pqSerializationFailure, pqDeadlockDetected:
			return fmt.Errorf("%w: %s", ErrSerialization, pqErr.Message)
		}
	}
	return err
}
