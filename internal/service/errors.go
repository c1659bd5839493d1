package service

import (
	"errors"

	apperrors "parkinglot/internal/errors"
	"parkinglot/internal/repository"
)

const msgNoSpaceAvailable = "no space available for the requested period"

// storeError converts a repository error into a domain error. Domain errors
// pass through unchanged.
func storeError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case apperrors.IsDomain(err):
		return err
	case errors.Is(err, repository.ErrConflict):
		return apperrors.NewConflict(msgNoSpaceAvailable)
	default:
		return apperrors.NewStorageError(op, err)
	}
}

// notFound turns repository.ErrNotFound into a NotFoundError for entity.
func notFound(err error, entity, id string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(entity, id)
	}
	return err
}

// outcome classifies an error for metrics labels.
func outcome(err error) string {
	var (
		conflict *apperrors.ConflictError
		storage  *apperrors.StorageError
	)
	switch {
	case err == nil:
		return "committed"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &storage):
		return "error"
	case apperrors.IsDomain(err):
		return "rejected"
	default:
		return "error"
	}
}
