package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one connection or transaction.
type Store struct {
	DB           *gorm.DB
	Parkings     *ParkingRepository
	Reservations *ReservationRepository
	Tickets      *TicketRepository
	Jobs         *JobRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		DB:           db,
		Parkings:     NewParkingRepository(db),
		Reservations: NewReservationRepository(db),
		Tickets:      NewTicketRepository(db),
		Jobs:         NewJobRepository(db),
	}
}

// Transaction runs fn with a Store bound to a single database transaction.
// The transaction commits when fn returns nil and rolls back otherwise; the
// error returned by fn is passed through unchanged.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	var fnErr error
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		fnErr = fn(NewStore(tx))
		return fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	return translate(err)
}
