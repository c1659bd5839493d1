package service

import (
	"context"

	"parkinglot/internal/db"
	"parkinglot/internal/timerange"
)

// ReservationFinder is the read the availability check needs.
type ReservationFinder interface {
	FindBySpace(ctx context.Context, spaceID string) ([]db.Reservation, error)
}

// AvailabilityChecker answers whether a space is free for a period. It only
// reads; bind it to a transaction's repository to check and insert atomically.
type AvailabilityChecker struct {
	Reservations ReservationFinder
}

func NewAvailabilityChecker(finder ReservationFinder) *AvailabilityChecker {
	return &AvailabilityChecker{Reservations: finder}
}

// IsAvailable reports whether no reservation on spaceID, other than
// excludingID, overlaps candidate.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, spaceID string, candidate timerange.Range, excludingID string) (bool, error) {
	existing, err := c.Reservations.FindBySpace(ctx, spaceID)
	if err != nil {
		return false, err
	}
	return firstConflict(existing, candidate, excludingID) == nil, nil
}

func firstConflict(existing []db.Reservation, candidate timerange.Range, excludingID string) *db.Reservation {
	for i := range existing {
		r := &existing[i]
		if excludingID != "" && r.ID == excludingID {
			continue
		}
		if timerange.Overlaps(reservationRange(r), candidate) {
			return r
		}
	}
	return nil
}

// reservationRange trusts the stored invariant checkin < checkout.
func reservationRange(r *db.Reservation) timerange.Range {
	return timerange.Range{Start: r.CheckinAt, End: r.CheckoutAt}
}
