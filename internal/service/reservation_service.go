package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parkinglot/internal/db"
	"parkinglot/internal/entities"
	apperrors "parkinglot/internal/errors"
	"parkinglot/internal/events"
	"parkinglot/internal/repository"
	"parkinglot/internal/telemetry"
	"parkinglot/internal/timerange"
)

const entityParkingSpace = "parking space"
const entityReservation = "reservation"

type ReservationService struct {
	Store  *repository.Store
	Events events.Publisher
	Logger zerolog.Logger
}

func NewReservationService(store *repository.Store, publisher events.Publisher, logger zerolog.Logger) *ReservationService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	return &ReservationService{
		Store:  store,
		Events: publisher,
		Logger: logger.With().Str("component", "reservations").Logger(),
	}
}

// Create books a space for [checkin, checkout). The space row is locked for
// the duration of the availability check and the insert, so two overlapping
// requests for the same space can never both commit.
func (s *ReservationService) Create(ctx context.Context, req entities.ReservationRequest) (*db.Reservation, error) {
	period, err := validateReservation(req)
	if err != nil {
		s.count("create", err)
		return nil, err
	}

	reservation := &db.Reservation{
		ID:             uuid.NewString(),
		ParkingSpaceID: req.ParkingSpaceID,
		CheckinAt:      period.Start,
		CheckoutAt:     period.End,
		ContactName:    strings.TrimSpace(req.ContactName),
		ContactEmail:   strings.TrimSpace(req.ContactEmail),
		ContactPhone:   strings.TrimSpace(req.ContactPhone),
	}

	var space *db.ParkingSpace
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		var err error
		space, err = tx.Parkings.LockSpace(ctx, req.ParkingSpaceID)
		if err != nil {
			return storeError("lock space", notFound(err, entityParkingSpace, req.ParkingSpaceID))
		}

		available, err := NewAvailabilityChecker(tx.Reservations).IsAvailable(ctx, space.ID, period, "")
		if err != nil {
			return storeError("find reservations", err)
		}
		if !available {
			return apperrors.NewConflict(msgNoSpaceAvailable)
		}

		return storeError("insert reservation", tx.Reservations.Insert(ctx, reservation))
	})
	s.count("create", err)
	if err != nil {
		s.Logger.Debug().Err(err).Str("space_id", req.ParkingSpaceID).Msg("reservation rejected")
		return nil, err
	}

	s.Logger.Info().
		Str("reservation_id", reservation.ID).
		Str("space_id", reservation.ParkingSpaceID).
		Time("checkin", reservation.CheckinAt).
		Time("checkout", reservation.CheckoutAt).
		Msg("reservation committed")
	s.Events.Publish(events.EventReservationCommitted, reservationPayload(reservation, space))
	return reservation, nil
}

// Update moves an existing reservation to a new space or period. The
// reservation being changed does not conflict with itself.
func (s *ReservationService) Update(ctx context.Context, id string, req entities.ReservationRequest) (*db.Reservation, error) {
	period, err := validateReservation(req)
	if err != nil {
		s.count("update", err)
		return nil, err
	}

	var (
		updated *db.Reservation
		space   *db.ParkingSpace
	)
	err = s.Store.Transaction(ctx, func(tx *repository.Store) error {
		current, err := tx.Reservations.Lock(ctx, id)
		if err != nil {
			return storeError("lock reservation", notFound(err, entityReservation, id))
		}

		space, err = tx.Parkings.LockSpace(ctx, req.ParkingSpaceID)
		if err != nil {
			return storeError("lock space", notFound(err, entityParkingSpace, req.ParkingSpaceID))
		}

		available, err := NewAvailabilityChecker(tx.Reservations).IsAvailable(ctx, space.ID, period, current.ID)
		if err != nil {
			return storeError("find reservations", err)
		}
		if !available {
			return apperrors.NewConflict(msgNoSpaceAvailable)
		}

		current.ParkingSpaceID = space.ID
		current.CheckinAt = period.Start
		current.CheckoutAt = period.End
		if req.ContactName != "" || req.ContactEmail != "" || req.ContactPhone != "" {
			current.ContactName = strings.TrimSpace(req.ContactName)
			current.ContactEmail = strings.TrimSpace(req.ContactEmail)
			current.ContactPhone = strings.TrimSpace(req.ContactPhone)
		}
		if err := tx.Reservations.Update(ctx, current); err != nil {
			return storeError("update reservation", notFound(err, entityReservation, id))
		}
		updated = current
		return nil
	})
	s.count("update", err)
	if err != nil {
		return nil, err
	}

	s.Logger.Info().Str("reservation_id", id).Msg("reservation updated")
	s.Events.Publish(events.EventReservationUpdated, reservationPayload(updated, space))
	return updated, nil
}

func (s *ReservationService) Get(ctx context.Context, id string) (*db.Reservation, error) {
	res, err := s.Store.Reservations.Get(ctx, id)
	if err != nil {
		return nil, storeError("get reservation", notFound(err, entityReservation, id))
	}
	return res, nil
}

// ListBySpace returns the reservations of a space ordered by checkin.
func (s *ReservationService) ListBySpace(ctx context.Context, spaceID string) ([]db.Reservation, error) {
	if _, err := s.Store.Parkings.GetSpace(ctx, spaceID); err != nil {
		return nil, storeError("get space", notFound(err, entityParkingSpace, spaceID))
	}
	reservations, err := s.Store.Reservations.FindBySpace(ctx, spaceID)
	if err != nil {
		return nil, storeError("find reservations", err)
	}
	return reservations, nil
}

func (s *ReservationService) Cancel(ctx context.Context, id string) error {
	if err := s.Store.Reservations.Delete(ctx, id); err != nil {
		return storeError("delete reservation", notFound(err, entityReservation, id))
	}
	s.Logger.Info().Str("reservation_id", id).Msg("reservation cancelled")
	s.Events.Publish(events.EventReservationCancelled, events.Payload{"reservation_id": id})
	return nil
}

// IsAvailable checks a period against an existing space without booking it.
func (s *ReservationService) IsAvailable(ctx context.Context, spaceID string, period timerange.Range, excludingID string) (bool, error) {
	if _, err := s.Store.Parkings.GetSpace(ctx, spaceID); err != nil {
		return false, storeError("get space", notFound(err, entityParkingSpace, spaceID))
	}
	available, err := NewAvailabilityChecker(s.Store.Reservations).IsAvailable(ctx, spaceID, period, excludingID)
	if err != nil {
		return false, storeError("find reservations", err)
	}
	return available, nil
}

func (s *ReservationService) count(operation string, err error) {
	telemetry.ReservationsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

// validateReservation moves a request from Requested to Validated.
func validateReservation(req entities.ReservationRequest) (timerange.Range, error) {
	switch {
	case strings.TrimSpace(req.ParkingSpaceID) == "":
		return timerange.Range{}, apperrors.MissingFieldError("parking_space_id")
	case !req.Checkin.Valid:
		return timerange.Range{}, apperrors.MissingFieldError("checkin")
	case !req.Checkout.Valid:
		return timerange.Range{}, apperrors.MissingFieldError("checkout")
	}
	return timerange.New(req.Checkin.Time, req.Checkout.Time)
}

func reservationPayload(r *db.Reservation, space *db.ParkingSpace) events.Payload {
	p := events.Payload{
		"reservation_id":   r.ID,
		"parking_space_id": r.ParkingSpaceID,
		"checkin":          r.CheckinAt.Format(time.RFC3339),
		"checkout":         r.CheckoutAt.Format(time.RFC3339),
		"contact_name":     r.ContactName,
		"contact_email":    r.ContactEmail,
		"contact_phone":    r.ContactPhone,
	}
	if space != nil {
		p["space_code"] = space.Code
		p["parking_id"] = space.ParkingID
	}
	return p
}
