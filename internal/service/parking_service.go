package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parkinglot/internal/db"
	"parkinglot/internal/entities"
	apperrors "parkinglot/internal/errors"
	"parkinglot/internal/repository"
	"parkinglot/internal/timerange"
)

const maxSpaceCodeLength = 10

// ParkingService manages lots and their spaces.
type ParkingService struct {
	Store  *repository.Store
	Logger zerolog.Logger
}

func NewParkingService(store *repository.Store, logger zerolog.Logger) *ParkingService {
	return &ParkingService{Store: store, Logger: logger.With().Str("component", "parkings").Logger()}
}

func (s *ParkingService) CreateParking(ctx context.Context, req entities.ParkingRequest) (*db.Parking, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = db.DefaultParkingName
	}
	category := req.Category
	if category == "" {
		category = db.CategoryStandard
	}

	switch {
	case req.HourlyPriceCents <= 0:
		return nil, &apperrors.ValidationError{Field: "hourly_price_cents", Message: "must be greater than zero"}
	case req.NumSpaces < 0:
		return nil, &apperrors.ValidationError{Field: "num_spaces", Message: "must not be negative"}
	case !category.Valid():
		return nil, &apperrors.ValidationError{Field: "category", Message: "must be standard or priority"}
	case utf8.RuneCountInString(name) > 120:
		return nil, &apperrors.ValidationError{Field: "name", Message: "must be at most 120 characters"}
	}

	parking := &db.Parking{
		ID:               uuid.NewString(),
		Name:             name,
		HourlyPriceCents: req.HourlyPriceCents,
		NumSpaces:        req.NumSpaces,
		Category:         category,
	}
	if err := s.Store.Parkings.CreateParking(ctx, parking); err != nil {
		return nil, storeError("create parking", err)
	}
	s.Logger.Info().Str("parking_id", parking.ID).Str("name", parking.Name).Msg("parking created")
	return parking, nil
}

func (s *ParkingService) GetParking(ctx context.Context, id string) (*db.Parking, error) {
	p, err := s.Store.Parkings.GetParking(ctx, id)
	if err != nil {
		return nil, storeError("get parking", notFound(err, entityParking, id))
	}
	return p, nil
}

func (s *ParkingService) ListParkings(ctx context.Context) ([]db.Parking, error) {
	parkings, err := s.Store.Parkings.ListParkings(ctx)
	if err != nil {
		return nil, storeError("list parkings", err)
	}
	return parkings, nil
}

// DeleteParking removes the parking, its spaces and their tickets and reservations.
func (s *ParkingService) DeleteParking(ctx context.Context, id string) error {
	if err := s.Store.Parkings.DeleteParking(ctx, id); err != nil {
		return storeError("delete parking", notFound(err, entityParking, id))
	}
	s.Logger.Info().Str("parking_id", id).Msg("parking deleted")
	return nil
}

// CreateSpace adds a space to a parking. Codes are unique within a parking.
func (s *ParkingService) CreateSpace(ctx context.Context, parkingID string, req entities.SpaceRequest) (*db.ParkingSpace, error) {
	code := strings.TrimSpace(req.Code)
	switch {
	case code == "":
		return nil, apperrors.MissingFieldError("code")
	case utf8.RuneCountInString(code) > maxSpaceCodeLength:
		return nil, &apperrors.ValidationError{Field: "code", Message: "must be at most 10 characters"}
	}

	space := &db.ParkingSpace{ID: uuid.NewString(), Code: code, ParkingID: parkingID}
	err := s.Store.Transaction(ctx, func(tx *repository.Store) error {
		if _, err := tx.Parkings.GetParking(ctx, parkingID); err != nil {
			return storeError("get parking", notFound(err, entityParking, parkingID))
		}
		exists, err := tx.Parkings.SpaceCodeExists(ctx, parkingID, code)
		if err != nil {
			return storeError("check space code", err)
		}
		if exists {
			return apperrors.NewConflict("space code " + code + " already exists in this parking")
		}
		err = tx.Parkings.CreateSpace(ctx, space)
		if errors.Is(err, repository.ErrDuplicate) {
			return apperrors.NewConflict("space code " + code + " already exists in this parking")
		}
		return storeError("create space", err)
	})
	if err != nil {
		return nil, err
	}
	s.Logger.Info().Str("space_id", space.ID).Str("parking_id", parkingID).Str("code", code).Msg("space created")
	return space, nil
}

func (s *ParkingService) ListSpaces(ctx context.Context, parkingID string) ([]db.ParkingSpace, error) {
	if _, err := s.GetParking(ctx, parkingID); err != nil {
		return nil, err
	}
	spaces, err := s.Store.Parkings.ListSpaces(ctx, parkingID)
	if err != nil {
		return nil, storeError("list spaces", err)
	}
	return spaces, nil
}

func (s *ParkingService) DeleteSpace(ctx context.Context, id string) error {
	if err := s.Store.Parkings.DeleteSpace(ctx, id); err != nil {
		return storeError("delete space", notFound(err, entityParkingSpace, id))
	}
	s.Logger.Info().Str("space_id", id).Msg("space deleted")
	return nil
}

// ListAvailableSpaces returns the spaces of a parking that are free. Without a
// period that means not currently occupied; with one it means no reservation
// overlaps the period.
func (s *ParkingService) ListAvailableSpaces(ctx context.Context, parkingID string, period *timerange.Range) ([]db.ParkingSpace, error) {
	spaces, err := s.ListSpaces(ctx, parkingID)
	if err != nil {
		return nil, err
	}

	checker := NewAvailabilityChecker(s.Store.Reservations)
	available := make([]db.ParkingSpace, 0, len(spaces))
	for _, sp := range spaces {
		if period == nil {
			if !sp.Occupied {
				available = append(available, sp)
			}
			continue
		}
		ok, err := checker.IsAvailable(ctx, sp.ID, *period, "")
		if err != nil {
			return nil, storeError("find reservations", err)
		}
		if ok {
			available = append(available, sp)
		}
	}
	return available, nil
}
