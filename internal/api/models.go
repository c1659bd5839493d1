package api

import (
	"context"

	"parkinglot/internal/db"
	"parkinglot/internal/entities"
	"parkinglot/internal/idempotency"
	"parkinglot/internal/timerange"
)

// ReservationManager is the reservation workflow as seen by the handlers.
type ReservationManager interface {
	Create(ctx context.Context, req entities.ReservationRequest) (*db.Reservation, error)
	Update(ctx context.Context, id string, req entities.ReservationRequest) (*db.Reservation, error)
	Get(ctx context.Context, id string) (*db.Reservation, error)
	ListBySpace(ctx context.Context, spaceID string) ([]db.Reservation, error)
	Cancel(ctx context.Context, id string) error
	IsAvailable(ctx context.Context, spaceID string, period timerange.Range, excludingID string) (bool, error)
}

type TicketManager interface {
	Open(ctx context.Context, req entities.TicketRequest) (*db.Ticket, error)
	CloseOut(ctx context.Context, ticketID string) (*db.Ticket, error)
	Get(ctx context.Context, ticketID string) (*db.Ticket, error)
	Quote(ctx context.Context, ticketID string) (*entities.FeeQuote, error)
	StartPayment(ctx context.Context, ticketID string) (*entities.PaymentSessionResponse, error)
	ConfirmPayment(ctx context.Context, c entities.PaymentConfirmation) (*db.Ticket, error)
}

type ParkingManager interface {
	CreateParking(ctx context.Context, req entities.ParkingRequest) (*db.Parking, error)
	GetParking(ctx context.Context, id string) (*db.Parking, error)
	ListParkings(ctx context.Context) ([]db.Parking, error)
	DeleteParking(ctx context.Context, id string) error
	CreateSpace(ctx context.Context, parkingID string, req entities.SpaceRequest) (*db.ParkingSpace, error)
	ListSpaces(ctx context.Context, parkingID string) ([]db.ParkingSpace, error)
	DeleteSpace(ctx context.Context, id string) error
	ListAvailableSpaces(ctx context.Context, parkingID string, period *timerange.Range) ([]db.ParkingSpace, error)
}

// IdempotencyStore replays the stored response of a retried request.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (*idempotency.Response, bool)
	Remember(ctx context.Context, key string, resp idempotency.Response)
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
