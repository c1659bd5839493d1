package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"parkinglot/internal/db"
	"parkinglot/internal/entities"
	"parkinglot/internal/idempotency"
	"parkinglot/internal/timerange"
)

// MockReservationService is a mock implementation of the reservation workflow
type MockReservationService struct {
	mock.Mock
}

func (m *MockReservationService) Create(ctx context.Context, req entities.ReservationRequest) (*db.Reservation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Reservation), args.Error(1)
}

func (m *MockReservationService) Update(ctx context.Context, id string, req entities.ReservationRequest) (*db.Reservation, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Reservation), args.Error(1)
}

func (m *MockReservationService) Get(ctx context.Context, id string) (*db.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Reservation), args.Error(1)
}

func (m *MockReservationService) ListBySpace(ctx context.Context, spaceID string) ([]db.Reservation, error) {
	args := m.Called(ctx, spaceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.Reservation), args.Error(1)
}

func (m *MockReservationService) Cancel(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockReservationService) IsAvailable(ctx context.Context, spaceID string, period timerange.Range, excludingID string) (bool, error) {
	args := m.Called(ctx, spaceID, period, excludingID)
	return args.Bool(0), args.Error(1)
}

// MockTicketService is a mock implementation of the ticket workflow
type MockTicketService struct {
	mock.Mock
}

func (m *MockTicketService) Open(ctx context.Context, req entities.TicketRequest) (*db.Ticket, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Ticket), args.Error(1)
}

func (m *MockTicketService) CloseOut(ctx context.Context, ticketID string) (*db.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Ticket), args.Error(1)
}

func (m *MockTicketService) Get(ctx context.Context, ticketID string) (*db.Ticket, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Ticket), args.Error(1)
}

func (m *MockTicketService) Quote(ctx context.Context, ticketID string) (*entities.FeeQuote, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.FeeQuote), args.Error(1)
}

func (m *MockTicketService) StartPayment(ctx context.Context, ticketID string) (*entities.PaymentSessionResponse, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PaymentSessionResponse), args.Error(1)
}

func (m *MockTicketService) ConfirmPayment(ctx context.Context, c entities.PaymentConfirmation) (*db.Ticket, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Ticket), args.Error(1)
}

// MockParkingService is a mock implementation of parking administration
type MockParkingService struct {
	mock.Mock
}

func (m *MockParkingService) CreateParking(ctx context.Context, req entities.ParkingRequest) (*db.Parking, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Parking), args.Error(1)
}

func (m *MockParkingService) GetParking(ctx context.Context, id string) (*db.Parking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.Parking), args.Error(1)
}

func (m *MockParkingService) ListParkings(ctx context.Context) ([]db.Parking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.Parking), args.Error(1)
}

func (m *MockParkingService) DeleteParking(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockParkingService) CreateSpace(ctx context.Context, parkingID string, req entities.SpaceRequest) (*db.ParkingSpace, error) {
	args := m.Called(ctx, parkingID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*db.ParkingSpace), args.Error(1)
}

func (m *MockParkingService) ListSpaces(ctx context.Context, parkingID string) ([]db.ParkingSpace, error) {
	args := m.Called(ctx, parkingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.ParkingSpace), args.Error(1)
}

func (m *MockParkingService) DeleteSpace(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockParkingService) ListAvailableSpaces(ctx context.Context, parkingID string, period *timerange.Range) ([]db.ParkingSpace, error) {
	args := m.Called(ctx, parkingID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]db.ParkingSpace), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of the idempotency cache
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Lookup(ctx context.Context, key string) (*idempotency.Response, bool) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1)
	}
	return args.Get(0).(*idempotency.Response), args.Bool(1)
}

func (m *MockIdempotencyStore) Remember(ctx context.Context, key string, resp idempotency.Response) {
	m.Called(ctx, key, resp)
}
