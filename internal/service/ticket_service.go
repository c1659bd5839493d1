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
	"parkinglot/internal/utils"
)

const (
	entityTicket  = "ticket"
	entityParking = "parking"
)

type TicketService struct {
	Store    *repository.Store
	Events   events.Publisher
	Payments PaymentGateway
	Clock    Clock
	Logger   zerolog.Logger
}

// NewTicketService wires the ticket workflow. payments may be nil when card
// payments are not configured.
func NewTicketService(store *repository.Store, publisher events.Publisher, payments PaymentGateway, clock Clock, logger zerolog.Logger) *TicketService {
	if publisher == nil {
		publisher = events.Discard{}
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &TicketService{
		Store:    store,
		Events:   publisher,
		Payments: payments,
		Clock:    clock,
		Logger:   logger.With().Str("component", "tickets").Logger(),
	}
}

// Open records a vehicle entering a space. The ticket starts open with a zero
// value and the space is marked occupied.
func (s *TicketService) Open(ctx context.Context, req entities.TicketRequest) (*db.Ticket, error) {
	plate := utils.NormalizeLicensePlate(req.LicensePlate)
	model := strings.TrimSpace(req.VehicleModel)
	switch {
	case strings.TrimSpace(req.ParkingSpaceID) == "":
		return nil, apperrors.MissingFieldError("parking_space_id")
	case model == "":
		return nil, apperrors.MissingFieldError("vehicle_model")
	case plate == "":
		return nil, apperrors.MissingFieldError("license_plate")
	case !utils.ValidLicensePlate(plate):
		return nil, &apperrors.ValidationError{Field: "license_plate", Message: "must be at most 10 characters"}
	case len(model) > 50:
		return nil, &apperrors.ValidationError{Field: "vehicle_model", Message: "must be at most 50 characters"}
	}

	ticket := &db.Ticket{
		ID:             uuid.NewString(),
		VehicleModel:   model,
		LicensePlate:   plate,
		CheckinAt:      s.Clock.Now().UTC(),
		ParkingSpaceID: req.ParkingSpaceID,
		ValueCents:     0,
		Status:         db.TicketOpen,
	}

	err := s.Store.Transaction(ctx, func(tx *repository.Store) error {
		space, err := tx.Parkings.LockSpace(ctx, req.ParkingSpaceID)
		if err != nil {
			return storeError("lock space", notFound(err, entityParkingSpace, req.ParkingSpaceID))
		}

		open, err := tx.Tickets.CountOpenBySpace(ctx, space.ID)
		if err != nil {
			return storeError("count open tickets", err)
		}
		if open > 0 || space.Occupied {
			return apperrors.NewConflict("parking space is occupied")
		}

		if err := tx.Tickets.Insert(ctx, ticket); err != nil {
			return storeError("insert ticket", err)
		}
		return storeError("mark space occupied", tx.Parkings.SetSpaceOccupied(ctx, space.ID, true))
	})
	if err != nil {
		return nil, err
	}

	telemetry.TicketsTotal.WithLabelValues("opened").Inc()
	s.Logger.Info().Str("ticket_id", ticket.ID).Str("space_id", ticket.ParkingSpaceID).Str("plate", ticket.LicensePlate).Msg("ticket opened")
	s.Events.Publish(events.EventTicketOpened, events.Payload{
		"ticket_id":        ticket.ID,
		"parking_space_id": ticket.ParkingSpaceID,
		"license_plate":    ticket.LicensePlate,
		"checkin":          ticket.CheckinAt.Format(time.RFC3339),
	})
	return ticket, nil
}

// CloseOut ends a stay: the checkout is stamped with the current time, the
// fee is computed from the parking's hourly price and the space is freed.
// The ticket row stays locked from the status check until the write commits.
func (s *TicketService) CloseOut(ctx context.Context, ticketID string) (*db.Ticket, error) {
	var closed *db.Ticket
	err := s.Store.Transaction(ctx, func(tx *repository.Store) error {
		ticket, err := tx.Tickets.Lock(ctx, ticketID)
		if err != nil {
			return storeError("lock ticket", notFound(err, entityTicket, ticketID))
		}
		if ticket.Status == db.TicketClosed {
			return &apperrors.AlreadyClosedError{TicketID: ticket.ID}
		}

		space, err := tx.Parkings.GetSpace(ctx, ticket.ParkingSpaceID)
		if err != nil {
			return storeError("get space", notFound(err, entityParkingSpace, ticket.ParkingSpaceID))
		}
		parking, err := tx.Parkings.GetParking(ctx, space.ParkingID)
		if err != nil {
			return storeError("get parking", notFound(err, entityParking, space.ParkingID))
		}

		checkout := s.Clock.Now().UTC()
		value, err := CalculateFee(ticket.CheckinAt, checkout, parking.HourlyPriceCents)
		if err != nil {
			return err
		}

		ticket.CheckoutAt = &checkout
		ticket.ValueCents = value
		ticket.Status = db.TicketClosed
		if err := tx.Tickets.Close(ctx, ticket); err != nil {
			return storeError("close ticket", notFound(err, entityTicket, ticketID))
		}
		if err := tx.Parkings.SetSpaceOccupied(ctx, space.ID, false); err != nil {
			return storeError("free space", err)
		}
		closed = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	telemetry.TicketsTotal.WithLabelValues("closed").Inc()
	telemetry.BilledCentsTotal.Add(float64(closed.ValueCents))
	s.Logger.Info().Str("ticket_id", closed.ID).Int64("value_cents", closed.ValueCents).Msg("ticket closed")
	s.Events.Publish(events.EventTicketClosed, events.Payload{
		"ticket_id":        closed.ID,
		"parking_space_id": closed.ParkingSpaceID,
		"value_cents":      closed.ValueCents,
		"checkout":         closed.CheckoutAt.Format(time.RFC3339),
	})
	return closed, nil
}

func (s *TicketService) Get(ctx context.Context, ticketID string) (*db.Ticket, error) {
	ticket, err := s.Store.Tickets.Get(ctx, ticketID)
	if err != nil {
		return nil, storeError("get ticket", notFound(err, entityTicket, ticketID))
	}
	return ticket, nil
}

// Quote reports what the ticket costs. Open tickets are priced as if they were
// closed now; closed tickets report their recorded value.
func (s *TicketService) Quote(ctx context.Context, ticketID string) (*entities.FeeQuote, error) {
	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	space, err := s.Store.Parkings.GetSpace(ctx, ticket.ParkingSpaceID)
	if err != nil {
		return nil, storeError("get space", notFound(err, entityParkingSpace, ticket.ParkingSpaceID))
	}
	parking, err := s.Store.Parkings.GetParking(ctx, space.ParkingID)
	if err != nil {
		return nil, storeError("get parking", notFound(err, entityParking, space.ParkingID))
	}

	checkout := s.Clock.Now().UTC()
	if ticket.CheckoutAt != nil {
		checkout = *ticket.CheckoutAt
	}
	q, err := Quote(ticket.CheckinAt, checkout, parking.HourlyPriceCents)
	if err != nil {
		return nil, err
	}
	return &q, nil
}
