package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"parkinglot/internal/db"
	"parkinglot/internal/entities"
	apperrors "parkinglot/internal/errors"
	"parkinglot/internal/events"
	"parkinglot/internal/repository"
)

// ErrPaymentsDisabled is wrapped in a StorageError when no gateway is configured.
var ErrPaymentsDisabled = errors.New("card payments are not configured")

// PaymentRequest describes one checkout for a closed ticket.
type PaymentRequest struct {
	TicketID    string
	AmountCents int64
	Description string
}

// PaymentSession is the hosted checkout the customer is redirected to.
type PaymentSession struct {
	ID  string
	URL string
}

// PaymentGateway opens hosted checkout sessions.
type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req PaymentRequest) (*PaymentSession, error)
}

// StartPayment opens a checkout session for a closed, unpaid ticket.
func (s *TicketService) StartPayment(ctx context.Context, ticketID string) (*entities.PaymentSessionResponse, error) {
	if s.Payments == nil {
		return nil, &apperrors.StorageError{Op: "start payment", Err: ErrPaymentsDisabled}
	}

	ticket, err := s.Get(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	switch {
	case ticket.Status != db.TicketClosed:
		return nil, &apperrors.ValidationError{Field: "ticket", Message: "ticket must be closed before payment"}
	case ticket.PaidAt != nil:
		return nil, apperrors.NewConflict("ticket is already paid")
	case ticket.ValueCents <= 0:
		return nil, &apperrors.ValidationError{Field: "ticket", Message: "ticket has nothing to pay"}
	}

	session, err := s.Payments.CreateCheckoutSession(ctx, PaymentRequest{
		TicketID:    ticket.ID,
		AmountCents: ticket.ValueCents,
		Description: fmt.Sprintf("Parking %s (%s)", ticket.LicensePlate, ticket.CheckinAt.Format("02 Jan 2006 15:04")),
	})
	if err != nil {
		s.Logger.Error().Err(err).Str("ticket_id", ticket.ID).Msg("create checkout session")
		return nil, &apperrors.StorageError{Op: "create checkout session", Err: err}
	}

	if err := s.Store.Tickets.SetPaymentSession(ctx, ticket.ID, session.ID); err != nil {
		return nil, storeError("save payment session", notFound(err, entityTicket, ticket.ID))
	}

	s.Logger.Info().Str("ticket_id", ticket.ID).Str("session_id", session.ID).Msg("payment session created")
	return &entities.PaymentSessionResponse{TicketID: ticket.ID, SessionID: session.ID, URL: session.URL}, nil
}

// ConfirmPayment marks a ticket paid. The ticket is resolved from the
// reported ticket id when present, so a payment on an earlier session still
// settles it after a newer session has been opened. The paid amount must match
// the ticket value. Repeated confirmations return the ticket unchanged.
func (s *TicketService) ConfirmPayment(ctx context.Context, c entities.PaymentConfirmation) (*db.Ticket, error) {
	if c.SessionID == "" {
		return nil, apperrors.MissingFieldError("session_id")
	}

	var (
		ticket      *db.Ticket
		alreadyPaid bool
	)
	err := s.Store.Transaction(ctx, func(tx *repository.Store) error {
		id := c.TicketID
		if id == "" {
			t, err := tx.Tickets.GetByPaymentSession(ctx, c.SessionID)
			if err != nil {
				return storeError("find payment session", notFound(err, "payment session", c.SessionID))
			}
			id = t.ID
		}

		t, err := tx.Tickets.Lock(ctx, id)
		if err != nil {
			return storeError("lock ticket", notFound(err, entityTicket, id))
		}
		ticket = t
		if t.PaidAt != nil {
			alreadyPaid = true
			return nil
		}
		switch {
		case t.Status != db.TicketClosed:
			return &apperrors.ValidationError{Field: "ticket", Message: "ticket must be closed before payment"}
		case c.AmountCents != t.ValueCents:
			return &apperrors.ValidationError{
				Field:   "amount",
				Message: fmt.Sprintf("paid %d cents, ticket value is %d cents", c.AmountCents, t.ValueCents),
			}
		}

		paidAt := s.Clock.Now().UTC()
		if err := tx.Tickets.MarkPaid(ctx, t.ID, c.SessionID, paidAt); err != nil {
			return storeError("mark ticket paid", notFound(err, entityTicket, t.ID))
		}
		t.PaidAt = &paidAt
		t.PaymentSessionID = c.SessionID
		return nil
	})
	if err != nil {
		return nil, err
	}
	if alreadyPaid {
		s.Logger.Debug().Str("ticket_id", ticket.ID).Str("session_id", c.SessionID).Msg("ticket already paid")
		return ticket, nil
	}

	s.Logger.Info().Str("ticket_id", ticket.ID).Str("session_id", c.SessionID).Msg("ticket paid")
	s.Events.Publish(events.EventTicketPaid, events.Payload{
		"ticket_id":   ticket.ID,
		"value_cents": ticket.ValueCents,
		"paid_at":     ticket.PaidAt.Format(time.RFC3339),
	})
	return ticket, nil
}
