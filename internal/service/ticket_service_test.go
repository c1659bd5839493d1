package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parkinglot/internal/db"
	"parkinglot/internal/entities"
	apperrors "parkinglot/internal/errors"
	"parkinglot/internal/events"
)

type fakeGateway struct {
	requests []PaymentRequest
	err      error
}

func (g *fakeGateway) CreateCheckoutSession(_ context.Context, req PaymentRequest) (*PaymentSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.requests = append(g.requests, req)
	id := fmt.Sprintf("cs_%s_%d", req.TicketID, len(g.requests))
	return &PaymentSession{ID: id, URL: "https://checkout.example/" + id}, nil
}

type ticketFixture struct {
	svc     *TicketService
	env     testEnv
	clock   *fakeClock
	pub     *recordingPublisher
	gateway *fakeGateway
}

func newTicketFixture(t *testing.T, hourlyPrice int64) ticketFixture {
	t.Helper()
	env := newTestEnv(t, hourlyPrice)
	f := ticketFixture{env: env, clock: newFakeClock(t0), pub: &recordingPublisher{}, gateway: &fakeGateway{}}
	f.svc = NewTicketService(env.store, f.pub, f.gateway, f.clock, nop)
	return f
}

func (f ticketFixture) open(t *testing.T) *db.Ticket {
	t.Helper()
	ticket, err := f.svc.Open(context.Background(), entities.TicketRequest{
		ParkingSpaceID: f.env.space.ID,
		VehicleModel:   "Fiat Uno",
		LicensePlate:   "ab 123 cd",
	})
	require.NoError(t, err)
	return ticket
}

func TestOpenTicket(t *testing.T) {
	f := newTicketFixture(t, 1000)
	ctx := context.Background()

	ticket := f.open(t)
	assert.Equal(t, "AB123CD", ticket.LicensePlate)
	assert.Equal(t, db.TicketOpen, ticket.Status)
	assert.Zero(t, ticket.ValueCents)
	assert.Nil(t, ticket.CheckoutAt)
	assert.True(t, ticket.CheckinAt.Equal(t0))

	space, err := f.env.store.Parkings.GetSpace(ctx, f.env.space.ID)
	require.NoError(t, err)
	assert.True(t, space.Occupied)
	assert.Len(t, f.pub.ofType(events.EventTicketOpened), 1)
}

func TestOpenTicketOnOccupiedSpace(t *testing.T) {
	f := newTicketFixture(t, 1000)
	f.open(t)

	_, err := f.svc.Open(context.Background(), entities.TicketRequest{
		ParkingSpaceID: f.env.space.ID,
		VehicleModel:   "Ford Ka",
		LicensePlate:   "XYZ999",
	})
	var conflict *apperrors.ConflictError
	require.True(t, errors.As(err, &conflict), "got %v", err)
	assert.Equal(t, "parking space is occupied", conflict.Reason)
}

func TestOpenTicketValidation(t *testing.T) {
	f := newTicketFixture(t, 1000)
	space := f.env.space.ID

	tests := []struct {
		name  string
		req   entities.TicketRequest
		field string
	}{
		{"missing space", entities.TicketRequest{VehicleModel: "Uno", LicensePlate: "AB1"}, "parking_space_id"},
		{"missing model", entities.TicketRequest{ParkingSpaceID: space, LicensePlate: "AB1"}, "vehicle_model"},
		{"missing plate", entities.TicketRequest{ParkingSpaceID: space, VehicleModel: "Uno", LicensePlate: " - "}, "license_plate"},
		{"plate too long", entities.TicketRequest{ParkingSpaceID: space, VehicleModel: "Uno", LicensePlate: "ABCDEFGHIJK"}, "license_plate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Open(context.Background(), tt.req)
			var validation *apperrors.ValidationError
			require.True(t, errors.As(err, &validation), "got %v", err)
			assert.Equal(t, tt.field, validation.Field)
		})
	}

	_, err := f.svc.Open(context.Background(), entities.TicketRequest{ParkingSpaceID: "missing", VehicleModel: "Uno", LicensePlate: "AB1"})
	var nf *apperrors.NotFoundError
	assert.True(t, errors.As(err, &nf), "got %v", err)
}

func TestCloseOutTicket(t *testing.T) {
	f := newTicketFixture(t, 1000)
	ctx := context.Background()
	ticket := f.open(t)

	f.clock.Advance(90 * time.Minute)
	closed, err := f.svc.CloseOut(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, db.TicketClosed, closed.Status)
	assert.EqualValues(t, 2000, closed.ValueCents)
	require.NotNil(t, closed.CheckoutAt)
	assert.True(t, closed.CheckoutAt.Equal(t0.Add(90*time.Minute)))

	space, err := f.env.store.Parkings.GetSpace(ctx, f.env.space.ID)
	require.NoError(t, err)
	assert.False(t, space.Occupied)

	stored, err := f.svc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2000, stored.ValueCents)

	closedEvents := f.pub.ofType(events.EventTicketClosed)
	require.Len(t, closedEvents, 1)
	assert.EqualValues(t, 2000, closedEvents[0].Payload["value_cents"])

	// The space can take the next vehicle.
	f.open(t)
}

func TestCloseOutTicketTwice(t *testing.T) {
	f := newTicketFixture(t, 1000)
	ctx := context.Background()
	ticket := f.open(t)

	f.clock.Advance(time.Hour)
	_, err := f.svc.CloseOut(ctx, ticket.ID)
	require.NoError(t, err)

	f.clock.Advance(5 * time.Hour)
	_, err = f.svc.CloseOut(ctx, ticket.ID)
	var closedErr *apperrors.AlreadyClosedError
	require.True(t, errors.As(err, &closedErr), "got %v", err)

	stored, err := f.svc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1000, stored.ValueCents)
}

func TestCloseOutWithoutElapsedTime(t *testing.T) {
	f := newTicketFixture(t, 1000)
	ticket := f.open(t)

	_, err := f.svc.CloseOut(context.Background(), ticket.ID)
	var periodErr *apperrors.InvalidPeriodError
	require.True(t, errors.As(err, &periodErr), "got %v", err)

	stored, err := f.svc.Get(context.Background(), ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, db.TicketOpen, stored.Status)
}

func TestCloseOutUnknownTicket(t *testing.T) {
	f := newTicketFixture(t, 1000)

	_, err := f.svc.CloseOut(context.Background(), "missing")
	var nf *apperrors.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "ticket", nf.Entity)
}

func TestQuoteTicket(t *testing.T) {
	f := newTicketFixture(t, 750)
	ctx := context.Background()
	ticket := f.open(t)

	f.clock.Advance(2*time.Hour + time.Minute)
	q, err := f.svc.Quote(ctx, ticket.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, q.BilledHours)
	assert.EqualValues(t, 2250, q.AmountCents)

	_, err = f.svc.CloseOut(ctx, ticket.ID)
	require.NoError(t, err)

	// Closed tickets keep their recorded checkout.
	f.clock.Advance(10 * time.Hour)
	q, err = f.svc.Quote(ctx, ticket.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2250, q.AmountCents)
}

func (f ticketFixture) closed(t *testing.T, stay time.Duration) *db.Ticket {
	t.Helper()
	ticket := f.open(t)
	f.clock.Advance(stay)
	closed, err := f.svc.CloseOut(context.Background(), ticket.ID)
	require.NoError(t, err)
	return closed
}

func TestTicketPayment(t *testing.T) {
	f := newTicketFixture(t, 1000)
	ctx := context.Background()
	ticket := f.open(t)

	_, err := f.svc.StartPayment(ctx, ticket.ID)
	var validation *apperrors.ValidationError
	require.True(t, errors.As(err, &validation), "open tickets cannot be paid")

	f.clock.Advance(30 * time.Minute)
	_, err = f.svc.CloseOut(ctx, ticket.ID)
	require.NoError(t, err)

	session, err := f.svc.StartPayment(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_"+ticket.ID+"_1", session.SessionID)
	require.Len(t, f.gateway.requests, 1)
	assert.EqualValues(t, 1000, f.gateway.requests[0].AmountCents)

	paid, err := f.svc.ConfirmPayment(ctx, entities.PaymentConfirmation{
		SessionID: session.SessionID, TicketID: ticket.ID, AmountCents: 1000,
	})
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)
	assert.Len(t, f.pub.ofType(events.EventTicketPaid), 1)

	f.clock.Advance(time.Hour)
	again, err := f.svc.ConfirmPayment(ctx, entities.PaymentConfirmation{
		SessionID: session.SessionID, TicketID: ticket.ID, AmountCents: 1000,
	})
	require.NoError(t, err)
	assert.True(t, again.PaidAt.Equal(*paid.PaidAt), "redelivery keeps the first timestamp")
	assert.Len(t, f.pub.ofType(events.EventTicketPaid), 1)

	_, err = f.svc.StartPayment(ctx, ticket.ID)
	var conflict *apperrors.ConflictError
	assert.True(t, errors.As(err, &conflict), "got %v", err)

	_, err = f.svc.ConfirmPayment(ctx, entities.PaymentConfirmation{SessionID: "cs_unknown", AmountCents: 1000})
	var nf *apperrors.NotFoundError
	assert.True(t, errors.As(err, &nf), "got %v", err)

	_, err = f.svc.ConfirmPayment(ctx, entities.PaymentConfirmation{})
	assert.True(t, errors.As(err, &validation))
}

func TestConfirmPaymentForEarlierSession(t *testing.T) {
	f := newTicketFixture(t, 1000)
	ctx := context.Background()
	ticket := f.closed(t, 90*time.Minute)

	first, err := f.svc.StartPayment(ctx, ticket.ID)
	require.NoError(t, err)
	second, err := f.svc.StartPayment(ctx, ticket.ID)
	require.NoError(t, err)
	require.NotEqual(t, first.SessionID, second.SessionID)

	paid, err := f.svc.ConfirmPayment(ctx, entities.PaymentConfirmation{
		SessionID: first.SessionID, TicketID: ticket.ID, AmountCents: 2000,
	})
	require.NoError(t, err)
	require.NotNil(t, paid.PaidAt)
	assert.Equal(t, first.SessionID, paid.PaymentSessionID)

	stored, err := f.svc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.PaidAt)
	assert.Equal(t, first.SessionID, stored.PaymentSessionID)
}

func TestConfirmPaymentBySessionOnly(t *testing.T) {
	f := newTicketFixture(t, 1000)
	ctx := context.Background()
	ticket := f.closed(t, time.Hour)

	session, err := f.svc.StartPayment(ctx, ticket.ID)
	require.NoError(t, err)

	paid, err := f.svc.ConfirmPayment(ctx, entities.PaymentConfirmation{SessionID: session.SessionID, AmountCents: 1000})
	require.NoError(t, err)
	assert.Equal(t, ticket.ID, paid.ID)
	assert.NotNil(t, paid.PaidAt)
}

func TestConfirmPaymentAmountMismatch(t *testing.T) {
	f := newTicketFixture(t, 1000)
	ctx := context.Background()
	ticket := f.closed(t, time.Hour)

	session, err := f.svc.StartPayment(ctx, ticket.ID)
	require.NoError(t, err)

	_, err = f.svc.ConfirmPayment(ctx, entities.PaymentConfirmation{
		SessionID: session.SessionID, TicketID: ticket.ID, AmountCents: 1,
	})
	var validation *apperrors.ValidationError
	require.True(t, errors.As(err, &validation), "got %v", err)
	assert.Equal(t, "amount", validation.Field)

	stored, err := f.svc.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.PaidAt)
	assert.Empty(t, f.pub.ofType(events.EventTicketPaid))
}

func TestStartPaymentWithoutGateway(t *testing.T) {
	f := newTicketFixture(t, 1000)
	f.svc.Payments = nil

	_, err := f.svc.StartPayment(context.Background(), "any")
	var storage *apperrors.StorageError
	require.True(t, errors.As(err, &storage))
	assert.ErrorIs(t, err, ErrPaymentsDisabled)
}

func TestStartPaymentGatewayFailure(t *testing.T) {
	f := newTicketFixture(t, 1000)
	ctx := context.Background()
	ticket := f.open(t)
	f.clock.Advance(time.Hour)
	_, err := f.svc.CloseOut(ctx, ticket.ID)
	require.NoError(t, err)

	f.gateway.err = errors.New("stripe unavailable")
	_, err = f.svc.StartPayment(ctx, ticket.ID)
	var storage *apperrors.StorageError
	assert.True(t, errors.As(err, &storage))
}
