package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"parkinglot/internal/auth"
	"parkinglot/internal/db"
	"parkinglot/internal/entities"
	apperrors "parkinglot/internal/errors"
	"parkinglot/internal/idempotency"
	"parkinglot/internal/service/mocks"
	"parkinglot/internal/timerange"
)

var (
	testSecret    = []byte("api-test-secret")
	webhookSecret = "whsec_test"
	t0            = time.Date(2024, 5, 20, 8, 0, 0, 0, time.UTC)
)

type testServer struct {
	handler      http.Handler
	reservations *mocks.MockReservationService
	tickets      *mocks.MockTicketService
	parkings     *mocks.MockParkingService
	idem         *mocks.MockIdempotencyStore
}

func setupTestServer(t *testing.T) testServer {
	t.Helper()
	s := testServer{
		reservations: new(mocks.MockReservationService),
		tickets:      new(mocks.MockTicketService),
		parkings:     new(mocks.MockParkingService),
		idem:         new(mocks.MockIdempotencyStore),
	}
	logger := zerolog.Nop()
	s.handler = NewRouter(Handlers{
		Reservations: NewReservationHandler(s.reservations, s.idem, logger),
		Parkings:     NewParkingHandler(s.parkings, logger),
		Tickets:      NewTicketHandler(s.tickets, logger),
		Stripe:       NewStripeWebhookHandler(webhookSecret, s.tickets, logger),
	}, RouterConfig{JWTSecret: testSecret, Logger: logger})
	return s
}

func (s testServer) do(t *testing.T, method, path string, body interface{}, roles ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if len(roles) > 0 {
		token, err := auth.Issue(testSecret, auth.Claims{UserID: "u1", Roles: roles}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func sampleReservation() *db.Reservation {
	return &db.Reservation{ID: "r1", ParkingSpaceID: "s1", CheckinAt: t0, CheckoutAt: t0.Add(2 * time.Hour)}
}

func reservationBody() map[string]string {
	return map[string]string{
		"parking_space_id": "s1",
		"checkin":          t0.Format(time.RFC3339),
		"checkout":         t0.Add(2 * time.Hour).Format(time.RFC3339),
	}
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	s := setupTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/metrics", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/parkings", nil).Code)
}

func TestCreateReservation(t *testing.T) {
	tests := []struct {
		name           string
		mockReturn     *db.Reservation
		mockError      error
		expectedStatus int
		expectedError  string
	}{
		{"committed", sampleReservation(), nil, http.StatusCreated, ""},
		{"overlap", nil, apperrors.NewConflict("no space available for the requested period"), http.StatusConflict, "no space available for the requested period"},
		{"invalid range", nil, &apperrors.InvalidRangeError{Start: t0, End: t0}, http.StatusBadRequest, ""},
		{"unknown space", nil, apperrors.NewNotFound("parking space", "s1"), http.StatusNotFound, ""},
		{"storage down", nil, apperrors.NewStorageError("insert", fmt.Errorf("connection refused")), http.StatusServiceUnavailable, "storage unavailable, please retry"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestServer(t)
			s.reservations.On("Create", mock.Anything, mock.AnythingOfType("entities.ReservationRequest")).Return(tt.mockReturn, tt.mockError)

			rec := s.do(t, http.MethodPost, "/api/reservations", reservationBody(), "customer")
			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorBody(t, rec))
			}
			if tt.mockReturn != nil {
				var resp entities.ReservationResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
				assert.Equal(t, "r1", resp.ID)
				assert.True(t, resp.Checkout.Equal(t0.Add(2*time.Hour)))
			}
			s.reservations.AssertExpectations(t)
		})
	}
}

func TestCreateReservationDecodesTimes(t *testing.T) {
	s := setupTestServer(t)
	s.reservations.On("Create", mock.Anything, mock.MatchedBy(func(req entities.ReservationRequest) bool {
		return req.ParkingSpaceID == "s1" && req.Checkin.Valid && req.Checkin.Time.Equal(t0) && req.Checkout.Time.Equal(t0.Add(2*time.Hour))
	})).Return(sampleReservation(), nil)

	rec := s.do(t, http.MethodPost, "/api/reservations", reservationBody(), "customer")
	assert.Equal(t, http.StatusCreated, rec.Code)
	s.reservations.AssertExpectations(t)
}

func TestCreateReservationRejectsBadBody(t *testing.T) {
	s := setupTestServer(t)

	rec := s.do(t, http.MethodPost, "/api/reservations", map[string]string{"unknown": "x"}, "customer")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.reservations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// memoryIdempotency keeps the first response per key, like the Redis store.
type memoryIdempotency struct {
	entries map[string]idempotency.Response
}

func (m *memoryIdempotency) Lookup(_ context.Context, key string) (*idempotency.Response, bool) {
	resp, ok := m.entries[key]
	return &resp, ok
}

func (m *memoryIdempotency) Remember(_ context.Context, key string, resp idempotency.Response) {
	if _, ok := m.entries[key]; !ok {
		m.entries[key] = resp
	}
}

func (s testServer) withIdempotency(store IdempotencyStore) http.Handler {
	logger := zerolog.Nop()
	return NewRouter(Handlers{
		Reservations: NewReservationHandler(s.reservations, store, logger),
		Parkings:     NewParkingHandler(s.parkings, logger),
		Tickets:      NewTicketHandler(s.tickets, logger),
	}, RouterConfig{JWTSecret: testSecret, Logger: logger})
}

func idempotentCreate(t *testing.T, handler http.Handler, userID, key string, body map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	r := httptest.NewRequest(http.MethodPost, "/api/reservations", &buf)
	token, err := auth.Issue(testSecret, auth.Claims{UserID: userID}, time.Hour)
	require.NoError(t, err)
	r.Header.Set("Authorization", "Bearer "+token)
	r.Header.Set(idempotency.HeaderKey, key)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)
	return rec
}

func TestCreateReservationIdempotency(t *testing.T) {
	s := setupTestServer(t)
	s.idem.On("Lookup", mock.Anything, "u1:key-1").Return(nil, false).Once()
	s.reservations.On("Create", mock.Anything, mock.Anything).Return(sampleReservation(), nil).Once()
	s.idem.On("Remember", mock.Anything, "u1:key-1", mock.MatchedBy(func(resp idempotency.Response) bool {
		return resp.Status == http.StatusCreated && bytes.Contains(resp.Body, []byte(`"id":"r1"`)) && resp.Fingerprint != ""
	})).Once()

	first := idempotentCreate(t, s.handler, "u1", "key-1", reservationBody())
	require.Equal(t, http.StatusCreated, first.Code)
	s.idem.AssertExpectations(t)

	store := &memoryIdempotency{entries: map[string]idempotency.Response{}}
	handler := s.withIdempotency(store)
	s.reservations.On("Create", mock.Anything, mock.Anything).Return(sampleReservation(), nil).Once()

	stored := idempotentCreate(t, handler, "u1", "key-1", reservationBody())
	require.Equal(t, http.StatusCreated, stored.Code)
	replayed := idempotentCreate(t, handler, "u1", "key-1", reservationBody())
	assert.Equal(t, http.StatusCreated, replayed.Code)
	assert.Equal(t, "true", replayed.Header().Get(headerReplayed))
	assert.JSONEq(t, stored.Body.String(), replayed.Body.String())

	s.reservations.AssertNumberOfCalls(t, "Create", 2)
}

func TestIdempotencyKeyIsScopedToCaller(t *testing.T) {
	s := setupTestServer(t)
	store := &memoryIdempotency{entries: map[string]idempotency.Response{}}
	handler := s.withIdempotency(store)

	mine := sampleReservation()
	mine.ContactEmail = "ana@example.com"
	theirs := &db.Reservation{ID: "r2", ParkingSpaceID: "s1", CheckinAt: t0, CheckoutAt: t0.Add(2 * time.Hour)}
	s.reservations.On("Create", mock.Anything, mock.Anything).Return(mine, nil).Once()
	s.reservations.On("Create", mock.Anything, mock.Anything).Return(theirs, nil).Once()

	first := idempotentCreate(t, handler, "u1", "shared", reservationBody())
	require.Equal(t, http.StatusCreated, first.Code)

	second := idempotentCreate(t, handler, "u2", "shared", reservationBody())
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Empty(t, second.Header().Get(headerReplayed))
	assert.NotContains(t, second.Body.String(), "ana@example.com")
	assert.Contains(t, second.Body.String(), `"id":"r2"`)

	s.reservations.AssertNumberOfCalls(t, "Create", 2)
}

func TestIdempotencyKeyReusedWithDifferentBody(t *testing.T) {
	s := setupTestServer(t)
	store := &memoryIdempotency{entries: map[string]idempotency.Response{}}
	handler := s.withIdempotency(store)
	s.reservations.On("Create", mock.Anything, mock.Anything).Return(sampleReservation(), nil).Once()

	first := idempotentCreate(t, handler, "u1", "key-1", reservationBody())
	require.Equal(t, http.StatusCreated, first.Code)

	later := reservationBody()
	later["checkin"] = t0.Add(24 * time.Hour).Format(time.RFC3339)
	later["checkout"] = t0.Add(26 * time.Hour).Format(time.RFC3339)
	rec := idempotentCreate(t, handler, "u1", "key-1", later)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, errorBody(t, rec), "different request")

	s.reservations.AssertNumberOfCalls(t, "Create", 1)
}

func TestReservationLifecycleEndpoints(t *testing.T) {
	s := setupTestServer(t)
	s.reservations.On("Get", mock.Anything, "r1").Return(sampleReservation(), nil)
	s.reservations.On("Get", mock.Anything, "missing").Return(nil, apperrors.NewNotFound("reservation", "missing"))
	s.reservations.On("Update", mock.Anything, "r1", mock.Anything).Return(sampleReservation(), nil)
	s.reservations.On("Cancel", mock.Anything, "r1").Return(nil)
	s.reservations.On("ListBySpace", mock.Anything, "s1").Return([]db.Reservation{*sampleReservation()}, nil)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/reservations/r1", nil, "customer").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/reservations/missing", nil, "customer").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodPut, "/api/reservations/r1", reservationBody(), "customer").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/reservations/r1", nil, "customer").Code)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/spaces/s1/reservations", nil, "customer").Code)
	rec := s.do(t, http.MethodGet, "/api/spaces/s1/reservations", nil, "employee")
	require.Equal(t, http.StatusOK, rec.Code)
	var list entities.ReservationsList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 1, list.Total)

	s.reservations.AssertExpectations(t)
}

func TestCheckAvailability(t *testing.T) {
	s := setupTestServer(t)
	want, err := timerange.New(t0, t0.Add(time.Hour))
	require.NoError(t, err)
	s.reservations.On("IsAvailable", mock.Anything, "s1", mock.MatchedBy(func(p timerange.Range) bool {
		return p.Start.Equal(want.Start) && p.End.Equal(want.End)
	}), "r9").Return(false, nil)

	path := fmt.Sprintf("/api/spaces/s1/availability?checkin=%s&checkout=%s&exclude=r9",
		t0.Format(time.RFC3339), t0.Add(time.Hour).Format(time.RFC3339))
	rec := s.do(t, http.MethodGet, path, nil, "customer")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp entities.AvailabilityResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Available)
	assert.Equal(t, "s1", resp.ParkingSpaceID)

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/spaces/s1/availability", nil, "customer").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/spaces/s1/availability?checkin=yesterday&checkout=today", nil, "customer").Code)

	reversed := fmt.Sprintf("/api/spaces/s1/availability?checkin=%s&checkout=%s",
		t0.Add(time.Hour).Format(time.RFC3339), t0.Format(time.RFC3339))
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, reversed, nil, "customer").Code)
}

func TestParkingEndpointsRequireRoles(t *testing.T) {
	s := setupTestServer(t)
	parking := &db.Parking{ID: "p1", Name: "Centro", HourlyPriceCents: 500, Category: db.CategoryStandard}
	s.parkings.On("CreateParking", mock.Anything, mock.Anything).Return(parking, nil)
	s.parkings.On("CreateSpace", mock.Anything, "p1", entities.SpaceRequest{Code: "A1"}).Return(&db.ParkingSpace{ID: "s1", Code: "A1", ParkingID: "p1"}, nil)

	body := map[string]interface{}{"name": "Centro", "hourly_price_cents": 500}
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/parkings", body, "employee").Code)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/parkings", body, "manager").Code)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/parkings/p1/spaces", map[string]string{"code": "A1"}, "customer").Code)
	rec := s.do(t, http.MethodPost, "/api/parkings/p1/spaces", map[string]string{"code": "A1"}, "employee")
	require.Equal(t, http.StatusCreated, rec.Code)
	var space entities.SpaceResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&space))
	assert.Equal(t, "A1", space.Code)

	s.parkings.AssertExpectations(t)
}

func TestListAvailableSpaces(t *testing.T) {
	s := setupTestServer(t)
	spaces := []db.ParkingSpace{{ID: "s1", Code: "A1", ParkingID: "p1"}}
	s.parkings.On("ListAvailableSpaces", mock.Anything, "p1", (*timerange.Range)(nil)).Return(spaces, nil).Once()
	s.parkings.On("ListAvailableSpaces", mock.Anything, "p1", mock.MatchedBy(func(p *timerange.Range) bool {
		return p != nil && p.Start.Equal(t0)
	})).Return(spaces, nil).Once()

	rec := s.do(t, http.MethodGet, "/api/parkings/p1/spaces/available", nil, "customer")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp entities.AvailableSpacesResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Nil(t, resp.Checkin)
	assert.Len(t, resp.Spaces, 1)

	path := fmt.Sprintf("/api/parkings/p1/spaces/available?checkin=%s&checkout=%s",
		t0.Format(time.RFC3339), t0.Add(time.Hour).Format(time.RFC3339))
	rec = s.do(t, http.MethodGet, path, nil, "customer")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = entities.AvailableSpacesResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Checkin)
	assert.True(t, resp.Checkin.Equal(t0))

	s.parkings.AssertExpectations(t)
}

func TestTicketEndpoints(t *testing.T) {
	s := setupTestServer(t)
	checkout := t0.Add(90 * time.Minute)
	open := &db.Ticket{ID: "t1", ParkingSpaceID: "s1", VehicleModel: "Uno", LicensePlate: "AB123", CheckinAt: t0, Status: db.TicketOpen}
	closed := &db.Ticket{ID: "t1", ParkingSpaceID: "s1", VehicleModel: "Uno", LicensePlate: "AB123", CheckinAt: t0, CheckoutAt: &checkout, ValueCents: 2000, Status: db.TicketClosed}

	s.tickets.On("Open", mock.Anything, entities.TicketRequest{ParkingSpaceID: "s1", VehicleModel: "Uno", LicensePlate: "AB123"}).Return(open, nil)
	s.tickets.On("CloseOut", mock.Anything, "t1").Return(closed, nil).Once()
	s.tickets.On("CloseOut", mock.Anything, "t1").Return(nil, &apperrors.AlreadyClosedError{TicketID: "t1"}).Once()
	s.tickets.On("Quote", mock.Anything, "t1").Return(&entities.FeeQuote{BilledHours: 2, HourlyPriceCents: 1000, AmountCents: 2000}, nil)
	s.tickets.On("StartPayment", mock.Anything, "t1").Return(&entities.PaymentSessionResponse{TicketID: "t1", SessionID: "cs_1", URL: "https://pay"}, nil)

	body := map[string]string{"parking_space_id": "s1", "vehicle_model": "Uno", "license_plate": "AB123"}
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPost, "/api/tickets", body, "customer").Code)
	rec := s.do(t, http.MethodPost, "/api/tickets", body, "employee")
	require.Equal(t, http.StatusCreated, rec.Code)
	var ticket entities.TicketResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ticket))
	assert.False(t, ticket.Checkout.Valid)

	rec = s.do(t, http.MethodPost, "/api/tickets/t1/checkout", nil, "employee")
	require.Equal(t, http.StatusOK, rec.Code)
	ticket = entities.TicketResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&ticket))
	assert.EqualValues(t, 2000, ticket.ValueCents)
	assert.True(t, ticket.Checkout.Valid)

	assert.Equal(t, http.StatusConflict, s.do(t, http.MethodPost, "/api/tickets/t1/checkout", nil, "employee").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/tickets/t1/quote", nil, "manager").Code)
	assert.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/tickets/t1/payment", nil, "manager").Code)

	s.tickets.AssertExpectations(t)
}

func signedWebhook(t *testing.T, eventType, sessionID, paymentStatus string) *http.Request {
	t.Helper()
	return signedCheckoutEvent(t, eventType, fmt.Sprintf(
		`{"id": %q, "object": "checkout.session", "payment_status": %q}`, sessionID, paymentStatus))
}

func signedCheckoutEvent(t *testing.T, eventType, object string) *http.Request {
	t.Helper()
	payload := fmt.Sprintf(`{
		"id": "evt_1",
		"object": "event",
		"api_version": %q,
		"type": %q,
		"data": {"object": %s}
	}`, stripe.APIVersion, eventType, object)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/stripe", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

func TestStripeWebhook(t *testing.T) {
	s := setupTestServer(t)
	s.tickets.On("ConfirmPayment", mock.Anything, entities.PaymentConfirmation{SessionID: "cs_paid"}).
		Return(&db.Ticket{ID: "t1"}, nil).Once()

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, signedWebhook(t, "checkout.session.completed", "cs_paid", "paid"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, signedWebhook(t, "checkout.session.completed", "cs_unpaid", "unpaid"))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, signedWebhook(t, "charge.refunded", "ch_1", "paid"))
	assert.Equal(t, http.StatusOK, rec.Code)

	bad := signedWebhook(t, "checkout.session.completed", "cs_paid", "paid")
	bad.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.tickets.AssertExpectations(t)
}

func TestStripeWebhookPassesTicketReference(t *testing.T) {
	s := setupTestServer(t)
	s.tickets.On("ConfirmPayment", mock.Anything, entities.PaymentConfirmation{
		SessionID: "cs_old", TicketID: "t1", AmountCents: 2000,
	}).Return(&db.Ticket{ID: "t1"}, nil).Once()
	s.tickets.On("ConfirmPayment", mock.Anything, entities.PaymentConfirmation{
		SessionID: "cs_meta", TicketID: "t2", AmountCents: 500,
	}).Return(&db.Ticket{ID: "t2"}, nil).Once()

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, signedCheckoutEvent(t, "checkout.session.completed",
		`{"id": "cs_old", "object": "checkout.session", "payment_status": "paid", "client_reference_id": "t1", "amount_total": 2000}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, signedCheckoutEvent(t, "checkout.session.completed",
		`{"id": "cs_meta", "object": "checkout.session", "payment_status": "paid", "metadata": {"ticket_id": "t2"}, "amount_total": 500}`))
	assert.Equal(t, http.StatusOK, rec.Code)

	s.tickets.AssertExpectations(t)
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, zerolog.Nop(), context.DeadlineExceeded)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", errorBody(t, rec))
}
