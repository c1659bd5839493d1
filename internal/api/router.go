package api

import (
	"fmt"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"parkinglot/internal/auth"
	"parkinglot/internal/idempotency"
	"parkinglot/internal/logging"
	"parkinglot/internal/telemetry"
)

// Handlers groups the endpoint sets mounted by NewRouter. Stripe is nil when
// card payments are disabled.
type Handlers struct {
	Reservations *ReservationHandler
	Parkings     *ParkingHandler
	Tickets      *TicketHandler
	Stripe       *StripeWebhookHandler
}

type RouterConfig struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter mounts every endpoint. /api requires a bearer token; each route
// then checks the capability it needs.
func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	r := mux.NewRouter()
	r.Use(telemetry.MetricsMiddleware)

	r.Handle("/metrics", telemetry.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/healthz", healthCheck).Methods(http.MethodGet)
	if h.Stripe != nil {
		r.HandleFunc("/webhooks/stripe", h.Stripe.HandleWebhook).Methods(http.MethodPost)
	}

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.Authenticate(cfg.JWTSecret, cfg.Logger))

	// Parkings and spaces
	route(api, "/parkings", auth.ViewAvailability, h.Parkings.ListParkings, http.MethodGet)
	route(api, "/parkings", auth.ManageParkings, h.Parkings.CreateParking, http.MethodPost)
	route(api, "/parkings/{id}", auth.ViewAvailability, h.Parkings.GetParking, http.MethodGet)
	route(api, "/parkings/{id}", auth.ManageParkings, h.Parkings.DeleteParking, http.MethodDelete)
	route(api, "/parkings/{id}/spaces", auth.ViewAvailability, h.Parkings.ListSpaces, http.MethodGet)
	route(api, "/parkings/{id}/spaces", auth.ManageSpaces, h.Parkings.CreateSpace, http.MethodPost)
	route(api, "/parkings/{id}/spaces/available", auth.ViewAvailability, h.Parkings.ListAvailableSpaces, http.MethodGet)
	route(api, "/spaces/{id}", auth.ManageSpaces, h.Parkings.DeleteSpace, http.MethodDelete)

	// Reservations
	route(api, "/spaces/{id}/availability", auth.ViewAvailability, h.Reservations.CheckAvailability, http.MethodGet)
	route(api, "/spaces/{id}/reservations", auth.ManageSpaces, h.Reservations.ListSpaceReservations, http.MethodGet)
	route(api, "/reservations", auth.ManageReservations, h.Reservations.CreateReservation, http.MethodPost)
	route(api, "/reservations/{id}", auth.ManageReservations, h.Reservations.GetReservation, http.MethodGet)
	route(api, "/reservations/{id}", auth.ManageReservations, h.Reservations.UpdateReservation, http.MethodPut)
	route(api, "/reservations/{id}", auth.ManageReservations, h.Reservations.CancelReservation, http.MethodDelete)

	// Tickets
	route(api, "/tickets", auth.ManageTickets, h.Tickets.OpenTicket, http.MethodPost)
	route(api, "/tickets/{id}", auth.ManageTickets, h.Tickets.GetTicket, http.MethodGet)
	route(api, "/tickets/{id}/checkout", auth.ManageTickets, h.Tickets.CloseTicket, http.MethodPost)
	route(api, "/tickets/{id}/quote", auth.ManageTickets, h.Tickets.QuoteTicket, http.MethodGet)
	route(api, "/tickets/{id}/payment", auth.ManageTickets, h.Tickets.StartPayment, http.MethodPost)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", idempotency.HeaderKey}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{cfg.Logger}),
		handlers.PrintRecoveryStack(true),
	)
	return handlers.CombinedLoggingHandler(logging.Writer(cfg.Logger, zerolog.InfoLevel), recovery(cors(r)))
}

func route(r *mux.Router, path string, capability auth.Capability, fn http.HandlerFunc, method string) {
	r.Handle(path, auth.RequireCapability(capability)(fn)).Methods(method)
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type recoveryLogger struct {
	logger zerolog.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error().Msg("panic recovered: " + fmt.Sprint(v...))
}
