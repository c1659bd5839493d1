package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"parkinglot/internal/entities"
)

type TicketHandler struct {
	Service TicketManager
	Logger  zerolog.Logger
}

func NewTicketHandler(svc TicketManager, logger zerolog.Logger) *TicketHandler {
	return &TicketHandler{Service: svc, Logger: logger.With().Str("component", "api").Logger()}
}

// OpenTicket handles POST /api/tickets when a vehicle enters.
func (h *TicketHandler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	var req entities.TicketRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Logger, err)
		return
	}
	ticket, err := h.Service.Open(r.Context(), req)
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, entities.NewTicketResponse(ticket))
}

func (h *TicketHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewTicketResponse(ticket))
}

// CloseTicket handles POST /api/tickets/{id}/checkout.
func (h *TicketHandler) CloseTicket(w http.ResponseWriter, r *http.Request) {
	ticket, err := h.Service.CloseOut(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewTicketResponse(ticket))
}

func (h *TicketHandler) QuoteTicket(w http.ResponseWriter, r *http.Request) {
	quote, err := h.Service.Quote(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// StartPayment handles POST /api/tickets/{id}/payment and returns the hosted
// checkout URL.
func (h *TicketHandler) StartPayment(w http.ResponseWriter, r *http.Request) {
	session, err := h.Service.StartPayment(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}
