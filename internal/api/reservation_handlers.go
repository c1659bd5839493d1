package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"parkinglot/internal/auth"
	"parkinglot/internal/entities"
	apperrors "parkinglot/internal/errors"
	"parkinglot/internal/idempotency"
)

const headerReplayed = "Idempotent-Replayed"

type ReservationHandler struct {
	Service     ReservationManager
	Idempotency IdempotencyStore
	Logger      zerolog.Logger
}

// NewReservationHandler builds the reservation endpoints. idem may be nil, in
// which case Idempotency-Key headers are ignored.
func NewReservationHandler(svc ReservationManager, idem IdempotencyStore, logger zerolog.Logger) *ReservationHandler {
	return &ReservationHandler{Service: svc, Idempotency: idem, Logger: logger.With().Str("component", "api").Logger()}
}

// CreateReservation handles POST /api/reservations. A request repeating an
// Idempotency-Key gets the response of the first successful attempt. Keys are
// scoped to the caller, and reusing one with a different body is rejected.
func (h *ReservationHandler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Logger, err)
		return
	}

	key, fingerprint := h.idempotencyKey(r, req)
	if key != "" {
		if cached, ok := h.Idempotency.Lookup(r.Context(), key); ok {
			if !cached.Matches(fingerprint) {
				respondError(w, h.Logger, apperrors.NewHTTPError(http.StatusUnprocessableEntity,
					"idempotency key was already used with a different request"))
				return
			}
			w.Header().Set(headerReplayed, "true")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(cached.Status)
			_, _ = w.Write(cached.Body)
			return
		}
	}

	res, err := h.Service.Create(r.Context(), req)
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}

	body := entities.NewReservationResponse(res)
	if key != "" {
		var buf bytes.Buffer
		if err := json.NewEncoder(&buf).Encode(body); err == nil {
			h.Idempotency.Remember(r.Context(), key, idempotency.Response{
				Status:      http.StatusCreated,
				Body:        buf.Bytes(),
				Fingerprint: fingerprint,
			})
		}
	}
	respondJSON(w, http.StatusCreated, body)
}

// idempotencyKey returns the cache key for the request's Idempotency-Key and
// the fingerprint of req. key is empty when the header is absent, caching is
// off or the caller is anonymous.
func (h *ReservationHandler) idempotencyKey(r *http.Request, req entities.ReservationRequest) (key, fingerprint string) {
	raw := r.Header.Get(idempotency.HeaderKey)
	if raw == "" || h.Idempotency == nil {
		return "", ""
	}
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		return "", ""
	}
	fingerprint, err := idempotency.Fingerprint(req)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("fingerprint reservation request")
		return "", ""
	}
	return idempotency.ScopedKey(principal.ID, raw), fingerprint
}

func (h *ReservationHandler) GetReservation(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewReservationResponse(res))
}

func (h *ReservationHandler) UpdateReservation(w http.ResponseWriter, r *http.Request) {
	var req entities.ReservationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Logger, err)
		return
	}

	res, err := h.Service.Update(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewReservationResponse(res))
}

func (h *ReservationHandler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Cancel(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Reservation cancelled"})
}

// CheckAvailability handles GET /api/spaces/{id}/availability?checkin=&checkout=.
// An optional exclude parameter ignores one reservation, for edits.
func (h *ReservationHandler) CheckAvailability(w http.ResponseWriter, r *http.Request) {
	spaceID := mux.Vars(r)["id"]
	period, ok, err := periodFromQuery(r)
	if err == nil && !ok {
		err = apperrors.MissingFieldError("checkin")
	}
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}

	available, err := h.Service.IsAvailable(r.Context(), spaceID, period, r.URL.Query().Get("exclude"))
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.AvailabilityResponse{
		ParkingSpaceID: spaceID,
		Checkin:        period.Start,
		Checkout:       period.End,
		Available:      available,
	})
}

func (h *ReservationHandler) ListSpaceReservations(w http.ResponseWriter, r *http.Request) {
	reservations, err := h.Service.ListBySpace(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewReservationsList(reservations))
}
