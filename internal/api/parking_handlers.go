package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"parkinglot/internal/entities"
	"parkinglot/internal/timerange"
)

type ParkingHandler struct {
	Service ParkingManager
	Logger  zerolog.Logger
}

func NewParkingHandler(svc ParkingManager, logger zerolog.Logger) *ParkingHandler {
	return &ParkingHandler{Service: svc, Logger: logger.With().Str("component", "api").Logger()}
}

func (h *ParkingHandler) ListParkings(w http.ResponseWriter, r *http.Request) {
	parkings, err := h.Service.ListParkings(r.Context())
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, parkings)
}

func (h *ParkingHandler) CreateParking(w http.ResponseWriter, r *http.Request) {
	var req entities.ParkingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Logger, err)
		return
	}
	parking, err := h.Service.CreateParking(r.Context(), req)
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, parking)
}

func (h *ParkingHandler) GetParking(w http.ResponseWriter, r *http.Request) {
	parking, err := h.Service.GetParking(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, parking)
}

func (h *ParkingHandler) DeleteParking(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteParking(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Parking deleted"})
}

func (h *ParkingHandler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	spaces, err := h.Service.ListSpaces(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, entities.NewSpaceResponses(spaces))
}

func (h *ParkingHandler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var req entities.SpaceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, h.Logger, err)
		return
	}
	space, err := h.Service.CreateSpace(r.Context(), mux.Vars(r)["id"], req)
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, entities.SpaceResponse{
		ID:        space.ID,
		Code:      space.Code,
		Occupied:  space.Occupied,
		ParkingID: space.ParkingID,
	})
}

func (h *ParkingHandler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteSpace(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondError(w, h.Logger, err)
		return
	}
	respondJSON(w, http.StatusOK, MessageResponse{Message: "Space deleted"})
}

// ListAvailableSpaces handles GET /api/parkings/{id}/spaces/available. With
// checkin and checkout it filters by reservations, otherwise by occupancy.
func (h *ParkingHandler) ListAvailableSpaces(w http.ResponseWriter, r *http.Request) {
	parkingID := mux.Vars(r)["id"]
	period, ok, err := periodFromQuery(r)
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}

	var filter *timerange.Range
	resp := entities.AvailableSpacesResponse{ParkingID: parkingID}
	if ok {
		filter = &period
		resp.Checkin = &period.Start
		resp.Checkout = &period.End
	}

	spaces, err := h.Service.ListAvailableSpaces(r.Context(), parkingID, filter)
	if err != nil {
		respondError(w, h.Logger, err)
		return
	}
	resp.Spaces = entities.NewSpaceResponses(spaces)
	respondJSON(w, http.StatusOK, resp)
}
