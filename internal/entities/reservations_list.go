package entities

import (
	"time"

	"parkinglot/internal/db"
)

type ReservationResponse struct {
	ID             string    `json:"id"`
	ParkingSpaceID string    `json:"parking_space_id"`
	Checkin        time.Time `json:"checkin"`
	Checkout       time.Time `json:"checkout"`
	ContactName    string    `json:"contact_name,omitempty"`
	ContactEmail   string    `json:"contact_email,omitempty"`
	ContactPhone   string    `json:"contact_phone,omitempty"`
}

type ReservationsList struct {
	Total        int                   `json:"total"`
	Reservations []ReservationResponse `json:"reservations"`
}

func NewReservationResponse(r *db.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:             r.ID,
		ParkingSpaceID: r.ParkingSpaceID,
		Checkin:        r.CheckinAt.UTC(),
		Checkout:       r.CheckoutAt.UTC(),
		ContactName:    r.ContactName,
		ContactEmail:   r.ContactEmail,
		ContactPhone:   r.ContactPhone,
	}
}

func NewReservationsList(reservations []db.Reservation) ReservationsList {
	list := ReservationsList{Total: len(reservations), Reservations: make([]ReservationResponse, 0, len(reservations))}
	for i := range reservations {
		list.Reservations = append(list.Reservations, NewReservationResponse(&reservations[i]))
	}
	return list
}
