package entities

import (
	"time"

	"gopkg.in/guregu/null.v4"

	"parkinglot/internal/db"
)

type TicketRequest struct {
	ParkingSpaceID string `json:"parking_space_id"`
	VehicleModel   string `json:"vehicle_model"`
	LicensePlate   string `json:"license_plate"`
}

type TicketResponse struct {
	ID             string          `json:"id"`
	ParkingSpaceID string          `json:"parking_space_id"`
	VehicleModel   string          `json:"vehicle_model"`
	LicensePlate   string          `json:"license_plate"`
	Checkin        time.Time       `json:"checkin"`
	Checkout       null.Time       `json:"checkout"`
	ValueCents     int64           `json:"value_cents"`
	Status         db.TicketStatus `json:"status"`
	Paid           bool            `json:"paid"`
}

func NewTicketResponse(t *db.Ticket) TicketResponse {
	return TicketResponse{
		ID:             t.ID,
		ParkingSpaceID: t.ParkingSpaceID,
		VehicleModel:   t.VehicleModel,
		LicensePlate:   t.LicensePlate,
		Checkin:        t.CheckinAt.UTC(),
		Checkout:       null.TimeFromPtr(t.CheckoutAt),
		ValueCents:     t.ValueCents,
		Status:         t.Status,
		Paid:           t.PaidAt != nil,
	}
}

type PaymentSessionResponse struct {
	TicketID  string `json:"ticket_id"`
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// PaymentConfirmation is what the payment provider reports for a completed
// checkout. TicketID comes from the session's client reference and may be
// empty for sessions created elsewhere.
type PaymentConfirmation struct {
	SessionID   string
	TicketID    string
	AmountCents int64
}
