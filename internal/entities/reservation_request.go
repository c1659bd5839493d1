package entities

import (
	"gopkg.in/guregu/null.v4"
)

// ReservationRequest is the body of create and update calls. Checkin and
// Checkout are null.Time so an absent field can be told apart from a zero time.
type ReservationRequest struct {
	ParkingSpaceID string    `json:"parking_space_id"`
	Checkin        null.Time `json:"checkin"`
	Checkout       null.Time `json:"checkout"`
	ContactName    string    `json:"contact_name,omitempty"`
	ContactEmail   string    `json:"contact_email,omitempty"`
	ContactPhone   string    `json:"contact_phone,omitempty"`
}
