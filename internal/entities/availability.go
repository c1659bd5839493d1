package entities

import "time"

type AvailabilityResponse struct {
	ParkingSpaceID string    `json:"parking_space_id"`
	Checkin        time.Time `json:"checkin"`
	Checkout       time.Time `json:"checkout"`
	Available      bool      `json:"available"`
}

// AvailableSpacesResponse lists the spaces of a parking that are free, either
// right now or for the requested period when one is given.
type AvailableSpacesResponse struct {
	ParkingID string          `json:"parking_id"`
	Checkin   *time.Time      `json:"checkin,omitempty"`
	Checkout  *time.Time      `json:"checkout,omitempty"`
	Spaces    []SpaceResponse `json:"spaces"`
}
