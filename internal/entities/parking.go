package entities

import "parkinglot/internal/db"

type ParkingRequest struct {
	Name             string             `json:"name"`
	HourlyPriceCents int64              `json:"hourly_price_cents"`
	NumSpaces        int                `json:"num_spaces"`
	Category         db.ParkingCategory `json:"category"`
}

type SpaceRequest struct {
	Code string `json:"code"`
}

type SpaceResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Occupied  bool   `json:"occupied"`
	ParkingID string `json:"parking_id"`
}

func NewSpaceResponses(spaces []db.ParkingSpace) []SpaceResponse {
	out := make([]SpaceResponse, 0, len(spaces))
	for _, s := range spaces {
		out = append(out, SpaceResponse{ID: s.ID, Code: s.Code, Occupied: s.Occupied, ParkingID: s.ParkingID})
	}
	return out
}
