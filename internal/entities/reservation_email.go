package entities

// ReservationEmailData feeds the confirmation e-mail and SMS templates.
type ReservationEmailData struct {
	ReservationID     string
	ContactName       string
	ContactEmail      string
	ContactPhone      string
	SpaceCode         string
	CheckinFormatted  string
	CheckoutFormatted string
	CurrentYear       int
}
