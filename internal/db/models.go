package db

import "time"

// ParkingCategory distinguishes conventional lots from priority lots.
type ParkingCategory string

const (
	CategoryStandard ParkingCategory = "standard"
	CategoryPriority ParkingCategory = "priority"
)

func (c ParkingCategory) Valid() bool {
	return c == CategoryStandard || c == CategoryPriority
}

type TicketStatus string

const (
	TicketOpen   TicketStatus = "open"
	TicketClosed TicketStatus = "closed"
)

const DefaultParkingName = "Untitled Parking"

type Parking struct {
	ID               string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name             string          `gorm:"size:120;not null" json:"name"`
	HourlyPriceCents int64           `gorm:"not null" json:"hourly_price_cents"`
	NumSpaces        int             `gorm:"not null;default:0" json:"num_spaces"`
	Category         ParkingCategory `gorm:"size:16;not null;default:standard" json:"category"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// ParkingSpace codes are unique within a parking.
type ParkingSpace struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code      string    `gorm:"size:10;not null;uniqueIndex:idx_space_parking_code" json:"code"`
	Occupied  bool      `gorm:"not null;default:false" json:"occupied"`
	ParkingID string    `gorm:"type:varchar(36);not null;index;uniqueIndex:idx_space_parking_code" json:"parking_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Ticket struct {
	ID               string    `gorm:"primaryKey;type:varchar(36)"`
	VehicleModel     string    `gorm:"size:50;not null"`
	LicensePlate     string    `gorm:"size:10;not null;index"`
	CheckinAt        time.Time `gorm:"not null"`
	CheckoutAt       *time.Time
	ParkingSpaceID   string       `gorm:"type:varchar(36);not null;index"`
	ValueCents       int64        `gorm:"not null;default:0"`
	Status           TicketStatus `gorm:"size:10;not null;default:open;index"`
	PaymentSessionID string       `gorm:"size:255;index"`
	PaidAt           *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Reservation covers [CheckinAt, CheckoutAt) on one space.
type Reservation struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)"`
	ParkingSpaceID string    `gorm:"type:varchar(36);not null;index"`
	CheckinAt      time.Time `gorm:"not null"`
	CheckoutAt     time.Time `gorm:"not null"`
	ContactName    string    `gorm:"size:120"`
	ContactEmail   string    `gorm:"size:255"`
	ContactPhone   string    `gorm:"size:32"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
