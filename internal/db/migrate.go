package db

import (
	"fmt"

	"gorm.io/gorm"
)

const reservationOverlapConstraint = "reservations_no_overlap"

// Migrate creates or updates the schema. On PostgreSQL it also installs an
// exclusion constraint so overlapping reservations on one space are rejected
// by the database itself.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&Parking{}, &ParkingSpace{}, &Ticket{}, &Reservation{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}

	if db.Dialector.Name() != "postgres" {
		return nil
	}

	var exists bool
	if err := db.Raw(
		`SELECT EXISTS (
			SELECT 1 FROM pg_constraint c
			JOIN pg_namespace n ON n.oid = c.connamespace
			WHERE c.conname = ? AND n.nspname = current_schema()
		)`, reservationOverlapConstraint,
	).Scan(&exists).Error; err != nil {
		return fmt.Errorf("check overlap constraint: %w", err)
	}
	if exists {
		return nil
	}

	stmts := []string{
		"CREATE EXTENSION IF NOT EXISTS btree_gist",
		"ALTER TABLE reservations ADD CONSTRAINT " + reservationOverlapConstraint +
			" EXCLUDE USING gist (parking_space_id WITH =, tstzrange(checkin_at, checkout_at, '[)') WITH &&)",
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("install overlap constraint: %w", err)
		}
	}
	return nil
}
