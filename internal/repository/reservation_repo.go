package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parkinglot/internal/db"
)

type ReservationRepository struct {
	DB *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{DB: db}
}

// FindBySpace returns every reservation recorded for a space, ordered by checkin.
func (r *ReservationRepository) FindBySpace(ctx context.Context, spaceID string) ([]db.Reservation, error) {
	var reservations []db.Reservation
	err := r.DB.WithContext(ctx).
		Where("parking_space_id = ?", spaceID).
		Order("checkin_at").
		Find(&reservations).Error
	return reservations, translate(err)
}

// Insert stores a new reservation. An overlap rejected by the database comes
// back as ErrConflict.
func (r *ReservationRepository) Insert(ctx context.Context, res *db.Reservation) error {
	return translate(r.DB.WithContext(ctx).Create(res).Error)
}

func (r *ReservationRepository) Get(ctx context.Context, id string) (*db.Reservation, error) {
	var res db.Reservation
	if err := r.DB.WithContext(ctx).First(&res, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &res, nil
}

// Lock loads a reservation with SELECT ... FOR UPDATE.
func (r *ReservationRepository) Lock(ctx context.Context, id string) (*db.Reservation, error) {
	var res db.Reservation
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&res, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &res, nil
}

func (r *ReservationRepository) Update(ctx context.Context, res *db.Reservation) error {
	result := r.DB.WithContext(ctx).Model(&db.Reservation{}).Where("id = ?", res.ID).Updates(map[string]any{
		"parking_space_id": res.ParkingSpaceID,
		"checkin_at":       res.CheckinAt,
		"checkout_at":      res.CheckoutAt,
		"contact_name":     res.ContactName,
		"contact_email":    res.ContactEmail,
		"contact_phone":    res.ContactPhone,
	})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id string) error {
	result := r.DB.WithContext(ctx).Delete(&db.Reservation{}, "id = ?", id)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
