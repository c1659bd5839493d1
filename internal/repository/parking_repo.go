package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parkinglot/internal/db"
)

type ParkingRepository struct {
	DB *gorm.DB
}

func NewParkingRepository(db *gorm.DB) *ParkingRepository {
	return &ParkingRepository{DB: db}
}

func (r *ParkingRepository) CreateParking(ctx context.Context, p *db.Parking) error {
	return translate(r.DB.WithContext(ctx).Create(p).Error)
}

func (r *ParkingRepository) GetParking(ctx context.Context, id string) (*db.Parking, error) {
	var p db.Parking
	if err := r.DB.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *ParkingRepository) ListParkings(ctx context.Context) ([]db.Parking, error) {
	var parkings []db.Parking
	err := r.DB.WithContext(ctx).Order("name, id").Find(&parkings).Error
	return parkings, translate(err)
}

// DeleteParking removes a parking together with its spaces and everything
// recorded against those spaces.
func (r *ParkingRepository) DeleteParking(ctx context.Context, id string) error {
	return translate(r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&db.Parking{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		spaceIDs := tx.Model(&db.ParkingSpace{}).Select("id").Where("parking_id = ?", id)
		if err := tx.Where("parking_space_id IN (?)", spaceIDs).Delete(&db.Reservation{}).Error; err != nil {
			return err
		}
		if err := tx.Where("parking_space_id IN (?)", spaceIDs).Delete(&db.Ticket{}).Error; err != nil {
			return err
		}
		return tx.Where("parking_id = ?", id).Delete(&db.ParkingSpace{}).Error
	}))
}

func (r *ParkingRepository) CreateSpace(ctx context.Context, s *db.ParkingSpace) error {
	return translate(r.DB.WithContext(ctx).Create(s).Error)
}

func (r *ParkingRepository) GetSpace(ctx context.Context, id string) (*db.ParkingSpace, error) {
	var s db.ParkingSpace
	if err := r.DB.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// LockSpace loads a space with SELECT ... FOR UPDATE. It must run inside a
// transaction; concurrent writers on the same space wait until it commits.
func (r *ParkingRepository) LockSpace(ctx context.Context, id string) (*db.ParkingSpace, error) {
	var s db.ParkingSpace
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&s, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *ParkingRepository) ListSpaces(ctx context.Context, parkingID string) ([]db.ParkingSpace, error) {
	var spaces []db.ParkingSpace
	err := r.DB.WithContext(ctx).Where("parking_id = ?", parkingID).Order("code").Find(&spaces).Error
	return spaces, translate(err)
}

func (r *ParkingRepository) SpaceCodeExists(ctx context.Context, parkingID, code string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&db.ParkingSpace{}).
		Where("parking_id = ? AND code = ?", parkingID, code).
		Count(&count).Error
	return count > 0, translate(err)
}

func (r *ParkingRepository) SetSpaceOccupied(ctx context.Context, id string, occupied bool) error {
	res := r.DB.WithContext(ctx).Model(&db.ParkingSpace{}).Where("id = ?", id).Update("occupied", occupied)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSpace removes a space and the tickets and reservations recorded against it.
func (r *ParkingRepository) DeleteSpace(ctx context.Context, id string) error {
	return translate(r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&db.ParkingSpace{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("parking_space_id = ?", id).Delete(&db.Reservation{}).Error; err != nil {
			return err
		}
		return tx.Where("parking_space_id = ?", id).Delete(&db.Ticket{}).Error
	}))
}
