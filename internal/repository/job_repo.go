package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"parkinglot/internal/db"
)

type JobRepository struct {
	DB *gorm.DB
}

func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{DB: db}
}

// SpaceOccupancy is the stored occupancy flag of one space.
type SpaceOccupancy struct {
	ID       string
	Occupied bool
}

func (r *JobRepository) ListSpaceOccupancy(ctx context.Context) ([]SpaceOccupancy, error) {
	var rows []SpaceOccupancy
	err := r.DB.WithContext(ctx).Model(&db.ParkingSpace{}).Select("id, occupied").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("error querying space occupancy: %w", translate(err))
	}
	return rows, nil
}

// SpaceIDsWithOpenTickets returns the spaces that currently hold a vehicle.
func (r *JobRepository) SpaceIDsWithOpenTickets(ctx context.Context) ([]string, error) {
	var ids []string
	err := r.DB.WithContext(ctx).Model(&db.Ticket{}).
		Distinct("parking_space_id").
		Where("status = ?", db.TicketOpen).
		Pluck("parking_space_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("error querying open tickets: %w", translate(err))
	}
	return ids, nil
}

const openTicketExists = "EXISTS (SELECT 1 FROM tickets WHERE tickets.parking_space_id = parking_spaces.id AND tickets.status = ?)"

// UpdateSpaceOccupancy sets the occupied flag of the given spaces. Open
// tickets are checked again in the same statement, so a ticket opened or
// closed after the caller's snapshot is never overridden.
func (r *JobRepository) UpdateSpaceOccupancy(ctx context.Context, ids []string, occupied bool) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	query := r.DB.WithContext(ctx).Model(&db.ParkingSpace{}).
		Where("id IN ?", ids).
		Where("occupied = ?", !occupied)
	if occupied {
		query = query.Where(openTicketExists, db.TicketOpen)
	} else {
		query = query.Where("NOT "+openTicketExists, db.TicketOpen)
	}

	result := query.Update("occupied", occupied)
	if result.Error != nil {
		return 0, fmt.Errorf("error updating space occupancy: %w", translate(result.Error))
	}
	return result.RowsAffected, nil
}
