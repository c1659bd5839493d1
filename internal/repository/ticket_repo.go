package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"parkinglot/internal/db"
)

type TicketRepository struct {
	DB *gorm.DB
}

func NewTicketRepository(db *gorm.DB) *TicketRepository {
	return &TicketRepository{DB: db}
}

func (r *TicketRepository) Insert(ctx context.Context, t *db.Ticket) error {
	return translate(r.DB.WithContext(ctx).Create(t).Error)
}

func (r *TicketRepository) Get(ctx context.Context, id string) (*db.Ticket, error) {
	var t db.Ticket
	if err := r.DB.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// Lock loads a ticket with SELECT ... FOR UPDATE so two close-outs of the
// same ticket cannot both observe it open.
func (r *TicketRepository) Lock(ctx context.Context, id string) (*db.Ticket, error) {
	var t db.Ticket
	err := r.DB.WithContext(ctx).
		Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}).
		First(&t, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// Close writes the close-out fields of a ticket.
func (r *TicketRepository) Close(ctx context.Context, t *db.Ticket) error {
	result := r.DB.WithContext(ctx).Model(&db.Ticket{}).Where("id = ?", t.ID).Updates(map[string]any{
		"checkout_at": t.CheckoutAt,
		"value_cents": t.ValueCents,
		"status":      t.Status,
	})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *TicketRepository) CountOpenBySpace(ctx context.Context, spaceID string) (int64, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&db.Ticket{}).
		Where("parking_space_id = ? AND status = ?", spaceID, db.TicketOpen).
		Count(&count).Error
	return count, translate(err)
}

func (r *TicketRepository) ListBySpace(ctx context.Context, spaceID string) ([]db.Ticket, error) {
	var tickets []db.Ticket
	err := r.DB.WithContext(ctx).Where("parking_space_id = ?", spaceID).Order("checkin_at DESC").Find(&tickets).Error
	return tickets, translate(err)
}
