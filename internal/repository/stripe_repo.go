package repository

import (
	"context"
	"time"

	"parkinglot/internal/db"
)

// SetPaymentSession records the Stripe checkout session opened for a ticket.
func (r *TicketRepository) SetPaymentSession(ctx context.Context, ticketID, sessionID string) error {
	result := r.DB.WithContext(ctx).Model(&db.Ticket{}).
		Where("id = ?", ticketID).
		Update("payment_session_id", sessionID)
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByPaymentSession finds the ticket whose latest checkout session is sessionID.
func (r *TicketRepository) GetByPaymentSession(ctx context.Context, sessionID string) (*db.Ticket, error) {
	var t db.Ticket
	if err := r.DB.WithContext(ctx).First(&t, "payment_session_id = ?", sessionID).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// MarkPaid stamps paid_at and records the session that settled the ticket.
// A ticket that is already paid is left untouched and ErrNotFound is returned.
func (r *TicketRepository) MarkPaid(ctx context.Context, ticketID, sessionID string, paidAt time.Time) error {
	result := r.DB.WithContext(ctx).Model(&db.Ticket{}).
		Where("id = ? AND paid_at IS NULL", ticketID).
		Updates(map[string]any{"paid_at": paidAt, "payment_session_id": sessionID})
	if result.Error != nil {
		return translate(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
