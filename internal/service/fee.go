package service

import (
	"math"
	"time"

	"parkinglot/internal/entities"
	apperrors "parkinglot/internal/errors"
)

// BilledHours rounds elapsed time up to whole hours. Any started hour is billed.
func BilledHours(elapsed time.Duration) int64 {
	if elapsed <= 0 {
		return 0
	}
	hours := int64(elapsed / time.Hour)
	if elapsed%time.Hour != 0 {
		hours++
	}
	return hours
}

// Quote computes the fee for a stay between checkin and checkout at the given
// hourly price. It fails with InvalidPeriodError when checkout <= checkin.
func Quote(checkin, checkout time.Time, hourlyPriceCents int64) (entities.FeeQuote, error) {
	if !checkout.After(checkin) {
		return entities.FeeQuote{}, &apperrors.InvalidPeriodError{Checkin: checkin, Checkout: checkout}
	}
	if hourlyPriceCents < 0 {
		return entities.FeeQuote{}, &apperrors.ValidationError{Field: "hourly_price_cents", Message: "must not be negative"}
	}

	hours := BilledHours(checkout.Sub(checkin))
	if hourlyPriceCents > 0 && hours > math.MaxInt64/hourlyPriceCents {
		return entities.FeeQuote{}, &apperrors.ValidationError{Field: "hourly_price_cents", Message: "fee exceeds the representable amount"}
	}
	return entities.FeeQuote{
		BilledHours:      hours,
		HourlyPriceCents: hourlyPriceCents,
		AmountCents:      hours * hourlyPriceCents,
	}, nil
}

// CalculateFee is Quote reduced to the amount in cents.
func CalculateFee(checkin, checkout time.Time, hourlyPriceCents int64) (int64, error) {
	q, err := Quote(checkin, checkout, hourlyPriceCents)
	if err != nil {
		return 0, err
	}
	return q.AmountCents, nil
}
