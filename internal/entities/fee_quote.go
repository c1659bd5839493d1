package entities

// FeeQuote breaks a fee down into billed hours and rate.
type FeeQuote struct {
	BilledHours      int64 `json:"billed_hours"`
	HourlyPriceCents int64 `json:"hourly_price_cents"`
	AmountCents      int64 `json:"amount_cents"`
}
