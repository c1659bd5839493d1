package service

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// StripeService opens Stripe Checkout sessions for ticket payments.
type StripeService struct {
	Currency   string
	SuccessURL string
	CancelURL  string
}

// NewStripeService sets the process-wide Stripe key.
func NewStripeService(secretKey, currency, successURL, cancelURL string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{Currency: currency, SuccessURL: successURL, CancelURL: cancelURL}
}

func (s *StripeService) CreateCheckoutSession(ctx context.Context, req PaymentRequest) (*PaymentSession, error) {
	params := checkoutParams(req, s.Currency, s.SuccessURL, s.CancelURL)
	params.Context = ctx

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe checkout session: %w", err)
	}
	return &PaymentSession{ID: sess.ID, URL: sess.URL}, nil
}

func checkoutParams(req PaymentRequest, currency, successURL, cancelURL string) *stripe.CheckoutSessionParams {
	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountCents),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(req.TicketID),
	}
	params.AddMetadata("ticket_id", req.TicketID)
	return params
}
