package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"parkinglot/internal/entities"
)

const maxWebhookBodyBytes = int64(65536)

type StripeWebhookHandler struct {
	Secret  string
	Tickets TicketManager
	Logger  zerolog.Logger
}

func NewStripeWebhookHandler(secret string, tickets TicketManager, logger zerolog.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{
		Secret:  secret,
		Tickets: tickets,
		Logger:  logger.With().Str("component", "stripe_webhook").Logger(),
	}
}

// HandleWebhook verifies the Stripe signature and marks tickets paid on
// checkout.session.completed. Other event types are acknowledged and ignored.
func (h *StripeWebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("read webhook body")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.Secret)
	if err != nil {
		h.Logger.Warn().Err(err).Msg("webhook signature verification failed")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil || sess.ID == "" {
			h.Logger.Warn().Err(err).Msg("malformed checkout.session payload")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			h.Logger.Info().Str("session_id", sess.ID).Str("payment_status", string(sess.PaymentStatus)).Msg("checkout completed without payment")
			break
		}
		confirmation := entities.PaymentConfirmation{
			SessionID:   sess.ID,
			TicketID:    sess.ClientReferenceID,
			AmountCents: sess.AmountTotal,
		}
		if confirmation.TicketID == "" {
			confirmation.TicketID = sess.Metadata["ticket_id"]
		}
		if _, err := h.Tickets.ConfirmPayment(r.Context(), confirmation); err != nil {
			respondError(w, h.Logger, err)
			return
		}
	default:
		h.Logger.Debug().Str("type", string(event.Type)).Msg("unhandled event type")
	}

	w.WriteHeader(http.StatusOK)
}
