package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog"

	"parkinglot/internal/entities"
	"parkinglot/internal/events"
)

const displayTimeLayout = "02 Jan 2006 15:04 MST"

var reservationEmailTemplate = template.Must(template.New("reservation_email").Parse(`<!DOCTYPE html>
<html>
<body>
  <p>Hello {{.ContactName}},</p>
  <p>Your parking reservation is confirmed.</p>
  <table>
    <tr><td>Reservation</td><td>{{.ReservationID}}</td></tr>
    {{if .SpaceCode}}<tr><td>Space</td><td>{{.SpaceCode}}</td></tr>{{end}}
    <tr><td>Check-in</td><td>{{.CheckinFormatted}}</td></tr>
    <tr><td>Check-out</td><td>{{.CheckoutFormatted}}</td></tr>
  </table>
  <p>&copy; {{.CurrentYear}} Parking Lot</p>
</body>
</html>`))

// SenderService sends reservation confirmations. Email and SMS are optional;
// a nil sender skips that channel.
type SenderService struct {
	Email    EmailSender
	SMS      SMSSender
	Location *time.Location
	Logger   zerolog.Logger
}

func NewSenderService(email EmailSender, sms SMSSender, loc *time.Location, logger zerolog.Logger) *SenderService {
	if loc == nil {
		loc = time.UTC
	}
	return &SenderService{Email: email, SMS: sms, Location: loc, Logger: logger.With().Str("component", "notifications").Logger()}
}

// Run delivers confirmations for every committed reservation received on sub
// until ctx is cancelled or sub is closed.
func (s *SenderService) Run(ctx context.Context, sub events.Subscriber) {
	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-sub:
			if !ok {
				return
			}
			data, err := s.emailData(payload)
			if err != nil {
				s.Logger.Warn().Err(err).Msg("skipping malformed reservation event")
				continue
			}
			s.SendReservationEmail(ctx, data)
			s.SendReservationSMS(ctx, data)
		}
	}
}

func (s *SenderService) SendReservationEmail(ctx context.Context, data entities.ReservationEmailData) {
	if s.Email == nil || data.ContactEmail == "" {
		return
	}

	subject := fmt.Sprintf("Your parking reservation is confirmed - %s", data.ReservationID)
	plain := fmt.Sprintf(
		"Hello %s,\n\nYour parking reservation is confirmed.\n\n"+
			"Reservation: %s\nSpace: %s\nCheck-in: %s\nCheck-out: %s\n",
		data.ContactName, data.ReservationID, data.SpaceCode, data.CheckinFormatted, data.CheckoutFormatted,
	)

	var html bytes.Buffer
	if err := reservationEmailTemplate.Execute(&html, data); err != nil {
		s.Logger.Error().Err(err).Str("reservation_id", data.ReservationID).Msg("render confirmation email")
		return
	}

	if err := s.Email.SendEmail(ctx, data.ContactEmail, data.ContactName, subject, plain, html.String()); err != nil {
		s.Logger.Warn().Err(err).Str("reservation_id", data.ReservationID).Msg("confirmation email failed")
	}
}

func (s *SenderService) SendReservationSMS(ctx context.Context, data entities.ReservationEmailData) {
	if s.SMS == nil || data.ContactPhone == "" {
		return
	}

	body := fmt.Sprintf("Parking: reservation %s confirmed. Check-in: %s.", data.ReservationID, data.CheckinFormatted)
	if err := s.SMS.SendSMS(ctx, data.ContactPhone, body); err != nil {
		s.Logger.Warn().Err(err).Str("reservation_id", data.ReservationID).Msg("confirmation sms failed")
	}
}

func (s *SenderService) emailData(p events.Payload) (entities.ReservationEmailData, error) {
	id, _ := p["reservation_id"].(string)
	if id == "" {
		return entities.ReservationEmailData{}, fmt.Errorf("event has no reservation_id")
	}
	checkin, err := payloadTime(p, "checkin")
	if err != nil {
		return entities.ReservationEmailData{}, err
	}
	checkout, err := payloadTime(p, "checkout")
	if err != nil {
		return entities.ReservationEmailData{}, err
	}

	str := func(key string) string {
		v, _ := p[key].(string)
		return v
	}
	return entities.ReservationEmailData{
		ReservationID:     id,
		ContactName:       str("contact_name"),
		ContactEmail:      str("contact_email"),
		ContactPhone:      str("contact_phone"),
		SpaceCode:         str("space_code"),
		CheckinFormatted:  checkin.In(s.Location).Format(displayTimeLayout),
		CheckoutFormatted: checkout.In(s.Location).Format(displayTimeLayout),
		CurrentYear:       checkin.In(s.Location).Year(),
	}, nil
}

func payloadTime(p events.Payload, key string) (time.Time, error) {
	raw, _ := p[key].(string)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("event field %s: %w", key, err)
	}
	return t, nil
}
