package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender delivers a text message to an E.164 number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EmailSender delivers one e-mail with plain text and HTML bodies.
type EmailSender interface {
	SendEmail(ctx context.Context, toEmail, toName, subject, plainText, html string) error
}

// twilioMessages is the part of the Twilio API client used for SMS.
type twilioMessages interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type TwilioSender struct {
	api    twilioMessages
	from   string
	logger zerolog.Logger
}

func NewTwilioSender(accountSID, authToken, fromNumber string, logger zerolog.Logger) *TwilioSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username:   accountSID,
		Password:   authToken,
		AccountSid: accountSID,
	})
	return &TwilioSender{api: client.Api, from: fromNumber, logger: logger}
}

func (s *TwilioSender) SendSMS(_ context.Context, to, body string) error {
	if to == "" {
		return errors.New("sms recipient is empty")
	}
	if !strings.HasPrefix(to, "+") {
		s.logger.Warn().Str("to", to).Msg("recipient is not in E.164 format, delivery may fail")
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	if resp != nil && resp.Sid != nil {
		s.logger.Debug().Str("to", to).Str("sid", *resp.Sid).Msg("sms sent")
	}
	return nil
}
