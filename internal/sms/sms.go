package sms

import (
	"context"
	"log"
)

// Sender delivers a short text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone string, message string) error
}

// LogSender writes messages to the process log instead of sending them.
// Used for local development so OTP codes are visible without a provider.
type LogSender struct{}

func (LogSender) Send(_ context.Context, phone string, message string) error {
	log.Printf("[sms] to=%s %s", phone, message)
	return nil
}
