package notifx

import (
	"context"
	"strings"
)

// Provider names understood by the relay.
const (
	ProviderSendGrid = "SendGrid"
	ProviderSES      = "Amazon SES"
	ProviderConsole  = "Console"
)

// EmailSender sends a single email.
type EmailSender interface {
	SendEmail(ctx context.Context, msg EmailMessage, opts ...Option) error
}

// Validate checks the parts of a message every provider needs.
func Validate(msg EmailMessage) error {
	if len(msg.To) == 0 {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "no recipients")
	}
	for _, to := range msg.To {
		if strings.TrimSpace(to) == "" {
			return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "empty recipient")
		}
	}
	if msg.TextBody == "" && msg.HTMLBody == "" && msg.Subject == "" {
		return notifxErrors.New(ErrInvalidMessage).WithDetail("reason", "empty message")
	}
	return nil
}

// ProviderName maps a configuration key ("sendgrid", "ses", "console") to
// the provider's display name.
func ProviderName(key string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "sendgrid":
		return ProviderSendGrid, nil
	case "ses", "amazon-ses":
		return ProviderSES, nil
	case "console":
		return ProviderConsole, nil
	default:
		return "", notifxErrors.New(ErrUnknownProvider).WithDetail("provider", key)
	}
}
