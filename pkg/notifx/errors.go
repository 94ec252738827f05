package notifx

import "github.com/Abraxas-365/mailrelay/pkg/errx"

var notifxErrors = errx.NewRegistry("NOTIFX")

var (
	ErrSendFailed      = notifxErrors.Register("SEND_FAILED", errx.TypeExternal, 502, "Failed to send email")
	ErrInvalidMessage  = notifxErrors.Register("INVALID_MESSAGE", errx.TypeValidation, 400, "Invalid email message")
	ErrNoProvider      = notifxErrors.Register("NO_PROVIDER", errx.TypeInternal, 500, "No email provider configured")
	ErrUnknownProvider = notifxErrors.Register("UNKNOWN_PROVIDER", errx.TypeValidation, 400, "Unknown email provider")
)
