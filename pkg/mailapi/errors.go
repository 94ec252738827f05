package mailapi

import "github.com/Abraxas-365/mailrelay/pkg/errx"

var apiErrors = errx.NewRegistry("MAILAPI")

var (
	ErrInvalidBody      = apiErrors.Register("INVALID_BODY", errx.TypeValidation, 422, "Invalid request body")
	ErrInvalidRecipient = apiErrors.Register("INVALID_RECIPIENT", errx.TypeValidation, 422, "A valid recipient address is required")
	ErrInvalidSender    = apiErrors.Register("INVALID_SENDER", errx.TypeValidation, 422, "Invalid sender address")
	ErrInvalidMessage   = apiErrors.Register("INVALID_MESSAGE", errx.TypeValidation, 422, "Email subject or body is required")
	ErrEnqueue          = apiErrors.Register("ENQUEUE", errx.TypeExternal, 500, "Error queueing email")
)
