package maillog

import "github.com/Abraxas-365/mailrelay/pkg/errx"

var maillogErrors = errx.NewRegistry("MAILLOG")

var (
	ErrNotFound      = maillogErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "Delivery record not found")
	ErrInvalidStatus = maillogErrors.Register("INVALID_STATUS", errx.TypeValidation, 400, "Unknown delivery status")
	ErrStore         = maillogErrors.Register("STORE", errx.TypeInternal, 500, "Delivery log unavailable")
)

// NotFound returns ErrNotFound for id.
func NotFound(id string) error {
	return maillogErrors.New(ErrNotFound).WithDetail("id", id)
}

// StoreError wraps a backend failure of op.
func StoreError(op string, err error) error {
	return maillogErrors.NewWithCause(ErrStore, err).WithDetail("op", op)
}

// ParseStatus validates a status filter. Empty is allowed.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case "", StatusQueued, StatusSent, StatusFailed:
		return st, nil
	}
	return "", maillogErrors.New(ErrInvalidStatus).WithDetail("status", s)
}
