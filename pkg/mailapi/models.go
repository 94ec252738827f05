package mailapi

import (
	"net/mail"
	"strings"

	"github.com/Abraxas-365/mailrelay/pkg/notifx"
)

// JobTypeSendEmail is the job type carrying an EmailRequest payload.
const JobTypeSendEmail = "email.send"

const (
	QueuedMessage      = "Email queued successfully"
	queueErrorTemplate = "Error queueing email: "
)

// EmailRequest is the body of POST /send-email/ and the payload of
// email.send jobs.
type EmailRequest struct {
	To        string `json:"to"`
	FromEmail string `json:"from_email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// MessageResponse is every response of the send endpoint.
type MessageResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id,omitempty"`
}

// Validate requires a parseable recipient, a parseable sender when set, and
// a message a provider would accept.
func (r EmailRequest) Validate() error {
	if strings.TrimSpace(r.To) == "" {
		return apiErrors.New(ErrInvalidRecipient).WithDetail("field", "to")
	}
	if _, err := mail.ParseAddress(r.To); err != nil {
		return apiErrors.NewWithCause(ErrInvalidRecipient, err).WithDetail("field", "to")
	}
	if r.FromEmail != "" {
		if _, err := mail.ParseAddress(r.FromEmail); err != nil {
			return apiErrors.NewWithCause(ErrInvalidSender, err).WithDetail("field", "from_email")
		}
	}
	if err := notifx.Validate(r.Message()); err != nil {
		return apiErrors.NewWithCause(ErrInvalidMessage, err)
	}
	return nil
}

// Message converts the request to a provider message. The body is sent as
// HTML; an empty From lets the provider apply its default address.
func (r EmailRequest) Message() notifx.EmailMessage {
	return notifx.EmailMessage{
		From:     r.FromEmail,
		To:       []string{r.To},
		Subject:  r.Subject,
		HTMLBody: r.Body,
	}
}
