package notifxsendgrid

import (
	"context"
	"net/http"

	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// API is the subset of the SendGrid client used by the provider.
type API interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridProvider implements notifx.EmailSender using the SendGrid v3 API.
type SendGridProvider struct {
	client      API
	fromAddress string
}

// NewSendGridProvider creates a provider authenticated with apiKey.
func NewSendGridProvider(apiKey, fromAddress string) (*SendGridProvider, error) {
	if apiKey == "" {
		return nil, sendgridErrors.New(ErrMissingAPIKey)
	}
	return NewSendGridProviderWithClient(sendgrid.NewSendClient(apiKey), fromAddress), nil
}

// NewSendGridProviderWithClient creates a provider on top of an existing client.
func NewSendGridProviderWithClient(client API, fromAddress string) *SendGridProvider {
	return &SendGridProvider{
		client:      client,
		fromAddress: fromAddress,
	}
}

// SendEmail sends a single email. Anything but 202 Accepted is a failure.
func (p *SendGridProvider) SendEmail(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	resp, err := p.client.SendWithContext(ctx, p.buildMail(msg, notifx.ApplySendOptions(opts)))
	if err != nil {
		return sendgridErrors.NewWithCause(ErrSendFailed, err).
			WithDetail("to", msg.To).
			WithDetail("subject", msg.Subject)
	}

	if resp.StatusCode != http.StatusAccepted {
		return sendgridErrors.New(ErrUnexpectedStatus).
			WithDetail("status_code", resp.StatusCode).
			WithDetail("body", resp.Body)
	}

	return nil
}

func (p *SendGridProvider) buildMail(msg notifx.EmailMessage, so notifx.SendOptions) *mail.SGMailV3 {
	from := msg.From
	if from == "" {
		from = p.fromAddress
	}

	m := mail.NewV3Mail()
	m.SetFrom(mail.NewEmail("", from))
	m.Subject = msg.Subject

	personalization := mail.NewPersonalization()
	for _, to := range msg.To {
		personalization.AddTos(mail.NewEmail("", to))
	}
	for k, v := range so.Tags {
		personalization.SetCustomArg(k, v)
	}
	m.AddPersonalizations(personalization)

	// SendGrid requires text/plain to precede text/html.
	if msg.TextBody != "" {
		m.AddContent(mail.NewContent("text/plain", msg.TextBody))
	}
	if msg.HTMLBody != "" || msg.TextBody == "" {
		m.AddContent(mail.NewContent("text/html", msg.HTMLBody))
	}

	if msg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail("", msg.ReplyTo))
	}

	return m
}
