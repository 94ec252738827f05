package notifxsendgrid

import "github.com/Abraxas-365/mailrelay/pkg/errx"

var sendgridErrors = errx.NewRegistry("NOTIFX_SENDGRID")

var (
	ErrMissingAPIKey    = sendgridErrors.Register("MISSING_API_KEY", errx.TypeValidation, 400, "SendGrid API key is not configured")
	ErrSendFailed       = sendgridErrors.Register("SEND_FAILED", errx.TypeExternal, 502, "SendGrid send email failed")
	ErrUnexpectedStatus = sendgridErrors.Register("UNEXPECTED_STATUS", errx.TypeExternal, 502, "SendGrid did not accept the email")
)
