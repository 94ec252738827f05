package notifxconsole

import (
	"context"
	"strings"

	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
)

// ConsoleProvider prints emails to the terminal via logx. Intended for development and testing.
type ConsoleProvider struct {
	fromAddress string
}

// NewConsoleProvider creates a new console email provider.
func NewConsoleProvider(fromAddress string) *ConsoleProvider {
	return &ConsoleProvider{fromAddress: fromAddress}
}

// SendEmail logs the email details instead of sending it.
func (p *ConsoleProvider) SendEmail(_ context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	from := msg.From
	if from == "" {
		from = p.fromAddress
	}

	fields := logx.Fields{
		"from":    from,
		"to":      strings.Join(msg.To, ", "),
		"subject": msg.Subject,
	}
	for k, v := range notifx.ApplySendOptions(opts).Tags {
		fields["tag_"+k] = v
	}
	logx.WithFields(fields).Info("notifx/console: email sent (dev mode)")

	if msg.TextBody != "" {
		logx.Debugf("notifx/console: text body:\n%s", msg.TextBody)
	}
	if msg.HTMLBody != "" {
		logx.Debugf("notifx/console: html body:\n%s", msg.HTMLBody)
	}

	return nil
}
