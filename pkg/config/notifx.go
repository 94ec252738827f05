package config

import "os"

// NotifxConfig configures the email providers.
type NotifxConfig struct {
	// Providers in failover order: sendgrid, ses, console.
	Providers      []string `env:"NOTIFX_PROVIDERS" envDefault:"sendgrid,ses" envSeparator:","`
	FromAddress    string   `env:"NOTIFX_FROM_ADDRESS"`
	AWSRegion      string   `env:"NOTIFX_AWS_REGION"`
	SendGridAPIKey string   `env:"SENDGRID_API_KEY"`
	SESConfigSet   string   `env:"SES_CONFIGURATION_SET"`
}

const (
	defaultFromAddress = "noreply@mailrelay.dev"
	defaultAWSRegion   = "us-east-2"
)

func (n *NotifxConfig) applyFallbacks() {
	if _, ok := os.LookupEnv("NOTIFX_FROM_ADDRESS"); !ok {
		n.FromAddress = defaultFromAddress
		if v, ok := lookupEnv("SES_EMAIL_FROM", "EMAIL_FROM_ADDRESS"); ok {
			n.FromAddress = v
		}
	}
	if n.AWSRegion == "" {
		n.AWSRegion = defaultAWSRegion
		if v, ok := lookupEnv("AWS_REGION"); ok {
			n.AWSRegion = v
		}
	}
}
