package relayx

import "github.com/Abraxas-365/mailrelay/pkg/errx"

var relayErrors = errx.NewRegistry("RELAYX")

var (
	ErrNoProviders       = relayErrors.Register("NO_PROVIDERS", errx.TypeInternal, 500, "No email providers configured")
	ErrNoHealthyProvider = relayErrors.Register("NO_HEALTHY_PROVIDER", errx.TypeExternal, 503, "No healthy email providers available")
	ErrRetriesExhausted  = relayErrors.Register("RETRIES_EXHAUSTED", errx.TypeExternal, 502, "Failed to send email after multiple attempts")
)
