package mailworker

import "github.com/Abraxas-365/mailrelay/pkg/errx"

var workerErrors = errx.NewRegistry("MAILWORKER")

var (
	ErrDelivery = workerErrors.Register("DELIVERY", errx.TypeExternal, 502, "Email delivery failed")
	ErrArchive  = workerErrors.Register("ARCHIVE", errx.TypeInternal, 500, "Failed to archive dead letter")
)
