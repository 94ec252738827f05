package jobxsqs

import "github.com/Abraxas-365/mailrelay/pkg/errx"

var sqsErrors = errx.NewRegistry("JOBX_SQS")

var (
	ErrEnqueue   = sqsErrors.Register("ENQUEUE", errx.TypeExternal, 503, "SQS send message failed")
	ErrDequeue   = sqsErrors.Register("DEQUEUE", errx.TypeExternal, 503, "SQS receive message failed")
	ErrDelete    = sqsErrors.Register("DELETE", errx.TypeExternal, 503, "SQS delete message failed")
	ErrRetry     = sqsErrors.Register("RETRY", errx.TypeExternal, 503, "SQS change visibility failed")
	ErrNotFound  = sqsErrors.Register("NOT_FOUND", errx.TypeNotFound, 404, "Job is not in flight")
	ErrMarshal   = sqsErrors.Register("MARSHAL", errx.TypeInternal, 500, "Failed to marshal job data")
	ErrUnmarshal = sqsErrors.Register("UNMARSHAL", errx.TypeInternal, 500, "Failed to unmarshal job data")
)
