package jobx

import "github.com/Abraxas-365/mailrelay/pkg/errx"

var jobxErrors = errx.NewRegistry("JOBX")

var (
	ErrJobNotFound    = jobxErrors.Register("JOB_NOT_FOUND", errx.TypeNotFound, 404, "Job not found")
	ErrEnqueueFailed  = jobxErrors.Register("ENQUEUE_FAILED", errx.TypeExternal, 503, "Failed to enqueue job")
	ErrNoHandler      = jobxErrors.Register("NO_HANDLER", errx.TypeValidation, 400, "No handler registered for job type")
	ErrInvalidJob     = jobxErrors.Register("INVALID_JOB", errx.TypeValidation, 400, "Invalid job definition")
	ErrInvalidPayload = jobxErrors.Register("INVALID_PAYLOAD", errx.TypeValidation, 422, "Job payload could not be decoded")
	ErrHandlerPanic   = jobxErrors.Register("HANDLER_PANIC", errx.TypeInternal, 500, "Job handler panicked")
	ErrAlreadyRunning = jobxErrors.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Worker is already running")
)
