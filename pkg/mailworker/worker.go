package mailworker

import (
	"context"

	"github.com/Abraxas-365/mailrelay/pkg/jobx"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/mailapi"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
)

// Relay delivers a message and names the provider that accepted it.
type Relay interface {
	Send(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) (string, error)
}

// DeliveryUpdater records delivery outcomes.
type DeliveryUpdater interface {
	MarkSent(ctx context.Context, id, provider string, attempts int) error
	MarkFailed(ctx context.Context, id, cause string, attempts int) error
}

type worker struct {
	relay      Relay
	deliveries DeliveryUpdater
	configID   string
}

// Option configures the worker.
type Option func(*worker)

// WithDeliveryLog marks delivery records sent or failed.
func WithDeliveryLog(d DeliveryUpdater) Option {
	return func(w *worker) { w.deliveries = d }
}

// WithConfigurationSet passes a provider configuration set on every send.
func WithConfigurationSet(id string) Option {
	return func(w *worker) { w.configID = id }
}

// NewHandler returns the handler for email.send jobs.
//
// Payloads that can never be sent (undecodable, invalid addresses, empty
// message) are marked failed and not retried. Provider failures return an
// error so the job is retried; the record is marked failed only once the
// job has no retries left.
func NewHandler(relay Relay, opts ...Option) jobx.HandlerFunc {
	w := &worker{relay: relay}
	for _, o := range opts {
		o(w)
	}
	return w.handle
}

func (w *worker) handle(ctx context.Context, job *jobx.JobInfo) error {
	log := logx.WithFields(logx.Fields{
		"job_id":  job.ID,
		"attempt": job.Attempts,
	})

	var req mailapi.EmailRequest
	if err := job.Decode(&req); err != nil {
		log.WithError(err).Error("mailworker: dropping undecodable email job")
		w.markFailed(ctx, job, err)
		return nil
	}
	if err := req.Validate(); err != nil {
		log.WithError(err).Error("mailworker: dropping invalid email job")
		w.markFailed(ctx, job, err)
		return nil
	}

	msg := req.Message()
	sendOpts := []notifx.Option{notifx.WithTags(map[string]string{"job_id": job.ID})}
	if w.configID != "" {
		sendOpts = append(sendOpts, notifx.WithConfigID(w.configID))
	}

	provider, err := w.relay.Send(ctx, msg, sendOpts...)
	if err != nil {
		if job.CanRetry() {
			log.WithError(err).Warn("mailworker: delivery failed, will retry")
		} else {
			w.markFailed(ctx, job, err)
		}
		return workerErrors.NewWithCause(ErrDelivery, err).WithDetail("job_id", job.ID)
	}

	log.WithField("provider", provider).Infof("mailworker: email to %s sent", req.To)
	if w.deliveries != nil {
		if err := w.deliveries.MarkSent(ctx, job.ID, provider, job.Attempts); err != nil {
			log.WithError(err).Warn("mailworker: failed to mark delivery sent")
		}
	}
	return nil
}

func (w *worker) markFailed(ctx context.Context, job *jobx.JobInfo, cause error) {
	if w.deliveries == nil {
		return
	}
	if err := w.deliveries.MarkFailed(ctx, job.ID, cause.Error(), job.Attempts); err != nil {
		logx.WithError(err).Warnf("mailworker: failed to mark delivery %s failed", job.ID)
	}
}
