package mailapi

import (
	"context"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/jobx"
	"github.com/Abraxas-365/mailrelay/pkg/kernel"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/maillog"
	"github.com/Abraxas-365/mailrelay/pkg/relayx"
	"github.com/gofiber/fiber/v2"
)

// Enqueuer accepts email jobs.
type Enqueuer interface {
	Enqueue(ctx context.Context, job jobx.Job) (string, error)
}

// ProviderReporter reports provider metrics.
type ProviderReporter interface {
	Status(ctx context.Context) []relayx.ProviderStatus
}

// Handlers serves the email endpoints.
type Handlers struct {
	jobs       Enqueuer
	deliveries maillog.Store
	providers  ProviderReporter
	queue      string
	maxRetries int
}

// Option configures Handlers.
type Option func(*Handlers)

// WithDeliveryLog records queued emails and serves /deliveries.
func WithDeliveryLog(store maillog.Store) Option {
	return func(h *Handlers) { h.deliveries = store }
}

// WithProviderStatus serves /providers.
func WithProviderStatus(p ProviderReporter) Option {
	return func(h *Handlers) { h.providers = p }
}

// WithQueue sets the queue email jobs go to. Empty uses the client default.
func WithQueue(name string) Option {
	return func(h *Handlers) { h.queue = name }
}

// WithMaxRetries sets the attempts allowed per email job.
func WithMaxRetries(n int) Option {
	return func(h *Handlers) { h.maxRetries = n }
}

// NewHandlers creates the email handlers.
func NewHandlers(jobs Enqueuer, opts ...Option) *Handlers {
	h := &Handlers{jobs: jobs}
	for _, o := range opts {
		o(h)
	}
	return h
}

// RegisterRoutes mounts the endpoints on router.
func (h *Handlers) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.Health)
	router.Post("/send-email/", h.SendEmail)

	if h.providers != nil {
		router.Get("/providers", h.Providers)
	}
	if h.deliveries != nil {
		router.Get("/deliveries", h.ListDeliveries)
		router.Get("/deliveries/:id", h.GetDelivery)
	}
}

// Health answers {"status":"ok"}.
func (h *Handlers) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// SendEmail validates the request and enqueues an email.send job. Every
// response carries a message.
func (h *Handlers) SendEmail(c *fiber.Ctx) error {
	var req EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return reply(c, apiErrors.NewWithCause(ErrInvalidBody, err))
	}
	if err := req.Validate(); err != nil {
		return reply(c, err)
	}

	job, err := jobx.NewJob(JobTypeSendEmail, req)
	if err != nil {
		return reply(c, err)
	}
	job.Queue = h.queue
	job.MaxRetries = h.maxRetries

	ctx := c.UserContext()
	id, err := h.jobs.Enqueue(ctx, job)
	if err != nil {
		logx.WithError(err).WithField("request_id", c.Get(fiber.HeaderXRequestID)).Error("mailapi: enqueue failed")
		return c.Status(fiber.StatusInternalServerError).JSON(MessageResponse{
			Message: queueErrorTemplate + err.Error(),
		})
	}

	logx.WithFields(logx.Fields{
		"job_id": id,
		"to":     req.To,
	}).Info("mailapi: email queued")

	if h.deliveries != nil {
		rec := maillog.Record{ID: id, To: req.To, FromEmail: req.FromEmail, Subject: req.Subject}
		if err := h.deliveries.Queued(ctx, rec); err != nil {
			logx.WithError(err).Warnf("mailapi: failed to log queued email %s", id)
		}
	}

	return c.JSON(MessageResponse{Message: QueuedMessage, JobID: id})
}

// Providers lists provider metrics.
func (h *Handlers) Providers(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"providers": h.providers.Status(c.UserContext())})
}

// GetDelivery returns one delivery record.
func (h *Handlers) GetDelivery(c *fiber.Ctx) error {
	rec, err := h.deliveries.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(rec)
}

// ListDeliveries pages through delivery records, newest first.
// Query: status, page, page_size.
func (h *Handlers) ListDeliveries(c *fiber.Ctx) error {
	status, err := maillog.ParseStatus(c.Query("status"))
	if err != nil {
		return err
	}

	page, err := h.deliveries.List(c.UserContext(), maillog.ListFilter{
		Status: status,
		PaginationOptions: kernel.PaginationOptions{
			Page:     c.QueryInt("page", 1),
			PageSize: c.QueryInt("page_size", kernel.DefaultPageSize),
		},
	})
	if err != nil {
		return err
	}
	return c.JSON(page)
}

// reply writes err as {"message": ...} with its status.
func reply(c *fiber.Ctx, err error) error {
	resp := errx.Response(err, false)
	return c.Status(resp.Status).JSON(MessageResponse{Message: resp.Message})
}
