package jobx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/logx"
)

// HandlerFunc processes a job. Return nil on success, an error to trigger retry/fail.
type HandlerFunc func(ctx context.Context, job *JobInfo) error

// JobEnqueuer enqueues jobs for processing.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, job Job) (string, error)
	EnqueueDelayed(ctx context.Context, job Job, delay time.Duration) (string, error)
}

// JobStatusReader reads job status.
type JobStatusReader interface {
	GetJob(ctx context.Context, jobID string) (*JobInfo, error)
}

// JobProcessor provides backend operations for the worker loop.
type JobProcessor interface {
	// Dequeue returns nil, nil when no job arrived before the timeout.
	Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*JobInfo, error)
	Complete(ctx context.Context, jobID string, result []byte) error
	Fail(ctx context.Context, jobID string, errMsg string) (retry bool, err error)
	Retry(ctx context.Context, jobID string, delay time.Duration) error
	PromoteScheduled(ctx context.Context, queues []string) error
}

// Queue combines all backend operations.
type Queue interface {
	JobEnqueuer
	JobStatusReader
	JobProcessor
}

// Client enqueues jobs and runs the worker pool that processes them.
type Client struct {
	queue    Queue
	opts     WorkerOptions
	handlers map[string]HandlerFunc
	mu       sync.RWMutex
	running  bool
}

// NewClient creates a new job processing client.
func NewClient(queue Queue, options ...WorkerOption) *Client {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Client{
		queue:    queue,
		opts:     opts,
		handlers: make(map[string]HandlerFunc),
	}
}

// Register adds a handler for a given job type.
func (c *Client) Register(jobType string, handler HandlerFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[jobType] = handler
}

// Enqueue enqueues a job for immediate processing.
func (c *Client) Enqueue(ctx context.Context, job Job) (string, error) {
	job, err := c.prepare(job)
	if err != nil {
		return "", err
	}
	return c.queue.Enqueue(ctx, job)
}

// EnqueueDelayed enqueues a job with a delay before it becomes available.
func (c *Client) EnqueueDelayed(ctx context.Context, job Job, delay time.Duration) (string, error) {
	job, err := c.prepare(job)
	if err != nil {
		return "", err
	}
	return c.queue.EnqueueDelayed(ctx, job, delay)
}

func (c *Client) prepare(job Job) (Job, error) {
	if job.Type == "" {
		return job, jobxErrors.New(ErrInvalidJob).WithDetail("reason", "empty job type")
	}
	if job.Queue == "" {
		job.Queue = c.opts.Queues[0]
	}
	if job.MaxRetries <= 0 {
		job.MaxRetries = DefaultMaxRetries
	}
	return job, nil
}

// GetJob returns the current state of a job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*JobInfo, error) {
	return c.queue.GetJob(ctx, jobID)
}

// Start processes jobs until ctx is cancelled, then waits up to the
// shutdown timeout for in-flight jobs.
func (c *Client) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return jobxErrors.New(ErrAlreadyRunning)
	}
	c.running = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	logx.Infof("jobx: starting %d workers on queues %v", c.opts.Concurrency, c.opts.Queues)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.schedulerLoop(ctx)
	}()

	for i := range c.opts.Concurrency {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c.workerLoop(ctx, id)
		}(i)
	}

	<-ctx.Done()
	logx.Info("jobx: shutting down workers...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		logx.Info("jobx: all workers stopped")
	case <-time.After(c.opts.ShutdownTimeout):
		logx.Warn("jobx: shutdown timed out, some jobs may not have completed")
	}

	return nil
}

func (c *Client) schedulerLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.queue.PromoteScheduled(ctx, c.opts.Queues); err != nil {
				if ctx.Err() != nil {
					return
				}
				logx.WithError(err).Warn("jobx: failed to promote scheduled jobs")
			}
		}
	}
}

func (c *Client) workerLoop(ctx context.Context, id int) {
	for ctx.Err() == nil {
		job, err := c.queue.Dequeue(ctx, c.opts.Queues, c.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logx.WithError(err).Warnf("jobx: worker %d dequeue error", id)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.opts.PollInterval):
			}
			continue
		}
		if job == nil {
			continue
		}

		// In-flight jobs finish even when shutdown starts.
		c.processJob(context.WithoutCancel(ctx), job)
	}
}

func (c *Client) processJob(ctx context.Context, job *JobInfo) {
	c.mu.RLock()
	handler, ok := c.handlers[job.Type]
	c.mu.RUnlock()

	if !ok {
		logx.Warnf("jobx: no handler for job type %q (id=%s)", job.Type, job.ID)
		c.fail(ctx, job, jobxErrors.New(ErrNoHandler).WithDetail("type", job.Type))
		return
	}

	log := logx.WithFields(logx.Fields{
		"job_id":  job.ID,
		"type":    job.Type,
		"attempt": job.Attempts,
	})

	if err := runHandler(ctx, handler, job); err != nil {
		log.WithError(err).Warn("jobx: job failed")
		c.fail(ctx, job, err)
		return
	}

	if err := c.queue.Complete(ctx, job.ID, nil); err != nil {
		log.WithError(err).Error("jobx: failed to complete job")
		return
	}
	log.Debug("jobx: job completed")
}

func runHandler(ctx context.Context, handler HandlerFunc, job *JobInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = jobxErrors.NewWithCause(ErrHandlerPanic, fmt.Errorf("%v", r)).WithDetail("job_id", job.ID)
		}
	}()
	return handler(ctx, job)
}

func (c *Client) fail(ctx context.Context, job *JobInfo, cause error) {
	shouldRetry, err := c.queue.Fail(ctx, job.ID, cause.Error())
	if err != nil {
		logx.WithError(err).Errorf("jobx: failed to mark job %s as failed", job.ID)
		return
	}

	if shouldRetry {
		if err := c.queue.Retry(ctx, job.ID, c.opts.DefaultRetryDelay); err != nil {
			logx.WithError(err).Errorf("jobx: failed to retry job %s", job.ID)
		}
		return
	}

	job.Status = JobStatusFailed
	job.Error = cause.Error()
	logx.WithFields(logx.Fields{
		"job_id":   job.ID,
		"type":     job.Type,
		"attempts": job.Attempts,
	}).Error("jobx: job exhausted its attempts")

	if c.opts.DeadLetter != nil {
		c.opts.DeadLetter(ctx, job, cause)
	}
}
