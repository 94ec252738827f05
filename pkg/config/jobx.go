package config

import "time"

// QueueBackend names a jobx backend.
type QueueBackend string

const (
	QueueRedis QueueBackend = "redis"
	QueueSQS   QueueBackend = "sqs"
)

// QueueConfig selects where email jobs are queued.
type QueueConfig struct {
	Backend     QueueBackend `env:"QUEUE_BACKEND" envDefault:"redis"`
	SQSQueueURL string       `env:"SQS_QUEUE_URL"`
	AWSRegion   string       `env:"SQS_AWS_REGION" envDefault:"us-east-2"`
}

// JobxConfig configures the background job queue.
type JobxConfig struct {
	Concurrency       int           `env:"JOBX_CONCURRENCY" envDefault:"4"`
	Queues            []string      `env:"JOBX_QUEUES" envDefault:"default" envSeparator:","`
	MaxRetries        int           `env:"JOBX_MAX_RETRIES" envDefault:"3"`
	PollInterval      time.Duration `env:"JOBX_POLL_INTERVAL" envDefault:"1s"`
	ShutdownTimeout   time.Duration `env:"JOBX_SHUTDOWN_TIMEOUT" envDefault:"30s"`
	DequeueTimeout    time.Duration `env:"JOBX_DEQUEUE_TIMEOUT" envDefault:"5s"`
	DefaultRetryDelay time.Duration `env:"JOBX_DEFAULT_RETRY_DELAY" envDefault:"30s"`
}
