package jobxsqs

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/jobx"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	maxDelaySeconds      = 900
	maxWaitSeconds       = 20
	maxVisibilitySeconds = 43200
)

// API is the subset of the SQS client used by the queue.
type API interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
	ChangeMessageVisibility(ctx context.Context, params *sqs.ChangeMessageVisibilityInput, optFns ...func(*sqs.Options)) (*sqs.ChangeMessageVisibilityOutput, error)
}

type inflight struct {
	info          *jobx.JobInfo
	receiptHandle string
}

// SQSQueue implements jobx.Queue on a single SQS queue. Queue names on jobs
// are kept in the message body but all of them share the queue URL.
//
// SQS owns scheduling and redelivery, so PromoteScheduled does nothing and
// GetJob only sees messages received by this process and not yet settled.
type SQSQueue struct {
	client   API
	queueURL string
	rawType  string

	mu       sync.Mutex
	inflight map[string]inflight
}

// Option configures an SQSQueue.
type Option func(*SQSQueue)

// WithRawMessageType treats message bodies that are not job envelopes as the
// payload of a job of the given type. Empty rejects them.
func WithRawMessageType(jobType string) Option {
	return func(q *SQSQueue) { q.rawType = jobType }
}

// NewSQSQueue creates a queue over queueURL.
func NewSQSQueue(client API, queueURL string, opts ...Option) *SQSQueue {
	q := &SQSQueue{
		client:   client,
		queueURL: queueURL,
		inflight: make(map[string]inflight),
	}
	for _, o := range opts {
		o(q)
	}
	return q
}

var _ jobx.Queue = (*SQSQueue)(nil)

// Enqueue sends the job for immediate processing.
func (q *SQSQueue) Enqueue(ctx context.Context, job jobx.Job) (string, error) {
	return q.send(ctx, job, 0)
}

// EnqueueDelayed sends the job with a delivery delay. SQS caps delays at 15 minutes.
func (q *SQSQueue) EnqueueDelayed(ctx context.Context, job jobx.Job, delay time.Duration) (string, error) {
	return q.send(ctx, job, clampSeconds(delay, maxDelaySeconds))
}

func (q *SQSQueue) send(ctx context.Context, job jobx.Job, delaySeconds int32) (string, error) {
	now := time.Now().UTC()
	info := jobx.JobInfo{
		ID:         uuid.New().String(),
		Type:       job.Type,
		Queue:      job.Queue,
		Payload:    job.Payload,
		Status:     jobx.JobStatusPending,
		MaxRetries: job.MaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	body, err := json.Marshal(info)
	if err != nil {
		return "", sqsErrors.NewWithCause(ErrMarshal, err)
	}

	_, err = q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(q.queueURL),
		MessageBody:  aws.String(string(body)),
		DelaySeconds: delaySeconds,
		MessageAttributes: map[string]types.MessageAttributeValue{
			"JobType": {DataType: aws.String("String"), StringValue: aws.String(job.Type)},
		},
	})
	if err != nil {
		return "", sqsErrors.NewWithCause(ErrEnqueue, err).WithDetail("queue", job.Queue)
	}
	return info.ID, nil
}

// Dequeue long-polls for one message. The receive count becomes the job's attempts.
func (q *SQSQueue) Dequeue(ctx context.Context, _ []string, timeout time.Duration) (*jobx.JobInfo, error) {
	out, err := q.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(q.queueURL),
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     clampSeconds(timeout, maxWaitSeconds),
		MessageSystemAttributeNames: []types.MessageSystemAttributeName{
			types.MessageSystemAttributeNameApproximateReceiveCount,
		},
	})
	if ctx.Err() != nil {
		return nil, nil
	}
	if err != nil {
		return nil, sqsErrors.NewWithCause(ErrDequeue, err)
	}
	if len(out.Messages) == 0 {
		return nil, nil
	}

	msg := out.Messages[0]
	handle := aws.ToString(msg.ReceiptHandle)

	info, err := q.decode(msg)
	if err != nil {
		// Undecodable messages would be redelivered forever.
		logx.WithError(err).Warnf("jobxsqs: dropping message %s", aws.ToString(msg.MessageId))
		q.delete(ctx, handle)
		return nil, err
	}

	info.Status = jobx.JobStatusActive
	info.UpdatedAt = time.Now().UTC()
	if n, err := strconv.Atoi(msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]); err == nil {
		info.Attempts = n
	} else {
		info.Attempts = 1
	}

	q.mu.Lock()
	q.inflight[info.ID] = inflight{info: info, receiptHandle: handle}
	q.mu.Unlock()

	return cloneInfo(info), nil
}

func (q *SQSQueue) decode(msg types.Message) (*jobx.JobInfo, error) {
	body := aws.ToString(msg.Body)
	if !gjson.Valid(body) {
		return nil, sqsErrors.New(ErrUnmarshal).WithDetail("message_id", aws.ToString(msg.MessageId))
	}

	if gjson.Get(body, "type").Exists() {
		var info jobx.JobInfo
		if err := json.Unmarshal([]byte(body), &info); err != nil {
			return nil, sqsErrors.NewWithCause(ErrUnmarshal, err).WithDetail("message_id", aws.ToString(msg.MessageId))
		}
		if info.ID == "" {
			info.ID = aws.ToString(msg.MessageId)
		}
		if info.MaxRetries <= 0 {
			info.MaxRetries = jobx.DefaultMaxRetries
		}
		return &info, nil
	}

	if q.rawType == "" {
		return nil, sqsErrors.New(ErrUnmarshal).
			WithDetail("message_id", aws.ToString(msg.MessageId)).
			WithDetail("reason", "message is not a job")
	}

	now := time.Now().UTC()
	return &jobx.JobInfo{
		ID:         aws.ToString(msg.MessageId),
		Type:       q.rawType,
		Payload:    json.RawMessage(body),
		MaxRetries: jobx.DefaultMaxRetries,
		CreatedAt:  now,
	}, nil
}

// GetJob returns a job currently in flight in this process.
func (q *SQSQueue) GetJob(_ context.Context, jobID string) (*jobx.JobInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	f, ok := q.inflight[jobID]
	if !ok {
		return nil, sqsErrors.New(ErrNotFound).WithDetail("job_id", jobID)
	}
	return cloneInfo(f.info), nil
}

// Complete deletes the message.
func (q *SQSQueue) Complete(ctx context.Context, jobID string, _ []byte) error {
	f, err := q.take(jobID)
	if err != nil {
		return err
	}
	return q.delete(ctx, f.receiptHandle)
}

// Fail records errMsg. A job with no attempts left is deleted; otherwise it
// stays in flight until Retry.
func (q *SQSQueue) Fail(ctx context.Context, jobID string, errMsg string) (bool, error) {
	q.mu.Lock()
	f, ok := q.inflight[jobID]
	if !ok {
		q.mu.Unlock()
		return false, sqsErrors.New(ErrNotFound).WithDetail("job_id", jobID)
	}
	f.info.Error = errMsg
	f.info.UpdatedAt = time.Now().UTC()
	retry := f.info.CanRetry()
	if retry {
		f.info.Status = jobx.JobStatusRetrying
	} else {
		f.info.Status = jobx.JobStatusFailed
		delete(q.inflight, jobID)
	}
	q.mu.Unlock()

	if !retry {
		if err := q.delete(ctx, f.receiptHandle); err != nil {
			return false, err
		}
	}
	return retry, nil
}

// Retry makes the message visible again after delay.
func (q *SQSQueue) Retry(ctx context.Context, jobID string, delay time.Duration) error {
	f, err := q.take(jobID)
	if err != nil {
		return err
	}

	_, err = q.client.ChangeMessageVisibility(ctx, &sqs.ChangeMessageVisibilityInput{
		QueueUrl:          aws.String(q.queueURL),
		ReceiptHandle:     aws.String(f.receiptHandle),
		VisibilityTimeout: clampSeconds(delay, maxVisibilitySeconds),
	})
	if err != nil {
		return sqsErrors.NewWithCause(ErrRetry, err).WithDetail("job_id", jobID)
	}
	return nil
}

// PromoteScheduled is a no-op: SQS delivers delayed messages itself.
func (q *SQSQueue) PromoteScheduled(context.Context, []string) error {
	return nil
}

func (q *SQSQueue) take(jobID string) (inflight, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	f, ok := q.inflight[jobID]
	if !ok {
		return inflight{}, sqsErrors.New(ErrNotFound).WithDetail("job_id", jobID)
	}
	delete(q.inflight, jobID)
	return f, nil
}

func (q *SQSQueue) delete(ctx context.Context, receiptHandle string) error {
	_, err := q.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(q.queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return sqsErrors.NewWithCause(ErrDelete, err)
	}
	return nil
}

func cloneInfo(info *jobx.JobInfo) *jobx.JobInfo {
	cp := *info
	return &cp
}

func clampSeconds(d time.Duration, limit int32) int32 {
	s := int64(d / time.Second)
	switch {
	case s < 0:
		return 0
	case s > int64(limit):
		return limit
	}
	return int32(s)
}
