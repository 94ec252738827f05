package jobxredis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/jobx"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisQueue implements jobx.Queue with a Redis list per queue, a sorted
// set of scheduled job ids per queue and one string key per job.
type RedisQueue struct {
	rdb       redis.Cmdable
	prefix    string
	finishTTL time.Duration
}

// Option configures a RedisQueue.
type Option func(*RedisQueue)

// WithPrefix sets the key prefix. Default "jobx".
func WithPrefix(prefix string) Option {
	return func(q *RedisQueue) {
		if prefix != "" {
			q.prefix = prefix
		}
	}
}

// WithFinishedTTL expires completed and failed jobs after d. Zero keeps them.
func WithFinishedTTL(d time.Duration) Option {
	return func(q *RedisQueue) { q.finishTTL = d }
}

// NewRedisQueue creates a new Redis-backed queue.
func NewRedisQueue(rdb redis.Cmdable, opts ...Option) *RedisQueue {
	q := &RedisQueue{rdb: rdb, prefix: "jobx", finishTTL: 7 * 24 * time.Hour}
	for _, o := range opts {
		o(q)
	}
	return q
}

var _ jobx.Queue = (*RedisQueue)(nil)

func (q *RedisQueue) queueKey(name string) string     { return q.prefix + ":queue:" + name }
func (q *RedisQueue) scheduledKey(name string) string { return q.prefix + ":scheduled:" + name }
func (q *RedisQueue) jobKey(id string) string         { return q.prefix + ":job:" + id }

func newJobInfo(job jobx.Job) *jobx.JobInfo {
	now := time.Now().UTC()
	return &jobx.JobInfo{
		ID:         uuid.New().String(),
		Type:       job.Type,
		Queue:      job.Queue,
		Payload:    job.Payload,
		Status:     jobx.JobStatusPending,
		MaxRetries: job.MaxRetries,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Enqueue adds a job to the ready queue immediately.
func (q *RedisQueue) Enqueue(ctx context.Context, job jobx.Job) (string, error) {
	info := newJobInfo(job)
	data, err := json.Marshal(info)
	if err != nil {
		return "", redisErrors.NewWithCause(ErrMarshal, err)
	}

	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, q.jobKey(info.ID), data, 0)
	pipe.LPush(ctx, q.queueKey(job.Queue), info.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, err).WithDetail("queue", job.Queue)
	}

	return info.ID, nil
}

// EnqueueDelayed adds a job to the scheduled set; PromoteScheduled moves it
// to the ready queue once the delay has passed.
func (q *RedisQueue) EnqueueDelayed(ctx context.Context, job jobx.Job, delay time.Duration) (string, error) {
	info := newJobInfo(job)
	data, err := json.Marshal(info)
	if err != nil {
		return "", redisErrors.NewWithCause(ErrMarshal, err)
	}

	pipe := q.rdb.TxPipeline()
	pipe.Set(ctx, q.jobKey(info.ID), data, 0)
	pipe.ZAdd(ctx, q.scheduledKey(job.Queue), redis.Z{
		Score:  float64(info.CreatedAt.Add(delay).Unix()),
		Member: info.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", redisErrors.NewWithCause(ErrEnqueue, err).
			WithDetail("queue", job.Queue).
			WithDetail("delay", delay.String())
	}

	return info.ID, nil
}

// GetJob retrieves job info by ID.
func (q *RedisQueue) GetJob(ctx context.Context, jobID string) (*jobx.JobInfo, error) {
	data, err := q.rdb.Get(ctx, q.jobKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, redisErrors.New(ErrNotFound).WithDetail("job_id", jobID)
	}
	if err != nil {
		return nil, redisErrors.NewWithCause(ErrGetJob, err).WithDetail("job_id", jobID)
	}

	var info jobx.JobInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, redisErrors.NewWithCause(ErrUnmarshal, err).WithDetail("job_id", jobID)
	}
	return &info, nil
}

// Dequeue blocks until a job is available from one of the given queues or
// the timeout expires, and marks it active.
func (q *RedisQueue) Dequeue(ctx context.Context, queues []string, timeout time.Duration) (*jobx.JobInfo, error) {
	keys := make([]string, len(queues))
	for i, name := range queues {
		keys[i] = q.queueKey(name)
	}

	result, err := q.rdb.BRPop(ctx, timeout, keys...).Result()
	if errors.Is(err, redis.Nil) || ctx.Err() != nil {
		return nil, nil
	}
	if err != nil {
		return nil, redisErrors.NewWithCause(ErrDequeue, err)
	}

	// result[0] is the list key, result[1] the job id.
	info, err := q.GetJob(ctx, result[1])
	if err != nil {
		return nil, err
	}

	info.Status = jobx.JobStatusActive
	info.Attempts++
	if err := q.save(ctx, info, 0); err != nil {
		return nil, err
	}
	return info, nil
}

// Complete marks a job as successfully completed.
func (q *RedisQueue) Complete(ctx context.Context, jobID string, result []byte) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	info.Status = jobx.JobStatusCompleted
	info.Result = result
	return q.save(ctx, info, q.finishTTL)
}

// Fail records errMsg on the job and reports whether it has attempts left.
func (q *RedisQueue) Fail(ctx context.Context, jobID string, errMsg string) (bool, error) {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return false, err
	}

	retry := info.CanRetry()
	ttl := time.Duration(0)
	if retry {
		info.Status = jobx.JobStatusRetrying
	} else {
		info.Status = jobx.JobStatusFailed
		ttl = q.finishTTL
	}
	info.Error = errMsg

	if err := q.save(ctx, info, ttl); err != nil {
		return false, err
	}
	return retry, nil
}

// Retry schedules a failed job to run again after delay.
func (q *RedisQueue) Retry(ctx context.Context, jobID string, delay time.Duration) error {
	info, err := q.GetJob(ctx, jobID)
	if err != nil {
		return err
	}

	score := float64(time.Now().UTC().Add(delay).Unix())
	if err := q.rdb.ZAdd(ctx, q.scheduledKey(info.Queue), redis.Z{Score: score, Member: jobID}).Err(); err != nil {
		return redisErrors.NewWithCause(ErrRetry, err).WithDetail("job_id", jobID)
	}
	return nil
}

// promoteScript moves due ids from the scheduled set to the ready list atomically.
var promoteScript = redis.NewScript(`
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
for _, id in ipairs(ids) do
    redis.call('LPUSH', KEYS[2], id)
end
if #ids > 0 then
    redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
end
return #ids
`)

// PromoteScheduled moves jobs whose scheduled time has passed to the ready queue.
func (q *RedisQueue) PromoteScheduled(ctx context.Context, queues []string) error {
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)

	for _, name := range queues {
		err := promoteScript.Run(ctx, q.rdb, []string{q.scheduledKey(name), q.queueKey(name)}, now).Err()
		if err != nil && !errors.Is(err, redis.Nil) {
			return redisErrors.NewWithCause(ErrPromote, err).WithDetail("queue", name)
		}
	}
	return nil
}

func (q *RedisQueue) save(ctx context.Context, info *jobx.JobInfo, ttl time.Duration) error {
	info.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(info)
	if err != nil {
		return redisErrors.NewWithCause(ErrMarshal, err).WithDetail("job_id", info.ID)
	}
	if err := q.rdb.Set(ctx, q.jobKey(info.ID), data, ttl).Err(); err != nil {
		return redisErrors.NewWithCause(ErrSave, err).WithDetail("job_id", info.ID)
	}
	return nil
}
