package jobx_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/jobx"
)

// memQueue is an in-memory jobx.Queue. Retried jobs go straight back to ready.
type memQueue struct {
	mu        sync.Mutex
	seq       int
	jobs      map[string]*jobx.JobInfo
	ready     chan string
	completed chan string
	retried   []string
}

func newMemQueue() *memQueue {
	return &memQueue{
		jobs:      map[string]*jobx.JobInfo{},
		ready:     make(chan string, 16),
		completed: make(chan string, 16),
	}
}

func (q *memQueue) Enqueue(_ context.Context, job jobx.Job) (string, error) {
	q.mu.Lock()
	q.seq++
	id := "job-" + strconv.Itoa(q.seq)
	q.jobs[id] = &jobx.JobInfo{
		ID: id, Type: job.Type, Queue: job.Queue, Payload: job.Payload,
		MaxRetries: job.MaxRetries, Status: jobx.JobStatusPending,
	}
	q.mu.Unlock()
	q.ready <- id
	return id, nil
}

func (q *memQueue) EnqueueDelayed(ctx context.Context, job jobx.Job, _ time.Duration) (string, error) {
	return q.Enqueue(ctx, job)
}

func (q *memQueue) GetJob(_ context.Context, id string) (*jobx.JobInfo, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	info, ok := q.jobs[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *info
	return &cp, nil
}

func (q *memQueue) Dequeue(ctx context.Context, _ []string, timeout time.Duration) (*jobx.JobInfo, error) {
	select {
	case <-ctx.Done():
		return nil, nil
	case <-time.After(timeout):
		return nil, nil
	case id := <-q.ready:
		q.mu.Lock()
		defer q.mu.Unlock()
		info := q.jobs[id]
		info.Attempts++
		info.Status = jobx.JobStatusActive
		cp := *info
		return &cp, nil
	}
}

func (q *memQueue) Complete(_ context.Context, id string, _ []byte) error {
	q.mu.Lock()
	q.jobs[id].Status = jobx.JobStatusCompleted
	q.mu.Unlock()
	q.completed <- id
	return nil
}

func (q *memQueue) Fail(_ context.Context, id string, msg string) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	info := q.jobs[id]
	info.Error = msg
	if info.CanRetry() {
		info.Status = jobx.JobStatusRetrying
		return true, nil
	}
	info.Status = jobx.JobStatusFailed
	return false, nil
}

func (q *memQueue) Retry(_ context.Context, id string, _ time.Duration) error {
	q.mu.Lock()
	q.retried = append(q.retried, id)
	q.mu.Unlock()
	q.ready <- id
	return nil
}

func (q *memQueue) PromoteScheduled(context.Context, []string) error { return nil }

func startClient(t *testing.T, c *jobx.Client) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Start(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func newClient(q jobx.Queue, opts ...jobx.WorkerOption) *jobx.Client {
	base := []jobx.WorkerOption{
		jobx.WithQueues("emails"),
		jobx.WithConcurrency(1),
		jobx.WithPollInterval(10 * time.Millisecond),
		jobx.WithDequeueTimeout(20 * time.Millisecond),
		jobx.WithDefaultRetryDelay(0),
		jobx.WithShutdownTimeout(time.Second),
	}
	return jobx.NewClient(q, append(base, opts...)...)
}

func errCode(err error) string {
	var e *errx.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func TestEnqueue_AppliesDefaults(t *testing.T) {
	q := newMemQueue()
	c := newClient(q)

	job, err := jobx.NewJob("email.send", map[string]string{"to": "a@example.com"})
	if err != nil {
		t.Fatal(err)
	}
	id, err := c.Enqueue(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}

	info, _ := c.GetJob(context.Background(), id)
	if info.Queue != "emails" || info.MaxRetries != jobx.DefaultMaxRetries {
		t.Fatalf("queue=%q max_retries=%d", info.Queue, info.MaxRetries)
	}
	if string(info.Payload) != `{"to":"a@example.com"}` {
		t.Fatalf("payload = %s", info.Payload)
	}
}

func TestEnqueue_RejectsEmptyType(t *testing.T) {
	_, err := newClient(newMemQueue()).Enqueue(context.Background(), jobx.Job{})
	if errCode(err) != jobx.ErrInvalidJob.Code {
		t.Fatalf("error = %v", err)
	}
}

func TestWorker_CompletesJob(t *testing.T) {
	q := newMemQueue()
	c := newClient(q)

	var got struct{ To string }
	c.Register("email.send", func(_ context.Context, job *jobx.JobInfo) error {
		return job.Decode(&got)
	})
	startClient(t, c)

	job, _ := jobx.NewJob("email.send", map[string]string{"to": "a@example.com"})
	id, _ := c.Enqueue(context.Background(), job)

	select {
	case done := <-q.completed:
		if done != id {
			t.Fatalf("completed %s, want %s", done, id)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job was not completed")
	}
	if got.To != "a@example.com" {
		t.Fatalf("decoded payload = %+v", got)
	}
}

func TestWorker_RetriesThenDeadLetters(t *testing.T) {
	q := newMemQueue()
	dead := make(chan *jobx.JobInfo, 1)
	c := newClient(q, jobx.WithDeadLetterHandler(func(_ context.Context, job *jobx.JobInfo, _ error) {
		dead <- job
	}))

	var mu sync.Mutex
	calls := 0
	c.Register("email.send", func(context.Context, *jobx.JobInfo) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return errors.New("provider down")
	})
	startClient(t, c)

	id, _ := c.Enqueue(context.Background(), jobx.Job{Type: "email.send", Payload: []byte(`{}`), MaxRetries: 2})

	select {
	case job := <-dead:
		if job.ID != id || job.Attempts != 2 || job.Status != jobx.JobStatusFailed || job.Error != "provider down" {
			t.Fatalf("dead letter = %+v", job)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("job never reached the dead-letter handler")
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("handler called %d times, want 2", calls)
	}
}

func TestWorker_HandlerPanicIsAFailure(t *testing.T) {
	q := newMemQueue()
	dead := make(chan error, 1)
	c := newClient(q, jobx.WithDeadLetterHandler(func(_ context.Context, _ *jobx.JobInfo, cause error) {
		dead <- cause
	}))
	c.Register("email.send", func(context.Context, *jobx.JobInfo) error {
		panic("boom")
	})
	startClient(t, c)

	c.Enqueue(context.Background(), jobx.Job{Type: "email.send", Payload: []byte(`{}`), MaxRetries: 1})

	select {
	case cause := <-dead:
		if errCode(cause) != jobx.ErrHandlerPanic.Code {
			t.Fatalf("cause = %v", cause)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("panicking job was not dead-lettered")
	}
}

func TestWorker_UnknownTypeFails(t *testing.T) {
	q := newMemQueue()
	dead := make(chan error, 1)
	c := newClient(q, jobx.WithDeadLetterHandler(func(_ context.Context, _ *jobx.JobInfo, cause error) {
		dead <- cause
	}))
	startClient(t, c)

	c.Enqueue(context.Background(), jobx.Job{Type: "sms.send", Payload: []byte(`{}`), MaxRetries: 1})

	select {
	case cause := <-dead:
		if errCode(cause) != jobx.ErrNoHandler.Code {
			t.Fatalf("cause = %v", cause)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("unknown job type was not dead-lettered")
	}
}

func TestStart_AlreadyRunning(t *testing.T) {
	q := newMemQueue()
	c := newClient(q)
	c.Register("noop", func(context.Context, *jobx.JobInfo) error { return nil })
	startClient(t, c)

	// A processed job proves the first Start is running.
	c.Enqueue(context.Background(), jobx.Job{Type: "noop", Payload: []byte(`{}`)})
	select {
	case <-q.completed:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not start")
	}

	if err := c.Start(context.Background()); errCode(err) != jobx.ErrAlreadyRunning.Code {
		t.Fatalf("second Start error = %v", err)
	}
}

func TestDecode_InvalidPayload(t *testing.T) {
	job := &jobx.JobInfo{ID: "1", Type: "email.send", Payload: []byte(`not json`)}
	var v map[string]any
	if err := job.Decode(&v); errCode(err) != jobx.ErrInvalidPayload.Code {
		t.Fatalf("error = %v", err)
	}
}
