package mailworker

import (
	"context"
	"encoding/json"
	"path"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/fsx"
	"github.com/Abraxas-365/mailrelay/pkg/jobx"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
)

// DeadLetterDir is the root of archived jobs.
const DeadLetterDir = "dead-letters"

// DeadLetter is the archived form of a job that exhausted its attempts.
type DeadLetter struct {
	Job        *jobx.JobInfo `json:"job"`
	Cause      string        `json:"cause"`
	ArchivedAt time.Time     `json:"archived_at"`
}

// DeadLetterArchive writes exhausted jobs to a file system.
type DeadLetterArchive struct {
	fs  fsx.FileWriter
	now func() time.Time
}

// NewDeadLetterArchive archives to fs under dead-letters/<date>/<job id>.json.
func NewDeadLetterArchive(fs fsx.FileWriter) *DeadLetterArchive {
	return &DeadLetterArchive{fs: fs, now: func() time.Time { return time.Now().UTC() }}
}

// Path returns where a job is archived at t.
func Path(jobID string, t time.Time) string {
	return path.Join(DeadLetterDir, t.Format(time.DateOnly), jobID+".json")
}

// Archive stores the job and its last error.
func (a *DeadLetterArchive) Archive(ctx context.Context, job *jobx.JobInfo, cause error) error {
	now := a.now()
	letter := DeadLetter{Job: job, ArchivedAt: now}
	if cause != nil {
		letter.Cause = cause.Error()
	}

	data, err := json.MarshalIndent(letter, "", "  ")
	if err != nil {
		return workerErrors.NewWithCause(ErrArchive, err).WithDetail("job_id", job.ID)
	}

	p := Path(job.ID, now)
	if err := a.fs.WriteFile(ctx, p, data); err != nil {
		return workerErrors.NewWithCause(ErrArchive, err).WithDetail("path", p)
	}
	return nil
}

// Handler adapts the archive to jobx.WithDeadLetterHandler.
func (a *DeadLetterArchive) Handler() jobx.DeadLetterFunc {
	return func(ctx context.Context, job *jobx.JobInfo, cause error) {
		if err := a.Archive(ctx, job, cause); err != nil {
			logx.WithError(err).Errorf("mailworker: could not archive dead letter %s", job.ID)
			return
		}
		logx.Warnf("mailworker: job %s archived as dead letter", job.ID)
	}
}
