package maillog

import (
	"context"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/kernel"
)

// Status is the delivery state of an email.
type Status string

const (
	StatusQueued Status = "queued"
	StatusSent   Status = "sent"
	StatusFailed Status = "failed"
)

// Record is one queued email. ID is the job id.
type Record struct {
	ID        string     `db:"id" json:"id"`
	To        string     `db:"to_addr" json:"to"`
	FromEmail string     `db:"from_email" json:"from_email"`
	Subject   string     `db:"subject" json:"subject"`
	Status    Status     `db:"status" json:"status"`
	Provider  string     `db:"provider" json:"provider,omitempty"`
	Error     string     `db:"error" json:"error,omitempty"`
	Attempts  int        `db:"attempts" json:"attempts"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	SentAt    *time.Time `db:"sent_at" json:"sent_at,omitempty"`
}

// ListFilter selects records for List. Empty Status matches all.
type ListFilter struct {
	Status Status
	kernel.PaginationOptions
}

// Store persists delivery records.
type Store interface {
	Queued(ctx context.Context, rec Record) error
	MarkSent(ctx context.Context, id, provider string, attempts int) error
	MarkFailed(ctx context.Context, id, cause string, attempts int) error
	Get(ctx context.Context, id string) (*Record, error)
	List(ctx context.Context, filter ListFilter) (kernel.Paginated[Record], error)
}
