package maillogpg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/kernel"
	"github.com/Abraxas-365/mailrelay/pkg/maillog"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS email_deliveries (
	id         TEXT PRIMARY KEY,
	to_addr    TEXT NOT NULL,
	from_email TEXT NOT NULL,
	subject    TEXT NOT NULL,
	status     TEXT NOT NULL,
	provider   TEXT NOT NULL DEFAULT '',
	error      TEXT NOT NULL DEFAULT '',
	attempts   INT  NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	sent_at    TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS email_deliveries_status_idx ON email_deliveries (status, created_at DESC);`

// PostgresStore implements maillog.Store on PostgreSQL.
type PostgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewPostgresStore creates the store. Call Migrate once before use.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}
}

var _ maillog.Store = (*PostgresStore)(nil)

// Migrate creates the email_deliveries table if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return maillog.StoreError("migrate", err)
	}
	return nil
}

// Queued inserts a queued record. A duplicate id is ignored.
func (s *PostgresStore) Queued(ctx context.Context, rec maillog.Record) error {
	now := s.now()
	rec.Status = maillog.StatusQueued
	rec.CreatedAt = now
	rec.UpdatedAt = now

	query := `
		INSERT INTO email_deliveries (
			id, to_addr, from_email, subject, status, created_at, updated_at
		) VALUES (
			:id, :to_addr, :from_email, :subject, :status, :created_at, :updated_at
		)`

	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" { // unique_violation
			return nil
		}
		return maillog.StoreError("queued", err)
	}
	return nil
}

// MarkSent records the provider that delivered the email.
func (s *PostgresStore) MarkSent(ctx context.Context, id, provider string, attempts int) error {
	now := s.now()
	return s.update(ctx, "mark_sent", id, `
		UPDATE email_deliveries
		   SET status = $1, provider = $2, error = '', attempts = $3, sent_at = $4, updated_at = $4
		 WHERE id = $5`,
		maillog.StatusSent, provider, attempts, now, id)
}

// MarkFailed records the last failure.
func (s *PostgresStore) MarkFailed(ctx context.Context, id, cause string, attempts int) error {
	return s.update(ctx, "mark_failed", id, `
		UPDATE email_deliveries
		   SET status = $1, error = $2, attempts = $3, updated_at = $4
		 WHERE id = $5`,
		maillog.StatusFailed, cause, attempts, s.now(), id)
}

func (s *PostgresStore) update(ctx context.Context, op, id, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return maillog.StoreError(op, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return maillog.StoreError(op, err)
	}
	if n == 0 {
		return maillog.NotFound(id)
	}
	return nil
}

// Get returns one record.
func (s *PostgresStore) Get(ctx context.Context, id string) (*maillog.Record, error) {
	var rec maillog.Record
	err := s.db.GetContext(ctx, &rec, `SELECT * FROM email_deliveries WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, maillog.NotFound(id)
	}
	if err != nil {
		return nil, maillog.StoreError("get", err)
	}
	return &rec, nil
}

// List returns records newest first.
func (s *PostgresStore) List(ctx context.Context, filter maillog.ListFilter) (kernel.Paginated[maillog.Record], error) {
	page := filter.PaginationOptions.Normalize()

	var total int
	if err := s.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM email_deliveries WHERE ($1 = '' OR status = $1)`,
		string(filter.Status),
	); err != nil {
		return kernel.Paginated[maillog.Record]{}, maillog.StoreError("count", err)
	}

	var records []maillog.Record
	if err := s.db.SelectContext(ctx, &records, `
		SELECT * FROM email_deliveries
		 WHERE ($1 = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		string(filter.Status), page.PageSize, page.Offset(),
	); err != nil {
		return kernel.Paginated[maillog.Record]{}, maillog.StoreError("list", err)
	}

	return kernel.NewPaginated(records, page.Page, page.PageSize, total), nil
}
