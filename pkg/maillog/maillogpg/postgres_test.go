package maillogpg_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/kernel"
	"github.com/Abraxas-365/mailrelay/pkg/maillog"
	"github.com/Abraxas-365/mailrelay/pkg/maillog/maillogpg"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newStore(t *testing.T) (*maillogpg.PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Error(err)
		}
		db.Close()
	})
	return maillogpg.NewPostgresStore(sqlx.NewDb(db, "postgres")), mock
}

func errCode(err error) string {
	var e *errx.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

var columns = []string{
	"id", "to_addr", "from_email", "subject", "status", "provider",
	"error", "attempts", "created_at", "updated_at", "sent_at",
}

func TestMigrate(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS email_deliveries")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := store.Migrate(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestQueued(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO email_deliveries")).
		WithArgs("job-1", "a@example.com", "b@example.com", "Hi", "queued", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := store.Queued(context.Background(), maillog.Record{
		ID: "job-1", To: "a@example.com", FromEmail: "b@example.com", Subject: "Hi",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMarkSent(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_deliveries")).
		WithArgs("sent", "Amazon SES", 1, sqlmock.AnyArg(), "job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := store.MarkSent(context.Background(), "job-1", "Amazon SES", 1); err != nil {
		t.Fatal(err)
	}
}

func TestMarkFailed_UnknownID(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE email_deliveries")).
		WithArgs("failed", "provider down", 3, sqlmock.AnyArg(), "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.MarkFailed(context.Background(), "missing", "provider down", 3)
	if errCode(err) != maillog.ErrNotFound.Code {
		t.Fatalf("error = %v", err)
	}
}

func TestGet(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM email_deliveries WHERE id = $1")).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("job-1", "a@example.com", "b@example.com", "Hi", "sent", "SendGrid", "", 1, now, now, now))

	rec, err := store.Get(context.Background(), "job-1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != maillog.StatusSent || rec.Provider != "SendGrid" || rec.SentAt == nil {
		t.Fatalf("record = %+v", rec)
	}
}

func TestGet_NotFound(t *testing.T) {
	store, mock := newStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM email_deliveries")).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(columns))

	_, err := store.Get(context.Background(), "nope")
	if errCode(err) != maillog.ErrNotFound.Code {
		t.Fatalf("error = %v", err)
	}
}

func TestList(t *testing.T) {
	store, mock := newStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM email_deliveries")).
		WithArgs("failed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM email_deliveries")).
		WithArgs("failed", 2, 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("job-3", "a@example.com", "b@example.com", "Hi", "failed", "", "down", 3, now, now, nil))

	page, err := store.List(context.Background(), maillog.ListFilter{
		Status:            maillog.StatusFailed,
		PaginationOptions: kernel.PaginationOptions{Page: 2, PageSize: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Page.Total != 3 || page.Page.Pages != 2 || page.HasNext() {
		t.Fatalf("page = %+v", page)
	}
	if page.Items[0].SentAt != nil || page.Items[0].Error != "down" {
		t.Fatalf("item = %+v", page.Items[0])
	}
}
