package notifxsendgrid_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx/notifxsendgrid"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type fakeSendGrid struct {
	status int
	err    error
	sent   *mail.SGMailV3
}

func (f *fakeSendGrid) SendWithContext(_ context.Context, m *mail.SGMailV3) (*rest.Response, error) {
	f.sent = m
	if f.err != nil {
		return nil, f.err
	}
	return &rest.Response{StatusCode: f.status, Body: "{}"}, nil
}

func TestNewSendGridProvider_RequiresAPIKey(t *testing.T) {
	if _, err := notifxsendgrid.NewSendGridProvider("", "x@y.z"); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestSendGridProvider_Accepted(t *testing.T) {
	api := &fakeSendGrid{status: 202}
	p := notifxsendgrid.NewSendGridProviderWithClient(api, "default@example.com")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{
		To:       []string{"dest@example.com"},
		Subject:  "Hello",
		HTMLBody: "<b>hi</b>",
	})
	if err != nil {
		t.Fatal(err)
	}

	m := api.sent
	if m.From.Address != "default@example.com" {
		t.Errorf("from = %q", m.From.Address)
	}
	if m.Subject != "Hello" {
		t.Errorf("subject = %q", m.Subject)
	}
	if len(m.Personalizations) != 1 || m.Personalizations[0].To[0].Address != "dest@example.com" {
		t.Errorf("personalizations = %+v", m.Personalizations)
	}
	if len(m.Content) != 1 || m.Content[0].Type != "text/html" {
		t.Errorf("content = %+v", m.Content)
	}
}

func TestSendGridProvider_RejectsNon202(t *testing.T) {
	p := notifxsendgrid.NewSendGridProviderWithClient(&fakeSendGrid{status: 400}, "x@y.z")
	err := p.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@b.c"}, Subject: "s"})
	if err == nil {
		t.Fatal("expected error for status 400")
	}
}

func TestSendGridProvider_WrapsTransportErrors(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	p := notifxsendgrid.NewSendGridProviderWithClient(&fakeSendGrid{err: cause}, "x@y.z")
	err := p.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@b.c"}, Subject: "s"})
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}
