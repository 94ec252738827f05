package notifxses_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx/notifxses"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
)

type fakeSES struct {
	input *ses.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESProvider_BuildsHTMLMessage(t *testing.T) {
	api := &fakeSES{}
	p := notifxses.NewSESProvider(api, "default@example.com")

	err := p.SendEmail(context.Background(), notifx.EmailMessage{
		To:       []string{"dest@example.com"},
		Subject:  "Hello",
		HTMLBody: "<h1>Hi</h1>",
	}, notifx.WithTags(map[string]string{"job_id": "42"}))
	if err != nil {
		t.Fatal(err)
	}

	in := api.input
	if aws.ToString(in.Source) != "default@example.com" {
		t.Errorf("source = %q, want default sender", aws.ToString(in.Source))
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "dest@example.com" {
		t.Errorf("to = %v", in.Destination.ToAddresses)
	}
	if aws.ToString(in.Message.Body.Html.Data) != "<h1>Hi</h1>" {
		t.Errorf("html body = %q", aws.ToString(in.Message.Body.Html.Data))
	}
	if in.Message.Body.Text != nil {
		t.Error("text body should be unset")
	}
	if len(in.Tags) != 1 || aws.ToString(in.Tags[0].Name) != "job_id" {
		t.Errorf("tags = %+v", in.Tags)
	}
}

func TestSESProvider_UsesMessageSender(t *testing.T) {
	api := &fakeSES{}
	p := notifxses.NewSESProvider(api, "default@example.com")
	_ = p.SendEmail(context.Background(), notifx.EmailMessage{
		From: "me@example.com", To: []string{"a@b.c"}, Subject: "s", TextBody: "t",
	})
	if aws.ToString(api.input.Source) != "me@example.com" {
		t.Fatalf("source = %q", aws.ToString(api.input.Source))
	}
}

func TestSESProvider_WrapsErrors(t *testing.T) {
	cause := errors.New("throttled")
	p := notifxses.NewSESProvider(&fakeSES{err: cause}, "x@y.z")
	err := p.SendEmail(context.Background(), notifx.EmailMessage{To: []string{"a@b.c"}, Subject: "s"})
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}
