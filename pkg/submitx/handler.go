package submitx

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/mailrelay/pkg/asyncx"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
)

// Sender performs the network half of a submission.
type Sender interface {
	Send(ctx context.Context, req EmailRequest) (*EmailResponse, error)
}

// FieldReader exposes the current text value of a form field by element id.
type FieldReader interface {
	Value(id string) string
}

// StatusWriter replaces the text of the status display element.
type StatusWriter interface {
	SetText(text string)
}

// Event is the submit event of the form.
type Event interface {
	PreventDefault()
}

// Handler binds a form, a status element and a Sender together. It keeps no
// state between submissions and never blocks concurrent ones.
type Handler struct {
	sender Sender
	fields FieldReader
	status StatusWriter
}

// NewHandler creates a submission handler.
func NewHandler(sender Sender, fields FieldReader, status StatusWriter) *Handler {
	return &Handler{
		sender: sender,
		fields: fields,
		status: status,
	}
}

// ReadRequest builds an EmailRequest from the form's current values, verbatim.
func ReadRequest(fields FieldReader) EmailRequest {
	return EmailRequest{
		To:        fields.Value(FieldTo),
		FromEmail: fields.Value(FieldFromEmail),
		Subject:   fields.Value(FieldSubject),
		Body:      fields.Value(FieldBody),
	}
}

// Render maps the outcome of a submission to the text shown to the user.
func Render(resp *EmailResponse, err error) string {
	if err != nil || resp == nil {
		return FailureText
	}
	return resp.Message
}

// HandleSubmit runs one full submission and returns once the status
// element has been written.
func (h *Handler) HandleSubmit(ctx context.Context, ev Event) {
	_, _ = h.Dispatch(ctx, ev).Await()
}

// Dispatch suppresses the event's default action and snapshots the form
// before returning; the request and the status update happen on the
// returned Future. The Future resolves to the text written to the status
// element and never carries an error.
func (h *Handler) Dispatch(ctx context.Context, ev Event) *asyncx.Future[string] {
	ev.PreventDefault()
	req := ReadRequest(h.fields)

	return asyncx.Run(func() (string, error) {
		text := h.deliver(ctx, req)
		h.status.SetText(text)
		return text, nil
	})
}

func (h *Handler) deliver(ctx context.Context, req EmailRequest) (text string) {
	defer func() {
		if r := recover(); r != nil {
			logx.WithField("panic", fmt.Sprint(r)).Error("submitx: submission panicked")
			text = FailureText
		}
	}()

	resp, err := h.sender.Send(ctx, req)
	if err != nil {
		logx.WithError(err).
			WithField("cause", FailureCause(err)).
			Warn("submitx: email submission failed")
	}
	return Render(resp, err)
}
