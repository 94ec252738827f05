package submitx

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

// Form is an in-memory FieldReader keyed by element id. Missing ids read as "".
type Form map[string]string

// Value returns the value of field id.
func (f Form) Value(id string) string {
	return f[id]
}

// FormFromRequest fills a Form with the four fields of req.
func FormFromRequest(req EmailRequest) Form {
	return Form{
		FieldTo:        req.To,
		FieldFromEmail: req.FromEmail,
		FieldSubject:   req.Subject,
		FieldBody:      req.Body,
	}
}

// StatusText is a StatusWriter that keeps the last text written.
type StatusText struct {
	mu     sync.Mutex
	text   string
	writes int
}

// SetText overwrites the current text.
func (s *StatusText) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.text = text
	s.writes++
}

// Text returns the current text.
func (s *StatusText) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// Writes returns how many times the text was set.
func (s *StatusText) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// WriterStatus prints every status text as one line on an io.Writer.
type WriterStatus struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterStatus creates a StatusWriter backed by w.
func NewWriterStatus(w io.Writer) *WriterStatus {
	return &WriterStatus{w: w}
}

// SetText writes text followed by a newline.
func (s *WriterStatus) SetText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, text)
}

// SubmitEvent is an Event that records whether its default action was suppressed.
type SubmitEvent struct {
	prevented atomic.Bool
}

// PreventDefault suppresses the form's native submission.
func (e *SubmitEvent) PreventDefault() {
	e.prevented.Store(true)
}

// DefaultPrevented reports whether PreventDefault was called.
func (e *SubmitEvent) DefaultPrevented() bool {
	return e.prevented.Load()
}
