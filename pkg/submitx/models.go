package submitx

// Element identifiers of the host page.
const (
	FormID         = "emailForm"
	FieldTo        = "to"
	FieldFromEmail = "from_email"
	FieldSubject   = "subject"
	FieldBody      = "body"
	StatusID       = "statusMessage"
)

// SendEmailPath is the endpoint every submission is posted to.
const SendEmailPath = "/send-email/"

// FailureText is shown for every failed submission, whatever the cause.
const FailureText = "Failed to send email"

// EmailRequest is the payload of one submission. Field order is the wire
// order and every key is always present, empty or not.
type EmailRequest struct {
	To        string `json:"to"`
	FromEmail string `json:"from_email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// EmailResponse is the part of the server reply the handler reads.
type EmailResponse struct {
	Message string `json:"message"`
}
