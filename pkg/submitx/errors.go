package submitx

import (
	"net/http"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
)

var submitErrors = errx.NewRegistry("SUBMITX")

// Failure causes. All of them render as FailureText; the code is only logged.
var (
	ErrEncode    = submitErrors.Register("ENCODE", errx.TypeInternal, http.StatusInternalServerError, "Failed to encode email request")
	ErrTransport = submitErrors.Register("TRANSPORT", errx.TypeExternal, http.StatusBadGateway, "Email request could not reach the server")
	ErrReadBody  = submitErrors.Register("READ_BODY", errx.TypeExternal, http.StatusBadGateway, "Failed to read server response")
	ErrDecode    = submitErrors.Register("DECODE", errx.TypeExternal, http.StatusBadGateway, "Server response is not a JSON object")
)

// FailureCause returns the registered code behind a submission failure, or
// an empty string when err did not come from this package.
func FailureCause(err error) string {
	var e *errx.Error
	if errx.As(err, &e) {
		return e.Code
	}
	return ""
}
