package errx

import "net/http"

// HTTPErrorResponse is the JSON body of a failed request. Message is always
// set so clients can show it as-is.
type HTTPErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Type    string         `json:"type"`
	Status  int            `json:"status"`
	Details map[string]any `json:"details,omitempty"`
	Cause   string         `json:"underlying_error,omitempty"`
}

// Response describes err for an HTTP client. Errors outside the registry
// become a generic internal error; withCause exposes the wrapped error.
func Response(err error, withCause bool) HTTPErrorResponse {
	var e *Error
	if !As(err, &e) {
		resp := HTTPErrorResponse{
			Code:    "INTERNAL_ERROR",
			Message: "An unexpected error occurred",
			Type:    string(TypeInternal),
			Status:  http.StatusInternalServerError,
		}
		if withCause && err != nil {
			resp.Cause = err.Error()
		}
		return resp
	}

	resp := HTTPErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Type:    string(e.Type),
		Status:  e.HTTPStatus,
	}
	if len(e.Details) > 0 {
		resp.Details = e.Details
	}
	if withCause && e.Err != nil {
		resp.Cause = e.Err.Error()
	}
	return resp
}
