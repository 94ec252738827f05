package errx_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
)

var (
	testErrors  = errx.NewRegistry("TEST")
	errNotFound = testErrors.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Thing not found")
	errUpstream = testErrors.Register("UPSTREAM", errx.TypeExternal, http.StatusBadGateway, "Upstream failed")
)

func TestRegistryPrefixesCodes(t *testing.T) {
	if errNotFound.Code != "TEST_NOT_FOUND" {
		t.Fatalf("Code = %q", errNotFound.Code)
	}
	codes := testErrors.Codes()
	if codes["UPSTREAM"] != errUpstream {
		t.Fatalf("Codes() = %v", codes)
	}
	delete(codes, "UPSTREAM")
	if _, ok := testErrors.Codes()["UPSTREAM"]; !ok {
		t.Fatal("Codes() must return a copy")
	}
}

func TestErrorStringAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := testErrors.NewWithCause(errUpstream, cause)

	if got, want := err.Error(), "[TEST_UPSTREAM] Upstream failed: connection reset"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if !errors.Is(err, testErrors.New(errUpstream)) {
		t.Error("errors from the same code should match")
	}
	if errors.Is(err, testErrors.New(errNotFound)) {
		t.Error("errors from different codes should not match")
	}
}

func TestMarshalJSON(t *testing.T) {
	err := testErrors.New(errNotFound).WithDetail("id", "42")

	b, mErr := json.Marshal(err)
	if mErr != nil {
		t.Fatal(mErr)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["code"] != "TEST_NOT_FOUND" || got["error"] != "[TEST_NOT_FOUND] Thing not found" {
		t.Errorf("unexpected json: %s", b)
	}
	if details, _ := got["details"].(map[string]any); details["id"] != "42" {
		t.Errorf("details = %v", got["details"])
	}
}

func TestResponse(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := testErrors.NewWithCause(errUpstream, cause).WithDetail("provider", "SES")

	resp := errx.Response(err, false)
	if resp.Status != http.StatusBadGateway || resp.Message != "Upstream failed" || resp.Code != "TEST_UPSTREAM" {
		t.Errorf("Response() = %+v", resp)
	}
	if resp.Cause != "" {
		t.Errorf("cause leaked: %q", resp.Cause)
	}
	if resp.Details["provider"] != "SES" {
		t.Errorf("details = %v", resp.Details)
	}

	if got := errx.Response(err, true).Cause; got != cause.Error() {
		t.Errorf("Cause = %q", got)
	}
}

func TestResponseUnknownError(t *testing.T) {
	resp := errx.Response(errors.New("boom"), false)

	if resp.Status != http.StatusInternalServerError || resp.Code != "INTERNAL_ERROR" || resp.Message == "" {
		t.Errorf("Response() = %+v", resp)
	}
}
