package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/submitx"
)

func execute(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

func TestRootCmd_HasNoRequestDeadline(t *testing.T) {
	if f := newRootCmd().Flags().Lookup("timeout"); f != nil {
		t.Fatalf("unexpected timeout flag with default %s", f.DefValue)
	}
}

func TestRun_WaitsForSlowServer(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		time.Sleep(300 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Email queued successfully"}`))
	}))
	defer srv.Close()

	out := execute(t, "<p>from stdin</p>",
		"--url", srv.URL,
		"--to", "example@example.com",
		"--subject", "Test Email",
		"--body-file", "-",
	)

	if !strings.Contains(out, "Email queued successfully") {
		t.Fatalf("output = %q", out)
	}
	if strings.Contains(out, submitx.FailureText) {
		t.Fatalf("slow reply rendered as failure: %q", out)
	}
	if got["to"] != "example@example.com" || got["body"] != "<p>from stdin</p>" || got["subject"] != "Test Email" {
		t.Fatalf("request body = %v", got)
	}
}

func TestRun_UnreachableServerOnlyFailsStatus(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	out := execute(t, "", "--url", url, "--to", "example@example.com", "--subject", "s", "--body", "b")
	if !strings.Contains(out, submitx.FailureText) {
		t.Fatalf("output = %q", out)
	}
}
