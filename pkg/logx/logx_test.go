package logx_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Abraxas-365/mailrelay/pkg/logx"
)

func newTestLogger(format logx.Format, level logx.Level) (*logx.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	cfg := logx.DefaultConfig()
	cfg.Format = format
	cfg.Level = level
	cfg.EnableColors = false
	cfg.EnableTimestamp = false
	cfg.Output = &buf
	return logx.NewLogger(cfg), &buf
}

func TestLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(logx.FormatConsole, logx.LevelWarn)

	l.WithField("k", 1).Info("hidden")
	l.WithField("k", 2).Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info logged at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn not logged: %q", out)
	}
}

func TestConsoleFormatSortsFields(t *testing.T) {
	l, buf := newTestLogger(logx.FormatConsole, logx.LevelDebug)

	l.WithFields(logx.Fields{"provider": "SES", "attempt": 2}).
		WithError(errors.New("timeout")).
		Error("send failed")

	want := "[ERROR] send failed attempt=2 provider=SES\n  error: timeout\n"
	if got := buf.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJSONFormat(t *testing.T) {
	l, buf := newTestLogger(logx.FormatJSON, logx.LevelInfo)

	l.WithField("job_id", "j1").WithError(errors.New("boom")).Errorf("job %s failed", "j1")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if got["level"] != "ERROR" || got["message"] != "job j1 failed" || got["job_id"] != "j1" || got["error"] != "boom" {
		t.Errorf("unexpected entry: %v", got)
	}
}

func TestCloudWatchFormatKeys(t *testing.T) {
	l, buf := newTestLogger(logx.FormatCloudWatch, logx.LevelInfo)

	l.WithField("queue", "default").Info("started")

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if got["msg"] != "started" {
		t.Errorf("msg = %v", got["msg"])
	}
	if _, ok := got["message"]; ok {
		t.Error("cloudwatch entry should not carry message key")
	}
}

func TestFatalCallsExitFunc(t *testing.T) {
	l, _ := newTestLogger(logx.FormatConsole, logx.LevelInfo)
	code := -1
	l.SetExitFunc(func(c int) { code = c })

	l.WithField("x", 1).Fatal("bye")

	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logx.Level
		wantErr bool
	}{
		{"debug", logx.LevelDebug, false},
		{"WARNING", logx.LevelWarn, false},
		{" error ", logx.LevelError, false},
		{"", logx.LevelInfo, false},
		{"loud", logx.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := logx.ParseLevel(tt.in)
		if got != tt.want || (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("LOG_TIME_FORMAT", "unix")

	cfg := logx.LoadFromEnv()

	if cfg.Level != logx.LevelDebug {
		t.Errorf("Level = %v", cfg.Level)
	}
	if cfg.Format != logx.FormatJSON {
		t.Errorf("Format = %v", cfg.Format)
	}
	if cfg.TimeFormat != "unix" {
		t.Errorf("TimeFormat = %q", cfg.TimeFormat)
	}
}

func TestLoadFromEnvInvalidFallsBack(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")

	if cfg := logx.LoadFromEnv(); cfg.Level != logx.LevelInfo {
		t.Errorf("Level = %v, want INFO", cfg.Level)
	}
}
