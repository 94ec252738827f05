package relayx_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/Abraxas-365/mailrelay/pkg/relayx"
)

// memStats is an in-memory relayx.Stats.
type memStats struct {
	mu           sync.Mutex
	latency      map[string]float64
	samples      map[string][]time.Duration
	counts       map[string]int64
	usage        map[string]int64
	unhealthy    map[string]bool
	ignoreHealth bool
}

func newMemStats() *memStats {
	return &memStats{
		latency:   map[string]float64{},
		samples:   map[string][]time.Duration{},
		counts:    map[string]int64{},
		usage:     map[string]int64{},
		unhealthy: map[string]bool{},
	}
}

func (m *memStats) RecordLatency(_ context.Context, p string, d time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[p] = append(m.samples[p], d)
	return nil
}

func (m *memStats) PredictedLatency(_ context.Context, p string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.latency[p]; ok {
		return l, nil
	}
	return relayx.NoLatency, nil
}

func (m *memStats) IncrementEmailCount(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[p]++
	return nil
}

func (m *memStats) EmailCount(_ context.Context, p string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[p], nil
}

func (m *memStats) TrackUsage(_ context.Context, p string, all []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage[p]++
	for _, o := range all {
		if o != p {
			m.usage[o] = 0
		}
	}
	return nil
}

func (m *memStats) UsageCount(_ context.Context, p string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usage[p], nil
}

func (m *memStats) MarkHealthy(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.unhealthy, p)
	return nil
}

func (m *memStats) MarkUnhealthy(_ context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unhealthy[p] = true
	return nil
}

func (m *memStats) IsHealthy(_ context.Context, p string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ignoreHealth || !m.unhealthy[p], nil
}

// fakeSender counts calls and fails when err is set.
type fakeSender struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSender) SendEmail(context.Context, notifx.EmailMessage, ...notifx.Option) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeSender) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var testMsg = notifx.EmailMessage{To: []string{"example@example.com"}, Subject: "Test Email", HTMLBody: "This is a test."}

func newRelay(stats relayx.Stats, sg, ses *fakeSender, opts ...relayx.Option) *relayx.Service {
	return relayx.NewService([]relayx.Provider{
		{Name: notifx.ProviderSendGrid, Sender: sg},
		{Name: notifx.ProviderSES, Sender: ses},
	}, stats, opts...)
}

func errCode(err error) string {
	var e *errx.Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

func TestSend_PrefersFirstProviderWhenLatenciesTie(t *testing.T) {
	stats := newMemStats()
	stats.latency[notifx.ProviderSendGrid] = 0.2
	stats.latency[notifx.ProviderSES] = 0.2
	sg, ses := &fakeSender{}, &fakeSender{}

	used, err := newRelay(stats, sg, ses).Send(context.Background(), testMsg)
	if err != nil {
		t.Fatal(err)
	}
	if used != notifx.ProviderSendGrid || sg.Calls() != 1 || ses.Calls() != 0 {
		t.Fatalf("used %q (sendgrid=%d ses=%d)", used, sg.Calls(), ses.Calls())
	}
}

func TestSend_PicksLowestLatency(t *testing.T) {
	stats := newMemStats()
	stats.latency[notifx.ProviderSendGrid] = 0.9
	stats.latency[notifx.ProviderSES] = 0.3

	used, err := newRelay(stats, &fakeSender{}, &fakeSender{}).Send(context.Background(), testMsg)
	if err != nil {
		t.Fatal(err)
	}
	if used != notifx.ProviderSES {
		t.Fatalf("used %q, want %q", used, notifx.ProviderSES)
	}
}

func TestSend_SwitchesAfterConsecutiveUseLimit(t *testing.T) {
	stats := newMemStats()
	stats.latency[notifx.ProviderSendGrid] = 0.2
	stats.latency[notifx.ProviderSES] = 0.2
	stats.usage[notifx.ProviderSendGrid] = 2
	sg, ses := &fakeSender{}, &fakeSender{}

	used, err := newRelay(stats, sg, ses).Send(context.Background(), testMsg)
	if err != nil {
		t.Fatal(err)
	}
	if used != notifx.ProviderSES || ses.Calls() != 1 {
		t.Fatalf("used %q, want %q", used, notifx.ProviderSES)
	}
	if stats.usage[notifx.ProviderSendGrid] != 0 || stats.usage[notifx.ProviderSES] != 1 {
		t.Fatalf("usage not reset: %v", stats.usage)
	}
}

func TestSend_FailsOverOnProviderError(t *testing.T) {
	stats := newMemStats()
	sg := &fakeSender{err: errors.New("sendgrid down")}
	ses := &fakeSender{}

	used, err := newRelay(stats, sg, ses).Send(context.Background(), testMsg)
	if err != nil {
		t.Fatal(err)
	}
	if used != notifx.ProviderSES {
		t.Fatalf("used %q, want %q", used, notifx.ProviderSES)
	}
	if !stats.unhealthy[notifx.ProviderSendGrid] {
		t.Fatal("failing provider should be marked unhealthy")
	}
	if stats.counts[notifx.ProviderSES] != 1 || len(stats.samples[notifx.ProviderSES]) != 1 {
		t.Fatalf("metrics not recorded: counts=%v samples=%v", stats.counts, stats.samples)
	}
}

func TestSend_SkipsUnhealthyProvider(t *testing.T) {
	stats := newMemStats()
	stats.unhealthy[notifx.ProviderSendGrid] = true
	sg, ses := &fakeSender{}, &fakeSender{}

	used, err := newRelay(stats, sg, ses).Send(context.Background(), testMsg)
	if err != nil {
		t.Fatal(err)
	}
	if used != notifx.ProviderSES || sg.Calls() != 0 {
		t.Fatalf("used %q, sendgrid calls %d", used, sg.Calls())
	}
}

func TestSend_AllProvidersFailing(t *testing.T) {
	stats := newMemStats()
	sg := &fakeSender{err: errors.New("sendgrid down")}
	ses := &fakeSender{err: errors.New("ses down")}

	_, err := newRelay(stats, sg, ses).Send(context.Background(), testMsg)
	if errCode(err) != relayx.ErrNoHealthyProvider.Code {
		t.Fatalf("error = %v, want %s", err, relayx.ErrNoHealthyProvider.Code)
	}
}

func TestSend_RetriesExhausted(t *testing.T) {
	stats := newMemStats()
	stats.ignoreHealth = true
	sg := &fakeSender{err: errors.New("sendgrid down")}
	ses := &fakeSender{err: errors.New("ses down")}

	_, err := newRelay(stats, sg, ses, relayx.WithMaxRetries(3)).Send(context.Background(), testMsg)
	if errCode(err) != relayx.ErrRetriesExhausted.Code {
		t.Fatalf("error = %v, want %s", err, relayx.ErrRetriesExhausted.Code)
	}
	if sg.Calls()+ses.Calls() != 3 {
		t.Fatalf("expected 3 attempts, got %d", sg.Calls()+ses.Calls())
	}
}

func TestSend_SlowProviderMarkedUnhealthy(t *testing.T) {
	stats := newMemStats()
	sg, ses := &fakeSender{}, &fakeSender{}

	used, err := newRelay(stats, sg, ses, relayx.WithLatencyThreshold(time.Nanosecond)).Send(context.Background(), testMsg)
	if err != nil {
		t.Fatal(err)
	}
	if !stats.unhealthy[used] {
		t.Fatalf("%s should be unhealthy after exceeding the latency threshold", used)
	}
}

func TestSend_OpenCircuitSkipsProvider(t *testing.T) {
	stats := newMemStats()
	stats.ignoreHealth = true
	stats.latency[notifx.ProviderSendGrid] = 0.1
	stats.latency[notifx.ProviderSES] = 0.5
	sg := &fakeSender{err: errors.New("sendgrid down")}
	ses := &fakeSender{}

	relay := newRelay(stats, sg, ses, relayx.WithBreaker(1, time.Minute))
	for i := range 2 {
		used, err := relay.Send(context.Background(), testMsg)
		if err != nil || used != notifx.ProviderSES {
			t.Fatalf("send %d: used %q, err %v", i, used, err)
		}
	}

	if sg.Calls() != 1 {
		t.Fatalf("open circuit should stop calls to sendgrid, got %d calls", sg.Calls())
	}

	for _, st := range relay.Status(context.Background()) {
		if st.Name == notifx.ProviderSendGrid && st.Circuit != "open" {
			t.Fatalf("sendgrid circuit = %s, want open", st.Circuit)
		}
	}
}

func TestSend_NoProviders(t *testing.T) {
	_, err := relayx.NewService(nil, newMemStats()).Send(context.Background(), testMsg)
	if errCode(err) != relayx.ErrNoProviders.Code {
		t.Fatalf("error = %v", err)
	}
}

func TestMedian(t *testing.T) {
	cases := []struct {
		in   []float64
		want float64
	}{
		{[]float64{0.3}, 0.3},
		{[]float64{0.5, 0.1, 0.3}, 0.3},
		{[]float64{0.4, 0.2, 0.1, 0.3}, 0.25},
	}
	for _, tc := range cases {
		if got := relayx.Median(tc.in); got != tc.want {
			t.Errorf("Median(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
	if got := relayx.Median(nil); got != relayx.NoLatency {
		t.Errorf("Median(nil) = %v", got)
	}
}
