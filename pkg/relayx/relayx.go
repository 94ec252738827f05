package relayx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/sony/gobreaker"
)

// Provider is a named email sender.
type Provider struct {
	Name   string
	Sender notifx.EmailSender
}

// ProviderStatus is a snapshot of a provider's metrics.
type ProviderStatus struct {
	Name             string  `json:"name"`
	Healthy          bool    `json:"healthy"`
	Circuit          string  `json:"circuit"`
	PredictedLatency float64 `json:"predicted_latency_seconds"`
	UsageCount       int64   `json:"consecutive_uses"`
	EmailCount       int64   `json:"emails_sent"`
}

// Service sends emails through the most suitable provider, failing over to
// the next healthy one when a send fails or a circuit is open.
type Service struct {
	providers []Provider
	breakers  map[string]*gobreaker.CircuitBreaker
	stats     Stats
	opts      Options
}

// NewService creates a relay over providers, tried in the given order when
// metrics are even.
func NewService(providers []Provider, stats Stats, options ...Option) *Service {
	opts := defaultOptions()
	for _, o := range options {
		o(&opts)
	}

	breakers := make(map[string]*gobreaker.CircuitBreaker, len(providers))
	for _, p := range providers {
		breakers[p.Name] = newBreaker(p.Name, opts)
	}

	return &Service{
		providers: providers,
		breakers:  breakers,
		stats:     stats,
		opts:      opts,
	}
}

func newBreaker(name string, opts Options) *gobreaker.CircuitBreaker {
	failMax := opts.BreakerFailMax
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: opts.BreakerResetTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failMax
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logx.WithFields(logx.Fields{
				"provider": name,
				"from":     from.String(),
				"to":       to.String(),
			}).Warn("relayx: circuit state changed")
		},
	})
}

// SendEmail implements notifx.EmailSender.
func (s *Service) SendEmail(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) error {
	_, err := s.Send(ctx, msg, opts...)
	return err
}

// Send delivers msg and returns the name of the provider that accepted it.
func (s *Service) Send(ctx context.Context, msg notifx.EmailMessage, opts ...notifx.Option) (string, error) {
	if len(s.providers) == 0 {
		return "", relayErrors.New(ErrNoProviders)
	}
	if err := notifx.Validate(msg); err != nil {
		return "", err
	}

	current := s.chooseProvider(ctx)
	var lastErr error

	for range s.opts.MaxRetries {
		if !s.isHealthy(ctx, current.Name) {
			logx.Warnf("relayx: provider %s is marked unhealthy, switching provider", current.Name)
			next, err := s.nextHealthyProvider(ctx, current.Name)
			if err != nil {
				return "", err
			}
			current = next
			continue
		}

		err := s.attempt(ctx, current, msg, opts)
		if err == nil {
			return current.Name, nil
		}
		lastErr = err

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logx.Warnf("relayx: circuit open for %s, switching provider", current.Name)
		} else {
			logx.WithError(err).Errorf("relayx: error sending with %s", current.Name)
		}
		s.markUnhealthy(ctx, current.Name)

		next, err := s.nextHealthyProvider(ctx, current.Name)
		if err != nil {
			return "", relayErrors.NewWithCause(ErrNoHealthyProvider, lastErr).
				WithDetail("last_provider", current.Name)
		}
		current = next
	}

	if lastErr != nil {
		return "", relayErrors.NewWithCause(ErrRetriesExhausted, lastErr)
	}
	return "", relayErrors.New(ErrRetriesExhausted)
}

func (s *Service) attempt(ctx context.Context, p Provider, msg notifx.EmailMessage, opts []notifx.Option) error {
	start := time.Now()
	logx.Infof("relayx: trying to send with %s", p.Name)

	_, err := s.breakers[p.Name].Execute(func() (interface{}, error) {
		return nil, p.Sender.SendEmail(ctx, msg, opts...)
	})
	if err != nil {
		return err
	}

	latency := time.Since(start)
	logx.Infof("relayx: email sent with %s in %.2f seconds", p.Name, latency.Seconds())
	s.updateProviderMetrics(ctx, p.Name, latency)
	return nil
}

func (s *Service) updateProviderMetrics(ctx context.Context, name string, latency time.Duration) {
	if err := s.stats.RecordLatency(ctx, name, latency); err != nil {
		logx.WithError(err).Warnf("relayx: failed to record latency for %s", name)
	}
	if err := s.stats.IncrementEmailCount(ctx, name); err != nil {
		logx.WithError(err).Warnf("relayx: failed to count email for %s", name)
	}
	s.logProviderLatencies(ctx)

	if latency > s.opts.LatencyThreshold {
		logx.Warnf("relayx: %s latency exceeded the %.2f second threshold", name, s.opts.LatencyThreshold.Seconds())
		s.markUnhealthy(ctx, name)
	} else if err := s.stats.MarkHealthy(ctx, name); err != nil {
		logx.WithError(err).Warnf("relayx: failed to mark %s healthy", name)
	}

	if err := s.stats.TrackUsage(ctx, name, s.providerNames()); err != nil {
		logx.WithError(err).Warnf("relayx: failed to track usage for %s", name)
	}
}

// chooseProvider switches away from a provider that reached the consecutive
// use limit when another one is healthy, and otherwise prefers the lowest
// predicted latency.
func (s *Service) chooseProvider(ctx context.Context) Provider {
	for _, p := range s.providers {
		if s.usageCount(ctx, p.Name) < s.opts.MaxConsecutiveUse {
			continue
		}
		for _, other := range s.providers {
			if other.Name != p.Name && s.isHealthy(ctx, other.Name) {
				logx.Infof("relayx: %s reached the consecutive use limit, switching to %s", p.Name, other.Name)
				return other
			}
		}
	}
	return s.lowestLatencyProvider(ctx)
}

func (s *Service) lowestLatencyProvider(ctx context.Context) Provider {
	best := s.providers[0]
	bestLatency := s.predictedLatency(ctx, best.Name)
	for _, p := range s.providers[1:] {
		if l := s.predictedLatency(ctx, p.Name); l < bestLatency {
			best, bestLatency = p, l
		}
	}
	return best
}

func (s *Service) nextHealthyProvider(ctx context.Context, current string) (Provider, error) {
	for _, p := range s.providers {
		if p.Name != current && s.isHealthy(ctx, p.Name) {
			logx.Infof("relayx: switching to %s, it is healthy", p.Name)
			return p, nil
		}
	}
	logx.Error("relayx: no healthy providers available")
	return Provider{}, relayErrors.New(ErrNoHealthyProvider).WithDetail("last_provider", current)
}

func (s *Service) logProviderLatencies(ctx context.Context) {
	fields := logx.Fields{}
	for _, p := range s.providers {
		fields[p.Name] = fmt.Sprintf("%.2f", s.predictedLatency(ctx, p.Name))
	}
	logx.WithFields(fields).Info("relayx: current predicted latencies (seconds)")
}

// Status reports the metrics of every provider.
func (s *Service) Status(ctx context.Context) []ProviderStatus {
	out := make([]ProviderStatus, 0, len(s.providers))
	for _, p := range s.providers {
		count, err := s.stats.EmailCount(ctx, p.Name)
		if err != nil {
			logx.WithError(err).Warnf("relayx: failed to read email count for %s", p.Name)
		}
		latency := s.predictedLatency(ctx, p.Name)
		if latency == NoLatency {
			latency = -1
		}
		out = append(out, ProviderStatus{
			Name:             p.Name,
			Healthy:          s.isHealthy(ctx, p.Name),
			Circuit:          s.breakers[p.Name].State().String(),
			PredictedLatency: latency,
			UsageCount:       s.usageCount(ctx, p.Name),
			EmailCount:       count,
		})
	}
	return out
}

func (s *Service) providerNames() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name
	}
	return names
}

// Stats reads never fail a send: on error the neutral value is used.

func (s *Service) isHealthy(ctx context.Context, name string) bool {
	ok, err := s.stats.IsHealthy(ctx, name)
	if err != nil {
		logx.WithError(err).Warnf("relayx: failed to read health of %s", name)
		return true
	}
	return ok
}

func (s *Service) markUnhealthy(ctx context.Context, name string) {
	if err := s.stats.MarkUnhealthy(ctx, name); err != nil {
		logx.WithError(err).Warnf("relayx: failed to mark %s unhealthy", name)
		return
	}
	logx.Infof("relayx: %s marked unhealthy", name)
}

func (s *Service) usageCount(ctx context.Context, name string) int64 {
	n, err := s.stats.UsageCount(ctx, name)
	if err != nil {
		logx.WithError(err).Warnf("relayx: failed to read usage of %s", name)
		return 0
	}
	return n
}

func (s *Service) predictedLatency(ctx context.Context, name string) float64 {
	l, err := s.stats.PredictedLatency(ctx, name)
	if err != nil {
		logx.WithError(err).Warnf("relayx: failed to read latency of %s", name)
		return NoLatency
	}
	return l
}
