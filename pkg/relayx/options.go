package relayx

import "time"

// Options configures provider selection and failover.
type Options struct {
	// MaxRetries is the number of provider attempts per email. Default 2.
	MaxRetries int
	// LatencyThreshold marks a provider unhealthy when a send takes longer. Default 2s.
	LatencyThreshold time.Duration
	// MaxConsecutiveUse switches away from a provider after this many
	// consecutive sends if another one is healthy. Default 2.
	MaxConsecutiveUse int64
	// BreakerFailMax consecutive failures open a provider's circuit. Default 3.
	BreakerFailMax uint32
	// BreakerResetTimeout is how long an open circuit stays open. Default 60s.
	BreakerResetTimeout time.Duration
}

func defaultOptions() Options {
	return Options{
		MaxRetries:          2,
		LatencyThreshold:    2 * time.Second,
		MaxConsecutiveUse:   2,
		BreakerFailMax:      3,
		BreakerResetTimeout: 60 * time.Second,
	}
}

// Option is a functional option for the relay service.
type Option func(*Options)

// WithMaxRetries sets the number of provider attempts per email.
func WithMaxRetries(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxRetries = n
		}
	}
}

// WithLatencyThreshold sets the latency above which a provider is marked unhealthy.
func WithLatencyThreshold(d time.Duration) Option {
	return func(o *Options) {
		o.LatencyThreshold = d
	}
}

// WithMaxConsecutiveUse sets how many consecutive sends trigger a provider switch.
func WithMaxConsecutiveUse(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.MaxConsecutiveUse = n
		}
	}
}

// WithBreaker configures the per-provider circuit breakers.
func WithBreaker(failMax uint32, resetTimeout time.Duration) Option {
	return func(o *Options) {
		if failMax > 0 {
			o.BreakerFailMax = failMax
		}
		if resetTimeout > 0 {
			o.BreakerResetTimeout = resetTimeout
		}
	}
}
