package relayxredis

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/relayx"
	"github.com/redis/go-redis/v9"
)

const (
	healthyValue   = "healthy"
	unhealthyValue = "unhealthy"
)

// Keys names the Redis keys holding provider metrics.
type Keys struct {
	Latency    string // list per provider: <Latency>:<provider>
	EmailCount string // hash provider -> total sends
	UseTracker string // hash provider -> consecutive uses
	Health     string // hash provider -> healthy | unhealthy:<unix>
}

// DefaultKeys returns the key names used by default.
func DefaultKeys() Keys {
	return Keys{
		Latency:    "provider_latency",
		EmailCount: "email_count",
		UseTracker: "email_use_tracker",
		Health:     "provider_health",
	}
}

// Store implements relayx.Stats on Redis.
type Store struct {
	rdb         redis.Cmdable
	keys        Keys
	historySize int64
	quarantine  time.Duration
	now         func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithKeys overrides the key names.
func WithKeys(keys Keys) Option {
	return func(s *Store) { s.keys = keys }
}

// WithHistorySize sets how many latency samples are kept per provider.
func WithHistorySize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historySize = int64(n)
		}
	}
}

// WithQuarantine sets how long an unhealthy mark lasts. Zero keeps it until
// the provider is marked healthy again.
func WithQuarantine(d time.Duration) Option {
	return func(s *Store) { s.quarantine = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Redis-backed metrics store.
func NewStore(rdb redis.Cmdable, opts ...Option) *Store {
	s := &Store{
		rdb:         rdb,
		keys:        DefaultKeys(),
		historySize: 10,
		quarantine:  60 * time.Second,
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

var _ relayx.Stats = (*Store)(nil)

func (s *Store) latencyKey(provider string) string {
	return s.keys.Latency + ":" + provider
}

// RecordLatency pushes a sample in seconds and trims the history.
func (s *Store) RecordLatency(ctx context.Context, provider string, latency time.Duration) error {
	key := s.latencyKey(provider)

	pipe := s.rdb.Pipeline()
	pipe.LPush(ctx, key, strconv.FormatFloat(latency.Seconds(), 'f', -1, 64))
	pipe.LTrim(ctx, key, 0, s.historySize-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return redisErrors.NewWithCause(ErrWrite, err).WithDetail("key", key)
	}
	return nil
}

// PredictedLatency returns the median of the stored samples.
func (s *Store) PredictedLatency(ctx context.Context, provider string) (float64, error) {
	key := s.latencyKey(provider)

	raw, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return relayx.NoLatency, redisErrors.NewWithCause(ErrRead, err).WithDetail("key", key)
	}

	samples := make([]float64, 0, len(raw))
	for _, v := range raw {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return relayx.NoLatency, redisErrors.NewWithCause(ErrParse, err).
				WithDetail("key", key).
				WithDetail("value", v)
		}
		samples = append(samples, f)
	}

	return relayx.Median(samples), nil
}

// IncrementEmailCount adds one to the provider's total.
func (s *Store) IncrementEmailCount(ctx context.Context, provider string) error {
	if err := s.rdb.HIncrBy(ctx, s.keys.EmailCount, provider, 1).Err(); err != nil {
		return redisErrors.NewWithCause(ErrWrite, err).WithDetail("key", s.keys.EmailCount)
	}
	return nil
}

// EmailCount returns the provider's total.
func (s *Store) EmailCount(ctx context.Context, provider string) (int64, error) {
	return s.hashInt(ctx, s.keys.EmailCount, provider)
}

// TrackUsage increments provider's consecutive uses and resets the others.
func (s *Store) TrackUsage(ctx context.Context, provider string, all []string) error {
	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, s.keys.UseTracker, provider, 1)
	for _, other := range all {
		if other != provider {
			pipe.HSet(ctx, s.keys.UseTracker, other, 0)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return redisErrors.NewWithCause(ErrWrite, err).WithDetail("key", s.keys.UseTracker)
	}
	return nil
}

// UsageCount returns the provider's consecutive uses.
func (s *Store) UsageCount(ctx context.Context, provider string) (int64, error) {
	return s.hashInt(ctx, s.keys.UseTracker, provider)
}

// MarkHealthy clears any unhealthy mark.
func (s *Store) MarkHealthy(ctx context.Context, provider string) error {
	return s.setHealth(ctx, provider, healthyValue)
}

// MarkUnhealthy marks the provider unhealthy from now on.
func (s *Store) MarkUnhealthy(ctx context.Context, provider string) error {
	return s.setHealth(ctx, provider, unhealthyValue+":"+strconv.FormatInt(s.now().Unix(), 10))
}

// IsHealthy reports whether the provider is usable. Providers never marked
// are healthy, and unhealthy marks expire after the quarantine period.
func (s *Store) IsHealthy(ctx context.Context, provider string) (bool, error) {
	v, err := s.rdb.HGet(ctx, s.keys.Health, provider).Result()
	if errors.Is(err, redis.Nil) {
		return true, nil
	}
	if err != nil {
		return true, redisErrors.NewWithCause(ErrRead, err).WithDetail("key", s.keys.Health)
	}

	if !strings.HasPrefix(v, unhealthyValue) {
		return true, nil
	}

	since, ok := strings.CutPrefix(v, unhealthyValue+":")
	if !ok || s.quarantine <= 0 {
		return false, nil
	}
	markedAt, err := strconv.ParseInt(since, 10, 64)
	if err != nil {
		return false, nil
	}
	return s.now().Sub(time.Unix(markedAt, 0)) >= s.quarantine, nil
}

func (s *Store) setHealth(ctx context.Context, provider, value string) error {
	if err := s.rdb.HSet(ctx, s.keys.Health, provider, value).Err(); err != nil {
		return redisErrors.NewWithCause(ErrWrite, err).WithDetail("key", s.keys.Health)
	}
	return nil
}

func (s *Store) hashInt(ctx context.Context, key, field string) (int64, error) {
	v, err := s.rdb.HGet(ctx, key, field).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, redisErrors.NewWithCause(ErrRead, err).WithDetail("key", key)
	}
	return v, nil
}
