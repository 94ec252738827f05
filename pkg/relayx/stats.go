package relayx

import (
	"context"
	"math"
	"sort"
	"time"
)

// Stats stores per-provider delivery metrics shared by every relay instance.
type Stats interface {
	// RecordLatency pushes a latency sample, keeping only the newest ones.
	RecordLatency(ctx context.Context, provider string, latency time.Duration) error
	// PredictedLatency is the median of the stored samples in seconds,
	// +Inf when there are none.
	PredictedLatency(ctx context.Context, provider string) (float64, error)
	IncrementEmailCount(ctx context.Context, provider string) error
	EmailCount(ctx context.Context, provider string) (int64, error)
	// TrackUsage counts one more consecutive use of provider and resets the
	// counters of every other provider in all.
	TrackUsage(ctx context.Context, provider string, all []string) error
	UsageCount(ctx context.Context, provider string) (int64, error)
	MarkHealthy(ctx context.Context, provider string) error
	MarkUnhealthy(ctx context.Context, provider string) error
	// IsHealthy is true unless the provider was marked unhealthy recently.
	IsHealthy(ctx context.Context, provider string) (bool, error)
}

// NoLatency is the predicted latency of a provider without samples.
var NoLatency = math.Inf(1)

// Median returns the median of values, averaging the two middle samples when
// their count is even, or NoLatency when values is empty.
func Median(values []float64) float64 {
	if len(values) == 0 {
		return NoLatency
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
