package config

import (
	"fmt"
	"time"
)

// RedisConfig configures the Redis connection shared by the job queue and
// provider metrics.
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// Address returns host:port.
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// RelayConfig configures provider selection.
type RelayConfig struct {
	LatencyThreshold    time.Duration `env:"RELAY_LATENCY_THRESHOLD" envDefault:"2s"`
	LatencyHistory      int           `env:"RELAY_LATENCY_HISTORY" envDefault:"10"`
	MaxConsecutiveUse   int64         `env:"RELAY_MAX_CONSECUTIVE_USE" envDefault:"2"`
	MaxRetries          int           `env:"RELAY_MAX_RETRIES" envDefault:"2"`
	BreakerFailMax      uint32        `env:"RELAY_BREAKER_FAIL_MAX" envDefault:"3"`
	BreakerResetTimeout time.Duration `env:"RELAY_BREAKER_RESET" envDefault:"60s"`
	// UnhealthyQuarantine is how long an unhealthy mark lasts. 0 keeps it
	// until the provider succeeds again.
	UnhealthyQuarantine time.Duration `env:"RELAY_UNHEALTHY_QUARANTINE" envDefault:"60s"`
}
