package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var configErrors = errx.NewRegistry("CONFIG")

var (
	ErrDotenv  = configErrors.Register("DOTENV", errx.TypeInternal, 500, "Failed to load .env file")
	ErrParse   = configErrors.Register("PARSE", errx.TypeValidation, 500, "Invalid environment configuration")
	ErrInvalid = configErrors.Register("INVALID", errx.TypeValidation, 500, "Inconsistent configuration")
)

// Config is the whole server configuration.
type Config struct {
	Server   ServerConfig
	Redis    RedisConfig
	Database DatabaseConfig
	Queue    QueueConfig
	Jobx     JobxConfig
	Notifx   NotifxConfig
	Relay    RelayConfig
	Storage  StorageConfig
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
	Version     string `env:"APP_VERSION" envDefault:"1.0.0"`
	Debug       bool   `env:"DEBUG" envDefault:"false"`
}

// Load reads .env (when present) and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, configErrors.NewWithCause(ErrDotenv, err)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, configErrors.NewWithCause(ErrParse, err)
	}
	cfg.Notifx.applyFallbacks()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that depend on each other.
func (c *Config) Validate() error {
	invalid := func(key, reason string) error {
		return configErrors.New(ErrInvalid).WithDetail("key", key).WithDetail("reason", reason)
	}

	switch c.Queue.Backend {
	case QueueRedis:
	case QueueSQS:
		if c.Queue.SQSQueueURL == "" {
			return invalid("SQS_QUEUE_URL", "required when QUEUE_BACKEND=sqs")
		}
	default:
		return invalid("QUEUE_BACKEND", "must be redis or sqs")
	}

	switch c.Storage.Mode {
	case StorageLocal:
	case StorageS3:
		if c.Storage.AWSBucket == "" {
			return invalid("AWS_BUCKET", "required when STORAGE_MODE=s3")
		}
	default:
		return invalid("STORAGE_MODE", "must be local or s3")
	}

	if len(c.Notifx.Providers) == 0 {
		return invalid("NOTIFX_PROVIDERS", "at least one provider is required")
	}
	for _, key := range c.Notifx.Providers {
		name, err := notifx.ProviderName(key)
		if err != nil {
			return invalid("NOTIFX_PROVIDERS", "unknown provider "+key)
		}
		if name == notifx.ProviderSendGrid && c.Notifx.SendGridAPIKey == "" {
			return invalid("SENDGRID_API_KEY", "required when sendgrid is a provider")
		}
	}
	return nil
}

func lookupEnv(keys ...string) (string, bool) {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok && v != "" {
			return v, true
		}
	}
	return "", false
}
