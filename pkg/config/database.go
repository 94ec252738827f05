package config

import "fmt"

// DatabaseConfig configures the optional Postgres delivery log.
type DatabaseConfig struct {
	Host     string `env:"DATABASE_HOST"`
	Port     int    `env:"DATABASE_PORT" envDefault:"5432"`
	User     string `env:"DATABASE_USER" envDefault:"postgres"`
	Password string `env:"DATABASE_PASSWORD"`
	Name     string `env:"DATABASE_NAME" envDefault:"mailrelay"`
	SSLMode  string `env:"DATABASE_SSLMODE" envDefault:"disable"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns a lib/pq connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// StorageMode names an fsx backend.
type StorageMode string

const (
	StorageLocal StorageMode = "local"
	StorageS3    StorageMode = "s3"
)

// StorageConfig configures the dead-letter archive.
type StorageConfig struct {
	Mode      StorageMode `env:"STORAGE_MODE" envDefault:"local"`
	UploadDir string      `env:"UPLOAD_DIR" envDefault:"./data"`
	AWSBucket string      `env:"AWS_BUCKET"`
	AWSPrefix string      `env:"AWS_PREFIX"`
}
