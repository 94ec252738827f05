// Composition root. Owns infrastructure (Redis, optional Postgres, file
// storage, AWS clients) and wires the relay, the job queue and the HTTP
// handlers on top of it.
package main

import (
	"context"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/config"
	"github.com/Abraxas-365/mailrelay/pkg/fsx"
	"github.com/Abraxas-365/mailrelay/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/mailrelay/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/mailrelay/pkg/jobx"
	"github.com/Abraxas-365/mailrelay/pkg/jobx/jobxredis"
	"github.com/Abraxas-365/mailrelay/pkg/jobx/jobxsqs"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/Abraxas-365/mailrelay/pkg/mailapi"
	"github.com/Abraxas-365/mailrelay/pkg/maillog/maillogpg"
	"github.com/Abraxas-365/mailrelay/pkg/mailworker"
	"github.com/Abraxas-365/mailrelay/pkg/notifx"
	"github.com/Abraxas-365/mailrelay/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/mailrelay/pkg/notifx/notifxsendgrid"
	"github.com/Abraxas-365/mailrelay/pkg/notifx/notifxses"
	"github.com/Abraxas-365/mailrelay/pkg/relayx"
	"github.com/Abraxas-365/mailrelay/pkg/relayx/relayxredis"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

// Container holds shared infrastructure and the composed mail services.
type Container struct {
	Config *config.Config

	// Infrastructure
	DB         *sqlx.DB
	Redis      *redis.Client
	FileSystem fsx.FileSystem

	// Mail delivery
	Deliveries   *maillogpg.PostgresStore
	Relay        *relayx.Service
	Jobs         *jobx.Client
	MailHandlers *mailapi.Handlers

	awsConfigs map[string]aws.Config
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg, awsConfigs: map[string]aws.Config{}}

	c.initInfrastructure()
	c.initModules()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	logx.Info("🏗️ Initializing infrastructure...")

	// 1. Redis
	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if _, err := c.Redis.Ping(context.Background()).Result(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (Redis is required)", err)
	}
	logx.Info("  ✅ Redis connected")

	// 2. Database (delivery log)
	if c.Config.Database.Enabled() {
		db, err := sqlx.Connect("postgres", c.Config.Database.DSN())
		if err != nil {
			logx.Fatalf("Failed to connect to database: %v", err)
		}
		c.DB = db
		logx.Info("  ✅ Database connected")
	} else {
		logx.Info("  ⏭️ DATABASE_HOST not set, delivery log disabled")
	}

	// 3. File storage
	c.initFileStorage()

	logx.Info("✅ Infrastructure initialized")
}

func (c *Container) initFileStorage() {
	storage := c.Config.Storage

	switch storage.Mode {
	case config.StorageS3:
		client := s3.NewFromConfig(c.awsConfig(c.Config.Notifx.AWSRegion))
		c.FileSystem = fsxs3.NewS3FileSystem(client, storage.AWSBucket, storage.AWSPrefix)
		logx.Infof("  ✅ S3 file system configured (bucket: %s)", storage.AWSBucket)

	default:
		localFS, err := fsxlocal.NewLocalFileSystem(storage.UploadDir)
		if err != nil {
			logx.Fatalf("Failed to initialize local file system: %v", err)
		}
		c.FileSystem = localFS
		logx.Infof("  ✅ Local file system configured (path: %s)", localFS.BasePath())
	}
}

// awsConfig loads the shared AWS configuration once per region.
func (c *Container) awsConfig(region string) aws.Config {
	if cfg, ok := c.awsConfigs[region]; ok {
		return cfg
	}
	cfg, err := awsConfig.LoadDefaultConfig(context.Background(), awsConfig.WithRegion(region))
	if err != nil {
		logx.Fatalf("Unable to load AWS SDK config: %v", err)
	}
	c.awsConfigs[region] = cfg
	return cfg
}

// ---------------------------------------------------------------------------
// Modules
// ---------------------------------------------------------------------------

func (c *Container) initModules() {
	logx.Info("📦 Initializing modules...")

	if c.DB != nil {
		c.Deliveries = maillogpg.NewPostgresStore(c.DB)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.Deliveries.Migrate(ctx); err != nil {
			logx.Fatalf("Failed to migrate delivery log: %v", err)
		}
		logx.Info("  ✅ Delivery log ready")
	}

	c.initRelay()
	c.initJobs()
	c.initHandlers()
}

func (c *Container) initRelay() {
	rc := c.Config.Relay

	stats := relayxredis.NewStore(c.Redis,
		relayxredis.WithHistorySize(rc.LatencyHistory),
		relayxredis.WithQuarantine(rc.UnhealthyQuarantine),
	)

	c.Relay = relayx.NewService(c.buildProviders(), stats,
		relayx.WithMaxRetries(rc.MaxRetries),
		relayx.WithLatencyThreshold(rc.LatencyThreshold),
		relayx.WithMaxConsecutiveUse(rc.MaxConsecutiveUse),
		relayx.WithBreaker(rc.BreakerFailMax, rc.BreakerResetTimeout),
	)
	logx.Info("  ✅ Email relay configured")
}

// buildProviders creates the senders in failover order.
func (c *Container) buildProviders() []relayx.Provider {
	nc := c.Config.Notifx
	providers := make([]relayx.Provider, 0, len(nc.Providers))

	for _, key := range nc.Providers {
		name, err := notifx.ProviderName(key)
		if err != nil {
			logx.Fatalf("Invalid email provider %q: %v", key, err)
		}

		var sender notifx.EmailSender
		switch name {
		case notifx.ProviderSendGrid:
			sg, err := notifxsendgrid.NewSendGridProvider(nc.SendGridAPIKey, nc.FromAddress)
			if err != nil {
				logx.Fatalf("Failed to configure SendGrid: %v", err)
			}
			sender = sg
		case notifx.ProviderSES:
			sender = notifxses.NewSESProvider(ses.NewFromConfig(c.awsConfig(nc.AWSRegion)), nc.FromAddress)
		case notifx.ProviderConsole:
			sender = notifxconsole.NewConsoleProvider(nc.FromAddress)
		}

		providers = append(providers, relayx.Provider{Name: name, Sender: sender})
		logx.Infof("    • %s", name)
	}
	return providers
}

func (c *Container) initJobs() {
	jc := c.Config.Jobx

	var queue jobx.Queue
	switch c.Config.Queue.Backend {
	case config.QueueSQS:
		client := sqs.NewFromConfig(c.awsConfig(c.Config.Queue.AWSRegion))
		queue = jobxsqs.NewSQSQueue(client, c.Config.Queue.SQSQueueURL,
			jobxsqs.WithRawMessageType(mailapi.JobTypeSendEmail),
		)
		logx.Infof("  ✅ SQS job queue configured (%s)", c.Config.Queue.SQSQueueURL)
	default:
		queue = jobxredis.NewRedisQueue(c.Redis)
		logx.Info("  ✅ Redis job queue configured")
	}

	c.Jobs = jobx.NewClient(queue,
		jobx.WithQueues(jc.Queues...),
		jobx.WithConcurrency(jc.Concurrency),
		jobx.WithPollInterval(jc.PollInterval),
		jobx.WithShutdownTimeout(jc.ShutdownTimeout),
		jobx.WithDequeueTimeout(jc.DequeueTimeout),
		jobx.WithDefaultRetryDelay(jc.DefaultRetryDelay),
		jobx.WithDeadLetterHandler(mailworker.NewDeadLetterArchive(c.FileSystem).Handler()),
	)

	workerOpts := []mailworker.Option{
		mailworker.WithConfigurationSet(c.Config.Notifx.SESConfigSet),
	}
	if c.Deliveries != nil {
		workerOpts = append(workerOpts, mailworker.WithDeliveryLog(c.Deliveries))
	}
	c.Jobs.Register(mailapi.JobTypeSendEmail, mailworker.NewHandler(c.Relay, workerOpts...))
}

func (c *Container) initHandlers() {
	opts := []mailapi.Option{
		mailapi.WithProviderStatus(c.Relay),
		mailapi.WithQueue(c.Config.Jobx.Queues[0]),
		mailapi.WithMaxRetries(c.Config.Jobx.MaxRetries),
	}
	if c.Deliveries != nil {
		opts = append(opts, mailapi.WithDeliveryLog(c.Deliveries))
	}
	c.MailHandlers = mailapi.NewHandlers(c.Jobs, opts...)
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

// StartBackgroundServices runs the delivery workers until ctx is cancelled.
// The returned channel closes once they have drained.
func (c *Container) StartBackgroundServices(ctx context.Context) <-chan struct{} {
	logx.Info("🔄 Starting background services...")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Jobs.Start(ctx); err != nil {
			logx.WithError(err).Error("Job workers stopped with error")
		}
	}()
	return done
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing database: %v", err)
		} else {
			logx.Info("  ✅ Database connection closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
