package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Abraxas-365/mailrelay/pkg/asyncx"
	"github.com/Abraxas-365/mailrelay/pkg/config"
	"github.com/Abraxas-365/mailrelay/pkg/errx"
	"github.com/Abraxas-365/mailrelay/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const healthCheckTimeout = 3 * time.Second

func main() {
	// 1. Configuration
	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Invalid configuration: %v", err)
	}

	logx.Info("🚀 Starting mail relay server...")

	// 2. Dependency container
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 3. Fiber app
	app := fiber.New(fiber.Config{
		AppName:               "Mail Relay",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler(cfg.Server.Debug),
		BodyLimit:             1 * 1024 * 1024,
		IdleTimeout:           120 * time.Second,
	})

	// 4. Global middleware
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return "req-" + uuid.NewString()
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, X-Request-ID",
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: "X-Request-ID",
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${reqHeader:X-Request-ID}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	// 5. Health & info
	app.Get("/health", healthCheckHandler(container))
	app.Get("/info", infoHandler(cfg))

	// 6. Mail routes: /, /send-email/, /providers, /deliveries
	container.MailHandlers.RegisterRoutes(app)
	logx.Info("✓ Mail routes registered")

	// 7. 404
	app.Use(notFoundHandler)

	printRouteSummary(container)

	// 8. Workers and server
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	workersDone := container.StartBackgroundServices(workerCtx)

	startServer(app, cfg.Server.Port)

	stopWorkers()
	<-workersDone
}

// ============================================================================
// Handlers
// ============================================================================

type componentCheck struct {
	name  string
	check func(ctx context.Context) error
}

// healthCheckHandler pings every backing service concurrently.
func healthCheckHandler(container *Container) fiber.Handler {
	checks := []componentCheck{
		{name: "redis", check: func(ctx context.Context) error {
			return container.Redis.Ping(ctx).Err()
		}},
	}
	if container.DB != nil {
		checks = append(checks, componentCheck{name: "db", check: container.DB.PingContext})
	}

	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
		defer cancel()

		fns := make([]func(context.Context) (struct{}, error), len(checks))
		for i, ch := range checks {
			fns[i] = func(ctx context.Context) (struct{}, error) {
				return struct{}{}, ch.check(ctx)
			}
		}

		health := fiber.Map{
			"status":  "healthy",
			"service": "mailrelay",
			"version": container.Config.Server.Version,
		}

		for i, res := range asyncx.AllSettled(ctx, fns...) {
			name := checks[i].name
			if !res.OK() {
				health[name] = "unhealthy"
				health[name+"_error"] = res.Err.Error()
				health["status"] = "degraded"
				continue
			}
			health[name] = "healthy"
		}

		if c.QueryBool("check_storage", false) {
			if exists, err := container.FileSystem.Exists(ctx, ".health-check"); err != nil {
				health["storage"] = "unhealthy"
				health["storage_error"] = err.Error()
			} else {
				health["storage"] = "healthy"
				health["storage_accessible"] = exists
			}
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func infoHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     "mailrelay",
			"version":     cfg.Server.Version,
			"description": "Queues emails and relays them through the fastest healthy provider",
			"providers":   cfg.Notifx.Providers,
			"queue":       cfg.Queue.Backend,
			"endpoints": fiber.Map{
				"send":      "POST /send-email/",
				"providers": "GET /providers",
				"health":    "GET /health",
			},
		})
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"message":    "The requested endpoint does not exist",
		"request_id": c.Get("X-Request-ID"),
	})
}

// ============================================================================
// Error Handler
// ============================================================================

// globalErrorHandler converts errors to JSON responses. Every body carries a
// "message" key since the browser form renders it verbatim.
func globalErrorHandler(debug bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"ip":         c.IP(),
			"request_id": c.Get("X-Request-ID"),
		}).Errorf("Request error: %v", err)

		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"error":      fe.Message,
				"message":    fe.Message,
				"code":       "FIBER_ERROR",
				"status":     fe.Code,
				"request_id": c.Get("X-Request-ID"),
			})
		}

		resp := errx.Response(err, debug)
		return c.Status(resp.Status).JSON(fiber.Map{
			"error":            resp.Message,
			"message":          resp.Message,
			"code":             resp.Code,
			"type":             resp.Type,
			"status":           resp.Status,
			"details":          resp.Details,
			"underlying_error": resp.Cause,
			"request_id":       c.Get("X-Request-ID"),
		})
	}
}

// ============================================================================
// Startup
// ============================================================================

func printRouteSummary(container *Container) {
	logx.Info("📋 Route Summary:")
	logx.Info("   ├─ Mail: POST /send-email/")
	logx.Info("   ├─ Providers: GET /providers")
	if container.Deliveries != nil {
		logx.Info("   ├─ Deliveries: GET /deliveries, /deliveries/:id")
	}
	logx.Info("   └─ Health: /health")
}

// startServer listens until SIGINT/SIGTERM, then shuts the app down.
func startServer(app *fiber.App, port string) {
	go func() {
		logx.Info(strings.Repeat("=", 61))
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		logx.Info(strings.Repeat("=", 61))

		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	logx.Info("✅ Server exited successfully")
}
