// Todod serves the to-do list: the JSON API at /items and /lists and the
// HTML pages at /, /todos and /completed.
//
// Configuration is read from ~/.config/todod/config.yaml and environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start server with defaults
//	todod
//
//	# Use another database and port
//	STORE_PATH=/var/lib/todod/db.json SERVER_HTTP_PORT=8080 todod
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/bryankimani/todo-list/internal/config"
	"github.com/bryankimani/todo-list/internal/events"
	httpserver "github.com/bryankimani/todo-list/internal/http"
	"github.com/bryankimani/todo-list/internal/logging"
	"github.com/bryankimani/todo-list/internal/store"
	"github.com/bryankimani/todo-list/internal/tasks"
	"github.com/bryankimani/todo-list/internal/telemetry"
	"github.com/bryankimani/todo-list/internal/web"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/todod/config.yaml)")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  todod           Start the server\n")
			fmt.Fprintf(os.Stderr, "  todod version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server shutdown complete")
}

func printVersion() {
	fmt.Printf("todod\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts todod and blocks until ctx is cancelled.
//
// Startup order:
//  1. Load and validate configuration
//  2. Initialize logger and telemetry
//  3. Open the JSON store and connect the event publisher
//  4. Build the tasks service, API server and HTML pages
//  5. Serve until ctx is cancelled, then shut down gracefully
//
// Returns http.ErrServerClosed on graceful shutdown.
func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zl := logger.Underlying()

	tel, err := telemetry.New(ctx, &cfg.Telemetry, telemetry.WithLogger(zl))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Telemetry.Shutdown)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			zl.Warn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	logger.Info(ctx, "starting todod",
		zap.String("version", version),
		zap.String("addr", cfg.Server.Addr()),
		zap.String("store", cfg.Store.Path),
		zap.Bool("telemetry", tel.IsEnabled()))

	deps, err := initDependencies(ctx, cfg, zl)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer deps.Close()

	svc, err := tasks.NewService(deps.store, deps.publisher, zl)
	if err != nil {
		return fmt.Errorf("failed to create tasks service: %w", err)
	}

	loc, err := cfg.Web.Location()
	if err != nil {
		return fmt.Errorf("invalid web timezone: %w", err)
	}

	srvCfg := &httpserver.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownTimeout),
		AllowOrigins:    cfg.CORS.AllowOrigins,
		Location:        loc,
	}
	if cfg.RateLimit.Enabled {
		srvCfg.RateLimit = httpserver.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}
	}
	srv, err := httpserver.NewServer(svc, zl, srvCfg)
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	pages, err := web.New(svc, zl, web.Config{PageSize: cfg.Web.PageSize, Location: loc})
	if err != nil {
		return fmt.Errorf("failed to create web pages: %w", err)
	}
	pages.Register(srv.Echo())

	logger.Info(ctx, "server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port)),
		zap.String("metrics_endpoint", "/metrics"),
		zap.Bool("events", cfg.Events.NATSURL.IsSet()))

	return srv.Start(ctx)
}

// dependencies holds the infrastructure todod talks to.
type dependencies struct {
	store     *store.FileStore
	publisher events.Publisher
	logger    *zap.Logger
}

// Close releases all infrastructure resources.
func (d *dependencies) Close() {
	if d.publisher != nil {
		if err := d.publisher.Close(); err != nil {
			d.logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.logger.Warn("failed to close store", zap.Error(err))
		}
	}
}

// initDependencies opens the store and, when configured, connects to NATS.
func initDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*dependencies, error) {
	st, err := store.Open(ctx, cfg.Store.Path, logger, store.WithWatch(cfg.Store.Watch))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	deps := &dependencies{store: st, publisher: events.Nop{}, logger: logger}

	if !cfg.Events.NATSURL.IsSet() {
		logger.Info("event publishing disabled")
		return deps, nil
	}

	pub, err := events.Connect(cfg.Events.NATSURL.Value(), logger,
		nats.MaxReconnects(cfg.Events.MaxReconnects),
		nats.ReconnectWait(time.Duration(cfg.Events.ReconnectWait)),
	)
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.publisher = pub
	logger.Info("event publishing enabled")
	return deps, nil
}
