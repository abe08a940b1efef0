package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/subleasefinder/sublease-client/internal/adapter/httpapi"
	natsAdapter "github.com/subleasefinder/sublease-client/internal/adapter/messaging/nats"
	"github.com/subleasefinder/sublease-client/internal/adapter/repository/cache"
	"github.com/subleasefinder/sublease-client/internal/adapter/storage/s3"
	"github.com/subleasefinder/sublease-client/internal/auth"
	"github.com/subleasefinder/sublease-client/internal/config"
	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/listing/usecase"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
	"github.com/subleasefinder/sublease-client/internal/platform/metrics"
	"github.com/subleasefinder/sublease-client/internal/platform/tracer"
)

const usage = `usage: sublease <command> [flags]

commands:
  search     search listings
  saved      list the most recent listings
  publish    post a new listing
  favorite   toggle a favorite
`

// app holds everything a subcommand may need.
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	metrics   *metrics.MetricsManager
	session   *auth.Session
	directory *usecase.ListingDirectory
	uploads   *usecase.UploadCoordinator
	out       io.Writer
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	a, cleanup, err := newApp(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup failed: %v\n", err)
		os.Exit(1)
	}
	err = a.run(ctx, os.Args[1], os.Args[2:])
	cleanup()
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(os.Stderr, displayError(err))
		}
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "search":
		return a.search(ctx, args)
	case "saved":
		return a.saved(ctx, args)
	case "publish":
		return a.publish(ctx, args)
	case "favorite":
		return a.favorite(ctx, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func newApp(ctx context.Context, cfg *config.Config) (*app, func(), error) {
	appLogger := logger.NewLogger(&logger.LoggerConfig{Level: cfg.LogLevel, Format: cfg.LogFormat, OutputFile: cfg.LogOutputFile})
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	closers = append(closers, func() { _ = appLogger.Sync() })

	tp, err := tracer.InitTracer(ctx, cfg.ServiceName, cfg.OTExporterOTLPEndpoint)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("init tracer: %w", err)
	}
	closers = append(closers, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", "error", err)
		}
	})

	m := metrics.NewMetricsManager("sublease_client")
	if cfg.PrometheusMetricsPort != "" {
		go func() {
			if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, m.Registry); err != nil {
				appLogger.Warn("Prometheus metrics server stopped", "error", err)
			}
		}()
	}

	session := auth.NewSession(auth.NewLocalProvider(cfg.JWTSecret, cfg.AuthTokenTTL), appLogger)

	api, err := httpapi.NewClient(cfg.APIBaseURL, session,
		httpapi.WithHTTPClient(httpapi.NewHTTPClient(cfg.APIRequestTimeout)),
		httpapi.WithRetryBudget(cfg.APIRetryBudget),
		httpapi.WithBackoffUnit(cfg.APIBackoffUnit),
		httpapi.WithLogger(appLogger),
		httpapi.WithMetrics(m),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var store cache.Store
	switch cfg.CacheBackend {
	case "redis":
		client, err := cache.DialRedis(ctx, cfg.RedisAddress, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			// the memory tier still works on its own
			appLogger.Warn("Redis unavailable, caching in memory only", "address", cfg.RedisAddress, "error", err)
		} else {
			closers = append(closers, func() { _ = client.Close() })
			store = cache.NewRedisStore(client, cfg.CacheTTL)
		}
	default:
		disk, err := cache.NewDiskStore(cfg.CacheDir)
		if err != nil {
			appLogger.Warn("Disk cache unavailable, caching in memory only", "dir", cfg.CacheDir, "error", err)
		} else {
			store = disk
		}
	}
	responses, err := cache.NewListingCache(store, cfg.CacheMemoryEntries,
		cache.WithTTL(cfg.CacheTTL),
		cache.WithLogger(appLogger),
		cache.WithMetrics(m),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	var events domain.EventPublisher = natsAdapter.NoopPublisher{}
	if cfg.NATSURL != "" {
		publisher, err := natsAdapter.NewPublisher(cfg.NATSURL, cfg.ServiceName)
		if err != nil {
			appLogger.Warn("NATS unavailable, analytics events disabled", "error", err)
		} else {
			closers = append(closers, publisher.Close)
			events = publisher
		}
	}

	opts := []usecase.DirectoryOption{usecase.WithEvents(events)}
	if cfg.UploadAuthorizer == "minio" {
		presigner, err := s3.NewPresigner(s3.Config{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			Bucket:    cfg.MinIOBucket,
			UseSSL:    cfg.MinIOUseSSL,
			Region:    cfg.MinIORegion,
			Expiry:    cfg.PresignExpiry,
		}, appLogger)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		opts = append(opts, usecase.WithUploadAuthorizer(presigner))
	}

	directory := usecase.NewListingDirectory(api, responses, appLogger, opts...)
	session.OnSignOut(directory.ClearCache)

	transfer := httpapi.NewTransfer(httpapi.NewHTTPClient(cfg.APIUploadTimeout), appLogger)
	uploads := usecase.NewUploadCoordinator(directory, transfer, appLogger, m, events)

	return &app{
		cfg:       cfg,
		log:       appLogger,
		metrics:   m,
		session:   session,
		directory: directory,
		uploads:   uploads,
		out:       os.Stdout,
	}, cleanup, nil
}

// signIn uses the email account when one is given, otherwise a guest.
func (a *app) signIn(ctx context.Context, email, password string) error {
	if email == "" {
		_, err := a.session.SignInAnonymously(ctx)
		return err
	}
	_, err := a.session.SignInWithEmail(ctx, email, password)
	if errors.Is(err, auth.ErrUserNotFound) {
		_, err = a.session.SignUp(ctx, email, password)
	}
	return err
}

func displayError(err error) string {
	var apiErr *domain.APIError
	if errors.As(err, &apiErr) || errors.Is(err, domain.ErrInvalidDraft) {
		return domain.UserMessage(err)
	}
	return err.Error()
}
