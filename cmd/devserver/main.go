package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	natsAdapter "github.com/subleasefinder/sublease-client/internal/adapter/messaging/nats"
	mongoRepo "github.com/subleasefinder/sublease-client/internal/adapter/repository/mongodb"
	"github.com/subleasefinder/sublease-client/internal/adapter/storage/s3"
	"github.com/subleasefinder/sublease-client/internal/config"
	"github.com/subleasefinder/sublease-client/internal/devserver"
	"github.com/subleasefinder/sublease-client/internal/listing/domain"
	"github.com/subleasefinder/sublease-client/internal/mailer"
	"github.com/subleasefinder/sublease-client/internal/platform/logger"
	"github.com/subleasefinder/sublease-client/internal/platform/metrics"
	"github.com/subleasefinder/sublease-client/internal/platform/tracer"
)

const serviceName = "sublease-devserver"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger(nil).Fatal("Failed to load configuration", "error", err)
	}

	appLogger := logger.NewLogger(&logger.LoggerConfig{Level: cfg.LogLevel, Format: cfg.LogFormat, OutputFile: cfg.LogOutputFile})
	defer appLogger.Sync()
	appLogger.Info("Devserver starting...", "port", cfg.DevServerPort, "mongo_uri_set", cfg.MongoURI != "")

	ctx := context.Background()
	tp, err := tracer.InitTracer(ctx, serviceName, cfg.OTExporterOTLPEndpoint)
	if err != nil {
		appLogger.Fatal("Failed to initialize tracer", "error", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}()

	metricsManager := metrics.NewMetricsManager("sublease_devserver")

	var events domain.EventPublisher = natsAdapter.NoopPublisher{}
	if cfg.NATSURL != "" {
		publisher, err := natsAdapter.NewPublisher(cfg.NATSURL, serviceName)
		if err != nil {
			appLogger.Fatal("Failed to initialize NATS publisher", "error", err)
		}
		defer publisher.Close()
		events = publisher
		appLogger.Info("NATS Publisher initialized.")
	}

	var (
		listings  devserver.ListingStore
		favorites devserver.FavoriteStore
		users     devserver.UserStore
	)
	seed := devserver.SampleListings(time.Now())
	if cfg.MongoURI == "" {
		store := devserver.NewMemoryStore(seed)
		listings, favorites, users = store, store, store
		appLogger.Info("Using in-memory store", "listings", len(seed))
	} else {
		mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			appLogger.Fatal("Failed to connect to MongoDB", "error", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				appLogger.Error("Error disconnecting from MongoDB", "error", err)
			}
		}()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := mongoClient.Ping(pingCtx, nil); err != nil {
			appLogger.Fatal("Failed to ping MongoDB", "error", err)
		}
		db := mongoClient.Database(cfg.MongoDatabase)

		listingRepo := mongoRepo.NewListingRepository(db, appLogger)
		favoriteRepo := mongoRepo.NewFavoriteRepository(db, appLogger)
		if err := listingRepo.EnsureIndexes(ctx); err != nil {
			appLogger.Fatal("Failed to create listing indexes", "error", err)
		}
		if err := favoriteRepo.EnsureIndexes(ctx); err != nil {
			appLogger.Fatal("Failed to create favorite indexes", "error", err)
		}
		if err := listingRepo.Seed(ctx, seed); err != nil {
			appLogger.Fatal("Failed to seed listings", "error", err)
		}
		listings, favorites, users = listingRepo, favoriteRepo, mongoRepo.NewUserRepository(db, appLogger)
		appLogger.Info("Using MongoDB store", "database", cfg.MongoDatabase)
	}

	var notifier mailer.Mailer = mailer.NopMailer{}
	if cfg.SMTPHost != "" {
		notifier = mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host: cfg.SMTPHost, Port: cfg.SMTPPort, From: cfg.SMTPEmail, Password: cfg.SMTPPassword,
		})
	}

	opts := devserver.Options{
		Service:   devserver.NewListingService(listings, favorites, users, events, notifier, appLogger),
		JWTSecret: cfg.JWTSecret,
		Blobs:     devserver.NewLocalBlobs(cfg.DevServerPublicURL, int64(cfg.MaxImageSize)),
		Logger:    appLogger,
		Metrics:   metricsManager,
	}
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
			appLogger.Fatal("Failed to initialize MinIO presigner", "error", err)
		}
		if err := presigner.EnsureBucket(ctx); err != nil {
			appLogger.Fatal("Failed to ensure MinIO bucket", "bucket", cfg.MinIOBucket, "error", err)
		}
		opts.Presigner = presigner
	}

	srv := &http.Server{
		Addr:              ":" + cfg.DevServerPort,
		Handler:           devserver.NewServer(opts).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", "port", cfg.DevServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("HTTP server error", "error", err)
		}
	}()
	if cfg.PrometheusMetricsPort != "" {
		go func() {
			if err := metrics.StartMetricsServer(cfg.PrometheusMetricsPort, appLogger, metricsManager.Registry); err != nil && !errors.Is(err, http.ErrServerClosed) {
				appLogger.Error("Prometheus metrics server failed", "error", err)
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	appLogger.Info("Received shutdown signal", "signal", sig.String())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", "error", err)
	}
	appLogger.Info("Devserver stopped.")
}
