package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/idintake/internal/config"
	dbRedis "github.com/kailas-cloud/idintake/internal/db/redis"
	logpkg "github.com/kailas-cloud/idintake/internal/logger"
	"github.com/kailas-cloud/idintake/internal/metrics"
	"github.com/kailas-cloud/idintake/internal/repository/geocache"
	"github.com/kailas-cloud/idintake/internal/repository/georef"
	"github.com/kailas-cloud/idintake/internal/transport/azureread"
	chiTransport "github.com/kailas-cloud/idintake/internal/transport/chi"
	openaiRefiner "github.com/kailas-cloud/idintake/internal/transport/openai"
	addressuc "github.com/kailas-cloud/idintake/internal/usecase/address"
	extractionuc "github.com/kailas-cloud/idintake/internal/usecase/extraction"
	healthuc "github.com/kailas-cloud/idintake/internal/usecase/health"
	intakeuc "github.com/kailas-cloud/idintake/internal/usecase/intake"
	recognitionuc "github.com/kailas-cloud/idintake/internal/usecase/recognition"
	"github.com/kailas-cloud/idintake/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting idintake API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("reference_driver", cfg.Reference.Driver),
		zap.Bool("cache", cfg.CacheEnabled()),
		zap.Bool("refiner", cfg.RefinerEnabled()),
	)

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	ctx := context.Background()

	// Reference database
	refDB, err := georef.Open(ctx, georef.Config{
		Driver: cfg.Reference.Driver,
		DSN:    cfg.Reference.DSN,
	})
	if err != nil {
		logger.Fatal("Failed to open reference database", zap.Error(err))
	}
	defer func() { _ = refDB.Close() }()

	refRepo := georef.New(refDB.DB).WithLimit(cfg.Reference.ResultLimit)
	if cfg.Reference.Migrate {
		if err := refRepo.Migrate(ctx); err != nil {
			logger.Fatal("Failed to migrate reference schema", zap.Error(err))
		}
	}
	if err := refRepo.Ping(ctx); err != nil {
		logger.Fatal("Reference database not ready", zap.Error(err))
	}
	logger.Info("Connected to reference database")

	// Reference chain: sqlx repo -> optional Redis/Valkey cache.
	// health.Pinger must be a nil interface, not a typed nil *Store.
	var reference addressuc.Reference = refRepo
	var cachePinger healthuc.Pinger
	if cfg.CacheEnabled() {
		store, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		if err := store.WaitForReady(ctx, time.Duration(cfg.Cache.ReadinessTimeout)*time.Second); err != nil {
			logger.Fatal("Cache not ready", zap.Error(err))
		}
		logger.Info("Connected to cache", zap.Strings("addrs", cfg.Cache.Addrs))

		cached := geocache.New(refRepo, store, cfg.Cache.KeyPrefix,
			time.Duration(cfg.Cache.TTLSec)*time.Second, metrics.ReferenceCacheTotal, logger)
		if cfg.Cache.FlushOnStart {
			n, err := cached.Invalidate(ctx)
			if err != nil {
				logger.Warn("Failed to flush reference cache", zap.Error(err))
			} else {
				logger.Info("Flushed reference cache", zap.Int("keys", n))
			}
		}
		reference = cached
		cachePinger = store
	}

	// Recognizer
	recClient, err := azureread.NewClient(&azureread.Config{
		Endpoint:        cfg.Recognizer.Endpoint,
		SubscriptionKey: cfg.Recognizer.SubscriptionKey,
		RequestTimeout:  time.Duration(cfg.Recognizer.RequestTimeout) * time.Second,
		Logger:          logger,
	})
	if err != nil {
		logger.Fatal("Failed to create recognizer client", zap.Error(err))
	}

	// Use case services
	recognitionSvc := recognitionuc.New(recClient).
		WithPolling(cfg.Recognizer.PollInterval(), cfg.Recognizer.MaxAttempts)
	intakeSvc := intakeuc.New(recognitionSvc, extractionuc.New()).
		WithTimeout(time.Duration(cfg.Intake.TimeoutSec) * time.Second)
	if cfg.RefinerEnabled() {
		refiner, err := openaiRefiner.NewRefiner(&openaiRefiner.Config{
			APIKey:  cfg.Refiner.APIKey,
			BaseURL: cfg.Refiner.BaseURL,
			Model:   cfg.Refiner.Model,
			Logger:  logger,
		})
		if err != nil {
			logger.Fatal("Failed to create refiner", zap.Error(err))
		}
		intakeSvc.WithRefiner(refiner)
		logger.Info("Refiner enabled", zap.String("model", cfg.Refiner.Model))
	}

	addressSvc := addressuc.New(reference)
	if cfg.Reference.Ranking == "similarity" {
		addressSvc.WithRanker(addressuc.Similarity{MinScore: cfg.Reference.MinSimilarity})
	}

	healthSvc := healthuc.New(refRepo).WithOptional("cache", cachePinger)

	// HTTP
	server := chiTransport.NewServer(intakeSvc, addressSvc, healthSvc, logger).
		WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes)

	r := chi.NewRouter()
	r.Use(chiTransport.JSONRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(chiTransport.WideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
