package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/stvgt/interfaces/internal/api"
	"github.com/stvgt/interfaces/internal/archiver"
	"github.com/stvgt/interfaces/internal/config"
	"github.com/stvgt/interfaces/internal/observability"
	"github.com/stvgt/interfaces/internal/read"
	"github.com/stvgt/interfaces/internal/storage/postgres"
	"github.com/stvgt/interfaces/internal/sync"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)
	logger.Info("starting interface registry")

	ctx := context.Background()
	otelProviders, err := observability.InitOTel(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("failed to initialize OpenTelemetry, continuing without it")
	}

	connManager, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
		PrimaryURL:  cfg.Storage.PostgresURL,
		ReplicaURLs: postgres.ParseReplicaURLs(cfg.Storage.PostgresReplicaURLs),
		MaxConns:    cfg.Storage.PostgresMaxConns,
		MinConns:    cfg.Storage.PostgresMinConns,
		Timeout:     cfg.Storage.PostgresTimeout,
		MaxLifetime: time.Hour,
		MaxIdleTime: 10 * time.Minute,
	}, logger)
	if err != nil {
		log.Fatalf("failed to initialize postgres connection: %v", err)
	}
	connManager.StartHealthCheckRoutine(ctx, 30*time.Second)

	if err := postgres.RunMigrations(ctx, connManager.Primary(), logger); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	var redisClient *redis.Client
	if cfg.Storage.CacheEnabled && cfg.Storage.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Storage.RedisURL,
			Password: cfg.Storage.RedisPassword,
			DB:       cfg.Storage.RedisDB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("failed to connect to redis, continuing with L1-only cache")
			redisClient = nil
		}
	}

	var cache *postgres.Cache
	if cfg.Storage.CacheEnabled {
		cache, err = postgres.NewCache(cfg.Storage.L1CacheSize, redisClient, cfg.Storage.CacheTTL, logger)
		if err != nil {
			log.Fatalf("failed to initialize cache: %v", err)
		}
	}

	store := postgres.NewStore(connManager, cache, logger)
	protocol := sync.New(store)
	aggregator := read.New(store)

	promRegistry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(promRegistry)

	server := api.NewServer(protocol, aggregator, logger, metrics)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthMux := http.NewServeMux()
	checkers := []observability.Checker{connManager}
	if cache != nil {
		checkers = append(checkers, cache)
	}
	healthMux.Handle("/healthz", observability.HealthHandler(5*time.Second, checkers...))
	if cfg.Observability.MetricsEnabled {
		healthMux.Handle("/metrics", observability.Handler(promRegistry))
	}

	healthServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.HealthPort),
		Handler:      healthMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("starting health/metrics server on port %s", cfg.Server.HealthPort)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("health server failed")
		}
	}()

	var snapshotArchiver *archiver.Archiver
	if cfg.Archiver.Enabled {
		snapshotArchiver, err = archiver.New(ctx, archiver.Config{
			Endpoint:     cfg.Archiver.S3Endpoint,
			Region:       cfg.Archiver.S3Region,
			Bucket:       cfg.Archiver.S3Bucket,
			AccessKey:    cfg.Archiver.S3AccessKey,
			SecretKey:    cfg.Archiver.S3SecretKey,
			UsePathStyle: cfg.Archiver.S3UsePathStyle,
		}, aggregator, logger)
		if err != nil {
			logger.WithError(err).Error("failed to initialize snapshot archiver, continuing without it")
		} else if err := snapshotArchiver.Start(cfg.Archiver.CronSchedule); err != nil {
			logger.WithError(err).Error("failed to start snapshot archiver")
			snapshotArchiver = nil
		}
	}

	shutdownManager := observability.NewShutdownManager(logger, httpServer, cfg.Server.ShutdownTimeout)
	shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
		return healthServer.Shutdown(ctx)
	})
	if snapshotArchiver != nil {
		shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
			snapshotArchiver.Stop()
			return nil
		})
	}
	shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
		return connManager.Close()
	})
	if otelProviders != nil {
		shutdownManager.RegisterShutdownFunc(func(ctx context.Context) error {
			return observability.ShutdownOTel(ctx, otelProviders, logger)
		})
	}

	go func() {
		logger.Infof("starting interface registry API on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("HTTP server failed")
			os.Exit(1)
		}
	}()

	logger.Info("server started, waiting for shutdown signal")
	if err := shutdownManager.WaitForShutdown(); err != nil {
		logger.WithError(err).Error("graceful shutdown failed")
		os.Exit(1)
	}
	logger.Info("server shutdown complete")
}
