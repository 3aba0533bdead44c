package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RishiKendai/aegis-console/internal/api"
	"github.com/RishiKendai/aegis-console/internal/auth"
	"github.com/RishiKendai/aegis-console/internal/config"
	"github.com/RishiKendai/aegis-console/internal/configs/env"
	"github.com/RishiKendai/aegis-console/internal/infra/mongo"
	redisInfra "github.com/RishiKendai/aegis-console/internal/infra/redis"
	"github.com/RishiKendai/aegis-console/internal/logger"
	"github.com/RishiKendai/aegis-console/internal/metrics"
	"github.com/RishiKendai/aegis-console/internal/plagiarism"
	"github.com/RishiKendai/aegis-console/internal/repository"
	"github.com/RishiKendai/aegis-console/internal/scanner"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Warn().Err(err).Msg("Failed to load .env file, continuing with system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("Invalid configuration: %v", err))
	}

	logger.Init(cfg.LogLevel, cfg.LogPretty)
	log.Info().Msg("Starting AEGIS console")

	metrics.InitPrometheus()
	log.Info().Msg("Prometheus metrics initialized")

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.MetricsPort,
		Handler:           metricsMux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("port", cfg.MetricsPort).Msg("Metrics server started")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Metrics server failed to start")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect MongoDB
	mongoClient, err := mongo.NewClient(ctx, cfg.MongoURI, cfg.MongoDBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create MongoDB client")
	}
	defer mongoClient.Close(context.Background())

	// Connect Redis
	redisClient, err := redisInfra.NewClient(ctx, cfg.RedisHost, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Redis client")
	}
	defer redisClient.Close()

	assignmentsRepo := repository.NewAssignmentsRepository(
		repository.NewMongoRepository(mongoClient.Database),
		cfg.MongoAssignmentsCollection,
	)
	tokenStore := auth.NewRedisTokenStore(redisClient.Client, cfg.RedisTokenPrefix, cfg.TokenTTL)
	phaseStore := plagiarism.NewRedisStatusPublisher(redisClient.Client, cfg.RedisStatusPrefix, cfg.StatusTTL)
	scanClient := scanner.NewClient(cfg.ScannerBaseURL, cfg.ScannerTimeout)

	workerPool := plagiarism.NewWorkerPool(ctx, cfg.MaxConcurrentScans)
	defer workerPool.Close()

	registry := api.NewRegistry(cfg.SessionIdleTimeout)
	go registry.RunJanitor(ctx, time.Minute)

	board := plagiarism.NewBoard()

	handler := api.NewHandler(registry, scanClient, tokenStore, assignmentsRepo, phaseStore, workerPool, board)
	router := api.SetupRoutes(cfg, handler)

	srv := api.StartServer(router, cfg.ServerPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down gracefully...")

	if err := api.ShutdownServer(srv, 30*time.Second); err != nil {
		log.Error().Err(err).Msg("Error shutting down Gin server")
	}

	metricsCtx, metricsCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer metricsCancel()
	if err := metricsServer.Shutdown(metricsCtx); err != nil {
		log.Error().Err(err).Msg("Error shutting down metrics server")
	}

	log.Info().Msg("Shutdown complete")
}
