package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abdu216/Ecommerce-API/config"
	"github.com/Abdu216/Ecommerce-API/internal/api"
	"github.com/Abdu216/Ecommerce-API/internal/broker"
	"github.com/Abdu216/Ecommerce-API/internal/redisclient"
	"github.com/Abdu216/Ecommerce-API/internal/service"
	"github.com/Abdu216/Ecommerce-API/internal/store"
	"github.com/Abdu216/Ecommerce-API/internal/store/memstore"
	"github.com/Abdu216/Ecommerce-API/internal/util"
	"github.com/Abdu216/Ecommerce-API/internal/worker"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// memoryDatabaseURL runs the service on the in-memory store
const memoryDatabaseURL = "memory"

func main() {

	cfg := config.Load()

	if err := util.InitLogger(util.LoggerOptions{
		Service: cfg.Observ.ServiceName,
		Env:     cfg.Server.Env,
		Level:   cfg.Observ.LogLevel,
	}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting ecommerce api")

	tp, err := util.InitTracer(util.TracerOptions{
		ServiceName:    cfg.Observ.ServiceName,
		Env:            cfg.Server.Env,
		JaegerEndpoint: cfg.Observ.JaegerEndpoint,
		SampleRatio:    cfg.Observ.TraceSampleRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Error shutting down tracer", zap.Error(err))
		}
	}()

	var (
		uow    store.UnitOfWork
		checks = map[string]api.Pinger{}
	)
	if cfg.Database.URL == memoryDatabaseURL {
		uow = memstore.New()
		logger.Warn("Using in-memory store, data is lost on exit")
	} else {
		db, err := store.NewStore(cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		if cfg.Database.ApplySchema {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := db.ApplySchema(ctx)
			cancel()
			if err != nil {
				log.Fatalf("Failed to apply schema: %v", err)
			}
		}
		uow = db
		checks["database"] = db
		logger.Info("Database connected")
	}

	// Redis backs the analytics cache and sale idempotency keys. Without
	// it the service still runs, uncached and without replay protection.
	var (
		cache       service.Cache = service.NoopCache{}
		idempotency service.IdempotencyStore
		invalidator *redisclient.AnalyticsCache
	)
	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		logger.Warn("Redis unavailable, analytics caching and idempotency disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		invalidator = redisclient.NewAnalyticsCache(redisClient, cfg.Business.AnalyticsCacheTTL)
		cache = invalidator
		idempotency = redisclient.NewIdempotencyStore(redisClient, cfg.Business.IdempotencyTTL)
		checks["redis"] = redisClient
		logger.Info("Redis connected")
	}

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents)
	defer producer.Close()
	logger.Info("Kafka producer initialized", zap.String("topic", cfg.Kafka.TopicEvents))

	eventPublisher := broker.NewEventPublisher(producer)

	services := api.Services{
		Catalog:   service.NewCatalogService(uow),
		Inventory: service.NewInventoryService(uow, eventPublisher),
		Orders:    service.NewOrderService(uow, eventPublisher),
		Payments:  service.NewPaymentService(uow, eventPublisher),
		Sales:     service.NewSalesService(uow, eventPublisher, idempotency),
		Analytics: service.NewAnalyticsService(uow, cache),
		Customers: service.NewCustomerService(uow),
		Addresses: service.NewAddressService(uow),
		Reviews:   service.NewReviewService(uow),
		Accounts:  service.NewAccountService(uow),
	}
	auth := api.NewAuthenticator(cfg.Auth.JWTSecret, cfg.Auth.JWTIssuer, service.NewIdentityService(uow))

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	var analyticsWorker *worker.AnalyticsWorker
	if invalidator != nil {
		consumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicEvents, cfg.Kafka.ConsumerGroup)
		analyticsWorker = worker.NewAnalyticsWorker(consumer, invalidator)
		go func() {
			if err := analyticsWorker.Start(workerCtx); err != nil && workerCtx.Err() == nil {
				logger.Error("Analytics worker error", zap.Error(err))
			}
		}()
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(services, auth, cfg.Business)
	for name, p := range checks {
		handler.WithReadinessCheck(name, p)
	}
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Server forced to shutdown", zap.Error(err))
	}

	workerCancel()
	if analyticsWorker != nil {
		if err := analyticsWorker.Stop(); err != nil {
			logger.Warn("Error stopping analytics worker", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}
