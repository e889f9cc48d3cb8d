package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/cache"
	"github.com/subhadeepds/microservices-project/internal/config"
	"github.com/subhadeepds/microservices-project/internal/consumer"
	"github.com/subhadeepds/microservices-project/internal/db"
	"github.com/subhadeepds/microservices-project/internal/handlers"
	"github.com/subhadeepds/microservices-project/internal/idempotency"
	"github.com/subhadeepds/microservices-project/internal/logger"
	"github.com/subhadeepds/microservices-project/internal/messaging"
	"github.com/subhadeepds/microservices-project/internal/models"
	"github.com/subhadeepds/microservices-project/internal/server"
	"github.com/subhadeepds/microservices-project/internal/tracing"
)

const serviceName = "product-service"

func main() {
	cfg, cfgErr := config.Load(serviceName)
	log := logger.New(serviceName, cfg.LogLevel)
	defer log.Sync()

	if cfgErr != nil {
		log.Warn("⚠️ Invalid configuration values, using defaults", zap.Error(cfgErr))
	}

	if err := run(cfg, log); err != nil {
		log.Error("❌ Product Service stopped", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx, stop := server.WithSignals(context.Background())
	defer stop()

	tp, err := tracing.Init(ctx, serviceName, cfg.OtelEndpoint, log)
	if err != nil {
		return err
	}
	defer tp.Shutdown(context.Background())

	// Connect to PostgreSQL
	database, err := db.NewPostgresDB(ctx, cfg.Postgres.DSN(), log)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate("products", log); err != nil {
		return err
	}

	checks := map[string]handlers.Check{"postgres": database.Ping}

	productRepo := db.NewProductRepository(database)
	alertRepo := db.NewAlertRepository(database)

	// Redis backs the read cache and idempotency keys. Without it stock
	// adjustments are applied without dedupe.
	var (
		store  db.ProductStore = productRepo
		dedupe handlers.Deduper
	)
	redisCache, err := cache.NewRedisCache(ctx, cfg.RedisHost, cfg.RedisPort, cfg.CacheTTL, log)
	if err != nil {
		log.Warn("⚠️ Redis unavailable, caching and idempotency keys disabled", zap.Error(err))
	} else {
		defer redisCache.Close()
		store = db.NewCachedProductRepository(productRepo, redisCache, log)
		dedupe = idempotency.NewStore(redisCache.Client(), "stock", cfg.IdempotencyTTL)
		checks["redis"] = redisCache.Ping
	}

	// Reconciliation alerts from the order service
	rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, cfg.RabbitMQ.User, cfg.RabbitMQ.Password, log)
	if err != nil {
		log.Warn("⚠️ RabbitMQ unavailable, stock alerts will not be received", zap.Error(err))
	} else {
		defer rabbitMQ.Close()
		if err := rabbitMQ.DeclareQueue(models.EventReconciliationFailed); err != nil {
			return err
		}
		messages, err := rabbitMQ.Consume(models.EventReconciliationFailed)
		if err != nil {
			return err
		}
		go consumer.NewAlertConsumer(alertRepo, log).Run(ctx, messages)
	}

	router := server.NewRouter(serviceName, log, prometheus.DefaultRegisterer)
	router.GET("/health", handlers.NewHealthHandler(serviceName, checks).HealthCheck)
	handlers.NewProductHandler(store, dedupe, alertRepo, log).Register(router)

	return server.Run(ctx, cfg, router, server.ConnectConsul(cfg, log), log)
}
