package main

import (
	"context"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/config"
	"github.com/subhadeepds/microservices-project/internal/db"
	"github.com/subhadeepds/microservices-project/internal/handlers"
	"github.com/subhadeepds/microservices-project/internal/logger"
	"github.com/subhadeepds/microservices-project/internal/server"
	"github.com/subhadeepds/microservices-project/internal/tracing"
)

const serviceName = "customer-service"

func main() {
	cfg, cfgErr := config.Load(serviceName)
	log := logger.New(serviceName, cfg.LogLevel)
	defer log.Sync()

	if cfgErr != nil {
		log.Warn("⚠️ Invalid configuration values, using defaults", zap.Error(cfgErr))
	}

	if err := run(cfg, log); err != nil {
		log.Error("❌ Customer Service stopped", zap.Error(err))
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

	database, err := db.NewPostgresDB(ctx, cfg.Postgres.DSN(), log)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.Migrate("customers", log); err != nil {
		return err
	}

	router := server.NewRouter(serviceName, log, prometheus.DefaultRegisterer)
	router.GET("/health", handlers.NewHealthHandler(serviceName, map[string]handlers.Check{
		"postgres": database.Ping,
	}).HealthCheck)
	handlers.NewCustomerHandler(db.NewCustomerRepository(database), log).Register(router)

	return server.Run(ctx, cfg, router, server.ConnectConsul(cfg, log), log)
}
