package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/client"
	"github.com/subhadeepds/microservices-project/internal/config"
	"github.com/subhadeepds/microservices-project/internal/db"
	"github.com/subhadeepds/microservices-project/internal/discovery"
	"github.com/subhadeepds/microservices-project/internal/fulfillment"
	"github.com/subhadeepds/microservices-project/internal/handlers"
	"github.com/subhadeepds/microservices-project/internal/logger"
	"github.com/subhadeepds/microservices-project/internal/messaging"
	"github.com/subhadeepds/microservices-project/internal/metrics"
	"github.com/subhadeepds/microservices-project/internal/publisher"
	"github.com/subhadeepds/microservices-project/internal/server"
	"github.com/subhadeepds/microservices-project/internal/tracing"
)

const serviceName = "order-service"

func main() {
	cfg, cfgErr := config.Load(serviceName)
	log := logger.New(serviceName, cfg.LogLevel)
	defer log.Sync()

	if cfgErr != nil {
		log.Warn("⚠️ Invalid configuration values, using defaults", zap.Error(cfgErr))
	}

	if err := run(cfg, log); err != nil {
		log.Error("❌ Order Service stopped", zap.Error(err))
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

	checks := map[string]handlers.Check{}

	// Order store
	var store fulfillment.OrderStore
	if cfg.OrderStore == "memory" {
		log.Warn("⚠️ Using in-memory order store, orders are lost on restart")
		store = db.NewMemoryOrderRepository()
	} else {
		database, err := db.NewPostgresDB(ctx, cfg.Postgres.DSN(), log)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := database.Migrate("orders", log); err != nil {
			return err
		}
		store = db.NewOrderRepository(database)
		checks["postgres"] = database.Ping
	}

	// Events are best-effort; the service runs without a broker.
	var events fulfillment.EventPublisher
	rabbitMQ, err := messaging.NewRabbitMQ(cfg.RabbitMQ.Host, cfg.RabbitMQ.Port, cfg.RabbitMQ.User, cfg.RabbitMQ.Password, log)
	if err != nil {
		log.Warn("⚠️ RabbitMQ unavailable, order events disabled", zap.Error(err))
	} else {
		defer rabbitMQ.Close()
		orderPublisher, err := publisher.NewOrderPublisher(rabbitMQ)
		if err != nil {
			return err
		}
		events = orderPublisher
	}

	// Service discovery for the product and customer services
	consul := server.ConnectConsul(cfg, log)
	var lookup discovery.Lookup
	if consul != nil {
		lookup = consul
	}
	resolver := discovery.NewResolver(lookup, map[string]string{
		"product-service":  cfg.ProductServiceURL,
		"customer-service": cfg.CustomerServiceURL,
	}, log)
	go resolver.Watch(ctx, 10*time.Second)

	productClient := client.NewProductClient(resolver.For("product-service"), cfg.ClientTimeout)
	customerClient := client.NewCustomerClient(resolver.For("customer-service"), cfg.ClientTimeout)

	orders := fulfillment.NewService(store, productClient, customerClient, log,
		fulfillment.WithPublisher(events),
		fulfillment.WithMetrics(metrics.NewFulfillment(prometheus.DefaultRegisterer)),
		fulfillment.WithFanOutLimit(cfg.FanOutLimit),
	)

	router := server.NewRouter(serviceName, log, prometheus.DefaultRegisterer)
	router.GET("/health", handlers.NewHealthHandler(serviceName, checks).HealthCheck)
	handlers.NewOrderHandler(orders, log).Register(router)

	log.Info("Order Service ready",
		zap.String("product_service", resolver.URL("product-service")),
		zap.String("customer_service", resolver.URL("customer-service")),
		zap.String("order_store", cfg.OrderStore),
	)
	return server.Run(ctx, cfg, router, consul, log)
}
