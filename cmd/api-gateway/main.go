package main

import (
	"context"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/config"
	"github.com/subhadeepds/microservices-project/internal/discovery"
	"github.com/subhadeepds/microservices-project/internal/logger"
	"github.com/subhadeepds/microservices-project/internal/server"
	"github.com/subhadeepds/microservices-project/internal/tracing"
)

const serviceName = "api-gateway"

func main() {
	cfg, cfgErr := config.Load(serviceName)
	log := logger.New(serviceName, cfg.LogLevel)
	defer log.Sync()

	if cfgErr != nil {
		log.Warn("⚠️ Invalid configuration values, using defaults", zap.Error(cfgErr))
	}

	if err := run(cfg, log); err != nil {
		log.Error("❌ API Gateway stopped", zap.Error(err))
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

	// Consul first, configured URLs (K8s DNS) as fallback
	consul := server.ConnectConsul(cfg, log)
	var lookup discovery.Lookup
	if consul != nil {
		lookup = consul
	}
	resolver := discovery.NewResolver(lookup, map[string]string{
		"product-service":  cfg.ProductServiceURL,
		"order-service":    cfg.OrderServiceURL,
		"customer-service": cfg.CustomerServiceURL,
	}, log)
	go resolver.Watch(ctx, 10*time.Second)

	router := server.NewRouter(serviceName, log, prometheus.DefaultRegisterer)
	NewGateway(resolver, log).Register(router)

	// The gateway is not registered in Consul itself.
	return server.Run(ctx, cfg, router, nil, log)
}
