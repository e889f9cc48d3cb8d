// Package server holds the HTTP bootstrap shared by every service binary.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/config"
	"github.com/subhadeepds/microservices-project/internal/discovery"
	"github.com/subhadeepds/microservices-project/internal/identity"
	"github.com/subhadeepds/microservices-project/internal/logger"
	"github.com/subhadeepds/microservices-project/internal/metrics"
	"github.com/subhadeepds/microservices-project/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

// WithSignals returns a context cancelled on SIGINT or SIGTERM.
func WithSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// NewRouter returns a gin engine with the middleware stack every service
// runs, plus /metrics.
func NewRouter(service string, log *zap.Logger, reg prometheus.Registerer) *gin.Engine {
	router := gin.New()
	router.Use(
		gin.Recovery(),
		tracing.Middleware(service),
		identity.Middleware(),
		logger.GinMiddleware(log),
		metrics.NewHTTP(reg).Middleware(),
	)
	router.GET("/metrics", metrics.Handler())
	return router
}

// ConnectConsul returns nil when discovery is disabled or unreachable so
// callers fall back to configured URLs.
func ConnectConsul(cfg *config.Config, log *zap.Logger) *discovery.ConsulClient {
	if !cfg.ConsulEnabled {
		log.Info("Consul disabled, using configured service URLs")
		return nil
	}

	consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort, log)
	if err != nil {
		log.Warn("⚠️ Failed to connect to Consul, using configured service URLs", zap.Error(err))
		return nil
	}
	return consul
}

// Run serves router on the configured port until ctx is done, registering
// the service in Consul while it is up.
func Run(ctx context.Context, cfg *config.Config, router http.Handler, consul *discovery.ConsulClient, log *zap.Logger) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("🚀 Service starting", zap.Int("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	if consul != nil {
		err := consul.Register(discovery.ServiceConfig{
			Name: cfg.ServiceName,
			ID:   cfg.ServiceID,
			Port: cfg.HTTPPort,
			Tags: []string{"go", "gin"},
		})
		if err != nil {
			log.Warn("⚠️ Failed to register with Consul", zap.Error(err))
			consul = nil
		}
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("🛑 Shutting down")
	case err := <-errCh:
		runErr = fmt.Errorf("http server failed: %w", err)
	}

	if consul != nil {
		if err := consul.Deregister(cfg.ServiceID); err != nil {
			log.Warn("⚠️ Failed to deregister from Consul", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Join(runErr, fmt.Errorf("graceful shutdown failed: %w", err))
	}
	return runErr
}
