package main

import (
	"context"
	"net/http"
	"net/http/httputil"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/identity"
	"github.com/subhadeepds/microservices-project/internal/tracing"
)

const headerGatewayChecked = "X-Gateway-Checked"

// Shown when a downstream service cannot be reached.
var fallbackMessages = map[string]string{
	"product-service":  "⚠️ Product Service is currently unavailable. Please try again later.",
	"order-service":    "⚠️ Order Service is temporarily unavailable. Please try again later.",
	"customer-service": "⚠️ Customer Service is currently unavailable. Please try again later.",
}

// Routes is satisfied by discovery.Resolver.
type Routes interface {
	URL(serviceName string) string
	Services() map[string]string
}

type Gateway struct {
	routes Routes
	log    *zap.Logger
	client *http.Client

	mutex   sync.Mutex
	proxies map[string]*httputil.ReverseProxy // keyed by target URL
}

func NewGateway(routes Routes, log *zap.Logger) *Gateway {
	return &Gateway{
		routes:  routes,
		log:     log,
		client:  &http.Client{Timeout: 2 * time.Second},
		proxies: make(map[string]*httputil.ReverseProxy),
	}
}

// proxyFor returns the proxy for the service's current URL, building one
// the first time a URL is seen.
func (g *Gateway) proxyFor(serviceName string) *httputil.ReverseProxy {
	serviceURL := g.routes.URL(serviceName)
	if serviceURL == "" {
		return nil
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	if proxy, ok := g.proxies[serviceURL]; ok {
		return proxy
	}

	target, err := url.Parse(serviceURL)
	if err != nil {
		g.log.Error("❌ Invalid service URL", zap.String("service", serviceName), zap.String("url", serviceURL), zap.Error(err))
		return nil
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	director := proxy.Director
	proxy.Director = func(req *http.Request) {
		director(req)
		req.Header.Set(headerGatewayChecked, "true")
		tracing.Inject(req.Context(), req.Header)
	}
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		g.log.Error("❌ Proxy error", zap.String("service", serviceName), zap.String("path", r.URL.Path), zap.Error(err))
		writeFallback(w, serviceName)
	}

	g.proxies[serviceURL] = proxy
	return proxy
}

func writeFallback(w http.ResponseWriter, serviceName string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte(fallbackMessages[serviceName]))
}

// Proxy forwards the request to serviceName.
func (g *Gateway) Proxy(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p, ok := identity.FromContext(c.Request.Context()); ok {
			g.log.Info("🔐 Forwarding request", zap.String("subject", p.Subject), zap.Strings("roles", p.Roles))
		} else {
			g.log.Debug("No authenticated user info found in headers")
		}

		proxy := g.proxyFor(serviceName)
		if proxy == nil {
			writeFallback(c.Writer, serviceName)
			c.Abort()
			return
		}

		g.log.Debug("🔀 Routing", zap.String("method", c.Request.Method), zap.String("path", c.Request.URL.Path), zap.String("service", serviceName))
		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

// HealthCheck probes /health of every known service.
func (g *Gateway) HealthCheck(c *gin.Context) {
	services := g.routes.Services()

	type result struct {
		name    string
		healthy bool
	}
	results := make(chan result, len(services))

	for name, serviceURL := range services {
		go func() {
			results <- result{name: name, healthy: g.probe(c.Request.Context(), serviceURL)}
		}()
	}

	statuses := make(map[string]string, len(services))
	allHealthy := true
	for range services {
		r := <-results
		if r.healthy {
			statuses[r.name] = "healthy"
			continue
		}
		statuses[r.name] = "unhealthy"
		allHealthy = false
	}

	status := "healthy"
	if !allHealthy {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"service":  "api-gateway",
		"services": statuses,
	})
}

func (g *Gateway) probe(ctx context.Context, serviceURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, serviceURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

func (g *Gateway) ListServices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": g.routes.Services()})
}

func (g *Gateway) Register(router gin.IRouter) {
	router.GET("/health", g.HealthCheck)
	router.GET("/services", g.ListServices)

	for prefix, service := range map[string]string{
		"/products":     "product-service",
		"/stock-alerts": "product-service",
		"/orders":       "order-service",
		"/customers":    "customer-service",
	} {
		router.Any(prefix, g.Proxy(service))
		router.Any(prefix+"/*path", g.Proxy(service))
	}
}
