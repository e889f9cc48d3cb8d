package discovery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Lookup finds the base URL of a healthy service instance.
type Lookup interface {
	GetServiceURL(serviceName string) (string, error)
}

// Resolver keeps a base URL per service, refreshed from Consul and falling
// back to the configured URL when Consul has no healthy instance.
type Resolver struct {
	lookup   Lookup
	fallback map[string]string
	log      *zap.Logger

	mutex sync.RWMutex
	urls  map[string]string
}

// NewResolver resolves every service in fallback once. lookup may be nil,
// in which case the fallback URLs are used as-is.
func NewResolver(lookup Lookup, fallback map[string]string, log *zap.Logger) *Resolver {
	r := &Resolver{
		lookup:   lookup,
		fallback: fallback,
		log:      log,
		urls:     make(map[string]string, len(fallback)),
	}
	r.Refresh()
	return r
}

func (r *Resolver) Refresh() {
	for name, def := range r.fallback {
		url := def
		if r.lookup != nil {
			found, err := r.lookup.GetServiceURL(name)
			if err != nil {
				r.log.Warn("⚠️ Service not found in Consul, using fallback",
					zap.String("service", name),
					zap.String("url", def),
					zap.Error(err),
				)
			} else {
				url = found
			}
		}

		r.mutex.Lock()
		prev := r.urls[name]
		r.urls[name] = url
		r.mutex.Unlock()

		if prev != url {
			r.log.Info("✅ Updated route", zap.String("service", name), zap.String("url", url))
		}
	}
}

// Watch refreshes the routes every interval until ctx is done.
func (r *Resolver) Watch(ctx context.Context, interval time.Duration) {
	if r.lookup == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh()
		}
	}
}

func (r *Resolver) URL(serviceName string) string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return r.urls[serviceName]
}

// For binds the resolver to one service.
func (r *Resolver) For(serviceName string) func() string {
	return func() string { return r.URL(serviceName) }
}

// Services returns a copy of the current routes.
func (r *Resolver) Services() map[string]string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	out := make(map[string]string, len(r.urls))
	for k, v := range r.urls {
		out[k] = v
	}
	return out
}
