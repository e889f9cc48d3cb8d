package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("order-service")
	require.NoError(t, err)

	assert.Equal(t, 8082, cfg.HTTPPort)
	assert.Equal(t, "orders", cfg.Postgres.DBName)
	assert.Equal(t, 5*time.Second, cfg.ClientTimeout)
	assert.Equal(t, 8, cfg.FanOutLimit)
	assert.Equal(t, "order-service-1", cfg.ServiceID)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("CLIENT_TIMEOUT", "750ms")
	t.Setenv("CONSUL_ENABLED", "false")

	cfg, err := Load("product-service")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.HTTPPort)
	assert.Equal(t, 750*time.Millisecond, cfg.ClientTimeout)
	assert.False(t, cfg.ConsulEnabled)
	assert.Equal(t, "products", cfg.Postgres.DBName)
}

func TestLoadReportsMalformedValues(t *testing.T) {
	t.Setenv("REDIS_PORT", "not-a-port")
	t.Setenv("CACHE_TTL", "soon")

	cfg, err := Load("product-service")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_PORT")
	assert.Contains(t, err.Error(), "CACHE_TTL")
	assert.Equal(t, 6379, cfg.RedisPort)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
}

func TestLoadUnknownService(t *testing.T) {
	_, err := Load("billing-service")
	assert.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	p := Postgres{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "orders"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=orders sslmode=disable", p.DSN())
}
