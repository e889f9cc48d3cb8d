package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Default ports and databases per service.
var serviceDefaults = map[string]struct {
	port   int
	dbName string
}{
	"api-gateway":      {8080, ""},
	"product-service":  {8081, "products"},
	"order-service":    {8082, "orders"},
	"customer-service": {8083, "customers"},
}

type Postgres struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}

// DSN returns a lib/pq connection string.
func (p Postgres) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.DBName,
	)
}

type RabbitMQ struct {
	Host     string
	Port     int
	User     string
	Password string
}

type Config struct {
	ServiceName string
	ServiceID   string
	HTTPPort    int
	LogLevel    string

	Postgres   Postgres
	OrderStore string

	RedisHost      string
	RedisPort      int
	CacheTTL       time.Duration
	IdempotencyTTL time.Duration

	RabbitMQ RabbitMQ

	ConsulEnabled bool
	ConsulHost    string
	ConsulPort    int

	ProductServiceURL  string
	CustomerServiceURL string
	OrderServiceURL    string

	ClientTimeout time.Duration
	FanOutLimit   int

	OtelEndpoint string
}

// Load reads an optional .env file and then the environment. Values that do
// not parse keep their default and are reported in the returned error.
func Load(service string) (*Config, error) {
	_ = godotenv.Load()

	defaults, ok := serviceDefaults[service]
	if !ok {
		return nil, fmt.Errorf("unknown service %q", service)
	}

	var errs []error
	l := loader{errs: &errs}

	cfg := &Config{
		ServiceName: service,
		ServiceID:   getEnv("SERVICE_ID", service+"-1"),
		HTTPPort:    l.getInt("HTTP_PORT", defaults.port),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Postgres: Postgres{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     l.getInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "minisys"),
			Password: getEnv("POSTGRES_PASSWORD", "minisys123"),
			DBName:   getEnv("POSTGRES_DB", defaults.dbName),
		},
		OrderStore:     getEnv("ORDER_STORE", "postgres"),
		RedisHost:      getEnv("REDIS_HOST", "localhost"),
		RedisPort:      l.getInt("REDIS_PORT", 6379),
		CacheTTL:       l.getDuration("CACHE_TTL", 5*time.Minute),
		IdempotencyTTL: l.getDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		RabbitMQ: RabbitMQ{
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     l.getInt("RABBITMQ_PORT", 5672),
			User:     getEnv("RABBITMQ_USER", "guest"),
			Password: getEnv("RABBITMQ_PASSWORD", "guest"),
		},
		ConsulEnabled:      l.getBool("CONSUL_ENABLED", true),
		ConsulHost:         getEnv("CONSUL_HOST", "localhost"),
		ConsulPort:         l.getInt("CONSUL_PORT", 8500),
		ProductServiceURL:  getEnv("PRODUCT_SERVICE_URL", "http://localhost:8081"),
		CustomerServiceURL: getEnv("CUSTOMER_SERVICE_URL", "http://localhost:8083"),
		OrderServiceURL:    getEnv("ORDER_SERVICE_URL", "http://localhost:8082"),
		ClientTimeout:      l.getDuration("CLIENT_TIMEOUT", 5*time.Second),
		FanOutLimit:        l.getInt("FANOUT_LIMIT", 8),
		OtelEndpoint:       getEnv("OTEL_ENDPOINT", ""),
	}

	if cfg.FanOutLimit < 1 {
		errs = append(errs, fmt.Errorf("FANOUT_LIMIT must be at least 1, got %d", cfg.FanOutLimit))
		cfg.FanOutLimit = 1
	}

	return cfg, errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

type loader struct {
	errs *[]error
}

func (l loader) getInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		*l.errs = append(*l.errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return fallback
	}
	return v
}

func (l loader) getBool(key string, fallback bool) bool {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		*l.errs = append(*l.errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return fallback
	}
	return v
}

func (l loader) getDuration(key string, fallback time.Duration) time.Duration {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		*l.errs = append(*l.errs, fmt.Errorf("invalid %s %q: %w", key, raw, err))
		return fallback
	}
	return v
}
