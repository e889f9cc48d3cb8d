package discovery

import (
	"fmt"
	"net"

	"github.com/hashicorp/consul/api"
	"go.uber.org/zap"
)

type ConsulClient struct {
	client *api.Client
	log    *zap.Logger
}

type ServiceConfig struct {
	Name    string
	ID      string
	Address string
	Port    int
	Tags    []string
}

func NewConsulClient(host string, port int, log *zap.Logger) (*ConsulClient, error) {
	config := api.DefaultConfig()
	config.Address = fmt.Sprintf("%s:%d", host, port)

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Consul client: %w", err)
	}

	// Test connection
	if _, err := client.Agent().Self(); err != nil {
		return nil, fmt.Errorf("failed to connect to Consul: %w", err)
	}

	log.Info("✅ Connected to Consul", zap.String("addr", config.Address))

	return &ConsulClient{client: client, log: log}, nil
}

// getOutboundIP gets the preferred outbound IP of this machine
func getOutboundIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}

// Register registers a service with an HTTP health check on /health.
func (c *ConsulClient) Register(cfg ServiceConfig) error {
	address := cfg.Address
	if address == "" {
		address = getOutboundIP()
	}

	registration := &api.AgentServiceRegistration{
		ID:      cfg.ID,
		Name:    cfg.Name,
		Port:    cfg.Port,
		Address: address,
		Tags:    cfg.Tags,
		Check: &api.AgentServiceCheck{
			HTTP:                           fmt.Sprintf("http://%s:%d/health", address, cfg.Port),
			Interval:                       "10s",
			Timeout:                        "5s",
			DeregisterCriticalServiceAfter: "30s",
		},
	}

	if err := c.client.Agent().ServiceRegister(registration); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	c.log.Info("✅ Registered service",
		zap.String("name", cfg.Name),
		zap.String("id", cfg.ID),
		zap.String("address", address),
		zap.Int("port", cfg.Port),
	)
	return nil
}

// Deregister removes a service from Consul
func (c *ConsulClient) Deregister(serviceID string) error {
	if err := c.client.Agent().ServiceDeregister(serviceID); err != nil {
		return fmt.Errorf("failed to deregister service: %w", err)
	}

	c.log.Info("✅ Deregistered service", zap.String("id", serviceID))
	return nil
}

// GetServiceURL returns the base URL of the first healthy instance.
func (c *ConsulClient) GetServiceURL(serviceName string) (string, error) {
	services, _, err := c.client.Health().Service(serviceName, "", true, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get service: %w", err)
	}

	if len(services) == 0 {
		return "", fmt.Errorf("no healthy instances of %s found", serviceName)
	}

	service := services[0].Service
	address := service.Address
	if address == "" {
		address = "localhost"
	}

	return fmt.Sprintf("http://%s:%d", address, service.Port), nil
}
