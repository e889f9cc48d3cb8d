package main

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/identity"
)

type staticRoutes map[string]string

func (s staticRoutes) URL(name string) string { return s[name] }

func (s staticRoutes) Services() map[string]string {
	out := make(map[string]string, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func newGatewayRouter(routes Routes) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(identity.Middleware())
	NewGateway(routes, zap.NewNop()).Register(r)
	return r
}

func TestProxyForwardsToService(t *testing.T) {
	var gotPath, gotUser, gotChecked string
	orders := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser = r.Header.Get(identity.HeaderUser)
		gotChecked = r.Header.Get(headerGatewayChecked)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"orderId":1}`))
	}))
	defer orders.Close()

	gateway := httptest.NewServer(newGatewayRouter(staticRoutes{"order-service": orders.URL}))
	defer gateway.Close()

	req, err := http.NewRequest(http.MethodGet, gateway.URL+"/orders/1", nil)
	require.NoError(t, err)
	req.Header.Set(identity.HeaderUser, "alice")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"orderId":1}`, string(body))
	assert.Equal(t, "/orders/1", gotPath)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "true", gotChecked)
}

func TestProxyFallbackWhenServiceDown(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	gateway := httptest.NewServer(newGatewayRouter(staticRoutes{"order-service": url}))
	defer gateway.Close()

	resp, err := http.Get(gateway.URL + "/orders")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, fallbackMessages["order-service"], string(body))
}

func TestProxyFallbackWhenServiceUnknown(t *testing.T) {
	r := newGatewayRouter(staticRoutes{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/customers/1", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, fallbackMessages["customer-service"], w.Body.String())
}

func TestHealthCheckAggregates(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()
	sick := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer sick.Close()

	r := newGatewayRouter(staticRoutes{"product-service": healthy.URL, "order-service": sick.URL})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, map[string]string{"product-service": "healthy", "order-service": "unhealthy"}, body.Services)
}
