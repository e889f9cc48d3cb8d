package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/client"
	"github.com/subhadeepds/microservices-project/internal/db"
	"github.com/subhadeepds/microservices-project/internal/models"
)

type memProducts struct {
	mu       sync.Mutex
	products map[int64]models.Product
	nextID   int64
	failWith error
}

func newMemProducts(ps ...models.Product) *memProducts {
	m := &memProducts{products: map[int64]models.Product{}}
	for _, p := range ps {
		m.products[p.ID] = p
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *memProducts) GetAll(context.Context) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Product{}
	for _, p := range m.products {
		out = append(out, p)
	}
	return out, nil
}

func (m *memProducts) GetByID(_ context.Context, id int64) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProducts) Create(_ context.Context, req models.ProductRequest) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p := models.Product{ID: m.nextID, Name: req.Name, Description: req.Description, Price: *req.Price, Stock: *req.Stock}
	m.products[p.ID] = p
	return &p, nil
}

func (m *memProducts) Update(_ context.Context, id int64, req models.ProductRequest) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return nil, db.ErrProductNotFound
	}
	p := models.Product{ID: id, Name: req.Name, Description: req.Description, Price: *req.Price, Stock: *req.Stock}
	m.products[id] = p
	return &p, nil
}

func (m *memProducts) AdjustStock(_ context.Context, id int64, change int) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	p, ok := m.products[id]
	if !ok {
		return nil, db.ErrProductNotFound
	}
	if p.Stock+change < 0 {
		return nil, db.ErrInsufficientStock
	}
	p.Stock += change
	m.products[id] = p
	return &p, nil
}

func (m *memProducts) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return db.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

type memDeduper struct {
	keys      map[string]bool
	forgotten []string
}

func (d *memDeduper) Seen(_ context.Context, key string) (bool, error) {
	if d.keys[key] {
		return true, nil
	}
	d.keys[key] = true
	return false, nil
}

func (d *memDeduper) Forget(_ context.Context, key string) error {
	delete(d.keys, key)
	d.forgotten = append(d.forgotten, key)
	return nil
}

type fakeAlerts []models.StockAlert

func (f fakeAlerts) List(context.Context) ([]models.StockAlert, error) { return f, nil }

func newProductRouter(repo db.ProductStore, dedupe Deduper, alerts AlertLister) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewProductHandler(repo, dedupe, alerts, zap.NewNop()).Register(r)
	return r
}

func adjust(r http.Handler, path, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPut, path, nil)
	if key != "" {
		req.Header.Set(client.HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func pen(stock int) models.Product {
	return models.Product{ID: 1, Name: "Pen", Price: 1.5, Stock: stock}
}

func TestAdjustStock_Decrease(t *testing.T) {
	repo := newMemProducts(pen(5))
	w := adjust(newProductRouter(repo, nil, nil), "/products/1/stock?change=-2", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, repo.products[1].Stock)
}

func TestAdjustStock_Insufficient(t *testing.T) {
	repo := newMemProducts(pen(1))
	w := adjust(newProductRouter(repo, nil, nil), "/products/1/stock?change=-2", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Not enough stock for product ID 1", errorBody(t, w)["message"])
	assert.Equal(t, 1, repo.products[1].Stock)
}

func TestAdjustStock_UnknownProduct(t *testing.T) {
	w := adjust(newProductRouter(newMemProducts(), nil, nil), "/products/9/stock?change=3", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdjustStock_ZeroIsNoop(t *testing.T) {
	repo := newMemProducts()
	w := adjust(newProductRouter(repo, nil, nil), "/products/9/stock?change=0", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdjustStock_BadChange(t *testing.T) {
	w := adjust(newProductRouter(newMemProducts(pen(1)), nil, nil), "/products/1/stock?change=lots", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdjustStock_DuplicateKeyAppliedOnce(t *testing.T) {
	repo := newMemProducts(pen(5))
	dedupe := &memDeduper{keys: map[string]bool{}}
	r := newProductRouter(repo, dedupe, nil)

	first := adjust(r, "/products/1/stock?change=-2", "op-consume:1")
	second := adjust(r, "/products/1/stock?change=-2", "op-consume:1")

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), "duplicate")
	assert.Equal(t, 3, repo.products[1].Stock)
}

func TestAdjustStock_FailureReleasesKey(t *testing.T) {
	repo := newMemProducts(pen(1))
	dedupe := &memDeduper{keys: map[string]bool{}}
	r := newProductRouter(repo, dedupe, nil)

	w := adjust(r, "/products/1/stock?change=-2", "op-consume:1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, []string{"op-consume:1"}, dedupe.forgotten)

	repo.products[1] = pen(4)
	w = adjust(r, "/products/1/stock?change=-2", "op-consume:1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, repo.products[1].Stock)
}

func TestAdjustStock_StoreError(t *testing.T) {
	repo := newMemProducts(pen(1))
	repo.failWith = errors.New("connection reset")
	w := adjust(newProductRouter(repo, nil, nil), "/products/1/stock?change=1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestCreateProduct_Validation(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"name":" ","price":1,"stock":1}`, "Product name cannot be empty"},
		{`{"name":"Pen","price":0,"stock":1}`, "Product price must be positive"},
		{`{"name":"Pen","stock":1}`, "Product price must be positive"},
		{`{"name":"Pen","price":2,"stock":-1}`, "Product stock cannot be negative"},
	}

	for _, tt := range tests {
		w := do(newProductRouter(newMemProducts(), nil, nil), http.MethodPost, "/products", tt.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tt.body)
		assert.Equal(t, tt.want, errorBody(t, w)["message"])
	}
}

func TestCreateAndGetProduct(t *testing.T) {
	r := newProductRouter(newMemProducts(), nil, nil)

	w := do(r, http.MethodPost, "/products", `{"name":"Pen","description":"blue","price":1.5,"stock":10}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodGet, "/products/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	var p models.Product
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
	assert.Equal(t, "Pen", p.Name)
	assert.Equal(t, 10, p.Stock)
}

func TestGetProduct_NotFound(t *testing.T) {
	w := do(newProductRouter(newMemProducts(), nil, nil), http.MethodGet, "/products/4", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found with id 4", errorBody(t, w)["message"])
}

func TestUpdateProduct(t *testing.T) {
	repo := newMemProducts(pen(1))
	w := do(newProductRouter(repo, nil, nil), http.MethodPut, "/products/1", `{"name":"Marker","price":3,"stock":7}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Marker", repo.products[1].Name)
}

func TestDeleteProduct(t *testing.T) {
	r := newProductRouter(newMemProducts(pen(1)), nil, nil)

	assert.Equal(t, http.StatusOK, do(r, http.MethodDelete, "/products/1", "").Code)
	w := do(r, http.MethodDelete, "/products/1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.True(t, strings.HasPrefix(errorBody(t, w)["message"], "Cannot delete"))
}

func TestListStockAlerts(t *testing.T) {
	alerts := fakeAlerts{{ID: 1, OperationID: "op", Operation: "create", ProductID: 2, Delta: -3, AppliedCount: 1}}

	w := do(newProductRouter(newMemProducts(), nil, alerts), http.MethodGet, "/stock-alerts", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.StockAlert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, int64(2), got[0].ProductID)

	w = do(newProductRouter(newMemProducts(), nil, nil), http.MethodGet, "/stock-alerts", "")
	assert.JSONEq(t, `[]`, w.Body.String())
}
