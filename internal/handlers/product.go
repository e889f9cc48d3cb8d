package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/client"
	"github.com/subhadeepds/microservices-project/internal/db"
	"github.com/subhadeepds/microservices-project/internal/models"
)

// Deduper is implemented by idempotency.Store.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

type AlertLister interface {
	List(ctx context.Context) ([]models.StockAlert, error)
}

type ProductHandler struct {
	repo   db.ProductStore
	dedupe Deduper
	alerts AlertLister
	log    *zap.Logger
}

// NewProductHandler wires the product endpoints. dedupe and alerts may be
// nil, which disables idempotency keys and the alert listing.
func NewProductHandler(repo db.ProductStore, dedupe Deduper, alerts AlertLister, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		repo:   repo,
		dedupe: dedupe,
		alerts: alerts,
		log:    log,
	}
}

func (h *ProductHandler) Register(r gin.IRouter) {
	r.GET("/products", h.ListProducts)
	r.GET("/products/:id", h.GetProduct)
	r.POST("/products", h.CreateProduct)
	r.PUT("/products/:id", h.UpdateProduct)
	r.PUT("/products/:id/stock", h.AdjustStock)
	r.DELETE("/products/:id", h.DeleteProduct)
	r.GET("/stock-alerts", h.ListStockAlerts)
}

// ListProducts returns all products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetProduct returns a single product
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid product ID")
		return
	}

	product, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.internal(c, err)
		return
	}
	if product == nil {
		abortWithError(c, http.StatusNotFound, "Product Not Found", fmt.Sprintf("Product not found with id %d", id))
		return
	}
	c.JSON(http.StatusOK, product)
}

// CreateProduct creates a new product
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	product, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		h.internal(c, err)
		return
	}

	h.log.Info("✅ Product created", zap.Int64("product_id", product.ID), zap.String("name", product.Name))
	c.JSON(http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid product ID")
		return
	}

	var req models.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	product, err := h.repo.Update(c.Request.Context(), id, req)
	if errors.Is(err, db.ErrProductNotFound) {
		abortWithError(c, http.StatusNotFound, "Product Not Found", fmt.Sprintf("Product not found with id %d", id))
		return
	}
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// AdjustStock applies ?change=N to the product's stock. A repeated
// Idempotency-Key is acknowledged without applying the change again.
func (h *ProductHandler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid product ID")
		return
	}

	change, err := strconv.Atoi(c.Query("change"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "change must be an integer")
		return
	}
	if change == 0 {
		c.JSON(http.StatusOK, gin.H{"message": "no change"})
		return
	}

	ctx := c.Request.Context()
	log := h.log.With(zap.Int64("product_id", id), zap.Int("delta", change))

	key := c.GetHeader(client.HeaderIdempotencyKey)
	claimed := false
	if key != "" && h.dedupe != nil {
		seen, err := h.dedupe.Seen(ctx, key)
		switch {
		case err != nil:
			log.Warn("⚠️ Idempotency check failed, applying without dedupe", zap.String("key", key), zap.Error(err))
		case seen:
			log.Info("🔁 Duplicate stock adjustment ignored", zap.String("key", key))
			c.JSON(http.StatusOK, gin.H{"message": "duplicate adjustment ignored"})
			return
		default:
			claimed = true
		}
	}

	product, err := h.repo.AdjustStock(ctx, id, change)
	if err != nil {
		if claimed {
			if ferr := h.dedupe.Forget(ctx, key); ferr != nil {
				log.Warn("⚠️ Failed to release idempotency key", zap.String("key", key), zap.Error(ferr))
			}
		}

		switch {
		case errors.Is(err, db.ErrProductNotFound):
			abortWithError(c, http.StatusNotFound, "Product Not Found", fmt.Sprintf("Product not found with id %d", id))
		case errors.Is(err, db.ErrInsufficientStock):
			log.Info("Stock adjustment rejected")
			abortWithError(c, http.StatusBadRequest, "Bad Request", fmt.Sprintf("Not enough stock for product ID %d", id))
		default:
			h.internal(c, err)
		}
		return
	}

	log.Info("📦 Stock adjusted", zap.Int("stock", product.Stock))
	c.JSON(http.StatusOK, product)
}

// DeleteProduct removes a product
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid product ID")
		return
	}

	err := h.repo.Delete(c.Request.Context(), id)
	if errors.Is(err, db.ErrProductNotFound) {
		abortWithError(c, http.StatusNotFound, "Product Not Found", fmt.Sprintf("Cannot delete, product not found with id %d", id))
		return
	}
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

func (h *ProductHandler) ListStockAlerts(c *gin.Context) {
	if h.alerts == nil {
		c.JSON(http.StatusOK, []models.StockAlert{})
		return
	}

	alerts, err := h.alerts.List(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}

func (h *ProductHandler) internal(c *gin.Context, err error) {
	h.log.Error("❌ Product request failed", zap.String("path", c.FullPath()), zap.Error(err))
	abortWithError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
}
