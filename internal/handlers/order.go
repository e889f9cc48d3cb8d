package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/fulfillment"
	"github.com/subhadeepds/microservices-project/internal/models"
)

// OrderWorkflow is implemented by fulfillment.Service.
type OrderWorkflow interface {
	Create(ctx context.Context, order *models.Order) (models.Order, error)
	Get(ctx context.Context, id int64) (models.OrderDetail, error)
	List(ctx context.Context) ([]models.OrderDetail, error)
	Update(ctx context.Context, id int64, order *models.Order) (models.Order, error)
	Delete(ctx context.Context, id int64) error
}

type OrderHandler struct {
	orders OrderWorkflow
	log    *zap.Logger
}

func NewOrderHandler(orders OrderWorkflow, log *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, log: log}
}

func (h *OrderHandler) Register(r gin.IRouter) {
	r.GET("/orders", h.ListOrders)
	r.GET("/orders/:id", h.GetOrder)
	r.POST("/orders", h.CreateOrder)
	r.PUT("/orders/:id", h.UpdateOrder)
	r.DELETE("/orders/:id", h.DeleteOrder)
}

// ListOrders returns the detail view of all orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	details, err := h.orders.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// GetOrder returns the detail view of a single order
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid order ID")
		return
	}

	detail, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	order, ok := h.bindOrder(c)
	if !ok {
		return
	}

	created, err := h.orders.Create(c.Request.Context(), order)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid order ID")
		return
	}

	order, ok := h.bindOrder(c)
	if !ok {
		return
	}

	updated, err := h.orders.Update(c.Request.Context(), id, order)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *OrderHandler) DeleteOrder(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid order ID")
		return
	}

	if err := h.orders.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "order deleted"})
}

// bindOrder decodes the request body. An empty body or a JSON null yields a
// nil order so the workflow reports it as missing.
func (h *OrderHandler) bindOrder(c *gin.Context) (*models.Order, bool) {
	var order *models.Order
	if err := json.NewDecoder(c.Request.Body).Decode(&order); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
		return nil, false
	}
	return order, true
}

func (h *OrderHandler) fail(c *gin.Context, err error) {
	var e *fulfillment.Error
	if !errors.As(err, &e) {
		h.log.Error("❌ Order request failed", zap.String("path", c.FullPath()), zap.Error(err))
		abortWithError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
		return
	}

	switch e.Kind {
	case fulfillment.KindBadRequest:
		abortWithError(c, http.StatusBadRequest, "Bad Request", e.Message)
	case fulfillment.KindNotFound:
		abortWithError(c, http.StatusNotFound, "Order Not Found", e.Message)
	case fulfillment.KindReconciliation:
		abortWithError(c, http.StatusInternalServerError, "Stock Reconciliation Failed", e.Message)
	default:
		abortWithError(c, http.StatusInternalServerError, "Internal Server Error", e.Message)
	}
}
