package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/subhadeepds/microservices-project/internal/db"
	"github.com/subhadeepds/microservices-project/internal/models"
)

type CustomerStore interface {
	GetAll(ctx context.Context) ([]models.Customer, error)
	GetByID(ctx context.Context, id int64) (*models.Customer, error)
	Create(ctx context.Context, req models.CustomerRequest) (*models.Customer, error)
	Update(ctx context.Context, id int64, req models.CustomerRequest) (*models.Customer, error)
	Delete(ctx context.Context, id int64) error
}

type CustomerHandler struct {
	repo CustomerStore
	log  *zap.Logger
}

func NewCustomerHandler(repo CustomerStore, log *zap.Logger) *CustomerHandler {
	return &CustomerHandler{repo: repo, log: log}
}

func (h *CustomerHandler) Register(r gin.IRouter) {
	r.GET("/customers", h.ListCustomers)
	r.GET("/customers/:id", h.GetCustomer)
	r.POST("/customers", h.CreateCustomer)
	r.PUT("/customers/:id", h.UpdateCustomer)
	r.DELETE("/customers/:id", h.DeleteCustomer)
}

func (h *CustomerHandler) ListCustomers(c *gin.Context) {
	customers, err := h.repo.GetAll(c.Request.Context())
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, customers)
}

func (h *CustomerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid customer ID")
		return
	}

	customer, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.internal(c, err)
		return
	}
	if customer == nil {
		abortWithError(c, http.StatusNotFound, "Customer Not Found", fmt.Sprintf("Customer not found with id %d", id))
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req models.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	customer, err := h.repo.Create(c.Request.Context(), req)
	if err != nil {
		h.internal(c, err)
		return
	}

	h.log.Info("✅ Customer created", zap.Int64("customer_id", customer.ID))
	c.JSON(http.StatusCreated, customer)
}

func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid customer ID")
		return
	}

	var req models.CustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid request body: "+err.Error())
		return
	}
	if err := req.Validate(); err != nil {
		abortWithError(c, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}

	customer, err := h.repo.Update(c.Request.Context(), id, req)
	if errors.Is(err, db.ErrCustomerNotFound) {
		abortWithError(c, http.StatusNotFound, "Customer Not Found", fmt.Sprintf("Customer not found with id %d", id))
		return
	}
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Bad Request", "invalid customer ID")
		return
	}

	err := h.repo.Delete(c.Request.Context(), id)
	if errors.Is(err, db.ErrCustomerNotFound) {
		abortWithError(c, http.StatusNotFound, "Customer Not Found", fmt.Sprintf("Cannot delete, customer not found with id %d", id))
		return
	}
	if err != nil {
		h.internal(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "customer deleted"})
}

func (h *CustomerHandler) internal(c *gin.Context, err error) {
	h.log.Error("❌ Customer request failed", zap.String("path", c.FullPath()), zap.Error(err))
	abortWithError(c, http.StatusInternalServerError, "Internal Server Error", err.Error())
}
