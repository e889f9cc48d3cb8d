package models

import (
	"errors"
	"strings"
	"time"
)

type Product struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Price       float64   `json:"price" db:"price"`
	Stock       int       `json:"stock" db:"stock"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ProductSnapshot is what the order service needs to know about a product.
type ProductSnapshot struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Stock int    `json:"stock"`
}

type ProductRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
}

// Validate checks the product input before it is saved.
func (r *ProductRequest) Validate() error {
	if r == nil {
		return errors.New("Product cannot be null")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("Product name cannot be empty")
	}
	if r.Price == nil || *r.Price <= 0 {
		return errors.New("Product price must be positive")
	}
	if r.Stock == nil || *r.Stock < 0 {
		return errors.New("Product stock cannot be negative")
	}
	return nil
}
