package models

import (
	"errors"
	"strings"
	"time"
)

type Customer struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     string    `json:"email" db:"email"`
	Phone     string    `json:"phone" db:"phone"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CustomerRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (r *CustomerRequest) Validate() error {
	if r == nil {
		return errors.New("Customer cannot be null")
	}
	if strings.TrimSpace(r.Name) == "" {
		return errors.New("Customer name cannot be empty")
	}
	if !strings.Contains(r.Email, "@") {
		return errors.New("Invalid email address")
	}
	if len(r.Phone) < 10 {
		return errors.New("Invalid phone number")
	}
	return nil
}
