package models

import (
	"strings"
	"time"

	"pesa/pkg/domain"
	dErrors "pesa/pkg/domain-errors"
)

// Resource is a checkout-able inventory item. Quantity counts units currently
// available; checkouts decrement it and returns increment it, and it never
// goes negative.
type Resource struct {
	ID        domain.ResourceID `json:"id"`
	Name      string            `json:"name"`
	Quantity  int64             `json:"quantity"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewResource constructs a resource with initial stock.
func NewResource(id domain.ResourceID, name string, quantity int64, now time.Time) (*Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "resource name is required")
	}
	if quantity < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "quantity must not be negative")
	}
	return &Resource{
		ID:        id,
		Name:      name,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
