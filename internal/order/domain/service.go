package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type Service interface {
	// Create prices the booking through the waterfall exactly once and
	// stores the resulting order with all gates at their initial values.
	Create(ctx context.Context, req CreateRequest) (*Order, error)
	Get(ctx context.Context, id string) (*Order, error)
}

type CreateRequest struct {
	PartnerID    string          `json:"partner_id"`
	Brand        string          `json:"brand"`
	City         string          `json:"city"`
	SupplierID   string          `json:"supplier_id"`
	SupplierCost decimal.Decimal `json:"supplier_cost"`
}

var (
	ErrInvalidPartner  = errors.New("invalid_partner")
	ErrInvalidSupplier = errors.New("invalid_supplier")
	ErrInvalidID       = errors.New("invalid_id")
	ErrNotFound        = errors.New("order_not_found")
)
