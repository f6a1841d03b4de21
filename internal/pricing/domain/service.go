package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
)

// Waterfall is the three-tier price derived from supplier cost: the platform
// rule yields the platform price, the partner rule yields the sale price.
type Waterfall struct {
	SupplierCost   decimal.Decimal `json:"supplier_cost"`
	PlatformPrice  decimal.Decimal `json:"platform_price"`
	SalePrice      decimal.Decimal `json:"sale_price"`
	PlatformProfit decimal.Decimal `json:"platform_profit"`
	PartnerProfit  decimal.Decimal `json:"partner_profit"`
	PlatformRuleID snowflake.ID    `json:"platform_rule_id"`
	PartnerRuleID  snowflake.ID    `json:"partner_rule_id"`
}

type Service interface {
	// ComputeWaterfall is a pure read: resolving twice from the same cost and
	// context yields identical figures.
	ComputeWaterfall(ctx context.Context, pctx ruledomain.PricingContext, supplierCost decimal.Decimal) (*Waterfall, error)
}

var (
	ErrInvalidCost = errors.New("invalid_cost")
)
