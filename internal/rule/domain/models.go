package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// RuleOwner is the namespace a markup rule belongs to. Platform rules derive
// the platform price from supplier cost; partner rules derive the sale price
// from the platform price.
type RuleOwner string

const (
	OwnerPlatform RuleOwner = "PLATFORM"
	OwnerPartner  RuleOwner = "PARTNER"
)

// RuleScope is the dimension a markup rule applies to. Supplier is the most
// specific, global the least.
type RuleScope string

const (
	ScopeGlobal   RuleScope = "GLOBAL"
	ScopeBrand    RuleScope = "BRAND"
	ScopeCity     RuleScope = "CITY"
	ScopeSupplier RuleScope = "SUPPLIER"
)

// Specificity ranks scopes for resolution: supplier > city > brand > global.
func (s RuleScope) Specificity() int {
	switch s {
	case ScopeSupplier:
		return 3
	case ScopeCity:
		return 2
	case ScopeBrand:
		return 1
	default:
		return 0
	}
}

type RuleStatus string

const (
	RuleStatusActive   RuleStatus = "ACTIVE"
	RuleStatusInactive RuleStatus = "INACTIVE"
)

type MarkupRule struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	Owner     RuleOwner       `json:"owner" gorm:"type:text;not null;index:idx_markup_rules_owner"`
	PartnerID snowflake.ID    `json:"partner_id" gorm:"column:partner_id;index:idx_markup_rules_owner"`
	Scope     RuleScope       `json:"scope" gorm:"type:text;not null"`
	Target    string          `json:"target" gorm:"type:text"`
	Rate      decimal.Decimal `json:"rate" gorm:"type:decimal(8,4);not null"`
	Priority  int             `json:"priority" gorm:"not null;default:100"`
	Status    RuleStatus      `json:"status" gorm:"type:text;not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (MarkupRule) TableName() string { return "markup_rules" }

// PricingContext identifies the booking being priced. Immutable, built once
// per booking.
type PricingContext struct {
	Brand      string       `json:"brand"`
	City       string       `json:"city"`
	SupplierID string       `json:"supplier_id"`
	PartnerID  snowflake.ID `json:"partner_id"`
}

// Matches reports whether the rule applies to the context. Global rules are
// the resolver's fallback and never match here.
func (r MarkupRule) Matches(ctx PricingContext) bool {
	switch r.Scope {
	case ScopeSupplier:
		return r.Target == ctx.SupplierID
	case ScopeCity:
		return r.Target == ctx.City
	case ScopeBrand:
		return r.Target == ctx.Brand
	default:
		return false
	}
}
