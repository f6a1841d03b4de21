package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*MarkupRule, error)
	SetStatus(ctx context.Context, id string, status RuleStatus) (*MarkupRule, error)
	List(ctx context.Context, owner RuleOwner, partnerID snowflake.ID) ([]MarkupRule, error)
	// Resolve selects the single applicable rule for the context in the
	// owner's namespace. The most specific matching scope wins; ascending
	// priority breaks ties. When no non-global rule matches it falls back to
	// the namespace's active global rule, and fails with ErrNoApplicableRule
	// if even that is missing.
	Resolve(ctx context.Context, pctx PricingContext, owner RuleOwner) (*MarkupRule, error)
}

type CreateRequest struct {
	Owner     RuleOwner       `json:"owner"`
	PartnerID string          `json:"partner_id"`
	Scope     RuleScope       `json:"scope"`
	Target    string          `json:"target"`
	Rate      decimal.Decimal `json:"rate"`
	Priority  int             `json:"priority"`
}

var (
	ErrInvalidRate         = errors.New("invalid_rate")
	ErrMissingTarget       = errors.New("missing_target")
	ErrInvalidScope        = errors.New("invalid_scope")
	ErrInvalidOwner        = errors.New("invalid_owner")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidPartner      = errors.New("invalid_partner")
	ErrInvalidID           = errors.New("invalid_id")
	ErrDuplicateGlobalRule = errors.New("duplicate_global_rule")
	ErrNoApplicableRule    = errors.New("no_applicable_rule")
	ErrNotFound            = errors.New("not_found")
)
