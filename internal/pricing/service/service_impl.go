package service

import (
	"context"

	"github.com/shopspring/decimal"
	pricingdomain "github.com/stayhub/partneredge/internal/pricing/domain"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	RuleSvc ruledomain.Service
}

type Service struct {
	log     *zap.Logger
	ruleSvc ruledomain.Service
}

func New(p Params) pricingdomain.Service {
	return &Service{
		log:     p.Log.Named("pricing.service"),
		ruleSvc: p.RuleSvc,
	}
}

var oneHundred = decimal.NewFromInt(100)

func (s *Service) ComputeWaterfall(ctx context.Context, pctx ruledomain.PricingContext, supplierCost decimal.Decimal) (*pricingdomain.Waterfall, error) {
	if supplierCost.IsNegative() {
		return nil, pricingdomain.ErrInvalidCost
	}

	platformRule, err := s.ruleSvc.Resolve(ctx, pctx, ruledomain.OwnerPlatform)
	if err != nil {
		return nil, err
	}

	partnerRule, err := s.ruleSvc.Resolve(ctx, pctx, ruledomain.OwnerPartner)
	if err != nil {
		return nil, err
	}

	// Rounding happens once per tier so recomputation from stored P0/P1/P2
	// reproduces identical figures.
	cost := roundMoney(supplierCost)
	platformPrice := applyMarkup(cost, platformRule.Rate)
	salePrice := applyMarkup(platformPrice, partnerRule.Rate)

	return &pricingdomain.Waterfall{
		SupplierCost:   cost,
		PlatformPrice:  platformPrice,
		SalePrice:      salePrice,
		PlatformProfit: platformPrice.Sub(cost),
		PartnerProfit:  salePrice.Sub(platformPrice),
		PlatformRuleID: platformRule.ID,
		PartnerRuleID:  partnerRule.ID,
	}, nil
}

func applyMarkup(base decimal.Decimal, ratePercent decimal.Decimal) decimal.Decimal {
	factor := decimal.NewFromInt(1).Add(ratePercent.Div(oneHundred))
	return roundMoney(base.Mul(factor))
}

// roundMoney rounds to 2 decimal places, half up.
func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
