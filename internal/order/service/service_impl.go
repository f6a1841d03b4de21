package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/stayhub/partneredge/internal/order/domain"
	partnerdomain "github.com/stayhub/partneredge/internal/partner/domain"
	pricingdomain "github.com/stayhub/partneredge/internal/pricing/domain"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
	"github.com/stayhub/partneredge/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	PricingSvc pricingdomain.Service
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	pricingSvc pricingdomain.Service

	orderRepo   repository.Repository[orderdomain.Order]
	partnerRepo repository.Repository[partnerdomain.Partner]
}

func New(p Params) orderdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("order.service"),
		genID:      p.GenID,
		pricingSvc: p.PricingSvc,

		orderRepo:   repository.ProvideStore[orderdomain.Order](p.DB),
		partnerRepo: repository.ProvideStore[partnerdomain.Partner](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req orderdomain.CreateRequest) (*orderdomain.Order, error) {
	partnerID, err := snowflake.ParseString(strings.TrimSpace(req.PartnerID))
	if err != nil || partnerID == 0 {
		return nil, orderdomain.ErrInvalidPartner
	}

	supplierID := strings.TrimSpace(req.SupplierID)
	if supplierID == "" {
		return nil, orderdomain.ErrInvalidSupplier
	}

	partner, err := s.partnerRepo.FindOne(ctx, &partnerdomain.Partner{ID: partnerID})
	if err != nil {
		return nil, err
	}
	if partner == nil {
		return nil, orderdomain.ErrInvalidPartner
	}

	pctx := ruledomain.PricingContext{
		Brand:      strings.TrimSpace(req.Brand),
		City:       strings.TrimSpace(req.City),
		SupplierID: supplierID,
		PartnerID:  partnerID,
	}

	waterfall, err := s.pricingSvc.ComputeWaterfall(ctx, pctx, req.SupplierCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entity := &orderdomain.Order{
		ID:        s.genID.Generate(),
		PartnerID: partnerID,

		Brand:      pctx.Brand,
		City:       pctx.City,
		SupplierID: pctx.SupplierID,

		SupplierCost:   waterfall.SupplierCost,
		PlatformPrice:  waterfall.PlatformPrice,
		SalePrice:      waterfall.SalePrice,
		PlatformProfit: waterfall.PlatformProfit,
		PartnerProfit:  waterfall.PartnerProfit,

		// noDispute starts true; the remaining gates are flipped by their
		// upstream lifecycle events.
		NoDispute:      true,
		AccountHealthy: partner.Status == partnerdomain.AccountStatusActive,

		SettlementStatus: orderdomain.SettlementStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.orderRepo.Create(ctx, entity); err != nil {
		return nil, err
	}

	return entity, nil
}

func (s *Service) Get(ctx context.Context, id string) (*orderdomain.Order, error) {
	orderID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, orderdomain.ErrInvalidID
	}

	entity, err := s.orderRepo.FindOne(ctx, &orderdomain.Order{ID: orderID})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, orderdomain.ErrNotFound
	}
	return entity, nil
}
