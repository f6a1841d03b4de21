package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	partnerdomain "github.com/stayhub/partneredge/internal/partner/domain"
	"github.com/stayhub/partneredge/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  repository.Repository[partnerdomain.Partner]
}

func New(p Params) partnerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("partner.service"),
		genID: p.GenID,
		repo:  repository.ProvideStore[partnerdomain.Partner](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, name string) (*partnerdomain.Partner, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, partnerdomain.ErrInvalidName
	}

	now := time.Now().UTC()
	entity := &partnerdomain.Partner{
		ID:               s.genID.Generate(),
		Name:             name,
		Status:           partnerdomain.AccountStatusActive,
		AvailableBalance: decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Create(ctx, entity); err != nil {
		return nil, err
	}
	return entity, nil
}

func (s *Service) Get(ctx context.Context, id string) (*partnerdomain.Partner, error) {
	partnerID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, partnerdomain.ErrInvalidID
	}

	entity, err := s.repo.FindOne(ctx, &partnerdomain.Partner{ID: partnerID})
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, partnerdomain.ErrNotFound
	}
	return entity, nil
}

func (s *Service) SetStatus(ctx context.Context, id string, status partnerdomain.AccountStatus) (*partnerdomain.Partner, error) {
	parsed, err := parseStatus(status)
	if err != nil {
		return nil, err
	}

	entity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, entity.ID.String(), map[string]any{
		"status":     parsed,
		"updated_at": time.Now().UTC(),
	}); err != nil {
		return nil, err
	}

	entity.Status = parsed
	return entity, nil
}

func parseStatus(status partnerdomain.AccountStatus) (partnerdomain.AccountStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(string(status))) {
	case string(partnerdomain.AccountStatusActive):
		return partnerdomain.AccountStatusActive, nil
	case string(partnerdomain.AccountStatusFrozen):
		return partnerdomain.AccountStatusFrozen, nil
	case string(partnerdomain.AccountStatusClosed):
		return partnerdomain.AccountStatusClosed, nil
	default:
		return "", partnerdomain.ErrInvalidStatus
	}
}
