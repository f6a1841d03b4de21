package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stayhub/partneredge/internal/observability/metrics"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  ruledomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  ruledomain.Repository
}

func New(p Params) ruledomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("rule.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

var (
	rateMin = decimal.Zero
	rateMax = decimal.NewFromInt(100)
)

func (s *Service) Create(ctx context.Context, req ruledomain.CreateRequest) (*ruledomain.MarkupRule, error) {
	owner, partnerID, err := parseOwner(req.Owner, req.PartnerID)
	if err != nil {
		return nil, err
	}

	scope, err := parseScope(req.Scope)
	if err != nil {
		return nil, err
	}

	if req.Rate.LessThan(rateMin) || req.Rate.GreaterThan(rateMax) {
		return nil, ruledomain.ErrInvalidRate
	}

	target := strings.TrimSpace(req.Target)
	if scope == ruledomain.ScopeGlobal {
		target = ""
	} else if target == "" {
		return nil, ruledomain.ErrMissingTarget
	}

	if scope == ruledomain.ScopeGlobal {
		existing, err := s.repo.FindActiveGlobal(ctx, s.db, owner, partnerID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, ruledomain.ErrDuplicateGlobalRule
		}
	}

	now := time.Now().UTC()
	entity := &ruledomain.MarkupRule{
		ID:        s.genID.Generate(),
		Owner:     owner,
		PartnerID: partnerID,
		Scope:     scope,
		Target:    target,
		Rate:      req.Rate,
		Priority:  req.Priority,
		Status:    ruledomain.RuleStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		return nil, err
	}

	return entity, nil
}

func (s *Service) SetStatus(ctx context.Context, id string, status ruledomain.RuleStatus) (*ruledomain.MarkupRule, error) {
	ruleID, err := parseID(id)
	if err != nil {
		return nil, ruledomain.ErrInvalidID
	}

	parsed, err := parseStatus(status)
	if err != nil {
		return nil, err
	}

	entity, err := s.repo.FindByID(ctx, s.db, ruleID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, ruledomain.ErrNotFound
	}

	// Reactivating a global rule must not break the one-active-global
	// invariant for the namespace.
	if parsed == ruledomain.RuleStatusActive && entity.Scope == ruledomain.ScopeGlobal {
		existing, err := s.repo.FindActiveGlobal(ctx, s.db, entity.Owner, entity.PartnerID)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != entity.ID {
			return nil, ruledomain.ErrDuplicateGlobalRule
		}
	}

	if err := s.repo.UpdateStatus(ctx, s.db, ruleID, parsed); err != nil {
		return nil, err
	}

	entity.Status = parsed
	entity.UpdatedAt = time.Now().UTC()
	return entity, nil
}

func (s *Service) List(ctx context.Context, owner ruledomain.RuleOwner, partnerID snowflake.ID) ([]ruledomain.MarkupRule, error) {
	parsedOwner, parsedPartner, err := parseOwnerID(owner, partnerID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByOwner(ctx, s.db, parsedOwner, parsedPartner)
}

func (s *Service) Resolve(ctx context.Context, pctx ruledomain.PricingContext, owner ruledomain.RuleOwner) (*ruledomain.MarkupRule, error) {
	partnerID := snowflake.ID(0)
	if owner == ruledomain.OwnerPartner {
		partnerID = pctx.PartnerID
	}
	parsedOwner, parsedPartner, err := parseOwnerID(owner, partnerID)
	if err != nil {
		return nil, err
	}

	rules, err := s.repo.ListActiveByOwner(ctx, s.db, parsedOwner, parsedPartner)
	if err != nil {
		return nil, err
	}

	matches := make([]ruledomain.MarkupRule, 0, len(rules))
	for _, r := range rules {
		if r.Matches(pctx) {
			matches = append(matches, r)
		}
	}

	if len(matches) > 0 {
		// Most specific scope wins; ascending priority breaks ties; rule id
		// keeps the order deterministic.
		sort.Slice(matches, func(i, j int) bool {
			si, sj := matches[i].Scope.Specificity(), matches[j].Scope.Specificity()
			if si != sj {
				return si > sj
			}
			if matches[i].Priority != matches[j].Priority {
				return matches[i].Priority < matches[j].Priority
			}
			return matches[i].ID < matches[j].ID
		})
		selected := matches[0]
		metrics.IncRuleResolution(string(parsedOwner), string(selected.Scope))
		return &selected, nil
	}

	// Fall back to the namespace's global rule. Its absence is a
	// configuration error and is surfaced, never defaulted to 0%.
	global, err := s.repo.FindActiveGlobal(ctx, s.db, parsedOwner, parsedPartner)
	if err != nil {
		return nil, err
	}
	if global == nil {
		s.log.Error("no applicable markup rule",
			zap.String("owner", string(parsedOwner)),
			zap.String("partner_id", parsedPartner.String()),
			zap.String("brand", pctx.Brand),
			zap.String("city", pctx.City),
			zap.String("supplier_id", pctx.SupplierID),
		)
		return nil, ruledomain.ErrNoApplicableRule
	}
	metrics.IncRuleResolution(string(parsedOwner), string(ruledomain.ScopeGlobal))
	return global, nil
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}

func parseOwner(owner ruledomain.RuleOwner, partnerID string) (ruledomain.RuleOwner, snowflake.ID, error) {
	switch strings.ToUpper(strings.TrimSpace(string(owner))) {
	case string(ruledomain.OwnerPlatform):
		return ruledomain.OwnerPlatform, 0, nil
	case string(ruledomain.OwnerPartner):
		id, err := parseID(partnerID)
		if err != nil || id == 0 {
			return "", 0, ruledomain.ErrInvalidPartner
		}
		return ruledomain.OwnerPartner, id, nil
	default:
		return "", 0, ruledomain.ErrInvalidOwner
	}
}

func parseOwnerID(owner ruledomain.RuleOwner, partnerID snowflake.ID) (ruledomain.RuleOwner, snowflake.ID, error) {
	switch strings.ToUpper(strings.TrimSpace(string(owner))) {
	case string(ruledomain.OwnerPlatform):
		return ruledomain.OwnerPlatform, 0, nil
	case string(ruledomain.OwnerPartner):
		if partnerID == 0 {
			return "", 0, ruledomain.ErrInvalidPartner
		}
		return ruledomain.OwnerPartner, partnerID, nil
	default:
		return "", 0, ruledomain.ErrInvalidOwner
	}
}

func parseScope(scope ruledomain.RuleScope) (ruledomain.RuleScope, error) {
	switch strings.ToUpper(strings.TrimSpace(string(scope))) {
	case string(ruledomain.ScopeGlobal):
		return ruledomain.ScopeGlobal, nil
	case string(ruledomain.ScopeBrand):
		return ruledomain.ScopeBrand, nil
	case string(ruledomain.ScopeCity):
		return ruledomain.ScopeCity, nil
	case string(ruledomain.ScopeSupplier):
		return ruledomain.ScopeSupplier, nil
	default:
		return "", ruledomain.ErrInvalidScope
	}
}

func parseStatus(status ruledomain.RuleStatus) (ruledomain.RuleStatus, error) {
	switch strings.ToUpper(strings.TrimSpace(string(status))) {
	case string(ruledomain.RuleStatusActive):
		return ruledomain.RuleStatusActive, nil
	case string(ruledomain.RuleStatusInactive):
		return ruledomain.RuleStatusInactive, nil
	default:
		return "", ruledomain.ErrInvalidStatus
	}
}
