package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ruledomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rule *ruledomain.MarkupRule) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO markup_rules (
			id, owner, partner_id, scope, target, rate, priority, status,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID,
		rule.Owner,
		rule.PartnerID,
		rule.Scope,
		rule.Target,
		rule.Rate,
		rule.Priority,
		rule.Status,
		rule.CreatedAt,
		rule.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ruledomain.MarkupRule, error) {
	var rule ruledomain.MarkupRule
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner, partner_id, scope, target, rate, priority, status,
		 created_at, updated_at
		 FROM markup_rules WHERE id = ?`,
		id,
	).Scan(&rule).Error
	if err != nil {
		return nil, err
	}
	if rule.ID == 0 {
		return nil, nil
	}
	return &rule, nil
}

func (r *repo) ListByOwner(ctx context.Context, db *gorm.DB, owner ruledomain.RuleOwner, partnerID snowflake.ID) ([]ruledomain.MarkupRule, error) {
	var rules []ruledomain.MarkupRule
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner, partner_id, scope, target, rate, priority, status,
		 created_at, updated_at
		 FROM markup_rules
		 WHERE owner = ? AND partner_id = ?
		 ORDER BY priority ASC, id ASC`,
		owner,
		partnerID,
	).Scan(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) ListActiveByOwner(ctx context.Context, db *gorm.DB, owner ruledomain.RuleOwner, partnerID snowflake.ID) ([]ruledomain.MarkupRule, error) {
	var rules []ruledomain.MarkupRule
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner, partner_id, scope, target, rate, priority, status,
		 created_at, updated_at
		 FROM markup_rules
		 WHERE owner = ? AND partner_id = ? AND status = ?
		 ORDER BY priority ASC, id ASC`,
		owner,
		partnerID,
		ruledomain.RuleStatusActive,
	).Scan(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) FindActiveGlobal(ctx context.Context, db *gorm.DB, owner ruledomain.RuleOwner, partnerID snowflake.ID) (*ruledomain.MarkupRule, error) {
	var rule ruledomain.MarkupRule
	err := db.WithContext(ctx).Raw(
		`SELECT id, owner, partner_id, scope, target, rate, priority, status,
		 created_at, updated_at
		 FROM markup_rules
		 WHERE owner = ? AND partner_id = ? AND scope = ? AND status = ?
		 ORDER BY id ASC
		 LIMIT 1`,
		owner,
		partnerID,
		ruledomain.ScopeGlobal,
		ruledomain.RuleStatusActive,
	).Scan(&rule).Error
	if err != nil {
		return nil, err
	}
	if rule.ID == 0 {
		return nil, nil
	}
	return &rule, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status ruledomain.RuleStatus) error {
	return db.WithContext(ctx).Exec(
		`UPDATE markup_rules SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status,
		id,
	).Error
}
