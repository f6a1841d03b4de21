package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *MarkupRule) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MarkupRule, error)
	ListByOwner(ctx context.Context, db *gorm.DB, owner RuleOwner, partnerID snowflake.ID) ([]MarkupRule, error)
	ListActiveByOwner(ctx context.Context, db *gorm.DB, owner RuleOwner, partnerID snowflake.ID) ([]MarkupRule, error)
	FindActiveGlobal(ctx context.Context, db *gorm.DB, owner RuleOwner, partnerID snowflake.ID) (*MarkupRule, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status RuleStatus) error
}
