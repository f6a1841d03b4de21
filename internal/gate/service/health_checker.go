package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	gatedomain "github.com/stayhub/partneredge/internal/gate/domain"
	partnerdomain "github.com/stayhub/partneredge/internal/partner/domain"
	"gorm.io/gorm"
)

type dbHealthChecker struct {
	db *gorm.DB
}

// NewAccountHealthChecker reads the partner's current account status. The
// caller bounds the lookup with a deadline; context expiry surfaces as an
// error, which the evaluator treats as "not healthy".
func NewAccountHealthChecker(db *gorm.DB) gatedomain.AccountHealthChecker {
	return &dbHealthChecker{db: db}
}

func (c *dbHealthChecker) Healthy(ctx context.Context, partnerID snowflake.ID) (bool, error) {
	var partner partnerdomain.Partner
	err := c.db.WithContext(ctx).Where("id = ?", partnerID).First(&partner).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, err
	}
	return partner.Status == partnerdomain.AccountStatusActive, nil
}
