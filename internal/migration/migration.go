package migration

import (
	orderdomain "github.com/stayhub/partneredge/internal/order/domain"
	partnerdomain "github.com/stayhub/partneredge/internal/partner/domain"
	ruledomain "github.com/stayhub/partneredge/internal/rule/domain"
	settlementdomain "github.com/stayhub/partneredge/internal/settlement/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

// Run creates or updates the schema on startup so local and self-hosted
// deployments work out of the box.
func Run(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&ruledomain.MarkupRule{},
		&partnerdomain.Partner{},
		&orderdomain.Order{},
		&settlementdomain.SettlementBatch{},
	)
}

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)
