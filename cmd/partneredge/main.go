package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/stayhub/partneredge/internal/clock"
	"github.com/stayhub/partneredge/internal/config"
	"github.com/stayhub/partneredge/internal/gate"
	"github.com/stayhub/partneredge/internal/logger"
	"github.com/stayhub/partneredge/internal/migration"
	"github.com/stayhub/partneredge/internal/order"
	"github.com/stayhub/partneredge/internal/partner"
	"github.com/stayhub/partneredge/internal/pricing"
	"github.com/stayhub/partneredge/internal/rule"
	"github.com/stayhub/partneredge/internal/scheduler"
	"github.com/stayhub/partneredge/internal/server"
	"github.com/stayhub/partneredge/internal/settlement"
	"github.com/stayhub/partneredge/pkg/db"
	"github.com/stayhub/partneredge/pkg/keyedmutex"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		logger.Module,
		db.Module,
		clock.Module,
		fx.Provide(RegisterSnowflake),
		fx.Provide(keyedmutex.New),
		migration.Module,

		// Functional Domains
		rule.Module,
		pricing.Module,
		partner.Module,
		order.Module,
		gate.Module,
		settlement.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
