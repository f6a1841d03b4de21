package order

import (
	"github.com/stayhub/partneredge/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(service.New),
)
