package gate

import (
	"github.com/stayhub/partneredge/internal/gate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("gate.service",
	fx.Provide(service.NewAccountHealthChecker),
	fx.Provide(service.New),
)
