package rule

import (
	"github.com/stayhub/partneredge/internal/rule/repository"
	"github.com/stayhub/partneredge/internal/rule/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rule.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
