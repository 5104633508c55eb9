package overview

import (
	"github.com/novotnytom/ocrinvoices/internal/overview/service"
	"go.uber.org/fx"
)

var Module = fx.Module("overview.service",
	fx.Provide(service.NewService),
)
