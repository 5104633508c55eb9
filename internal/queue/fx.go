package queue

import (
	"github.com/novotnytom/ocrinvoices/internal/queue/service"
	"go.uber.org/fx"
)

var Module = fx.Module("queue.service",
	fx.Provide(service.NewService),
)
