package logger

import (
	"context"

	"github.com/novotnytom/ocrinvoices/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// New builds the process logger. Production uses the JSON encoder, anything
// else the development console encoder.
func New(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

var Module = fx.Module("logger",
	fx.Provide(New),
	fx.Invoke(func(lc fx.Lifecycle, log *zap.Logger) {
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				_ = log.Sync()
				return nil
			},
		})
	}),
)
