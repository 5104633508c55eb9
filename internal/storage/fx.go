package storage

import (
	"github.com/novotnytom/ocrinvoices/internal/config"
	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"go.uber.org/fx"
)

var Module = fx.Module("storage",
	fx.Provide(func(cfg config.Config) *fsstore.Store {
		return fsstore.New(cfg.DataDir)
	}),
)
