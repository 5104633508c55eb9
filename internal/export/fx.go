package export

import "go.uber.org/fx"

var Module = fx.Module("export.service",
	fx.Provide(NewService),
)
