package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/novotnytom/ocrinvoices/internal/audit"
	"github.com/novotnytom/ocrinvoices/internal/backup"
	"github.com/novotnytom/ocrinvoices/internal/bank"
	"github.com/novotnytom/ocrinvoices/internal/batch"
	"github.com/novotnytom/ocrinvoices/internal/config"
	"github.com/novotnytom/ocrinvoices/internal/converter"
	"github.com/novotnytom/ocrinvoices/internal/export"
	"github.com/novotnytom/ocrinvoices/internal/exporttemplate"
	"github.com/novotnytom/ocrinvoices/internal/logger"
	"github.com/novotnytom/ocrinvoices/internal/observability/tracing"
	"github.com/novotnytom/ocrinvoices/internal/ocr"
	"github.com/novotnytom/ocrinvoices/internal/overview"
	"github.com/novotnytom/ocrinvoices/internal/profile"
	"github.com/novotnytom/ocrinvoices/internal/queue"
	"github.com/novotnytom/ocrinvoices/internal/server"
	"github.com/novotnytom/ocrinvoices/internal/storage"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		tracing.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		storage.Module,
		audit.Module,
		profile.Module,
		queue.Module,
		overview.Module,
		bank.Module,
		export.Module,
		exporttemplate.Module,
		converter.Module,
		ocr.Module,
		batch.Module,
		backup.Module,
		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) { s.RegisterRoutes() }),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}
