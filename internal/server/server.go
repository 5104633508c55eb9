package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/novotnytom/ocrinvoices/internal/audit/domain"
	bankdomain "github.com/novotnytom/ocrinvoices/internal/bank/domain"
	"github.com/novotnytom/ocrinvoices/internal/backup"
	"github.com/novotnytom/ocrinvoices/internal/batch"
	"github.com/novotnytom/ocrinvoices/internal/config"
	"github.com/novotnytom/ocrinvoices/internal/converter"
	"github.com/novotnytom/ocrinvoices/internal/export"
	"github.com/novotnytom/ocrinvoices/internal/exporttemplate"
	"github.com/novotnytom/ocrinvoices/internal/observability/tracing"
	"github.com/novotnytom/ocrinvoices/internal/ocr"
	overviewdomain "github.com/novotnytom/ocrinvoices/internal/overview/domain"
	profiledomain "github.com/novotnytom/ocrinvoices/internal/profile/domain"
	queuedomain "github.com/novotnytom/ocrinvoices/internal/queue/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewEngine builds the gin engine with the shared middleware stack.
func NewEngine(cfg config.Config, log *zap.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	engine.Use(tracing.GinMiddleware())
	engine.Use(corsMiddleware())
	return engine
}

type ServerParam struct {
	fx.In

	Cfg    config.Config
	Log    *zap.Logger
	Engine *gin.Engine

	ProfileSvc   profiledomain.Service
	QueueSvc     queuedomain.Service
	OverviewSvc  overviewdomain.Service
	BankSvc      bankdomain.Service
	ExportSvc    export.Service
	TemplateSvc  exporttemplate.Service
	ConverterSvc converter.Service
	OCRSvc       ocr.Service
	BatchSvc     batch.Service
	BackupSvc    backup.Service

	AuditSvc auditdomain.Service `optional:"true"`
}

type Server struct {
	cfg    config.Config
	log    *zap.Logger
	engine *gin.Engine

	profileSvc   profiledomain.Service
	queueSvc     queuedomain.Service
	overviewSvc  overviewdomain.Service
	bankSvc      bankdomain.Service
	exportSvc    export.Service
	templateSvc  exporttemplate.Service
	converterSvc converter.Service
	ocrSvc       ocr.Service
	batchSvc     batch.Service
	backupSvc    backup.Service
	auditSvc     auditdomain.Service
}

func NewServer(p ServerParam) *Server {
	return &Server{
		cfg:          p.Cfg,
		log:          p.Log.Named("server"),
		engine:       p.Engine,
		profileSvc:   p.ProfileSvc,
		queueSvc:     p.QueueSvc,
		overviewSvc:  p.OverviewSvc,
		bankSvc:      p.BankSvc,
		exportSvc:    p.ExportSvc,
		templateSvc:  p.TemplateSvc,
		converterSvc: p.ConverterSvc,
		ocrSvc:       p.OCRSvc,
		batchSvc:     p.BatchSvc,
		backupSvc:    p.BackupSvc,
		auditSvc:     p.AuditSvc,
	}
}

// RegisterRoutes wires every endpoint. Paths mirror the original API.
func (s *Server) RegisterRoutes() {
	r := s.engine

	r.GET("/profiles", s.ListProfiles)
	r.POST("/profiles", s.SaveProfile)
	r.GET("/profiles/:name", s.GetProfile)
	r.GET("/profiles/:name/preview.jpg", s.GetProfileImage)
	r.DELETE("/profiles/:name", s.DeleteProfile)

	r.GET("/queues", s.ListQueues)
	r.POST("/queues", s.SaveQueue)
	r.GET("/queues/:name", s.GetQueue)
	r.DELETE("/queues/:name", s.DeleteQueue)
	r.GET("/queues/:name/:filename", s.GetQueueImage)

	r.POST("/overview/add_batch", s.AddOverviewBatch)
	r.POST("/overview/save_invoice", s.SaveOverviewInvoice)
	r.PATCH("/overview/update_invoice/:id", s.UpdateOverviewInvoice)
	r.DELETE("/overview/delete/:id", s.DeleteOverviewInvoice)
	r.DELETE("/overview/delete_all", s.DeleteAllOverviewInvoices)
	r.GET("/overview/list_invoices", s.ListOverviewInvoices)
	r.POST("/overview/export_selected", s.ExportSelected)
	r.POST("/overview/export_flexibee", s.ExportFlexibee)

	r.POST("/bank/save_batch", s.SaveBankBatch)
	r.DELETE("/bank/delete_batch", s.DeleteBankBatch)
	r.GET("/bank/list_batches", s.ListBankBatches)
	r.GET("/bank/load_batch", s.LoadBankBatch)
	r.POST("/bank/import_xml", s.ImportBankXML)
	r.POST("/bank/save_match", s.SaveBankMatch)
	r.GET("/bank/get_match_status", s.GetBankMatchStatus)
	r.POST("/bank/save_initial_match", s.SaveInitialBankMatch)
	r.POST("/bank/confirm_match", s.ConfirmBankMatch)
	r.POST("/bank/delete_match", s.DeleteBankMatch)

	r.POST("/export-template/save", s.SaveExportTemplate)
	r.GET("/export-template/load", s.LoadExportTemplate)

	r.POST("/ocr/test", s.TestOCR)
	r.POST("/process-zip", s.ProcessZip)
	r.GET("/temp/:batch/:filename", s.GetTempImage)

	r.POST("/convert/zasilkovna", s.ConvertZasilkovna)

	r.POST("/backup", s.CreateBackup)

	r.GET("/audit/logs", s.ListAuditLogs)
}

// audit records a mutation on the trail; failures are logged inside the
// service and never surfaced to the client.
func (s *Server) audit(ctx context.Context, action, targetType string, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	var target *string
	if targetID != "" {
		target = &targetID
	}
	_ = s.auditSvc.Record(ctx, action, targetType, target, metadata)
}

// RunHTTP starts the HTTP server on the fx lifecycle.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", cfg.Addr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("http server shutting down")
			return srv.Shutdown(ctx)
		},
	})
}
