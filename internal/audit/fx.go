package audit

import (
	"os"
	"path/filepath"

	"github.com/novotnytom/ocrinvoices/internal/audit/domain"
	"github.com/novotnytom/ocrinvoices/internal/audit/service"
	"github.com/novotnytom/ocrinvoices/internal/config"
	"go.uber.org/fx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDB(cfg config.Config) (*gorm.DB, error) {
	if dir := filepath.Dir(cfg.AuditDBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.AuditDBPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.Entry{}); err != nil {
		return nil, err
	}
	return db, nil
}

var Module = fx.Module("audit.service",
	fx.Provide(newDB),
	fx.Provide(service.NewService),
)
