// Package backup archives the whole data tree into a timestamped zip.
package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/novotnytom/ocrinvoices/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service interface {
	// Create writes a new archive and returns its filename.
	Create(ctx context.Context) (string, error)
}

type ServiceParam struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

type service struct {
	log       *zap.Logger
	dataDir   string
	backupDir string
}

func NewService(p ServiceParam) Service {
	return &service{
		log:       p.Log.Named("backup.service"),
		dataDir:   p.Cfg.DataDir,
		backupDir: p.Cfg.BackupDir,
	}
}

func (s *service) Create(ctx context.Context) (string, error) {
	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return "", err
	}

	name := fmt.Sprintf("backup_%s.zip", time.Now().Format("20060102_150405"))
	path := filepath.Join(s.backupDir, name)

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	zw := zip.NewWriter(out)

	err = filepath.WalkDir(s.dataDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.dataDir, p)
		if err != nil {
			return err
		}
		w, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		f, err := os.Open(p)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, f)
		f.Close()
		return err
	})

	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}

	s.log.Info("backup created", zap.String("file", name))
	return name, nil
}

var Module = fx.Module("backup.service",
	fx.Provide(NewService),
)
