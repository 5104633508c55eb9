// Package batch handles zip intake: a scanned batch is extracted into a
// temporary workspace and prepared as pages carrying the profile's zones.
package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/novotnytom/ocrinvoices/internal/config"
	profiledomain "github.com/novotnytom/ocrinvoices/internal/profile/domain"
	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrInvalidZip    = errors.New("invalid_zip")
	ErrImageNotFound = errors.New("batch_image_not_found")
)

// Page is one extracted image prepared for the review workflow. Every page
// starts with its own copy of the profile zones and no values.
type Page struct {
	Filename string               `json:"filename"`
	ImageURL string               `json:"imageUrl"`
	Zones    []profiledomain.Zone `json:"zones"`
	Values   map[string]string    `json:"values"`
}

type ProcessResult struct {
	BatchID string `json:"batchId"`
	Pages   []Page `json:"pages"`
}

type Service interface {
	// ProcessZip extracts the upload into a fresh temp batch and returns its
	// image pages, sorted by filename. The profile must exist.
	ProcessZip(ctx context.Context, zipBytes []byte, profileName string) (ProcessResult, error)
	ImagePath(batchID, filename string) (string, error)
}

type ServiceParam struct {
	fx.In

	Cfg      config.Config
	Log      *zap.Logger
	Profiles profiledomain.Service
}

type service struct {
	log      *zap.Logger
	tempDir  string
	profiles profiledomain.Service
}

func NewService(p ServiceParam) Service {
	return &service{
		log:      p.Log.Named("batch.service"),
		tempDir:  p.Cfg.TempDir,
		profiles: p.Profiles,
	}
}

func (s *service) ProcessZip(ctx context.Context, zipBytes []byte, profileName string) (ProcessResult, error) {
	zones, err := s.profiles.Zones(ctx, profileName)
	if err != nil {
		return ProcessResult{}, err
	}

	batchID := uuid.NewString()
	batchDir := filepath.Join(s.tempDir, batchID)
	if err := os.MkdirAll(batchDir, 0o755); err != nil {
		return ProcessResult{}, err
	}

	if err := extractZip(zipBytes, batchDir); err != nil {
		return ProcessResult{}, err
	}

	entries, err := os.ReadDir(batchDir)
	if err != nil {
		return ProcessResult{}, err
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isImageName(e.Name()) {
			images = append(images, e.Name())
		}
	}
	sort.Strings(images)

	pages := make([]Page, 0, len(images))
	for _, name := range images {
		pageZones := make([]profiledomain.Zone, len(zones))
		copy(pageZones, zones)
		pages = append(pages, Page{
			Filename: name,
			ImageURL: fmt.Sprintf("/temp/%s/%s", batchID, name),
			Zones:    pageZones,
			Values:   map[string]string{},
		})
	}

	s.log.Info("zip batch processed",
		zap.String("batch_id", batchID),
		zap.String("profile", profileName),
		zap.Int("pages", len(pages)))

	return ProcessResult{BatchID: batchID, Pages: pages}, nil
}

func (s *service) ImagePath(batchID, filename string) (string, error) {
	if !fsstore.ValidName(batchID) || !fsstore.ValidName(filename) {
		return "", ErrImageNotFound
	}
	p := filepath.Join(s.tempDir, batchID, filename)
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%w: %s/%s", ErrImageNotFound, batchID, filename)
	}
	return p, nil
}

// extractZip unpacks every entry under dir, rejecting paths that would
// escape it.
func extractZip(zipBytes []byte, dir string) error {
	zr, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidZip, err)
	}

	for _, entry := range zr.File {
		cleaned := filepath.Clean(entry.Name)
		if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
			continue
		}
		target := filepath.Join(dir, cleaned)

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}

		rc, err := entry.Open()
		if err != nil {
			return err
		}
		out, err := os.Create(target)
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func isImageName(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".jpg") ||
		strings.HasSuffix(lower, ".jpeg") ||
		strings.HasSuffix(lower, ".png")
}

var Module = fx.Module("batch.service",
	fx.Provide(NewService),
)
