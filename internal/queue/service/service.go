package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/novotnytom/ocrinvoices/internal/queue/domain"
	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	queuesDir  = "queues"
	metaFile   = "meta.json"
	valuesFile = "values.json"
)

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Store *fsstore.Store
}

type Service struct {
	log   *zap.Logger
	store *fsstore.Store
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:   p.Log.Named("queue.service"),
		store: p.Store,
	}
}

// List scans every queue directory. Directories without a metadata file are
// skipped silently; that is the tolerated partial-corruption policy for
// listings.
func (s *Service) List(ctx context.Context) ([]domain.Metadata, error) {
	names, err := s.store.ListDirs(queuesDir)
	if err != nil {
		return nil, err
	}

	result := make([]domain.Metadata, 0, len(names))
	for _, name := range names {
		meta, err := fsstore.ReadJSON[domain.Metadata](s.store, path.Join(queuesDir, name, metaFile))
		if err != nil {
			s.log.Debug("skipping queue without readable metadata",
				zap.String("queue", name), zap.Error(err))
			continue
		}
		result = append(result, meta)
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, name string) (domain.Queue, error) {
	if !fsstore.ValidName(name) {
		return domain.Queue{}, domain.ErrInvalidName
	}

	meta, err := fsstore.ReadJSON[domain.Metadata](s.store, path.Join(queuesDir, name, metaFile))
	if err != nil {
		if errors.Is(err, fsstore.ErrNotExist) {
			return domain.Queue{}, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return domain.Queue{}, err
	}

	values, err := s.store.ReadFile(path.Join(queuesDir, name, valuesFile))
	if err != nil {
		// Metadata without values is corruption, not absence.
		return domain.Queue{}, fmt.Errorf("%w: %s: %v", domain.ErrCorrupted, name, err)
	}

	return domain.Queue{
		Name:         meta.Name,
		Profile:      meta.Profile,
		Created:      meta.Created,
		Updated:      meta.Updated,
		Pages:        values,
		SystemValues: orEmpty(meta.SystemValues),
		FieldMapping: orEmpty(meta.FieldMapping),
	}, nil
}

// Save overwrites the whole queue: images are written as uploaded, the values
// blob is replaced wholesale and the metadata keeps its original Created.
func (s *Service) Save(ctx context.Context, req domain.SaveRequest) error {
	if !fsstore.ValidName(req.Name) {
		return domain.ErrInvalidName
	}

	unlock := s.store.Lock("queues/" + req.Name)
	defer unlock()

	saved := make([]string, 0, len(req.Files))
	for _, f := range req.Files {
		if !fsstore.ValidName(f.Filename) {
			return fmt.Errorf("%w: upload %q", domain.ErrInvalidName, f.Filename)
		}
		if err := s.store.WriteFile(path.Join(queuesDir, req.Name, f.Filename), f.Content); err != nil {
			return err
		}
		saved = append(saved, f.Filename)
	}

	now := time.Now().UTC()
	created := now
	if prev, err := fsstore.ReadJSON[domain.Metadata](s.store, path.Join(queuesDir, req.Name, metaFile)); err == nil && !prev.Created.IsZero() {
		created = prev.Created
	}

	meta := domain.Metadata{
		Name:         req.Name,
		Profile:      req.Profile,
		Created:      created,
		Updated:      now,
		Pages:        saved,
		SystemValues: orEmpty(req.SystemValues),
		FieldMapping: orEmpty(req.FieldMapping),
	}

	if err := fsstore.WriteJSON(s.store, path.Join(queuesDir, req.Name, metaFile), meta); err != nil {
		return err
	}
	if err := s.store.WriteFile(path.Join(queuesDir, req.Name, valuesFile), req.Values); err != nil {
		return err
	}

	s.log.Info("queue saved",
		zap.String("queue", req.Name),
		zap.String("profile", req.Profile),
		zap.Int("pages", len(saved)))
	return nil
}

func (s *Service) Delete(ctx context.Context, name string) error {
	if !fsstore.ValidName(name) {
		return domain.ErrInvalidName
	}

	unlock := s.store.Lock("queues/" + name)
	defer unlock()

	if err := s.store.RemoveAll(path.Join(queuesDir, name)); err != nil {
		if errors.Is(err, fsstore.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return err
	}

	s.log.Info("queue deleted", zap.String("queue", name))
	return nil
}

func (s *Service) ImagePath(name, filename string) (string, error) {
	if !fsstore.ValidName(name) || !fsstore.ValidName(filename) {
		return "", domain.ErrInvalidName
	}
	p := s.store.Path(path.Join(queuesDir, name, filename))
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%w: %s/%s", domain.ErrImageNotFound, name, filename)
	}
	return p, nil
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
