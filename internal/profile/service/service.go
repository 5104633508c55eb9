package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/novotnytom/ocrinvoices/internal/config"
	"github.com/novotnytom/ocrinvoices/internal/profile/domain"
	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	profilesDir = "profiles"
	configFile  = "config.json"
	previewFile = "preview.jpg"
)

type ServiceParam struct {
	fx.In

	Cfg   config.Config
	Log   *zap.Logger
	Store *fsstore.Store
}

type Service struct {
	log   *zap.Logger
	store *fsstore.Store
}

func NewService(p ServiceParam) domain.Service {
	return &Service{
		log:   p.Log.Named("profile.service"),
		store: p.Store,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Summary, error) {
	names, err := s.store.ListDirs(profilesDir)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	summaries := make([]domain.Summary, 0, len(names))
	for _, name := range names {
		summary := domain.Summary{Name: name}
		if fi, err := os.Stat(s.store.Path(path.Join(profilesDir, name, configFile))); err == nil {
			created, updated := fileTimes(fi)
			summary.Created = &created
			summary.Updated = &updated
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *Service) Get(ctx context.Context, name string) (domain.Profile, error) {
	if !fsstore.ValidName(name) {
		return domain.Profile{}, domain.ErrInvalidName
	}

	zones, err := fsstore.ReadJSON[[]domain.Zone](s.store, path.Join(profilesDir, name, configFile))
	if err != nil {
		if errors.Is(err, fsstore.ErrNotExist) {
			return domain.Profile{}, fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return domain.Profile{}, err
	}

	return domain.Profile{
		Zones:    zones,
		ImageURL: fmt.Sprintf("/profiles/%s/preview.jpg", name),
	}, nil
}

func (s *Service) Zones(ctx context.Context, name string) ([]domain.Zone, error) {
	profile, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	return profile.Zones, nil
}

func (s *Service) Save(ctx context.Context, req domain.SaveRequest) error {
	if !fsstore.ValidName(req.Name) {
		return domain.ErrInvalidName
	}

	var zones []domain.Zone
	if err := json.Unmarshal(req.ZonesJSON, &zones); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidZones, err)
	}

	unlock := s.store.Lock("profiles/" + req.Name)
	defer unlock()

	if req.Image != nil {
		if err := s.store.WriteFile(path.Join(profilesDir, req.Name, previewFile), req.Image); err != nil {
			return err
		}
	}

	if err := fsstore.WriteJSON(s.store, path.Join(profilesDir, req.Name, configFile), zones); err != nil {
		return err
	}

	s.log.Info("profile saved", zap.String("name", req.Name), zap.Int("zones", len(zones)))
	return nil
}

func (s *Service) Delete(ctx context.Context, name string) error {
	if !fsstore.ValidName(name) {
		return domain.ErrInvalidName
	}

	unlock := s.store.Lock("profiles/" + name)
	defer unlock()

	if err := s.store.RemoveAll(path.Join(profilesDir, name)); err != nil {
		if errors.Is(err, fsstore.ErrNotExist) {
			return fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return err
	}

	s.log.Info("profile deleted", zap.String("name", name))
	return nil
}

func (s *Service) ImagePath(name string) (string, error) {
	if !fsstore.ValidName(name) {
		return "", domain.ErrInvalidName
	}
	p := s.store.Path(path.Join(profilesDir, name, previewFile))
	if _, err := os.Stat(p); err != nil {
		return "", fmt.Errorf("%w: %s", domain.ErrImageNotFound, name)
	}
	return p, nil
}
