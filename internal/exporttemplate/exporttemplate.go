// Package exporttemplate stores the operator's export field template, a
// single document describing which fields the export UI offers.
package exporttemplate

import (
	"context"
	"errors"

	"github.com/novotnytom/ocrinvoices/pkg/fsstore"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const templatePath = "export_templates/default_template.json"

type Field struct {
	Name    string  `json:"name"`
	Active  bool    `json:"active"`
	System  bool    `json:"system"`
	Label   string  `json:"label"`
	Info    *string `json:"info,omitempty"`
	Example *string `json:"example,omitempty"`
	Type    *string `json:"type,omitempty"`
}

type Service interface {
	Save(ctx context.Context, fields []Field) error
	// Load returns the stored template, or an empty list when none exists.
	Load(ctx context.Context) ([]Field, error)
}

type ServiceParam struct {
	fx.In

	Log   *zap.Logger
	Store *fsstore.Store
}

type service struct {
	log   *zap.Logger
	store *fsstore.Store
}

func NewService(p ServiceParam) Service {
	return &service{
		log:   p.Log.Named("exporttemplate.service"),
		store: p.Store,
	}
}

func (s *service) Save(ctx context.Context, fields []Field) error {
	unlock := s.store.Lock("export_templates/default")
	defer unlock()

	if fields == nil {
		fields = []Field{}
	}
	if err := fsstore.WriteJSON(s.store, templatePath, fields); err != nil {
		return err
	}
	s.log.Info("export template saved", zap.Int("fields", len(fields)))
	return nil
}

func (s *service) Load(ctx context.Context) ([]Field, error) {
	fields, err := fsstore.ReadJSON[[]Field](s.store, templatePath)
	if err != nil {
		if errors.Is(err, fsstore.ErrNotExist) {
			return []Field{}, nil
		}
		return nil, err
	}
	return fields, nil
}

var Module = fx.Module("exporttemplate.service",
	fx.Provide(NewService),
)
