// Package ocr crops profile zones out of page images and runs them through
// an external recognition engine.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/novotnytom/ocrinvoices/internal/config"
	profiledomain "github.com/novotnytom/ocrinvoices/internal/profile/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NaN is the failure sentinel for a zone whose recognition produced nothing.
// Any non-empty recognized string counts as success.
const NaN = "NaN"

var ErrInvalidImage = errors.New("invalid_image")

// Result is the outcome of one zone.
type Result struct {
	PropertyName string `json:"propertyName"`
	Text         string `json:"text"`
	Success      bool   `json:"success"`
}

type Service interface {
	// Test crops every zone from the image and recognizes each one. Engine
	// failures degrade to a per-zone failure marker, never an aborted run.
	Test(ctx context.Context, imageBytes []byte, zones []profiledomain.Zone) ([]Result, error)
}

type ServiceParam struct {
	fx.In

	Log    *zap.Logger
	Engine Engine
}

type service struct {
	log    *zap.Logger
	engine Engine
}

func NewService(p ServiceParam) Service {
	return &service{
		log:    p.Log.Named("ocr.service"),
		engine: p.Engine,
	}
}

func (s *service) Test(ctx context.Context, imageBytes []byte, zones []profiledomain.Zone) ([]Result, error) {
	img, err := imaging.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	results := make([]Result, 0, len(zones))
	for _, zone := range zones {
		crop := imaging.Crop(img, image.Rect(zone.X, zone.Y, zone.X+zone.Width, zone.Y+zone.Height))

		text, err := s.engine.Recognize(ctx, crop)
		if err != nil {
			s.log.Warn("zone recognition failed",
				zap.Int("zone", zone.ID),
				zap.String("property", zone.PropertyName),
				zap.Error(err))
			results = append(results, Result{PropertyName: zone.PropertyName, Text: NaN, Success: false})
			continue
		}
		if text == "" {
			text = NaN
		}
		results = append(results, Result{PropertyName: zone.PropertyName, Text: text, Success: true})
	}

	return results, nil
}

var Module = fx.Module("ocr.service",
	fx.Provide(func(cfg config.Config) Engine {
		return NewTesseractEngine(cfg.TesseractBin)
	}),
	fx.Provide(NewService),
)
