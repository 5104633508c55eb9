package domain

import (
	"context"
	"errors"
	"time"
)

// Zone is one crop rectangle of a profile plus the field it extracts.
type Zone struct {
	ID           int    `json:"id"`
	X            int    `json:"x"`
	Y            int    `json:"y"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	PropertyName string `json:"propertyName"`
}

// Summary is the listing view of a profile. Timestamps are derived from the
// config artifact's filesystem metadata, so touching the file externally
// changes them.
type Summary struct {
	Name    string     `json:"name"`
	Created *time.Time `json:"created"`
	Updated *time.Time `json:"updated"`
}

type Profile struct {
	Zones    []Zone `json:"zones"`
	ImageURL string `json:"image_url"`
}

type SaveRequest struct {
	Name string
	// ZonesJSON is the raw zones payload; it must decode into []Zone.
	ZonesJSON []byte
	// Image replaces the preview when non-nil.
	Image []byte
}

type Service interface {
	List(ctx context.Context) ([]Summary, error)
	Get(ctx context.Context, name string) (Profile, error)
	Save(ctx context.Context, req SaveRequest) error
	Delete(ctx context.Context, name string) error
	// ImagePath resolves the preview image on disk for serving.
	ImagePath(name string) (string, error)
	// Zones loads just the zone list, for callers preparing OCR runs.
	Zones(ctx context.Context, name string) ([]Zone, error)
}

var (
	ErrNotFound      = errors.New("profile_not_found")
	ErrImageNotFound = errors.New("profile_image_not_found")
	ErrInvalidName   = errors.New("invalid_profile_name")
	ErrInvalidZones  = errors.New("invalid_zones_payload")
)
