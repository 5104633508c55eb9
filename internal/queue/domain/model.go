package domain

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// Metadata is the per-queue record stored next to the page images. Created is
// set on the first save and preserved by every later one.
type Metadata struct {
	Name         string            `json:"name"`
	Profile      string            `json:"profile"`
	Created      time.Time         `json:"created"`
	Updated      time.Time         `json:"updated"`
	Pages        []string          `json:"pages"`
	SystemValues map[string]string `json:"systemValues"`
	FieldMapping map[string]string `json:"fieldMapping"`
}

// Queue is the merged read view: metadata plus the values blob. The blob's
// schema belongs to the caller and is passed through untouched. The wire
// field is named "pages" for historical reasons.
type Queue struct {
	Name         string            `json:"name"`
	Profile      string            `json:"profile"`
	Created      time.Time         `json:"created"`
	Updated      time.Time         `json:"updated"`
	Pages        json.RawMessage   `json:"pages"`
	SystemValues map[string]string `json:"systemValues"`
	FieldMapping map[string]string `json:"fieldMapping"`
}

// FileUpload is one page image supplied with a save. Filenames are taken as
// given; duplicates within a single save overwrite each other.
type FileUpload struct {
	Filename string
	Content  []byte
}

type SaveRequest struct {
	Name         string
	Profile      string
	Values       []byte
	SystemValues map[string]string
	FieldMapping map[string]string
	Files        []FileUpload
}

type Service interface {
	List(ctx context.Context) ([]Metadata, error)
	Get(ctx context.Context, name string) (Queue, error)
	Save(ctx context.Context, req SaveRequest) error
	Delete(ctx context.Context, name string) error
	ImagePath(name, filename string) (string, error)
}

var (
	ErrNotFound      = errors.New("queue_not_found")
	ErrImageNotFound = errors.New("queue_image_not_found")
	ErrInvalidName   = errors.New("invalid_queue_name")
	// ErrCorrupted means the metadata exists but its companion values file is
	// missing or unreadable. Surfaced, never defaulted: it indicates storage
	// corruption.
	ErrCorrupted = errors.New("queue_storage_corrupted")
)
