package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Entry is an immutable record of a mutating back-office action.
type Entry struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text"`
	Metadata   datatypes.JSONMap `gorm:"not null"`
	CreatedAt  time.Time         `gorm:"not null"`
}

// TableName sets the database table name.
func (Entry) TableName() string { return "audit_logs" }

type ListFilter struct {
	Action     string
	TargetType string
	Limit      int
}

type Service interface {
	// Record appends an entry. Callers treat failures as best-effort; a lost
	// audit row never fails the originating request.
	Record(ctx context.Context, action, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, filter ListFilter) ([]Entry, error)
}
