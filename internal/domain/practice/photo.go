package practice

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultTaskCategory = "general"
	DefaultTaskPriority = "medium"

	// PhotoPublicPrefix is the URL path photos are served under.
	PhotoPublicPrefix = "/uploads/photos/"
)

// Photo is stored at most once per (owner, content hash).
type Photo struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_photo_owner_hash,priority:1" json:"owner_id"`
	ContentHash string    `gorm:"not null;column:content_hash;uniqueIndex:idx_photo_owner_hash,priority:2" json:"content_hash"`

	Filename    string `gorm:"not null;column:filename" json:"filename"`
	StorageKey  string `gorm:"not null;column:storage_key" json:"-"`
	StoragePath string `gorm:"not null;column:storage_path" json:"path"`
	ContentType string `gorm:"column:content_type" json:"content_type"`
	SizeBytes   int64  `gorm:"not null;default:0;column:size_bytes" json:"size_bytes"`

	TaskName     string     `gorm:"column:task_name" json:"task_name"`
	TaskCategory string     `gorm:"not null;column:task_category" json:"task_category"`
	TaskPriority string     `gorm:"not null;column:task_priority" json:"task_priority"`
	SessionID    *uuid.UUID `gorm:"type:uuid;column:session_id" json:"session_id,omitempty"`

	Extra datatypes.JSON `gorm:"column:extra" json:"extra,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Photo) TableName() string { return "photo" }

func (p *Photo) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.TaskCategory == "" {
		p.TaskCategory = DefaultTaskCategory
	}
	if p.TaskPriority == "" {
		p.TaskPriority = DefaultTaskPriority
	}
	return nil
}

// TaskMetadata is the practice task a photo documents.
type TaskMetadata struct {
	Name     string         `json:"task_name"`
	Category string         `json:"task_category"`
	Priority string         `json:"task_priority"`
	Extra    map[string]any `json:"extra,omitempty"`
}
