package practice

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PracticeSession struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	Skill    string `gorm:"not null;column:skill" json:"skill"`
	Category string `gorm:"not null;column:category" json:"category"`
	Priority string `gorm:"not null;column:priority" json:"priority"`

	DurationMinutes float64   `gorm:"not null;default:0;column:duration_minutes" json:"duration_minutes"`
	StartedAt       time.Time `gorm:"not null;column:started_at" json:"started_at"`
	EndedAt         time.Time `gorm:"not null;column:ended_at" json:"ended_at"`

	XPEarned    int `gorm:"not null;default:0;column:xp_earned" json:"xp_earned"`
	CoinsEarned int `gorm:"not null;default:0;column:coins_earned" json:"coins_earned"`

	PhotoID *uuid.UUID `gorm:"type:uuid;column:photo_id" json:"photo_id,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (PracticeSession) TableName() string { return "practice_session" }

func (s *PracticeSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Category == "" {
		s.Category = DefaultTaskCategory
	}
	if s.Priority == "" {
		s.Priority = DefaultTaskPriority
	}
	return nil
}
