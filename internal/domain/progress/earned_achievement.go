package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EarnedAchievement is written once per (user, achievement) and never changed.
type EarnedAchievement struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_earned_achievement_user_badge,priority:1" json:"user_id"`
	AchievementID string    `gorm:"not null;column:achievement_id;uniqueIndex:idx_earned_achievement_user_badge,priority:2" json:"achievement_id"`
	XPReward      int       `gorm:"not null;default:0;column:xp_reward" json:"xp_reward"`
	EarnedAt      time.Time `gorm:"not null;column:earned_at" json:"earned_at"`
}

func (EarnedAchievement) TableName() string { return "earned_achievement" }

func (e *EarnedAchievement) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EarnedAt.IsZero() {
		e.EarnedAt = time.Now().UTC()
	}
	return nil
}
