package progress

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/skillforge-backend/internal/gamification"
)

// UserProgress is the per-user streak and XP record. Version guards the
// read-modify-write of a single activity.
type UserProgress struct {
	UserID uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`

	CurrentStreak  int        `gorm:"not null;default:0;column:current_streak" json:"current_streak"`
	BestStreak     int        `gorm:"not null;default:0;column:best_streak" json:"best_streak"`
	LastActivityAt *time.Time `gorm:"column:last_activity_at" json:"last_activity_at,omitempty"`

	XP    int `gorm:"not null;default:0;column:xp" json:"xp"`
	Level int `gorm:"not null;default:1;column:level" json:"level"`
	Coins int `gorm:"not null;default:0;column:coins" json:"coins"`

	Version int64 `gorm:"not null;default:0;column:version" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (UserProgress) TableName() string { return "user_progress" }

func NewUserProgress(userID uuid.UUID) *UserProgress {
	return &UserProgress{UserID: userID, Level: 1}
}

func (p *UserProgress) StreakState() gamification.StreakState {
	s := gamification.StreakState{Current: p.CurrentStreak, Best: p.BestStreak}
	if p.LastActivityAt != nil {
		t := *p.LastActivityAt
		s.LastActivityAt = &t
	}
	return s
}

func (p *UserProgress) SetStreakState(s gamification.StreakState) {
	p.CurrentStreak = s.Current
	p.BestStreak = s.Best
	if s.LastActivityAt == nil {
		p.LastActivityAt = nil
		return
	}
	t := s.LastActivityAt.UTC()
	p.LastActivityAt = &t
}

func (p *UserProgress) XPState() gamification.XPState {
	return gamification.XPState{XP: p.XP, Level: p.Level, Coins: p.Coins}
}

func (p *UserProgress) SetXPState(s gamification.XPState) {
	p.XP = s.XP
	p.Level = s.Level
	p.Coins = s.Coins
}
