package progress

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActivitySourcePhoto   = "photo"
	ActivitySourceSession = "session"
	ActivitySourceManual  = "manual"
)

// ActivityEvent logs one recorded activity. A non-empty IdempotencyKey is
// unique per user so a replayed request resolves to the stored outcome.
type ActivityEvent struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_activity_event_user_key,priority:1" json:"user_id"`
	IdempotencyKey *string   `gorm:"column:idempotency_key;uniqueIndex:idx_activity_event_user_key,priority:2" json:"idempotency_key,omitempty"`

	Source       string `gorm:"not null;column:source" json:"source"`
	Transition   string `gorm:"not null;column:transition" json:"transition"`
	XPAwarded    int    `gorm:"not null;default:0;column:xp_awarded" json:"xp_awarded"`
	StreakAfter  int    `gorm:"not null;default:0;column:streak_after" json:"streak_after"`
	LevelsGained int    `gorm:"not null;default:0;column:levels_gained" json:"levels_gained"`

	// Snapshot is the full outcome returned to the caller, replayed verbatim.
	Snapshot datatypes.JSON `gorm:"column:snapshot" json:"snapshot"`

	OccurredAt time.Time `gorm:"not null;column:occurred_at;index" json:"occurred_at"`
}

func (ActivityEvent) TableName() string { return "activity_event" }

func (e *ActivityEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
