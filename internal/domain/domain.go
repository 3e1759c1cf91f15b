package domain

import (
	"github.com/yungbote/skillforge-backend/internal/domain/practice"
	"github.com/yungbote/skillforge-backend/internal/domain/progress"
)

const (
	ActivitySourcePhoto   = progress.ActivitySourcePhoto
	ActivitySourceSession = progress.ActivitySourceSession
	ActivitySourceManual  = progress.ActivitySourceManual

	DefaultTaskCategory = practice.DefaultTaskCategory
	DefaultTaskPriority = practice.DefaultTaskPriority
	PhotoPublicPrefix   = practice.PhotoPublicPrefix
)

type UserProgress = progress.UserProgress
type EarnedAchievement = progress.EarnedAchievement
type ActivityEvent = progress.ActivityEvent

type Photo = practice.Photo
type TaskMetadata = practice.TaskMetadata
type PracticeSession = practice.PracticeSession

// Models lists every table for auto-migration.
func Models() []interface{} {
	return []interface{}{
		&UserProgress{},
		&EarnedAchievement{},
		&ActivityEvent{},
		&Photo{},
		&PracticeSession{},
	}
}
