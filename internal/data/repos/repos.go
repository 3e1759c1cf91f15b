package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/skillforge-backend/internal/data/repos/practice"
	"github.com/yungbote/skillforge-backend/internal/data/repos/progress"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

type UserProgressRepo = progress.UserProgressRepo
type EarnedAchievementRepo = progress.EarnedAchievementRepo
type ActivityEventRepo = progress.ActivityEventRepo

type PhotoRepo = practice.PhotoRepo
type PracticeSessionRepo = practice.PracticeSessionRepo
type SessionTotals = practice.SessionTotals

func NewUserProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserProgressRepo {
	return progress.NewUserProgressRepo(db, baseLog)
}
func NewEarnedAchievementRepo(db *gorm.DB, baseLog *logger.Logger) EarnedAchievementRepo {
	return progress.NewEarnedAchievementRepo(db, baseLog)
}
func NewActivityEventRepo(db *gorm.DB, baseLog *logger.Logger) ActivityEventRepo {
	return progress.NewActivityEventRepo(db, baseLog)
}

func NewPhotoRepo(db *gorm.DB, baseLog *logger.Logger) PhotoRepo {
	return practice.NewPhotoRepo(db, baseLog)
}
func NewPracticeSessionRepo(db *gorm.DB, baseLog *logger.Logger) PracticeSessionRepo {
	return practice.NewPracticeSessionRepo(db, baseLog)
}
