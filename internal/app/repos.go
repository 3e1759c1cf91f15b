package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

type Repos struct {
	UserProgress      repos.UserProgressRepo
	EarnedAchievement repos.EarnedAchievementRepo
	ActivityEvent     repos.ActivityEventRepo
	Photo             repos.PhotoRepo
	PracticeSession   repos.PracticeSessionRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		UserProgress:      repos.NewUserProgressRepo(db, log),
		EarnedAchievement: repos.NewEarnedAchievementRepo(db, log),
		ActivityEvent:     repos.NewActivityEventRepo(db, log),
		Photo:             repos.NewPhotoRepo(db, log),
		PracticeSession:   repos.NewPracticeSessionRepo(db, log),
	}
}
