package progress

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

type EarnedAchievementRepo interface {
	ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.EarnedAchievement, error)
	// CreateIfAbsent reports whether the row was inserted; an existing
	// (user, achievement) pair is left untouched.
	CreateIfAbsent(dbc dbctx.Context, row *types.EarnedAchievement) (bool, error)
}

type earnedAchievementRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEarnedAchievementRepo(db *gorm.DB, baseLog *logger.Logger) EarnedAchievementRepo {
	return &earnedAchievementRepo{db: db, log: baseLog.With("repo", "EarnedAchievementRepo")}
}

func (r *earnedAchievementRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID) ([]*types.EarnedAchievement, error) {
	var out []*types.EarnedAchievement
	if userID == uuid.Nil {
		return out, nil
	}
	if err := dbc.DB(r.db).
		Where("user_id = ?", userID).
		Order("earned_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *earnedAchievementRepo) CreateIfAbsent(dbc dbctx.Context, row *types.EarnedAchievement) (bool, error) {
	if row == nil {
		return false, nil
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "achievement_id"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
