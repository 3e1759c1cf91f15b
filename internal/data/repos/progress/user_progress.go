package progress

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	domprogress "github.com/yungbote/skillforge-backend/internal/domain/progress"
	"github.com/yungbote/skillforge-backend/internal/pkg/dbctx"
	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

type UserProgressRepo interface {
	Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserProgress, error)
	// GetOrCreate returns the row, creating a level-1 record on first use.
	// With forUpdate the row is locked for the rest of the transaction where the dialect supports it.
	GetOrCreate(dbc dbctx.Context, userID uuid.UUID, forUpdate bool) (*types.UserProgress, error)
	// UpdateVersioned writes row if its Version still matches the stored one and
	// bumps Version; a mismatch is ErrConcurrencyConflict.
	UpdateVersioned(dbc dbctx.Context, row *types.UserProgress) error
}

type userProgressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserProgressRepo(db *gorm.DB, baseLog *logger.Logger) UserProgressRepo {
	return &userProgressRepo{db: db, log: baseLog.With("repo", "UserProgressRepo")}
}

func (r *userProgressRepo) Get(dbc dbctx.Context, userID uuid.UUID) (*types.UserProgress, error) {
	if userID == uuid.Nil {
		return nil, nil
	}
	var row types.UserProgress
	err := dbc.DB(r.db).Where("user_id = ?", userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userProgressRepo) GetOrCreate(dbc dbctx.Context, userID uuid.UUID, forUpdate bool) (*types.UserProgress, error) {
	if userID == uuid.Nil {
		return nil, sferrors.InvalidArgument("get progress", "user id required")
	}
	t := dbc.DB(r.db)
	if err := t.Clauses(clause.OnConflict{DoNothing: true}).
		Create(domprogress.NewUserProgress(userID)).Error; err != nil {
		return nil, err
	}

	q := t.Where("user_id = ?", userID)
	if forUpdate && t.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.UserProgress
	if err := q.Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *userProgressRepo) UpdateVersioned(dbc dbctx.Context, row *types.UserProgress) error {
	if row == nil || row.UserID == uuid.Nil {
		return sferrors.InvalidArgument("update progress", "row with user id required")
	}
	now := time.Now().UTC()
	res := dbc.DB(r.db).
		Model(&types.UserProgress{}).
		Where("user_id = ? AND version = ?", row.UserID, row.Version).
		Updates(map[string]interface{}{
			"current_streak":   row.CurrentStreak,
			"best_streak":      row.BestStreak,
			"last_activity_at": row.LastActivityAt,
			"xp":               row.XP,
			"level":            row.Level,
			"coins":            row.Coins,
			"version":          row.Version + 1,
			"updated_at":       now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		r.log.Warn("Progress version mismatch", "user_id", row.UserID, "version", row.Version)
		return sferrors.Conflict("update progress", errors.New("version mismatch"))
	}
	row.Version++
	row.UpdatedAt = now
	return nil
}
