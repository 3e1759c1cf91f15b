package practice

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

// SessionTotals aggregates a user's practice history.
type SessionTotals struct {
	Sessions int64   `json:"sessions"`
	Minutes  float64 `json:"minutes"`
}

type PracticeSessionRepo interface {
	Create(dbc dbctx.Context, row *types.PracticeSession) error
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*types.PracticeSession, error)
	Totals(dbc dbctx.Context, userID uuid.UUID) (SessionTotals, error)
}

type practiceSessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPracticeSessionRepo(db *gorm.DB, baseLog *logger.Logger) PracticeSessionRepo {
	return &practiceSessionRepo{db: db, log: baseLog.With("repo", "PracticeSessionRepo")}
}

func (r *practiceSessionRepo) Create(dbc dbctx.Context, row *types.PracticeSession) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *practiceSessionRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit, offset int) ([]*types.PracticeSession, error) {
	var out []*types.PracticeSession
	if userID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).Where("user_id = ?", userID).Order("ended_at DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *practiceSessionRepo) Totals(dbc dbctx.Context, userID uuid.UUID) (SessionTotals, error) {
	var out SessionTotals
	if userID == uuid.Nil {
		return out, nil
	}
	err := dbc.DB(r.db).
		Model(&types.PracticeSession{}).
		Select("COUNT(*) AS sessions, COALESCE(SUM(duration_minutes), 0) AS minutes").
		Where("user_id = ?", userID).
		Scan(&out).Error
	return out, err
}
