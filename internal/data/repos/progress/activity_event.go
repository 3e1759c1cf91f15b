package progress

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

type ActivityEventRepo interface {
	Create(dbc dbctx.Context, row *types.ActivityEvent) error
	GetByKey(dbc dbctx.Context, userID uuid.UUID, key string) (*types.ActivityEvent, error)
	ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ActivityEvent, error)
}

type activityEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewActivityEventRepo(db *gorm.DB, baseLog *logger.Logger) ActivityEventRepo {
	return &activityEventRepo{db: db, log: baseLog.With("repo", "ActivityEventRepo")}
}

func (r *activityEventRepo) Create(dbc dbctx.Context, row *types.ActivityEvent) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *activityEventRepo) GetByKey(dbc dbctx.Context, userID uuid.UUID, key string) (*types.ActivityEvent, error) {
	if userID == uuid.Nil || key == "" {
		return nil, nil
	}
	var row types.ActivityEvent
	err := dbc.DB(r.db).
		Where("user_id = ? AND idempotency_key = ?", userID, key).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *activityEventRepo) ListByUser(dbc dbctx.Context, userID uuid.UUID, limit int) ([]*types.ActivityEvent, error) {
	var out []*types.ActivityEvent
	if userID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).Where("user_id = ?", userID).Order("occurred_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
