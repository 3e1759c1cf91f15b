package practice

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

type PhotoRepo interface {
	// CreateIfAbsent inserts row unless the owner already has a photo with the
	// same content hash. It reports whether a row was inserted.
	CreateIfAbsent(dbc dbctx.Context, row *types.Photo) (bool, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Photo, error)
	GetByOwnerAndHash(dbc dbctx.Context, ownerID uuid.UUID, hash string) (*types.Photo, error)
	GetByFilename(dbc dbctx.Context, filename string) (*types.Photo, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, limit, offset int) ([]*types.Photo, error)
	CountByOwner(dbc dbctx.Context, ownerID uuid.UUID) (int64, error)
	Delete(dbc dbctx.Context, ownerID, id uuid.UUID) (bool, error)
}

type photoRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPhotoRepo(db *gorm.DB, baseLog *logger.Logger) PhotoRepo {
	return &photoRepo{db: db, log: baseLog.With("repo", "PhotoRepo")}
}

func (r *photoRepo) CreateIfAbsent(dbc dbctx.Context, row *types.Photo) (bool, error) {
	if row == nil {
		return false, nil
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "owner_id"}, {Name: "content_hash"}},
			DoNothing: true,
		}).
		Create(row)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *photoRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Photo, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	return r.take(dbc.DB(r.db).Where("id = ?", id))
}

func (r *photoRepo) GetByOwnerAndHash(dbc dbctx.Context, ownerID uuid.UUID, hash string) (*types.Photo, error) {
	if ownerID == uuid.Nil || hash == "" {
		return nil, nil
	}
	return r.take(dbc.DB(r.db).Where("owner_id = ? AND content_hash = ?", ownerID, hash))
}

func (r *photoRepo) GetByFilename(dbc dbctx.Context, filename string) (*types.Photo, error) {
	if filename == "" {
		return nil, nil
	}
	return r.take(dbc.DB(r.db).Where("filename = ?", filename))
}

func (r *photoRepo) take(q *gorm.DB) (*types.Photo, error) {
	var row types.Photo
	err := q.Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *photoRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, limit, offset int) ([]*types.Photo, error) {
	var out []*types.Photo
	if ownerID == uuid.Nil {
		return out, nil
	}
	q := dbc.DB(r.db).Where("owner_id = ?", ownerID).Order("created_at DESC, id ASC")
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

func (r *photoRepo) CountByOwner(dbc dbctx.Context, ownerID uuid.UUID) (int64, error) {
	var n int64
	if ownerID == uuid.Nil {
		return 0, nil
	}
	if err := dbc.DB(r.db).Model(&types.Photo{}).Where("owner_id = ?", ownerID).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *photoRepo) Delete(dbc dbctx.Context, ownerID, id uuid.UUID) (bool, error) {
	if ownerID == uuid.Nil || id == uuid.Nil {
		return false, nil
	}
	res := dbc.DB(r.db).Where("owner_id = ? AND id = ?", ownerID, id).Delete(&types.Photo{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
