package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/pkg/dbctx"
	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
	"github.com/yungbote/skillforge-backend/internal/pkg/retry"
	"github.com/yungbote/skillforge-backend/internal/platform/objectstore"
)

const photoKeyPrefix = "photos/"

type PhotoService interface {
	// Store saves raw (data URL, base64 or binary) for ownerID. Identical
	// content already stored by the same owner returns the existing photo.
	Store(ctx context.Context, ownerID uuid.UUID, raw []byte, meta types.TaskMetadata) (*StoredPhoto, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*types.Photo, error)
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	// DeleteByOwnerAndID reports false when the photo is missing or belongs
	// to someone else.
	DeleteByOwnerAndID(ctx context.Context, ownerID, photoID uuid.UUID) (bool, error)
	Open(ctx context.Context, filename string) (io.ReadCloser, *types.Photo, error)
}

type StoredPhoto struct {
	Photo     *types.Photo `json:"photo"`
	Duplicate bool         `json:"duplicate"`
}

type PhotoServiceConfig struct {
	MaxBytes      int64
	WriteTimeout  time.Duration
	WriteAttempts int
	RetryBase     time.Duration
	RetryMax      time.Duration
}

func DefaultPhotoServiceConfig() PhotoServiceConfig {
	return PhotoServiceConfig{
		MaxBytes:      10 << 20,
		WriteTimeout:  30 * time.Second,
		WriteAttempts: 3,
		RetryBase:     200 * time.Millisecond,
		RetryMax:      2 * time.Second,
	}
}

type photoService struct {
	log       *logger.Logger
	photoRepo repos.PhotoRepo
	store     objectstore.Store
	cfg       PhotoServiceConfig
	inflight  singleflight.Group
}

func NewPhotoService(log *logger.Logger, photoRepo repos.PhotoRepo, store objectstore.Store, cfg PhotoServiceConfig) PhotoService {
	def := DefaultPhotoServiceConfig()
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.WriteAttempts <= 0 {
		cfg.WriteAttempts = def.WriteAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = def.RetryBase
	}
	if cfg.RetryMax <= 0 {
		cfg.RetryMax = def.RetryMax
	}
	return &photoService{
		log:       log.With("service", "PhotoService"),
		photoRepo: photoRepo,
		store:     store,
		cfg:       cfg,
	}
}

func (s *photoService) Store(ctx context.Context, ownerID uuid.UUID, raw []byte, meta types.TaskMetadata) (out *StoredPhoto, err error) {
	ctx, span := observability.StartSpan(ctx, "PhotoService.Store")
	defer func() { observability.EndSpan(span, err) }()

	if ownerID == uuid.Nil {
		return nil, sferrors.InvalidArgument("store photo", "owner id required")
	}
	img, err := NormalizeImage(raw, s.cfg.MaxBytes)
	if err != nil {
		return nil, err
	}
	hash := img.Hash()
	span.SetAttributes(attribute.String("photo.format", img.Format), attribute.Int("photo.bytes", len(img.Bytes)))

	// Callers sharing a flight must not be failed by the first caller's cancellation.
	v, err, _ := s.inflight.Do(ownerID.String()+":"+hash, func() (interface{}, error) {
		return s.storeOnce(context.WithoutCancel(ctx), ownerID, img, hash, meta)
	})
	if err != nil {
		return nil, err
	}
	res := v.(*StoredPhoto)
	photo := *res.Photo
	observability.Current().IncPhotoStored(res.Duplicate)
	return &StoredPhoto{Photo: &photo, Duplicate: res.Duplicate}, nil
}

func (s *photoService) storeOnce(ctx context.Context, ownerID uuid.UUID, img *ImageData, hash string, meta types.TaskMetadata) (*StoredPhoto, error) {
	dbc := dbctx.Context{Ctx: ctx}
	existing, err := s.photoRepo.GetByOwnerAndHash(dbc, ownerID, hash)
	if err != nil {
		return nil, fmt.Errorf("lookup photo by hash: %w", err)
	}
	if existing != nil {
		s.log.Debug("Duplicate photo", "owner_id", ownerID, "photo_id", existing.ID)
		return &StoredPhoto{Photo: existing, Duplicate: true}, nil
	}

	filename := fmt.Sprintf("%s_%s%s", ownerID, uuid.New(), img.Ext)
	key := photoKeyPrefix + filename
	if err := s.writeBytes(ctx, key, img); err != nil {
		observability.Current().IncPhotoStoreFailure()
		s.log.Error("Photo write failed", "owner_id", ownerID, "key", key, "error", err)
		return nil, sferrors.Storage("store photo", err)
	}

	row := &types.Photo{
		OwnerID:      ownerID,
		ContentHash:  hash,
		Filename:     filename,
		StorageKey:   key,
		StoragePath:  types.PhotoPublicPrefix + filename,
		ContentType:  img.ContentType,
		SizeBytes:    int64(len(img.Bytes)),
		TaskName:     meta.Name,
		TaskCategory: meta.Category,
		TaskPriority: meta.Priority,
	}
	if len(meta.Extra) > 0 {
		b, err := json.Marshal(meta.Extra)
		if err != nil {
			s.discard(key)
			return nil, sferrors.Validation("store photo", "metadata extra is not JSON: %v", err)
		}
		row.Extra = datatypes.JSON(b)
	}

	created, err := s.photoRepo.CreateIfAbsent(dbc, row)
	if err != nil {
		s.discard(key)
		return nil, fmt.Errorf("persist photo metadata: %w", err)
	}
	if !created {
		// Another process stored the same content between our lookup and insert.
		s.discard(key)
		winner, err := s.photoRepo.GetByOwnerAndHash(dbc, ownerID, hash)
		if err != nil {
			return nil, fmt.Errorf("lookup photo by hash: %w", err)
		}
		if winner == nil {
			return nil, sferrors.Conflict("store photo", errors.New("deduplicated photo vanished"))
		}
		return &StoredPhoto{Photo: winner, Duplicate: true}, nil
	}
	s.log.Info("Photo stored", "owner_id", ownerID, "photo_id", row.ID, "bytes", row.SizeBytes)
	return &StoredPhoto{Photo: row}, nil
}

func (s *photoService) writeBytes(ctx context.Context, key string, img *ImageData) error {
	policy := retry.Policy{Attempts: s.cfg.WriteAttempts, Base: s.cfg.RetryBase, Max: s.cfg.RetryMax}
	retryable := func(err error) bool {
		return ctx.Err() == nil && !errors.Is(err, context.Canceled)
	}
	return retry.Do(ctx, policy, retryable, func(attempt int) error {
		wctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
		defer cancel()
		err := s.store.Put(wctx, key, bytes.NewReader(img.Bytes), img.ContentType)
		if err != nil {
			s.log.Warn("Photo write attempt failed", "key", key, "attempt", attempt, "error", err)
		}
		return err
	})
}

func (s *photoService) discard(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn("Failed to discard orphaned photo bytes", "key", key, "error", err)
	}
}

func (s *photoService) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]*types.Photo, error) {
	if ownerID == uuid.Nil {
		return nil, sferrors.InvalidArgument("list photos", "owner id required")
	}
	return s.photoRepo.ListByOwner(dbctx.Context{Ctx: ctx}, ownerID, limit, offset)
}

func (s *photoService) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	return s.photoRepo.CountByOwner(dbctx.Context{Ctx: ctx}, ownerID)
}

func (s *photoService) DeleteByOwnerAndID(ctx context.Context, ownerID, photoID uuid.UUID) (bool, error) {
	if ownerID == uuid.Nil || photoID == uuid.Nil {
		return false, nil
	}
	dbc := dbctx.Context{Ctx: ctx}
	row, err := s.photoRepo.GetByID(dbc, photoID)
	if err != nil {
		return false, fmt.Errorf("lookup photo: %w", err)
	}
	if row == nil {
		return false, nil
	}
	if row.OwnerID != ownerID {
		perr := sferrors.Permission("delete photo", "photo %s is not owned by requester", photoID)
		s.log.Warn("Photo delete refused", "owner_id", ownerID, "photo_id", photoID, "error", perr)
		return false, nil
	}

	deleted, err := s.photoRepo.Delete(dbc, ownerID, photoID)
	if err != nil {
		return false, fmt.Errorf("delete photo metadata: %w", err)
	}
	if !deleted {
		return false, nil
	}
	// Filenames are unique per row, so no other metadata references these bytes.
	if err := s.store.Delete(ctx, row.StorageKey); err != nil {
		s.log.Warn("Photo bytes not removed", "photo_id", photoID, "key", row.StorageKey, "error", err)
	}
	s.log.Info("Photo deleted", "owner_id", ownerID, "photo_id", photoID)
	return true, nil
}

func (s *photoService) Open(ctx context.Context, filename string) (io.ReadCloser, *types.Photo, error) {
	row, err := s.photoRepo.GetByFilename(dbctx.Context{Ctx: ctx}, filename)
	if err != nil {
		return nil, nil, fmt.Errorf("lookup photo: %w", err)
	}
	if row == nil {
		return nil, nil, sferrors.New(sferrors.ErrNotFound, "open photo", nil)
	}
	rc, err := s.store.Open(ctx, row.StorageKey)
	if errors.Is(err, objectstore.ErrObjectNotFound) {
		return nil, nil, sferrors.New(sferrors.ErrNotFound, "open photo", err)
	}
	if err != nil {
		return nil, nil, sferrors.Storage("open photo", err)
	}
	return rc, row, nil
}
