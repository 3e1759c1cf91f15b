package app

import (
	"context"
	"fmt"
	"os"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/skillforge-backend/internal/gamification"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
	"github.com/yungbote/skillforge-backend/internal/platform/lock"
	"github.com/yungbote/skillforge-backend/internal/platform/objectstore"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	Photos   services.PhotoService
	Progress services.ProgressService
	Practice services.PracticeService

	redis *goredis.Client
}

func (s Services) Close() {
	if s.redis != nil {
		_ = s.redis.Close()
	}
}

func wireServices(ctx context.Context, db *gorm.DB, log *logger.Logger, cfg Config, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	auth, err := services.NewAuthService(log, cfg.JWTSecretKey)
	if err != nil {
		return Services{}, fmt.Errorf("init auth service: %w", err)
	}

	storeCfg, err := objectstore.ResolveConfigFromEnv()
	if err != nil {
		return Services{}, classifyStorageProviderBootstrapError(storeCfg, err)
	}
	store, err := resolveObjectStore(ctx, log, storeCfg)
	if err != nil {
		return Services{}, err
	}

	catalog, err := loadCatalog(cfg.CatalogPath)
	if err != nil {
		return Services{}, err
	}
	log.Info("Achievement catalog loaded", "entries", len(catalog), "path", cfg.CatalogPath)

	locker, rdb, err := resolveLocker(ctx, log, cfg)
	if err != nil {
		return Services{}, err
	}

	photos := services.NewPhotoService(log, reposet.Photo, store, services.PhotoServiceConfig{
		MaxBytes:      cfg.MaxPhotoBytes,
		WriteTimeout:  cfg.StorageWriteTimeout,
		WriteAttempts: cfg.StorageWriteAttempts,
	})
	progress := services.NewProgressService(
		db, log,
		reposet.UserProgress,
		reposet.EarnedAchievement,
		reposet.ActivityEvent,
		reposet.Photo,
		reposet.PracticeSession,
		locker,
		catalog,
		services.ProgressServiceConfig{ConflictRetries: cfg.ConflictRetries},
	)
	practice := services.NewPracticeService(log, reposet.PracticeSession, photos, progress, nil)

	return Services{
		Auth:     auth,
		Photos:   photos,
		Progress: progress,
		Practice: practice,
		redis:    rdb,
	}, nil
}

func resolveLocker(ctx context.Context, log *logger.Logger, cfg Config) (lock.Locker, *goredis.Client, error) {
	if cfg.RedisAddr == "" {
		log.Info("Using in-process user locks")
		return lock.NewLocal(cfg.UserLockWait), nil, nil
	}
	rdb, err := lock.Dial(ctx, cfg.RedisAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("connect redis for user locks: %w", err)
	}
	log.Info("Using Redis user locks", "addr", cfg.RedisAddr, "ttl", cfg.UserLockTTL)
	return lock.NewRedis(log, rdb, lock.RedisOptions{TTL: cfg.UserLockTTL, Wait: cfg.UserLockWait}), rdb, nil
}

func loadCatalog(path string) (gamification.Catalog, error) {
	if path == "" {
		return gamification.DefaultCatalog(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open achievement catalog: %w", err)
	}
	defer f.Close()
	catalog, err := gamification.LoadCatalog(f)
	if err != nil {
		return nil, fmt.Errorf("load achievement catalog %s: %w", path, err)
	}
	return catalog, nil
}
