package app

import (
	"errors"
	"strings"
	"time"

	"github.com/yungbote/skillforge-backend/internal/pkg/envutil"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
	"github.com/yungbote/skillforge-backend/internal/platform/lock"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type Config struct {
	Port           string
	Environment    string
	Version        string
	JWTSecretKey   string
	AllowedOrigins []string

	MaxPhotoBytes        int64
	StorageWriteTimeout  time.Duration
	StorageWriteAttempts int

	// RedisAddr switches per-user locks from in-process to Redis.
	RedisAddr       string
	UserLockTTL     time.Duration
	UserLockWait    time.Duration
	ConflictRetries int

	// CatalogPath overrides the embedded achievement catalog.
	CatalogPath string
}

func LoadConfig(log *logger.Logger) (Config, error) {
	photoDefaults := services.DefaultPhotoServiceConfig()
	cfg := Config{
		Port:                 envutil.String("PORT", "8080"),
		Environment:          envutil.String("APP_ENV", "development"),
		Version:              envutil.String("APP_VERSION", "dev"),
		JWTSecretKey:         envutil.String("JWT_SECRET_KEY", ""),
		MaxPhotoBytes:        envutil.Int64("MAX_PHOTO_BYTES", photoDefaults.MaxBytes),
		StorageWriteTimeout:  envutil.Duration("STORAGE_WRITE_TIMEOUT", photoDefaults.WriteTimeout),
		StorageWriteAttempts: envutil.Int("STORAGE_WRITE_ATTEMPTS", photoDefaults.WriteAttempts),
		RedisAddr:            envutil.String("REDIS_ADDR", ""),
		UserLockTTL:          envutil.Duration("USER_LOCK_TTL", lock.DefaultTTL),
		UserLockWait:         envutil.Duration("USER_LOCK_WAIT", lock.DefaultWait),
		ConflictRetries:      envutil.Int("ACTIVITY_CONFLICT_RETRIES", 3),
		CatalogPath:          envutil.String("ACHIEVEMENT_CATALOG_PATH", ""),
	}
	for _, o := range strings.Split(envutil.String("CORS_ALLOWED_ORIGINS", ""), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}
	if cfg.JWTSecretKey == "" {
		return cfg, errors.New("JWT_SECRET_KEY is required")
	}
	if cfg.MaxPhotoBytes <= 0 {
		log.Warn("MAX_PHOTO_BYTES must be positive; using default", "value", cfg.MaxPhotoBytes)
		cfg.MaxPhotoBytes = photoDefaults.MaxBytes
	}
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	return cfg, nil
}
