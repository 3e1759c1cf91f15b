package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

var ErrObjectNotFound = errors.New("object not found")

// Store keeps opaque blobs under slash-separated keys.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

func New(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("validate object storage config: %w", err)
	}
	switch cfg.Mode {
	case ModeLocal:
		return NewLocalStore(log, cfg.LocalDir)
	default:
		return NewGCSStore(ctx, log, cfg)
	}
}

// CleanKey rejects keys that could escape the store root.
func CleanKey(key string) (string, error) {
	k := strings.Trim(strings.TrimSpace(key), "/")
	if k == "" {
		return "", fmt.Errorf("empty object key")
	}
	for _, part := range strings.Split(k, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("invalid object key %q", key)
		}
		if strings.ContainsAny(part, "\\\x00") {
			return "", fmt.Errorf("invalid object key %q", key)
		}
	}
	return k, nil
}

func ContentTypeForKey(key string) string {
	s := strings.ToLower(strings.TrimSpace(key))
	if i := strings.Index(s, "?"); i >= 0 {
		s = s[:i]
	}
	switch {
	case strings.HasSuffix(s, ".png"):
		return "image/png"
	case strings.HasSuffix(s, ".jpg"), strings.HasSuffix(s, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(s, ".webp"):
		return "image/webp"
	case strings.HasSuffix(s, ".gif"):
		return "image/gif"
	default:
		return ""
	}
}
