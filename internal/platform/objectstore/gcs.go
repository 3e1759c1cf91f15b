package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

type gcsStore struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewGCSStore(ctx context.Context, log *logger.Logger, cfg Config) (Store, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Mode == ModeLocal {
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
	client, err := newStorageClientForMode(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	l := log.With("service", "GCSObjectStore")
	l.Info(
		"Object storage initialized",
		"mode", cfg.Mode,
		"mode_source", cfg.ModeSource(),
		"emulator_host", cfg.EmulatorHost,
		"bucket", cfg.Bucket,
	)
	return &gcsStore{log: l, client: client, bucket: cfg.Bucket}, nil
}

func newStorageClientForMode(ctx context.Context, cfg Config) (*storage.Client, error) {
	switch cfg.Mode {
	case ModeGCS:
		opts := ClientOptionsFromEnv()
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
		return storage.NewClient(ctx, opts...)
	case ModeGCSEmulator:
		endpoint := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/")
		// The client library routes to the emulator through this variable.
		_ = os.Setenv("STORAGE_EMULATOR_HOST", endpoint)
		return storage.NewClient(ctx, option.WithoutAuthentication())
	default:
		return nil, &ConfigError{Code: ConfigErrorInvalidMode, Mode: string(cfg.Mode)}
	}
}

func ClientOptionsFromEnv() []option.ClientOption {
	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS_JSON"))
	if creds == "" {
		creds = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if creds == "" {
		return nil
	}
	if strings.HasPrefix(creds, "{") {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(creds))}
	}
	return []option.ClientOption{option.WithCredentialsFile(creds)}
}

func (s *gcsStore) object(key string) (*storage.ObjectHandle, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	return s.client.Bucket(s.bucket).Object(k), nil
}

func (s *gcsStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	o, err := s.object(key)
	if err != nil {
		return err
	}
	w := o.NewWriter(ctx)
	if contentType == "" {
		contentType = ContentTypeForKey(key)
	}
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return nil
}

// readCloserWithCancel ties the reader's context lifetime to Close.
type readCloserWithCancel struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (r *readCloserWithCancel) Close() error {
	err := r.ReadCloser.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

func (s *gcsStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	o, err := s.object(key)
	if err != nil {
		return nil, err
	}
	ctx2, cancel := context.WithCancel(ctx)
	r, err := o.NewReader(ctx2)
	if err != nil {
		cancel()
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open GCS reader: %w", err)
	}
	return &readCloserWithCancel{ReadCloser: r, cancel: cancel}, nil
}

func (s *gcsStore) Delete(ctx context.Context, key string) error {
	o, err := s.object(key)
	if err != nil {
		return err
	}
	if err := o.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("failed to delete GCS object %q in bucket %q: %w", key, s.bucket, err)
	}
	return nil
}

func (s *gcsStore) Exists(ctx context.Context, key string) (bool, error) {
	o, err := s.object(key)
	if err != nil {
		return false, err
	}
	if _, err := o.Attrs(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to fetch GCS object attrs: %w", err)
	}
	return true, nil
}
