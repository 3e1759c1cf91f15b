package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
	"github.com/yungbote/skillforge-backend/internal/platform/objectstore"
)

var newObjectStore = objectstore.New

type StorageProviderBootstrapErrorCode string

const (
	StorageProviderBootstrapErrorInvalidMode         StorageProviderBootstrapErrorCode = "invalid_mode"
	StorageProviderBootstrapErrorMissingBucket       StorageProviderBootstrapErrorCode = "missing_bucket"
	StorageProviderBootstrapErrorMissingEmulatorHost StorageProviderBootstrapErrorCode = "missing_emulator_host"
	StorageProviderBootstrapErrorInvalidEmulatorHost StorageProviderBootstrapErrorCode = "invalid_emulator_host"
	StorageProviderBootstrapErrorConnectFailed       StorageProviderBootstrapErrorCode = "connect_failed"
)

type StorageProviderBootstrapError struct {
	Code         StorageProviderBootstrapErrorCode
	Mode         string
	EmulatorHost string
	Cause        error
}

func (e *StorageProviderBootstrapError) Error() string {
	if e == nil {
		return "object storage bootstrap failed"
	}
	return fmt.Sprintf(
		"object storage bootstrap failed (code=%s mode=%q emulator_host=%q): %v",
		e.Code,
		e.Mode,
		e.EmulatorHost,
		e.Cause,
	)
}

func (e *StorageProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

func resolveObjectStore(ctx context.Context, log *logger.Logger, storeCfg objectstore.Config) (objectstore.Store, error) {
	modeSource := storeCfg.ModeSource()
	log.Info(
		"Selecting photo object store",
		"mode", storeCfg.Mode,
		"mode_source", modeSource,
		"compatibility_fallback", storeCfg.CompatibilityFallback,
		"local_dir", storeCfg.LocalDir,
		"bucket", storeCfg.Bucket,
		"emulator_host", storeCfg.EmulatorHost,
	)

	store, err := newObjectStore(ctx, log, storeCfg)
	if err != nil {
		classified := classifyStorageProviderBootstrapError(storeCfg, err)
		log.Error(
			"Photo object store bootstrap failed",
			"mode", storeCfg.Mode,
			"mode_source", modeSource,
			"emulator_host", storeCfg.EmulatorHost,
			"error_code", storageProviderBootstrapErrorCode(classified),
			"error", classified,
		)
		return nil, classified
	}
	return store, nil
}

func classifyStorageProviderBootstrapError(storeCfg objectstore.Config, err error) error {
	code := StorageProviderBootstrapErrorConnectFailed
	var cfgErr *objectstore.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case objectstore.ConfigErrorInvalidMode:
			code = StorageProviderBootstrapErrorInvalidMode
		case objectstore.ConfigErrorMissingBucket:
			code = StorageProviderBootstrapErrorMissingBucket
		case objectstore.ConfigErrorMissingEmulatorHost:
			code = StorageProviderBootstrapErrorMissingEmulatorHost
		case objectstore.ConfigErrorInvalidEmulatorHost:
			code = StorageProviderBootstrapErrorInvalidEmulatorHost
		}
	}
	mode := string(storeCfg.Mode)
	if mode == "" && cfgErr != nil {
		mode = cfgErr.Mode
	}
	return &StorageProviderBootstrapError{
		Code:         code,
		Mode:         mode,
		EmulatorHost: storeCfg.EmulatorHost,
		Cause:        err,
	}
}

func storageProviderBootstrapErrorCode(err error) StorageProviderBootstrapErrorCode {
	var bootstrapErr *StorageProviderBootstrapError
	if errors.As(err, &bootstrapErr) {
		if bootstrapErr.Code != "" {
			return bootstrapErr.Code
		}
	}
	return StorageProviderBootstrapErrorConnectFailed
}
