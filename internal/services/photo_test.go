package services

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
	"github.com/yungbote/skillforge-backend/internal/platform/objectstore"
)

func photoFiles(t *testing.T, f *fixture) []string {
	t.Helper()
	entries, err := os.ReadDir(filepath.Join(f.root, "photos"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		if !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	return names
}

func TestPhotoStoreNew(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()

	out, err := f.photos.Store(ctx, owner, pngBytes(t, 1), types.TaskMetadata{Name: "scales"})
	require.NoError(t, err)
	assert.False(t, out.Duplicate)

	p := out.Photo
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, owner, p.OwnerID)
	assert.True(t, strings.HasPrefix(p.Filename, owner.String()+"_"), "filename %q", p.Filename)
	assert.True(t, strings.HasSuffix(p.Filename, ".png"), "filename %q", p.Filename)
	assert.Equal(t, types.PhotoPublicPrefix+p.Filename, p.StoragePath)
	assert.Equal(t, "image/png", p.ContentType)
	assert.Equal(t, "scales", p.TaskName)
	assert.Equal(t, types.DefaultTaskCategory, p.TaskCategory)
	assert.Equal(t, types.DefaultTaskPriority, p.TaskPriority)
	assert.Len(t, p.ContentHash, 64)

	assert.Equal(t, []string{p.Filename}, photoFiles(t, f))
}

func TestPhotoStoreDeduplicatesAcrossEncodings(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()
	raw := pngBytes(t, 2)

	first, err := f.photos.Store(ctx, owner, raw, types.TaskMetadata{})
	require.NoError(t, err)

	b64 := base64.StdEncoding.EncodeToString(raw)
	for _, in := range [][]byte{raw, []byte(b64), []byte("data:image/png;base64," + b64)} {
		again, err := f.photos.Store(ctx, owner, in, types.TaskMetadata{Name: "ignored"})
		require.NoError(t, err)
		assert.True(t, again.Duplicate)
		assert.Equal(t, first.Photo.ID, again.Photo.ID)
		assert.Equal(t, first.Photo.StoragePath, again.Photo.StoragePath)
	}

	n, err := f.photos.CountByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Len(t, photoFiles(t, f), 1)

	// Same bytes from another owner are a separate photo.
	other, err := f.photos.Store(ctx, uuid.New(), raw, types.TaskMetadata{})
	require.NoError(t, err)
	assert.False(t, other.Duplicate)
	assert.NotEqual(t, first.Photo.ID, other.Photo.ID)
	assert.Len(t, photoFiles(t, f), 2)
}

func TestPhotoStoreConcurrentSameContent(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()
	raw := pngBytes(t, 3)

	const n = 10
	ids := make([]uuid.UUID, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := f.photos.Store(ctx, owner, raw, types.TaskMetadata{})
			errs[i] = err
			if err == nil {
				ids[i] = out.Photo.ID
			}
		}(i)
	}
	wg.Wait()
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	count, err := f.photos.CountByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Len(t, photoFiles(t, f), 1)
}

func TestPhotoStoreRejectsInvalidInput(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	for name, in := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("%%% not an image %%%"),
	} {
		_, err := f.photos.Store(ctx, uuid.New(), in, types.TaskMetadata{})
		assert.True(t, errors.Is(err, sferrors.ErrValidation), "%s: %v", name, err)
	}
	_, err := f.photos.Store(ctx, uuid.Nil, pngBytes(t, 4), types.TaskMetadata{})
	assert.True(t, errors.Is(err, sferrors.ErrInvalidArgument), "nil owner: %v", err)
	assert.Empty(t, photoFiles(t, f))
}

type failingStore struct {
	objectstore.Store
	puts atomic.Int32
}

func (s *failingStore) Put(ctx context.Context, key string, r io.Reader, contentType string) error {
	s.puts.Add(1)
	return errors.New("disk full")
}

func TestPhotoStoreWriteFailure(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()

	store := &failingStore{Store: f.store}
	svc := NewPhotoService(f.log, f.photoRepo, store, PhotoServiceConfig{WriteAttempts: 3, RetryBase: 1, RetryMax: 1})

	_, err := svc.Store(ctx, owner, pngBytes(t, 5), types.TaskMetadata{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sferrors.ErrStorage), "want storage error got %v", err)
	assert.True(t, sferrors.IsRetryable(err))
	assert.Equal(t, int32(3), store.puts.Load())

	n, err := svc.CountByOwner(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "failed write must not leave metadata")
}

func TestPhotoDeleteByOwnerAndID(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()

	out, err := f.photos.Store(ctx, owner, pngBytes(t, 6), types.TaskMetadata{})
	require.NoError(t, err)
	id := out.Photo.ID

	ok, err := f.photos.DeleteByOwnerAndID(ctx, intruder, id)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, photoFiles(t, f), 1)

	ok, err = f.photos.DeleteByOwnerAndID(ctx, owner, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.photos.DeleteByOwnerAndID(ctx, owner, id)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, photoFiles(t, f))

	ok, err = f.photos.DeleteByOwnerAndID(ctx, owner, id)
	require.NoError(t, err)
	assert.False(t, ok)

	// The content can be stored again after deletion.
	again, err := f.photos.Store(ctx, owner, pngBytes(t, 6), types.TaskMetadata{})
	require.NoError(t, err)
	assert.False(t, again.Duplicate)
}

func TestPhotoListAndOpen(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	owner := uuid.New()

	raw := pngBytes(t, 7)
	stored, err := f.photos.Store(ctx, owner, raw, types.TaskMetadata{})
	require.NoError(t, err)
	_, err = f.photos.Store(ctx, owner, pngBytes(t, 8), types.TaskMetadata{})
	require.NoError(t, err)
	_, err = f.photos.Store(ctx, uuid.New(), pngBytes(t, 9), types.TaskMetadata{})
	require.NoError(t, err)

	list, err := f.photos.ListByOwner(ctx, owner, 10, 0)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, p := range list {
		assert.Equal(t, owner, p.OwnerID)
	}

	rc, row, err := f.photos.Open(ctx, stored.Photo.Filename)
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
	assert.Equal(t, stored.Photo.ID, row.ID)

	_, _, err = f.photos.Open(ctx, "missing.png")
	assert.True(t, errors.Is(err, sferrors.ErrNotFound), "want not found got %v", err)
}
