package services

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	"github.com/yungbote/skillforge-backend/internal/data/repos/testutil"
	"github.com/yungbote/skillforge-backend/internal/gamification"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
	"github.com/yungbote/skillforge-backend/internal/platform/lock"
	"github.com/yungbote/skillforge-backend/internal/platform/objectstore"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	db           *gorm.DB
	log          *logger.Logger
	root         string
	store        objectstore.Store
	clock        *fakeClock
	progressRepo repos.UserProgressRepo
	earnedRepo   repos.EarnedAchievementRepo
	eventRepo    repos.ActivityEventRepo
	photoRepo    repos.PhotoRepo
	sessionRepo  repos.PracticeSessionRepo
	photos       PhotoService
	progress     ProgressService
	practice     PracticeService
}

// unreachableCatalog keeps achievement XP out of tests that assert exact totals.
func unreachableCatalog() gamification.Catalog {
	return gamification.Catalog{{ID: "never", Title: "Never", Type: gamification.AchievementSession, Requirement: 1e9}}
}

func newFixture(t *testing.T, catalog gamification.Catalog) *fixture {
	t.Helper()
	db := testutil.SQLite(t)
	log := logger.Nop()
	root := t.TempDir()
	store, err := objectstore.NewLocalStore(log, root)
	require.NoError(t, err)

	f := &fixture{
		db:           db,
		log:          log,
		root:         root,
		store:        store,
		clock:        newFakeClock(),
		progressRepo: repos.NewUserProgressRepo(db, log),
		earnedRepo:   repos.NewEarnedAchievementRepo(db, log),
		eventRepo:    repos.NewActivityEventRepo(db, log),
		photoRepo:    repos.NewPhotoRepo(db, log),
		sessionRepo:  repos.NewPracticeSessionRepo(db, log),
	}
	f.photos = NewPhotoService(log, f.photoRepo, store, PhotoServiceConfig{
		MaxBytes:      1 << 20,
		WriteAttempts: 2,
		RetryBase:     time.Millisecond,
		RetryMax:      time.Millisecond,
	})
	f.progress = f.newProgress(catalog, f.progressRepo, 2)
	f.practice = NewPracticeService(log, f.sessionRepo, f.photos, f.progress, f.clock.Now)
	return f
}

func (f *fixture) newProgress(catalog gamification.Catalog, progressRepo repos.UserProgressRepo, retries int) ProgressService {
	return NewProgressService(
		f.db, f.log,
		progressRepo, f.earnedRepo, f.eventRepo, f.photoRepo, f.sessionRepo,
		lock.NewLocal(5*time.Second),
		catalog,
		ProgressServiceConfig{ConflictRetries: retries, Now: f.clock.Now},
	)
}

// pngBytes encodes a tiny solid image; distinct shades give distinct hashes.
func pngBytes(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			img.Set(x, y, color.RGBA{R: shade, G: 64, B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
