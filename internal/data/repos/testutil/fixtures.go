package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/skillforge-backend/internal/domain"
)

func SeedProgress(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, streak, xp, level int) *types.UserProgress {
	tb.Helper()
	last := time.Now().UTC().Add(-25 * time.Hour)
	p := &types.UserProgress{
		UserID:         userID,
		CurrentStreak:  streak,
		BestStreak:     streak,
		LastActivityAt: &last,
		XP:             xp,
		Level:          level,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed progress: %v", err)
	}
	return p
}

func SeedPhoto(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, hash string) *types.Photo {
	tb.Helper()
	p := &types.Photo{
		OwnerID:     ownerID,
		ContentHash: hash,
		Filename:    ownerID.String() + "_" + uuid.NewString() + ".jpg",
		ContentType: "image/jpeg",
		SizeBytes:   3,
	}
	p.StorageKey = "photos/" + p.Filename
	p.StoragePath = types.PhotoPublicPrefix + p.Filename
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed photo: %v", err)
	}
	return p
}

func SeedSession(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, minutes float64) *types.PracticeSession {
	tb.Helper()
	end := time.Now().UTC()
	s := &types.PracticeSession{
		UserID:          userID,
		Skill:           "scales",
		DurationMinutes: minutes,
		StartedAt:       end.Add(-time.Duration(minutes * float64(time.Minute))),
		EndedAt:         end,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed session: %v", err)
	}
	return s
}
