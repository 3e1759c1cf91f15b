package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/gamification"
	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
)

func TestCompleteSessionRewards(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := uuid.New()

	out, err := f.practice.CompleteSession(ctx, user, SessionInput{Skill: " piano ", DurationMinutes: 30})
	require.NoError(t, err)
	act := out.Activity
	require.NotNil(t, act.Session)
	assert.Equal(t, "piano", act.Session.Skill)
	assert.Equal(t, user, act.Session.UserID)
	assert.Equal(t, 6, act.SessionXP)
	assert.Equal(t, 3, act.SessionCoins)
	assert.Equal(t, 10, act.StreakXP)
	assert.Equal(t, gamification.TransitionFirst, act.Transition)
	require.Len(t, act.Achievements, 1)
	assert.Equal(t, "first_steps", act.Achievements[0].AchievementID)

	// 10 + 6 + 100 = 116: level 2 with 16 left; 3 session coins + 10 level coins.
	assert.Equal(t, 2, act.Progress.Level)
	assert.Equal(t, 16, act.Progress.XP)
	assert.Equal(t, 13, act.Progress.Coins)
	assert.Equal(t, 1, act.LevelsGained)

	stats, err := f.practice.Stats(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sessions)
	assert.Equal(t, 30.0, stats.PracticeMinutes)

	sessions, err := f.practice.ListSessions(ctx, user, 10, 0)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, 6, sessions[0].XPEarned)
	assert.Equal(t, types.DefaultTaskCategory, sessions[0].Category)
}

func TestCompleteSessionDurationFromTimes(t *testing.T) {
	f := newFixture(t, unreachableCatalog())
	ctx := context.Background()
	end := f.clock.Now()

	out, err := f.practice.CompleteSession(ctx, uuid.New(), SessionInput{
		Skill:     "chess",
		StartedAt: end.Add(-75 * time.Minute),
		EndedAt:   end,
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, out.Activity.Session.DurationMinutes)
	assert.Equal(t, 15, out.Activity.SessionXP)
	assert.Equal(t, 8, out.Activity.SessionCoins)
}

func TestCompleteSessionWithPhoto(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := uuid.New()

	out, err := f.practice.CompleteSession(ctx, user, SessionInput{Skill: "drawing", DurationMinutes: 20, Photo: pngBytes(t, 40)})
	require.NoError(t, err)
	require.NotNil(t, out.Photo)
	require.NotNil(t, out.Activity.Session.PhotoID)
	assert.Equal(t, out.Photo.Photo.ID, *out.Activity.Session.PhotoID)
	assert.Equal(t, "drawing", out.Photo.Photo.TaskName)

	ids := map[string]bool{}
	for _, e := range out.Activity.Achievements {
		ids[e.AchievementID] = true
	}
	assert.True(t, ids["first_steps"])
	assert.True(t, ids["photography_novice"])
	assert.Equal(t, 1, out.Activity.Progress.Stats.Photos)
}

func TestCompleteSessionValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	now := f.clock.Now()

	cases := map[string]SessionInput{
		"missing skill": {DurationMinutes: 10},
		"negative":      {Skill: "x", DurationMinutes: -5},
		"nan":           {Skill: "x", DurationMinutes: math.NaN()},
		"zero":          {Skill: "x"},
		"too long":      {Skill: "x", DurationMinutes: 24*60 + 1},
		"ends early":    {Skill: "x", StartedAt: now, EndedAt: now.Add(-time.Minute)},
	}
	for name, in := range cases {
		_, err := f.practice.CompleteSession(ctx, uuid.New(), in)
		assert.True(t, errors.Is(err, sferrors.ErrValidation), "%s: %v", name, err)
	}
}

func TestCompleteSessionIdempotent(t *testing.T) {
	f := newFixture(t, unreachableCatalog())
	ctx := context.Background()
	user := uuid.New()

	in := SessionInput{Skill: "violin", DurationMinutes: 45, IdempotencyKey: "session-1"}
	first, err := f.practice.CompleteSession(ctx, user, in)
	require.NoError(t, err)
	again, err := f.practice.CompleteSession(ctx, user, in)
	require.NoError(t, err)
	assert.True(t, again.Activity.Replayed)
	assert.Equal(t, first.Activity.Session.ID, again.Activity.Session.ID)

	stats, err := f.practice.Stats(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Sessions)
}

func TestCapturePhoto(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := uuid.New()
	raw := pngBytes(t, 50)

	out, err := f.practice.CapturePhoto(ctx, user, raw, types.TaskMetadata{Name: "sketch"}, "")
	require.NoError(t, err)
	assert.False(t, out.Photo.Duplicate)
	require.NotNil(t, out.Activity)
	assert.Equal(t, types.ActivitySourcePhoto, out.Activity.Source)
	assert.Equal(t, gamification.TransitionFirst, out.Activity.Transition)
	require.Len(t, out.Activity.Achievements, 1)
	assert.Equal(t, "photography_novice", out.Activity.Achievements[0].AchievementID)

	dup, err := f.practice.CapturePhoto(ctx, user, raw, types.TaskMetadata{}, "")
	require.NoError(t, err)
	assert.True(t, dup.Photo.Duplicate)
	assert.Nil(t, dup.Activity)
	assert.Empty(t, dup.ActivityError)
}

type brokenProgress struct {
	ProgressService
}

func (brokenProgress) RecordActivity(context.Context, uuid.UUID, ActivityInput) (*ActivityOutcome, error) {
	return nil, sferrors.Conflict("record activity", errors.New("lock wait exceeded"))
}

func TestCapturePhotoKeepsPhotoWhenActivityFails(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	user := uuid.New()
	svc := NewPracticeService(f.log, f.sessionRepo, f.photos, brokenProgress{f.progress}, f.clock.Now)

	out, err := svc.CapturePhoto(ctx, user, pngBytes(t, 60), types.TaskMetadata{}, "")
	require.NoError(t, err)
	assert.Nil(t, out.Activity)
	assert.Contains(t, out.ActivityError, "concurrency conflict")

	n, err := f.photos.CountByOwner(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
