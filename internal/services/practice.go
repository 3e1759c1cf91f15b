package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/gamification"
	"github.com/yungbote/skillforge-backend/internal/pkg/dbctx"
	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
)

const maxSessionMinutes = 24 * 60

type PracticeService interface {
	CompleteSession(ctx context.Context, userID uuid.UUID, in SessionInput) (*SessionOutcome, error)
	// CapturePhoto stores a task photo and counts it as activity. Activity
	// failures after a successful store are reported, not returned.
	CapturePhoto(ctx context.Context, userID uuid.UUID, raw []byte, meta types.TaskMetadata, idempotencyKey string) (*CaptureOutcome, error)
	ListSessions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*types.PracticeSession, error)
	Stats(ctx context.Context, userID uuid.UUID) (gamification.Stats, error)
}

type SessionInput struct {
	Skill           string
	Category        string
	Priority        string
	DurationMinutes float64
	StartedAt       time.Time
	EndedAt         time.Time
	Photo           []byte
	IdempotencyKey  string
}

type SessionOutcome struct {
	Activity *ActivityOutcome `json:"activity"`
	Photo    *StoredPhoto     `json:"photo,omitempty"`
}

type CaptureOutcome struct {
	Photo         *StoredPhoto     `json:"photo"`
	Activity      *ActivityOutcome `json:"activity,omitempty"`
	ActivityError string           `json:"activity_error,omitempty"`
}

type practiceService struct {
	log         *logger.Logger
	sessionRepo repos.PracticeSessionRepo
	photos      PhotoService
	progress    ProgressService
	now         func() time.Time
}

func NewPracticeService(
	baseLog *logger.Logger,
	sessionRepo repos.PracticeSessionRepo,
	photos PhotoService,
	progress ProgressService,
	now func() time.Time,
) PracticeService {
	if now == nil {
		now = time.Now
	}
	return &practiceService{
		log:         baseLog.With("service", "PracticeService"),
		sessionRepo: sessionRepo,
		photos:      photos,
		progress:    progress,
		now:         now,
	}
}

func (s *practiceService) CompleteSession(ctx context.Context, userID uuid.UUID, in SessionInput) (*SessionOutcome, error) {
	const op = "complete session"
	if userID == uuid.Nil {
		return nil, sferrors.InvalidArgument(op, "user id required")
	}
	sess, err := s.buildSession(in)
	if err != nil {
		return nil, err
	}

	out := &SessionOutcome{}
	if len(in.Photo) > 0 {
		stored, err := s.photos.Store(ctx, userID, in.Photo, types.TaskMetadata{
			Name:     sess.Skill,
			Category: sess.Category,
			Priority: sess.Priority,
		})
		if err != nil {
			return nil, err
		}
		out.Photo = stored
		id := stored.Photo.ID
		sess.PhotoID = &id
	}

	activity, err := s.progress.RecordActivity(ctx, userID, ActivityInput{
		Source:         types.ActivitySourceSession,
		At:             sess.EndedAt,
		IdempotencyKey: in.IdempotencyKey,
		Session:        sess,
	})
	if err != nil {
		return nil, err
	}
	out.Activity = activity
	s.log.Info(
		"Practice session completed",
		"user_id", userID,
		"skill", sess.Skill,
		"minutes", sess.DurationMinutes,
		"replayed", activity.Replayed,
	)
	return out, nil
}

func (s *practiceService) buildSession(in SessionInput) (*types.PracticeSession, error) {
	const op = "complete session"
	skill := strings.TrimSpace(in.Skill)
	if skill == "" {
		return nil, sferrors.Validation(op, "skill is required")
	}
	minutes := in.DurationMinutes
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes < 0 {
		return nil, sferrors.Validation(op, "duration must be a non-negative number of minutes")
	}

	end := in.EndedAt
	if end.IsZero() {
		end = s.now()
	}
	start := in.StartedAt
	switch {
	case minutes == 0 && !start.IsZero():
		if end.Before(start) {
			return nil, sferrors.Validation(op, "session ends before it starts")
		}
		minutes = end.Sub(start).Minutes()
	case start.IsZero():
		start = end.Add(-time.Duration(minutes * float64(time.Minute)))
	case end.Before(start):
		return nil, sferrors.Validation(op, "session ends before it starts")
	}
	if minutes <= 0 {
		return nil, sferrors.Validation(op, "duration must be positive")
	}
	if minutes > maxSessionMinutes {
		return nil, sferrors.Validation(op, "duration exceeds %d minutes", maxSessionMinutes)
	}

	return &types.PracticeSession{
		Skill:           skill,
		Category:        strings.TrimSpace(in.Category),
		Priority:        strings.TrimSpace(in.Priority),
		DurationMinutes: minutes,
		StartedAt:       start.UTC(),
		EndedAt:         end.UTC(),
	}, nil
}

func (s *practiceService) CapturePhoto(ctx context.Context, userID uuid.UUID, raw []byte, meta types.TaskMetadata, idempotencyKey string) (*CaptureOutcome, error) {
	stored, err := s.photos.Store(ctx, userID, raw, meta)
	if err != nil {
		return nil, err
	}
	out := &CaptureOutcome{Photo: stored}
	// Re-uploading an existing photo earns nothing.
	if stored.Duplicate {
		return out, nil
	}
	activity, err := s.progress.RecordActivity(ctx, userID, ActivityInput{
		Source:         types.ActivitySourcePhoto,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		s.log.Warn("Photo stored but activity not recorded", "user_id", userID, "photo_id", stored.Photo.ID, "error", err)
		out.ActivityError = err.Error()
		return out, nil
	}
	out.Activity = activity
	return out, nil
}

func (s *practiceService) ListSessions(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*types.PracticeSession, error) {
	if userID == uuid.Nil {
		return nil, sferrors.InvalidArgument("list sessions", "user id required")
	}
	return s.sessionRepo.ListByUser(dbctx.Context{Ctx: ctx}, userID, limit, offset)
}

func (s *practiceService) Stats(ctx context.Context, userID uuid.UUID) (gamification.Stats, error) {
	snap, err := s.progress.GetProgress(ctx, userID)
	if err != nil {
		return gamification.Stats{}, err
	}
	return snap.Stats, nil
}
