package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/skillforge-backend/internal/data/repos"
	types "github.com/yungbote/skillforge-backend/internal/domain"
	domprogress "github.com/yungbote/skillforge-backend/internal/domain/progress"
	"github.com/yungbote/skillforge-backend/internal/gamification"
	"github.com/yungbote/skillforge-backend/internal/observability"
	"github.com/yungbote/skillforge-backend/internal/pkg/dbctx"
	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
	"github.com/yungbote/skillforge-backend/internal/pkg/retry"
	"github.com/yungbote/skillforge-backend/internal/platform/lock"
)

type ProgressService interface {
	// RecordActivity applies one activity to the user's streak and XP. With an
	// idempotency key, a repeated call returns the first outcome unchanged.
	RecordActivity(ctx context.Context, userID uuid.UUID, in ActivityInput) (*ActivityOutcome, error)
	AwardXP(ctx context.Context, userID uuid.UUID, amount int) (*XPOutcome, error)
	EvaluateAchievements(ctx context.Context, userID uuid.UUID) (*EvaluationOutcome, error)
	GetProgress(ctx context.Context, userID uuid.UUID) (*ProgressSnapshot, error)
	ListAchievements(ctx context.Context, userID uuid.UUID) ([]AchievementStatus, error)
}

type ActivityInput struct {
	Source         string
	At             time.Time
	IdempotencyKey string
	// Session, when set, is persisted with the activity and pays out its rewards.
	Session *types.PracticeSession
}

type ActivityOutcome struct {
	EventID       uuid.UUID                  `json:"event_id"`
	Source        string                     `json:"source"`
	Transition    gamification.Transition    `json:"transition"`
	StreakChanged bool                       `json:"streak_changed"`
	StreakXP      int                        `json:"streak_xp"`
	SessionXP     int                        `json:"session_xp"`
	SessionCoins  int                        `json:"session_coins"`
	LevelsGained  int                        `json:"levels_gained"`
	Achievements  []*types.EarnedAchievement `json:"achievements"`
	Session       *types.PracticeSession     `json:"session,omitempty"`
	Progress      ProgressSnapshot           `json:"progress"`
	Replayed      bool                       `json:"replayed"`
}

type XPOutcome struct {
	XPAwarded    int                        `json:"xp_awarded"`
	LevelsGained int                        `json:"levels_gained"`
	Achievements []*types.EarnedAchievement `json:"achievements"`
	Progress     ProgressSnapshot           `json:"progress"`
}

type EvaluationOutcome struct {
	Earned       []*types.EarnedAchievement `json:"earned"`
	LevelsGained int                        `json:"levels_gained"`
	Progress     ProgressSnapshot           `json:"progress"`
}

type ProgressSnapshot struct {
	UserID         uuid.UUID          `json:"user_id"`
	CurrentStreak  int                `json:"current_streak"`
	BestStreak     int                `json:"best_streak"`
	LastActivityAt *time.Time         `json:"last_activity_at,omitempty"`
	XP             int                `json:"xp"`
	Level          int                `json:"level"`
	Coins          int                `json:"coins"`
	NextLevelXP    int                `json:"next_level_xp"`
	XPProgress     int                `json:"xp_progress"`
	Stats          gamification.Stats `json:"stats"`
}

type AchievementStatus struct {
	gamification.Achievement
	Earned   bool                             `json:"earned"`
	EarnedAt *time.Time                       `json:"earned_at,omitempty"`
	Progress gamification.AchievementProgress `json:"progress"`
}

type ProgressServiceConfig struct {
	// ConflictRetries is how often a version conflict is retried before it
	// surfaces as ErrConcurrencyConflict.
	ConflictRetries int
	Now             func() time.Time
}

type progressService struct {
	db           *gorm.DB
	log          *logger.Logger
	progressRepo repos.UserProgressRepo
	earnedRepo   repos.EarnedAchievementRepo
	eventRepo    repos.ActivityEventRepo
	photoRepo    repos.PhotoRepo
	sessionRepo  repos.PracticeSessionRepo
	locker       lock.Locker
	catalog      gamification.Catalog
	cfg          ProgressServiceConfig
}

func NewProgressService(
	db *gorm.DB,
	baseLog *logger.Logger,
	progressRepo repos.UserProgressRepo,
	earnedRepo repos.EarnedAchievementRepo,
	eventRepo repos.ActivityEventRepo,
	photoRepo repos.PhotoRepo,
	sessionRepo repos.PracticeSessionRepo,
	locker lock.Locker,
	catalog gamification.Catalog,
	cfg ProgressServiceConfig,
) ProgressService {
	if cfg.ConflictRetries < 0 {
		cfg.ConflictRetries = 0
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if len(catalog) == 0 {
		catalog = gamification.DefaultCatalog()
	}
	return &progressService{
		db:           db,
		log:          baseLog.With("service", "ProgressService"),
		progressRepo: progressRepo,
		earnedRepo:   earnedRepo,
		eventRepo:    eventRepo,
		photoRepo:    photoRepo,
		sessionRepo:  sessionRepo,
		locker:       locker,
		catalog:      catalog,
		cfg:          cfg,
	}
}

func validSource(source string) bool {
	switch source {
	case types.ActivitySourcePhoto, types.ActivitySourceSession, types.ActivitySourceManual:
		return true
	default:
		return false
	}
}

func (s *progressService) RecordActivity(ctx context.Context, userID uuid.UUID, in ActivityInput) (out *ActivityOutcome, err error) {
	const op = "record activity"
	ctx, span := observability.StartSpan(ctx, "ProgressService.RecordActivity", attribute.String("activity.source", in.Source))
	defer func() { observability.EndSpan(span, err) }()

	if userID == uuid.Nil {
		return nil, sferrors.InvalidArgument(op, "user id required")
	}
	if in.Source == "" {
		in.Source = types.ActivitySourceManual
	}
	if !validSource(in.Source) {
		return nil, sferrors.InvalidArgument(op, "unknown activity source %q", in.Source)
	}
	if in.Session != nil && in.Source != types.ActivitySourceSession {
		return nil, sferrors.InvalidArgument(op, "a session requires source %q", types.ActivitySourceSession)
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return nil, sferrors.InvalidArgument(op, "idempotency key longer than 255 characters")
	}
	now := in.At
	if now.IsZero() {
		now = s.cfg.Now()
	}
	now = now.UTC()

	if key != "" {
		if replay, err := s.replay(dbctx.Context{Ctx: ctx}, userID, key); err != nil || replay != nil {
			return replay, err
		}
	}

	err = s.withUserUpdate(ctx, userID, func(dbc dbctx.Context, row *types.UserProgress) (bool, error) {
		out = nil
		if key != "" {
			replay, err := s.replay(dbc, userID, key)
			if err != nil {
				return false, err
			}
			if replay != nil {
				out = replay
				return false, nil
			}
		}

		res := gamification.RecordActivity(row.StreakState(), now)
		if res.NeedsWrite() {
			row.SetStreakState(res.State)
		}
		o := &ActivityOutcome{
			Source:        in.Source,
			Transition:    res.Kind,
			StreakChanged: res.NeedsWrite(),
			StreakXP:      res.XPAwarded,
		}

		if in.Session != nil {
			sess := *in.Session
			sess.UserID = userID
			sess.XPEarned, sess.CoinsEarned = gamification.SessionRewards(sess.DurationMinutes)
			if err := s.sessionRepo.Create(dbc, &sess); err != nil {
				return false, fmt.Errorf("create practice session: %w", err)
			}
			o.Session = &sess
			o.SessionXP = sess.XPEarned
			o.SessionCoins = sess.CoinsEarned
		}

		xpState, gained, err := gamification.AwardXP(row.XPState(), o.StreakXP+o.SessionXP)
		if err != nil {
			return false, err
		}
		xpState.Coins += o.SessionCoins
		row.SetXPState(xpState)
		o.LevelsGained = gained

		earned, cascaded, stats, err := s.evaluateLocked(dbc, row, now)
		if err != nil {
			return false, err
		}
		o.Achievements = earned
		o.LevelsGained += cascaded
		o.Progress = snapshotOf(row, stats)

		event := &types.ActivityEvent{
			ID:           uuid.New(),
			UserID:       userID,
			Source:       in.Source,
			Transition:   string(res.Kind),
			XPAwarded:    o.StreakXP + o.SessionXP,
			StreakAfter:  row.CurrentStreak,
			LevelsGained: o.LevelsGained,
			OccurredAt:   now,
		}
		if key != "" {
			k := key
			event.IdempotencyKey = &k
		}
		o.EventID = event.ID
		snap, err := json.Marshal(o)
		if err != nil {
			return false, fmt.Errorf("encode activity snapshot: %w", err)
		}
		event.Snapshot = datatypes.JSON(snap)
		if err := s.eventRepo.Create(dbc, event); err != nil {
			return false, fmt.Errorf("record activity event: %w", err)
		}
		out = o
		return true, nil
	})
	if err != nil {
		s.log.Warn("Record activity failed", "user_id", userID, "source", in.Source, "error", err)
		return nil, err
	}
	if !out.Replayed {
		observability.Current().ObserveActivity(out.Source, string(out.Transition), out.StreakXP+out.SessionXP, out.LevelsGained)
		s.observeEarned(out.Achievements)
		s.log.Debug(
			"Activity recorded",
			"user_id", userID,
			"source", out.Source,
			"transition", out.Transition,
			"streak", out.Progress.CurrentStreak,
			"xp", out.StreakXP+out.SessionXP,
		)
	}
	span.SetAttributes(attribute.String("activity.transition", string(out.Transition)), attribute.Bool("activity.replayed", out.Replayed))
	return out, nil
}

func (s *progressService) replay(dbc dbctx.Context, userID uuid.UUID, key string) (*ActivityOutcome, error) {
	ev, err := s.eventRepo.GetByKey(dbc, userID, key)
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}
	if ev == nil {
		return nil, nil
	}
	var out ActivityOutcome
	if err := json.Unmarshal(ev.Snapshot, &out); err != nil {
		return nil, fmt.Errorf("decode activity snapshot: %w", err)
	}
	out.Replayed = true
	return &out, nil
}

func (s *progressService) AwardXP(ctx context.Context, userID uuid.UUID, amount int) (out *XPOutcome, err error) {
	const op = "award xp"
	ctx, span := observability.StartSpan(ctx, "ProgressService.AwardXP", attribute.Int("xp.amount", amount))
	defer func() { observability.EndSpan(span, err) }()

	if userID == uuid.Nil {
		return nil, sferrors.InvalidArgument(op, "user id required")
	}
	if amount < 0 {
		return nil, sferrors.InvalidArgument(op, "amount must be >= 0, got %d", amount)
	}
	now := s.cfg.Now().UTC()

	err = s.withUserUpdate(ctx, userID, func(dbc dbctx.Context, row *types.UserProgress) (bool, error) {
		xpState, gained, err := gamification.AwardXP(row.XPState(), amount)
		if err != nil {
			return false, err
		}
		row.SetXPState(xpState)
		earned, cascaded, stats, err := s.evaluateLocked(dbc, row, now)
		if err != nil {
			return false, err
		}
		out = &XPOutcome{
			XPAwarded:    amount,
			LevelsGained: gained + cascaded,
			Achievements: earned,
			Progress:     snapshotOf(row, stats),
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	observability.Current().ObserveXP(types.ActivitySourceManual, amount, out.LevelsGained)
	s.observeEarned(out.Achievements)
	return out, nil
}

func (s *progressService) EvaluateAchievements(ctx context.Context, userID uuid.UUID) (out *EvaluationOutcome, err error) {
	ctx, span := observability.StartSpan(ctx, "ProgressService.EvaluateAchievements")
	defer func() { observability.EndSpan(span, err) }()

	if userID == uuid.Nil {
		return nil, sferrors.InvalidArgument("evaluate achievements", "user id required")
	}
	now := s.cfg.Now().UTC()

	err = s.withUserUpdate(ctx, userID, func(dbc dbctx.Context, row *types.UserProgress) (bool, error) {
		earned, cascaded, stats, err := s.evaluateLocked(dbc, row, now)
		if err != nil {
			return false, err
		}
		out = &EvaluationOutcome{
			Earned:       earned,
			LevelsGained: cascaded,
			Progress:     snapshotOf(row, stats),
		}
		return len(earned) > 0, nil
	})
	if err != nil {
		return nil, err
	}
	s.observeEarned(out.Earned)
	span.SetAttributes(attribute.Int("achievements.earned", len(out.Earned)))
	return out, nil
}

// evaluateLocked awards every newly satisfied achievement in catalog order
// and repeats while achievement XP keeps raising the level, so level badges
// reached through other badges are earned in the same pass.
func (s *progressService) evaluateLocked(dbc dbctx.Context, row *types.UserProgress, now time.Time) ([]*types.EarnedAchievement, int, gamification.Stats, error) {
	stats, err := s.statsFor(dbc, row)
	if err != nil {
		return nil, 0, stats, err
	}
	owned, err := s.earnedRepo.ListByUser(dbc, row.UserID)
	if err != nil {
		return nil, 0, stats, fmt.Errorf("list earned achievements: %w", err)
	}
	earnedSet := gamification.NewEarnedSet()
	for _, e := range owned {
		earnedSet[e.AchievementID] = struct{}{}
	}

	var awarded []*types.EarnedAchievement
	levels := 0
	for {
		newly := gamification.Evaluate(s.catalog, stats, earnedSet)
		if len(newly) == 0 {
			break
		}
		leveled := false
		for _, a := range newly {
			earnedSet[a.ID] = struct{}{}
			rec := &types.EarnedAchievement{
				UserID:        row.UserID,
				AchievementID: a.ID,
				XPReward:      a.XPReward,
				EarnedAt:      now,
			}
			created, err := s.earnedRepo.CreateIfAbsent(dbc, rec)
			if err != nil {
				return nil, 0, stats, fmt.Errorf("record achievement %s: %w", a.ID, err)
			}
			if !created {
				continue
			}
			xpState, gained, err := gamification.AwardXP(row.XPState(), a.XPReward)
			if err != nil {
				return nil, 0, stats, err
			}
			row.SetXPState(xpState)
			if gained > 0 {
				leveled = true
				levels += gained
			}
			awarded = append(awarded, rec)
		}
		stats.Level = row.Level
		if !leveled {
			break
		}
	}
	return awarded, levels, stats, nil
}

func (s *progressService) statsFor(dbc dbctx.Context, row *types.UserProgress) (gamification.Stats, error) {
	totals, err := s.sessionRepo.Totals(dbc, row.UserID)
	if err != nil {
		return gamification.Stats{}, fmt.Errorf("load session totals: %w", err)
	}
	photos, err := s.photoRepo.CountByOwner(dbc, row.UserID)
	if err != nil {
		return gamification.Stats{}, fmt.Errorf("count photos: %w", err)
	}
	return gamification.Stats{
		CurrentStreak:   row.CurrentStreak,
		BestStreak:      row.BestStreak,
		Sessions:        int(totals.Sessions),
		Level:           row.Level,
		Photos:          int(photos),
		PracticeMinutes: totals.Minutes,
	}, nil
}

// withUserUpdate runs fn on the user's progress row under the per-user lock
// inside a transaction. fn reports whether the row must be written; a stale
// version rolls everything back and fn runs again on a fresh read.
func (s *progressService) withUserUpdate(ctx context.Context, userID uuid.UUID, fn func(dbc dbctx.Context, row *types.UserProgress) (bool, error)) error {
	release, err := s.locker.Acquire(ctx, lock.UserKey(userID.String()))
	if err != nil {
		if errors.Is(err, sferrors.ErrConcurrencyConflict) {
			observability.Current().IncLockConflict()
		}
		return err
	}
	defer release()

	isConflict := func(err error) bool { return errors.Is(err, sferrors.ErrConcurrencyConflict) }
	policy := retry.Policy{Attempts: s.cfg.ConflictRetries + 1, Base: 10 * time.Millisecond, Max: 200 * time.Millisecond}
	return retry.Do(ctx, policy, isConflict, func(attempt int) error {
		if attempt > 1 {
			observability.Current().IncConflictRetry()
			s.log.Debug("Retrying progress update after conflict", "user_id", userID, "attempt", attempt)
		}
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			dbc := dbctx.Context{Ctx: ctx, Tx: tx}
			row, err := s.progressRepo.GetOrCreate(dbc, userID, true)
			if err != nil {
				return fmt.Errorf("load progress: %w", err)
			}
			write, err := fn(dbc, row)
			if err != nil || !write {
				return err
			}
			return s.progressRepo.UpdateVersioned(dbc, row)
		})
	})
}

func (s *progressService) observeEarned(earned []*types.EarnedAchievement) {
	for _, e := range earned {
		observability.Current().IncAchievementEarned(e.AchievementID)
	}
}

func (s *progressService) GetProgress(ctx context.Context, userID uuid.UUID) (*ProgressSnapshot, error) {
	if userID == uuid.Nil {
		return nil, sferrors.InvalidArgument("get progress", "user id required")
	}
	dbc := dbctx.Context{Ctx: ctx}
	row, err := s.progressRepo.Get(dbc, userID)
	if err != nil {
		return nil, fmt.Errorf("load progress: %w", err)
	}
	if row == nil {
		row = domprogress.NewUserProgress(userID)
	}
	stats, err := s.statsFor(dbc, row)
	if err != nil {
		return nil, err
	}
	snap := snapshotOf(row, stats)
	return &snap, nil
}

func (s *progressService) ListAchievements(ctx context.Context, userID uuid.UUID) ([]AchievementStatus, error) {
	snap, err := s.GetProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	owned, err := s.earnedRepo.ListByUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("list earned achievements: %w", err)
	}
	earnedAt := make(map[string]time.Time, len(owned))
	for _, e := range owned {
		earnedAt[e.AchievementID] = e.EarnedAt
	}

	out := make([]AchievementStatus, 0, len(s.catalog))
	for _, a := range s.catalog {
		st := AchievementStatus{
			Achievement: a,
			Progress:    gamification.Progress(a, snap.Stats),
		}
		if at, ok := earnedAt[a.ID]; ok {
			t := at
			st.Earned = true
			st.EarnedAt = &t
			st.Progress.Percentage = 100
		}
		out = append(out, st)
	}
	return out, nil
}

func snapshotOf(row *types.UserProgress, stats gamification.Stats) ProgressSnapshot {
	xs := row.XPState()
	return ProgressSnapshot{
		UserID:         row.UserID,
		CurrentStreak:  row.CurrentStreak,
		BestStreak:     row.BestStreak,
		LastActivityAt: row.LastActivityAt,
		XP:             row.XP,
		Level:          row.Level,
		Coins:          row.Coins,
		NextLevelXP:    xs.NextLevelXP(),
		XPProgress:     xs.ProgressPercent(),
		Stats:          stats,
	}
}
