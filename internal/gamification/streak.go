package gamification

import "time"

const (
	// SameDayWindow is the span after the last activity during which further
	// activity neither extends nor breaks the streak.
	SameDayWindow = 24 * time.Hour
	// ContinuationWindow is the latest point after the last activity that
	// still counts as the next consecutive day.
	ContinuationWindow = 30 * time.Hour

	BaseActivityXP    = 10
	SameDayActivityXP = 5
	StreakStartXP     = 15
	StreakThreeDayXP  = 25
	StreakWeekXP      = 50
)

type Transition string

const (
	TransitionFirst     Transition = "first"
	TransitionSameDay   Transition = "same_day"
	TransitionContinued Transition = "continued"
	TransitionReset     Transition = "reset"
)

type StreakState struct {
	Current        int
	Best           int
	LastActivityAt *time.Time
}

type ActivityResult struct {
	Kind      Transition
	Previous  StreakState
	State     StreakState
	XPAwarded int
}

// NeedsWrite is false for same-day activity; the stored streak is unchanged.
func (r ActivityResult) NeedsWrite() bool {
	return r.Kind != TransitionSameDay
}

// RecordActivity applies one activity event at now to state.
// Calling it twice for the same logical event double counts; callers serialize per user.
func RecordActivity(state StreakState, now time.Time) ActivityResult {
	prev := state
	if prev.Current < 0 {
		prev.Current = 0
	}
	if prev.Best < prev.Current {
		prev.Best = prev.Current
	}
	next := prev

	var kind Transition
	var xp int
	switch {
	case prev.LastActivityAt == nil:
		kind = TransitionFirst
		next.Current = 1
		xp = BaseActivityXP
	default:
		delta := now.Sub(*prev.LastActivityAt)
		switch {
		case delta < SameDayWindow:
			kind = TransitionSameDay
			xp = SameDayActivityXP
		case delta <= ContinuationWindow:
			kind = TransitionContinued
			next.Current = prev.Current + 1
			xp = streakXP(next.Current)
		default:
			kind = TransitionReset
			next.Current = 1
			xp = BaseActivityXP
		}
	}

	if kind != TransitionSameDay {
		at := now
		next.LastActivityAt = &at
		if next.Current > next.Best {
			next.Best = next.Current
		}
	}

	return ActivityResult{Kind: kind, Previous: prev, State: next, XPAwarded: xp}
}

func streakXP(streak int) int {
	switch {
	case streak >= 7:
		return StreakWeekXP
	case streak >= 3:
		return StreakThreeDayXP
	default:
		return StreakStartXP
	}
}
