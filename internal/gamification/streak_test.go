package gamification

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)

func at(d time.Duration) *time.Time {
	v := t0.Add(d)
	return &v
}

func TestRecordActivityTransitions(t *testing.T) {
	tests := []struct {
		name        string
		state       StreakState
		now         time.Time
		wantKind    Transition
		wantCurrent int
		wantBest    int
		wantXP      int
	}{
		{
			name:        "first activity",
			state:       StreakState{},
			now:         t0,
			wantKind:    TransitionFirst,
			wantCurrent: 1,
			wantBest:    1,
			wantXP:      10,
		},
		{
			name:        "same day",
			state:       StreakState{Current: 4, Best: 6, LastActivityAt: at(0)},
			now:         t0.Add(23*time.Hour + 59*time.Minute),
			wantKind:    TransitionSameDay,
			wantCurrent: 4,
			wantBest:    6,
			wantXP:      5,
		},
		{
			name:        "next day at exactly 24h",
			state:       StreakState{Current: 1, Best: 1, LastActivityAt: at(0)},
			now:         t0.Add(24 * time.Hour),
			wantKind:    TransitionContinued,
			wantCurrent: 2,
			wantBest:    2,
			wantXP:      15,
		},
		{
			name:        "next day reaches three",
			state:       StreakState{Current: 2, Best: 2, LastActivityAt: at(0)},
			now:         t0.Add(25 * time.Hour),
			wantKind:    TransitionContinued,
			wantCurrent: 3,
			wantBest:    3,
			wantXP:      25,
		},
		{
			name:        "next day reaches a week at exactly 30h",
			state:       StreakState{Current: 6, Best: 10, LastActivityAt: at(0)},
			now:         t0.Add(30 * time.Hour),
			wantKind:    TransitionContinued,
			wantCurrent: 7,
			wantBest:    10,
			wantXP:      50,
		},
		{
			name:        "broken streak",
			state:       StreakState{Current: 12, Best: 12, LastActivityAt: at(0)},
			now:         t0.Add(30*time.Hour + time.Second),
			wantKind:    TransitionReset,
			wantCurrent: 1,
			wantBest:    12,
			wantXP:      10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := RecordActivity(tt.state, tt.now)
			if res.Kind != tt.wantKind {
				t.Fatalf("kind: want=%s got=%s", tt.wantKind, res.Kind)
			}
			if res.State.Current != tt.wantCurrent {
				t.Fatalf("current: want=%d got=%d", tt.wantCurrent, res.State.Current)
			}
			if res.State.Best != tt.wantBest {
				t.Fatalf("best: want=%d got=%d", tt.wantBest, res.State.Best)
			}
			if res.XPAwarded != tt.wantXP {
				t.Fatalf("xp: want=%d got=%d", tt.wantXP, res.XPAwarded)
			}
		})
	}
}

func TestRecordActivitySameDayKeepsLastActivity(t *testing.T) {
	state := StreakState{Current: 2, Best: 2, LastActivityAt: at(0)}
	res := RecordActivity(state, t0.Add(3*time.Hour))
	if res.NeedsWrite() {
		t.Fatalf("same-day activity should not need a streak write")
	}
	if res.State.LastActivityAt == nil || !res.State.LastActivityAt.Equal(t0) {
		t.Fatalf("last activity moved: %v", res.State.LastActivityAt)
	}
}

func TestRecordActivityUpdatesLastActivity(t *testing.T) {
	now := t0.Add(26 * time.Hour)
	res := RecordActivity(StreakState{Current: 1, Best: 1, LastActivityAt: at(0)}, now)
	if !res.NeedsWrite() {
		t.Fatalf("continued streak needs a write")
	}
	if res.State.LastActivityAt == nil || !res.State.LastActivityAt.Equal(now) {
		t.Fatalf("last activity: want=%s got=%v", now, res.State.LastActivityAt)
	}
}

func TestRecordActivityDoesNotMutateInput(t *testing.T) {
	last := t0
	state := StreakState{Current: 3, Best: 3, LastActivityAt: &last}
	_ = RecordActivity(state, t0.Add(25*time.Hour))
	if state.Current != 3 || !state.LastActivityAt.Equal(t0) {
		t.Fatalf("input mutated: %+v", state)
	}
}

func TestSameDayCallsNeverChangeStreak(t *testing.T) {
	state := StreakState{Current: 5, Best: 5, LastActivityAt: at(0)}
	for _, d := range []time.Duration{time.Minute, 6 * time.Hour, 12 * time.Hour, 23 * time.Hour} {
		res := RecordActivity(state, t0.Add(d))
		if res.State.Current != 5 {
			t.Fatalf("offset %s changed streak to %d", d, res.State.Current)
		}
		state = res.State
	}
}

func TestBestStreakNeverDecreases(t *testing.T) {
	// Gaps in hours between consecutive events.
	gaps := []int{0, 25, 26, 2, 29, 40, 24, 24, 24, 100, 1, 27, 27, 27, 27, 27, 27, 27, 27}
	state := StreakState{}
	now := t0
	prevBest := 0
	for i, g := range gaps {
		now = now.Add(time.Duration(g) * time.Hour)
		res := RecordActivity(state, now)
		if res.State.Best < prevBest {
			t.Fatalf("step %d: best decreased %d -> %d", i, prevBest, res.State.Best)
		}
		if res.State.Best < res.State.Current {
			t.Fatalf("step %d: best %d < current %d", i, res.State.Best, res.State.Current)
		}
		prevBest = res.State.Best
		state = res.State
	}
}

func TestResetAlwaysYieldsOne(t *testing.T) {
	for _, streak := range []int{1, 2, 7, 30, 365} {
		res := RecordActivity(StreakState{Current: streak, Best: streak, LastActivityAt: at(0)}, t0.Add(31*time.Hour))
		if res.Kind != TransitionReset || res.State.Current != 1 {
			t.Fatalf("streak %d: kind=%s current=%d", streak, res.Kind, res.State.Current)
		}
	}
}
