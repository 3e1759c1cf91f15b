package gamification

import (
	"math"

	sferrors "github.com/yungbote/skillforge-backend/internal/pkg/errors"
)

const (
	// XPPerLevel scales the level-up threshold: level L needs L*XPPerLevel XP.
	XPPerLevel = 100
	// LevelUpCoins is granted for every level gained.
	LevelUpCoins = 10
)

type XPState struct {
	XP    int
	Level int
	Coins int
}

// NextLevelXP is the XP needed to leave the current level.
func (s XPState) NextLevelXP() int {
	return LevelThreshold(s.Level)
}

// ProgressPercent is the share of the current level already earned, 0..100.
func (s XPState) ProgressPercent() int {
	need := s.NextLevelXP()
	if need <= 0 {
		return 0
	}
	pct := int(math.Round(float64(s.XP) / float64(need) * 100))
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}

func LevelThreshold(level int) int {
	if level < 1 {
		level = 1
	}
	return level * XPPerLevel
}

// AwardXP adds amount and normalizes, possibly gaining several levels at once.
func AwardXP(state XPState, amount int) (XPState, int, error) {
	if amount < 0 {
		return state, 0, sferrors.InvalidArgument("award xp", "amount must be >= 0, got %d", amount)
	}
	next := state
	if next.Level < 1 {
		next.Level = 1
	}
	if next.XP < 0 {
		next.XP = 0
	}
	if next.Coins < 0 {
		next.Coins = 0
	}
	next.XP += amount

	gained := 0
	for next.XP >= LevelThreshold(next.Level) {
		next.XP -= LevelThreshold(next.Level)
		next.Level++
		next.Coins += LevelUpCoins
		gained++
	}
	return next, gained, nil
}

// SessionRewards is the XP and coin payout of a completed practice session:
// one XP per five minutes and one coin per ten, rounded.
func SessionRewards(minutes float64) (xp int, coins int) {
	if minutes <= 0 || math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return 0, 0
	}
	return int(math.Round(minutes / 5)), int(math.Round(minutes / 10))
}
