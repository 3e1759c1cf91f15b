package gamification

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

type AchievementType string

const (
	AchievementStreak  AchievementType = "streak"
	AchievementSession AchievementType = "session"
	AchievementLevel   AchievementType = "level"
	AchievementPhoto   AchievementType = "photo"
	AchievementTime    AchievementType = "time"
)

func (t AchievementType) IsValid() bool {
	switch t {
	case AchievementStreak, AchievementSession, AchievementLevel, AchievementPhoto, AchievementTime:
		return true
	default:
		return false
	}
}

type Achievement struct {
	ID          string          `yaml:"id" json:"id"`
	Title       string          `yaml:"title" json:"title"`
	Description string          `yaml:"description" json:"description"`
	Type        AchievementType `yaml:"type" json:"type"`
	Requirement float64         `yaml:"requirement" json:"requirement"`
	XPReward    int             `yaml:"xp_reward" json:"xp_reward"`
}

// Catalog is ordered and read-only once loaded.
type Catalog []Achievement

// Stats are the cumulative user statistics achievements are judged against.
type Stats struct {
	CurrentStreak   int     `json:"current_streak"`
	BestStreak      int     `json:"best_streak"`
	Sessions        int     `json:"sessions"`
	Level           int     `json:"level"`
	Photos          int     `json:"photos"`
	PracticeMinutes float64 `json:"practice_minutes"`
}

// EarnedSet holds the achievement ids a user already owns.
type EarnedSet map[string]struct{}

func NewEarnedSet(ids ...string) EarnedSet {
	s := make(EarnedSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s EarnedSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// StatFor returns the statistic an achievement of type t is compared against.
// Panics on an unknown type: catalogs are validated at load time.
func StatFor(t AchievementType, stats Stats) float64 {
	switch t {
	case AchievementStreak:
		if stats.BestStreak > stats.CurrentStreak {
			return float64(stats.BestStreak)
		}
		return float64(stats.CurrentStreak)
	case AchievementSession:
		return float64(stats.Sessions)
	case AchievementLevel:
		return float64(stats.Level)
	case AchievementPhoto:
		return float64(stats.Photos)
	case AchievementTime:
		return stats.PracticeMinutes
	default:
		panic(fmt.Sprintf("gamification: unknown achievement type %q", t))
	}
}

// Evaluate returns the catalog entries newly satisfied by stats, in catalog order.
// Entries in alreadyEarned are never returned.
func Evaluate(catalog Catalog, stats Stats, alreadyEarned EarnedSet) []Achievement {
	var out []Achievement
	for _, a := range catalog {
		if alreadyEarned.Has(a.ID) {
			continue
		}
		if StatFor(a.Type, stats) >= a.Requirement {
			out = append(out, a)
		}
	}
	return out
}

type AchievementProgress struct {
	Current    float64 `json:"current"`
	Required   float64 `json:"required"`
	Percentage int     `json:"percentage"`
}

func Progress(a Achievement, stats Stats) AchievementProgress {
	required := a.Requirement
	if required <= 0 {
		required = 1
	}
	current := StatFor(a.Type, stats)
	pct := int(math.Round(current / required * 100))
	if pct > 100 {
		pct = 100
	}
	if pct < 0 {
		pct = 0
	}
	return AchievementProgress{Current: current, Required: required, Percentage: pct}
}

func (c Catalog) Lookup(id string) (Achievement, bool) {
	for _, a := range c {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

type catalogFile struct {
	Achievements []Achievement `yaml:"achievements"`
}

// LoadCatalog parses and validates a YAML catalog.
func LoadCatalog(r io.Reader) (Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f catalogFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode achievement catalog: %w", err)
	}
	if err := validateCatalog(f.Achievements); err != nil {
		return nil, err
	}
	return Catalog(f.Achievements), nil
}

func validateCatalog(entries []Achievement) error {
	if len(entries) == 0 {
		return fmt.Errorf("achievement catalog is empty")
	}
	seen := make(map[string]struct{}, len(entries))
	for i, a := range entries {
		id := strings.TrimSpace(a.ID)
		if id == "" {
			return fmt.Errorf("achievement %d: id is required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("achievement %q: duplicate id", id)
		}
		seen[id] = struct{}{}
		if !a.Type.IsValid() {
			return fmt.Errorf("achievement %q: unknown type %q", id, a.Type)
		}
		if a.Requirement < 0 || math.IsNaN(a.Requirement) {
			return fmt.Errorf("achievement %q: requirement must be >= 0", id)
		}
		if a.XPReward < 0 {
			return fmt.Errorf("achievement %q: xp_reward must be >= 0", id)
		}
	}
	return nil
}

//go:embed catalog.yaml
var defaultCatalogYAML []byte

var (
	defaultOnce    sync.Once
	defaultCatalog Catalog
)

// DefaultCatalog is the built-in catalog. A broken embedded file is a build defect and panics.
func DefaultCatalog() Catalog {
	defaultOnce.Do(func() {
		c, err := LoadCatalog(bytes.NewReader(defaultCatalogYAML))
		if err != nil {
			panic(fmt.Sprintf("gamification: embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	out := make(Catalog, len(defaultCatalog))
	copy(out, defaultCatalog)
	return out
}
