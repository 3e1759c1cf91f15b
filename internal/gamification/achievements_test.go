package gamification

import (
	"strings"
	"testing"
)

func ids(as []Achievement) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.ID)
	}
	return out
}

func TestEvaluateConsistencyKing(t *testing.T) {
	catalog := Catalog{{ID: "consistency_king", Type: AchievementSession, Requirement: 30, XPReward: 500}}
	got := Evaluate(catalog, Stats{Sessions: 30}, NewEarnedSet())
	if len(got) != 1 || got[0].ID != "consistency_king" {
		t.Fatalf("unexpected result: %v", ids(got))
	}
}

func TestEvaluateSkipsAlreadyEarned(t *testing.T) {
	catalog := DefaultCatalog()
	stats := Stats{CurrentStreak: 40, BestStreak: 40, Sessions: 500, Level: 50, Photos: 100, PracticeMinutes: 10000}
	all := Evaluate(catalog, stats, nil)
	if len(all) != len(catalog) {
		t.Fatalf("expected every entry satisfied, got %d of %d", len(all), len(catalog))
	}
	earned := NewEarnedSet("streak_master", "centurion")
	got := Evaluate(catalog, stats, earned)
	for _, a := range got {
		if earned.Has(a.ID) {
			t.Fatalf("returned already earned %q", a.ID)
		}
	}
	if len(got) != len(catalog)-2 {
		t.Fatalf("expected %d entries, got %d", len(catalog)-2, len(got))
	}
}

func TestEvaluateKeepsCatalogOrder(t *testing.T) {
	catalog := Catalog{
		{ID: "b", Type: AchievementPhoto, Requirement: 1},
		{ID: "a", Type: AchievementLevel, Requirement: 2},
		{ID: "c", Type: AchievementTime, Requirement: 90},
		{ID: "d", Type: AchievementSession, Requirement: 1},
	}
	got := ids(Evaluate(catalog, Stats{Photos: 1, Level: 2, PracticeMinutes: 60, Sessions: 3}, nil))
	if strings.Join(got, ",") != "b,a,d" {
		t.Fatalf("order: got=%v", got)
	}
}

func TestEvaluateStreakUsesBest(t *testing.T) {
	catalog := Catalog{{ID: "streak_warrior", Type: AchievementStreak, Requirement: 7}}
	if got := Evaluate(catalog, Stats{CurrentStreak: 1, BestStreak: 7}, nil); len(got) != 1 {
		t.Fatalf("best streak should satisfy streak achievements")
	}
	if got := Evaluate(catalog, Stats{CurrentStreak: 6, BestStreak: 6}, nil); len(got) != 0 {
		t.Fatalf("streak 6 should not satisfy requirement 7")
	}
}

func TestStatForUnknownTypePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown type")
		}
	}()
	_ = Evaluate(Catalog{{ID: "x", Type: "bogus", Requirement: 1}}, Stats{}, nil)
}

func TestProgress(t *testing.T) {
	a := Achievement{ID: "time_wizard", Type: AchievementTime, Requirement: 1440}
	p := Progress(a, Stats{PracticeMinutes: 360})
	if p.Percentage != 25 || p.Current != 360 || p.Required != 1440 {
		t.Fatalf("unexpected progress: %+v", p)
	}
	if got := Progress(a, Stats{PracticeMinutes: 5000}).Percentage; got != 100 {
		t.Fatalf("progress should cap at 100, got %d", got)
	}
}

func TestDefaultCatalogIsValid(t *testing.T) {
	c := DefaultCatalog()
	if len(c) == 0 {
		t.Fatalf("empty default catalog")
	}
	if c[0].ID != "first_steps" {
		t.Fatalf("first entry: got=%q", c[0].ID)
	}
	ck, ok := c.Lookup("consistency_king")
	if !ok || ck.Type != AchievementSession || ck.Requirement != 30 || ck.XPReward != 500 {
		t.Fatalf("consistency_king: %+v ok=%v", ck, ok)
	}
	c[0].ID = "mutated"
	if DefaultCatalog()[0].ID != "first_steps" {
		t.Fatalf("DefaultCatalog must return a copy")
	}
}

func TestLoadCatalogRejectsMalformed(t *testing.T) {
	tests := map[string]string{
		"duplicate id": `
achievements:
  - {id: a, type: photo, requirement: 1, xp_reward: 1}
  - {id: a, type: photo, requirement: 2, xp_reward: 1}
`,
		"unknown type": `
achievements:
  - {id: a, type: karma, requirement: 1, xp_reward: 1}
`,
		"unknown field": `
achievements:
  - {id: a, type: photo, requirement: 1, xp_reward: 1, color: red}
`,
		"empty": `achievements: []`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadCatalog(strings.NewReader(doc)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
