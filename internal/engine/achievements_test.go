package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func unlockedIDs(fresh []Achievement) map[string]bool {
	out := make(map[string]bool, len(fresh))
	for _, a := range fresh {
		out[a.ID] = true
	}
	return out
}

func TestAchievementUnlocksExactlyOnce(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, cleanup := newTestServiceWith(t, func(cfg *Config) {
		cfg.Now = clock.Now
	})
	defer cleanup()
	ctx := context.Background()

	a := addEstimated(t, svc, "a", 1)
	res, err := svc.CompleteTask(ctx, a.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !unlockedIDs(res.Unlocked)["first-task"] {
		t.Fatalf("first completion did not unlock first-task: %+v", res.Unlocked)
	}

	// The condition stays true forever; the unlock must not repeat.
	b := addEstimated(t, svc, "b", 1)
	res2, err := svc.CompleteTask(ctx, b.ID)
	if err != nil {
		t.Fatalf("complete b: %v", err)
	}
	if unlockedIDs(res2.Unlocked)["first-task"] {
		t.Fatalf("first-task unlocked twice")
	}

	if got := svc.Achievements().UnlockedCount(); got != 1 {
		t.Fatalf("unlockedCount=%d, want 1", got)
	}
	for _, st := range svc.Achievements().All() {
		want := st.ID == "first-task"
		if st.Unlocked != want {
			t.Fatalf("%s unlocked=%v, want %v", st.ID, st.Unlocked, want)
		}
	}
}

func TestUnlocksSurviveRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	cfg := Config{
		DBPath:      filepath.Join(dir, "test.db"),
		UnlocksPath: filepath.Join(dir, "unlocks.json"),
		DevMode:     true,
		Now:         clock.Now,
	}

	svc, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	task := addEstimated(t, svc, "a", 1)
	if _, err := svc.CompleteTask(ctx, task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	again, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()

	found := false
	for _, st := range again.Achievements().All() {
		if st.ID == "first-task" && st.Unlocked {
			found = true
		}
	}
	if !found {
		t.Fatalf("unlock lost across restart")
	}

	// The history still satisfies the condition, but nothing is fresh.
	fresh, err := again.Achievements().Check(ctx)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if unlockedIDs(fresh)["first-task"] {
		t.Fatalf("first-task re-unlocked after restart")
	}
}

func TestTimeOfDayAchievements(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 23, 30, 0, 0, time.UTC))
	svc, cleanup := newTestServiceWith(t, func(cfg *Config) {
		cfg.Now = clock.Now
	})
	defer cleanup()
	ctx := context.Background()

	a := addEstimated(t, svc, "late work", 1)
	res, err := svc.CompleteTask(ctx, a.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	ids := unlockedIDs(res.Unlocked)
	if !ids["night-owl"] {
		t.Fatalf("23:30 completion did not unlock night-owl: %+v", res.Unlocked)
	}
	if ids["early-bird"] {
		t.Fatalf("23:30 completion unlocked early-bird")
	}

	clock.Set(time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC))
	b := addEstimated(t, svc, "dawn work", 1)
	res2, err := svc.CompleteTask(ctx, b.ID)
	if err != nil {
		t.Fatalf("complete dawn: %v", err)
	}
	if !unlockedIDs(res2.Unlocked)["early-bird"] {
		t.Fatalf("06:00 completion did not unlock early-bird: %+v", res2.Unlocked)
	}
}

func TestWeekStreak(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, cleanup := newTestServiceWith(t, func(cfg *Config) {
		cfg.Now = clock.Now
	})
	defer cleanup()
	ctx := context.Background()

	var last []Achievement
	for day := 0; day < streakDaysRequired; day++ {
		clock.Set(time.Date(2026, 3, 1+day, 12, 0, 0, 0, time.UTC))
		task := addEstimated(t, svc, "daily", 1)
		res, err := svc.CompleteTask(ctx, task.ID)
		if err != nil {
			t.Fatalf("complete day %d: %v", day, err)
		}
		last = res.Unlocked
		if day < streakDaysRequired-1 && unlockedIDs(res.Unlocked)["week-streak"] {
			t.Fatalf("week-streak unlocked after only %d days", day+1)
		}
	}
	if !unlockedIDs(last)["week-streak"] {
		t.Fatalf("week-streak missing after %d days: %+v", streakDaysRequired, last)
	}
}

func TestOnUnlockHook(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	svc, cleanup := newTestServiceWith(t, func(cfg *Config) {
		cfg.Now = clock.Now
	})
	defer cleanup()
	ctx := context.Background()

	var hooked []string
	svc.Achievements().OnUnlock(func(a Achievement) {
		hooked = append(hooked, a.ID)
	})

	task := addEstimated(t, svc, "a", 1)
	if _, err := svc.CompleteTask(ctx, task.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if len(hooked) == 0 || hooked[0] != "first-task" {
		t.Fatalf("hook calls=%v, want first-task", hooked)
	}
}
