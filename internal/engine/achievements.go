package engine

import (
	"context"
	"sync"
	"time"
)

// Achievement is a named predicate over the full daily-log history. Each
// achievement unlocks at most once ever; the unlocked set outlives the
// document store (it is persisted separately and survives migrations).
type Achievement struct {
	ID          string
	Name        string
	Description string
	Emoji       string
	Condition   func(logs []DailyLog, now time.Time) bool
}

const (
	minTasksForNoOverload = 3
	streakDaysRequired    = 7
	nightOwlStartHour     = 22
	nightOwlEndHour       = 5
	earlyBirdStartHour    = 5
	earlyBirdEndHour      = 7
)

func defaultAchievements() []Achievement {
	return []Achievement{
		{
			ID: "first-task", Name: "First Step", Description: "Complete your first task", Emoji: "🎯",
			Condition: func(logs []DailyLog, _ time.Time) bool {
				for _, l := range logs {
					if l.TasksCompleted >= 1 {
						return true
					}
				}
				return false
			},
		},
		{
			ID: "ten-tasks", Name: "Perfect Ten", Description: "Complete 10 tasks in total", Emoji: "🔟",
			Condition: func(logs []DailyLog, _ time.Time) bool {
				total := 0
				for _, l := range logs {
					total += l.TasksCompleted
				}
				return total >= 10
			},
		},
		{
			ID: "hundred-points", Name: "Full Effort", Description: "Accumulate 100 points in one day", Emoji: "💯",
			Condition: func(logs []DailyLog, _ time.Time) bool {
				for _, l := range logs {
					if l.TotalPoints >= 100 {
						return true
					}
				}
				return false
			},
		},
		{
			ID: "no-overload", Name: "Perfectly Balanced", Description: "Finish a day of 3+ tasks without overloading", Emoji: "⚖️",
			Condition: func(logs []DailyLog, _ time.Time) bool {
				for _, l := range logs {
					if l.TasksCompleted >= minTasksForNoOverload && l.OverloadCount == 0 {
						return true
					}
				}
				return false
			},
		},
		{
			ID: "week-streak", Name: "Seven-Day Streak", Description: "Complete tasks on seven days", Emoji: "🔥",
			Condition: func(logs []DailyLog, _ time.Time) bool {
				days := 0
				for _, l := range logs {
					if l.TasksCompleted >= 1 {
						days++
					}
				}
				return days >= streakDaysRequired
			},
		},
		{
			ID: "night-owl", Name: "Night Owl", Description: "Complete a task after 10pm", Emoji: "🦉",
			Condition: func(_ []DailyLog, now time.Time) bool {
				h := now.Hour()
				return h >= nightOwlStartHour || h < nightOwlEndHour
			},
		},
		{
			ID: "early-bird", Name: "Early Bird", Description: "Complete a task before 7am", Emoji: "🐦",
			Condition: func(_ []DailyLog, now time.Time) bool {
				h := now.Hour()
				return h >= earlyBirdStartHour && h < earlyBirdEndHour
			},
		},
	}
}

// AchievementStatus pairs a definition with its unlocked state.
type AchievementStatus struct {
	Achievement
	Unlocked bool
}

// Achievements evaluates the predicate set after completions and records
// unlocks in the persisted set.
type Achievements struct {
	svc     *Service
	defs    []Achievement
	unlocks *unlockSet

	mu       sync.Mutex
	onUnlock func(Achievement)
}

func newAchievements(s *Service, unlocks *unlockSet) *Achievements {
	return &Achievements{svc: s, defs: defaultAchievements(), unlocks: unlocks}
}

// OnUnlock registers a notification hook invoked once per fresh unlock.
func (a *Achievements) OnUnlock(fn func(Achievement)) {
	a.mu.Lock()
	a.onUnlock = fn
	a.mu.Unlock()
}

// Check evaluates every locked achievement against the current history and
// unlocks those whose condition holds. Re-checking an already unlocked
// achievement is a no-op, however often the condition remains true.
func (a *Achievements) Check(ctx context.Context) ([]Achievement, error) {
	logs, err := a.svc.analytics.History(ctx)
	if err != nil {
		return nil, err
	}
	now := a.svc.now()

	var fresh []Achievement
	for _, def := range a.defs {
		if a.unlocks.Has(def.ID) {
			continue
		}
		if !def.Condition(logs, now) {
			continue
		}
		if err := a.unlocks.Add(def.ID); err != nil {
			return fresh, err
		}
		fresh = append(fresh, def)
		a.mu.Lock()
		fn := a.onUnlock
		a.mu.Unlock()
		if fn != nil {
			fn(def)
		}
	}
	return fresh, nil
}

// All returns every achievement with its unlocked state.
func (a *Achievements) All() []AchievementStatus {
	out := make([]AchievementStatus, 0, len(a.defs))
	for _, def := range a.defs {
		out = append(out, AchievementStatus{Achievement: def, Unlocked: a.unlocks.Has(def.ID)})
	}
	return out
}

// UnlockedCount returns how many achievements have been earned.
func (a *Achievements) UnlockedCount() int {
	n := 0
	for _, def := range a.defs {
		if a.unlocks.Has(def.ID) {
			n++
		}
	}
	return n
}
