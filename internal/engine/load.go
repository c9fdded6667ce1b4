package engine

import (
	"context"
	"log"
	"math"
	"sync"

	"bmad/internal/sensory"
	"bmad/internal/storage"
)

// MaxDisplayPercentage caps the reported load percentage so a wildly
// over-committed day still renders.
const MaxDisplayPercentage = 999

// LoadTracker folds the active task set into the current load and detects
// the moment it crosses the daily limit. It is fed purely by subscription
// emissions; it never polls.
type LoadTracker struct {
	svc *Service

	mu          sync.Mutex
	currentLoad float64
	dailyLimit  float64
	override    bool

	cancelTasks    func()
	cancelSettings func()
}

func newLoadTracker(s *Service) *LoadTracker {
	t := &LoadTracker{svc: s, dailyLimit: DefaultDailyLimit}
	// Settings first so the limit is in place before the first task snapshot.
	t.cancelSettings = s.settings.SubscribeOne(SettingsID, t.onSettings)
	t.cancelTasks = s.tasks.Subscribe(storage.Query{Match: activeTasks}, t.onTasks)
	return t
}

func (t *LoadTracker) close() {
	if t.cancelTasks != nil {
		t.cancelTasks()
	}
	if t.cancelSettings != nil {
		t.cancelSettings()
	}
}

func (t *LoadTracker) onSettings(doc storage.Doc) {
	if doc == nil {
		return
	}
	limit, ok := doc["dailyLimit"].(float64)
	if !ok {
		return
	}
	t.mu.Lock()
	t.dailyLimit = limit
	t.mu.Unlock()
}

// onTasks recomputes the load sum and fires the overload side effects only
// on the at-or-under to over transition (strict >). Re-summing while
// already over the limit never re-fires.
func (t *LoadTracker) onTasks(docs []storage.Doc) {
	total := 0.0
	for _, d := range docs {
		if pts, ok := d["points"].(float64); ok {
			total += pts
		}
	}

	t.mu.Lock()
	wasOverflow := t.dailyLimit > 0 && t.currentLoad > t.dailyLimit
	nowOverflow := t.dailyLimit > 0 && total > t.dailyLimit
	t.currentLoad = total
	if t.override && total <= t.dailyLimit {
		t.override = false
	}
	t.mu.Unlock()

	if !wasOverflow && nowOverflow {
		t.svc.sensory.Play(sensory.EffectWarning)
		t.svc.sensory.Vibrate(sensory.HapticPulse)
		if err := t.svc.analytics.LogOverload(context.Background()); err != nil {
			log.Printf("analytics: log overload: %v", err)
		}
	}
}

// CurrentLoad is the sum of points over all active tasks.
func (t *LoadTracker) CurrentLoad() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.currentLoad
}

// DailyLimit is the configured capacity threshold.
func (t *LoadTracker) DailyLimit() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dailyLimit
}

// LoadPercentage is round(load/limit*100) capped at 999; 0 when limit <= 0.
func (t *LoadTracker) LoadPercentage() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dailyLimit <= 0 {
		return 0
	}
	p := math.Round(t.currentLoad / t.dailyLimit * 100)
	if p > MaxDisplayPercentage {
		p = MaxDisplayPercentage
	}
	return int(p)
}

// IsOverflow reports whether the load exceeds the limit.
func (t *LoadTracker) IsOverflow() bool {
	return t.LoadPercentage() > 100
}

// IsSystemOverloaded reports the blocking state: overflowing and not
// overridden.
func (t *LoadTracker) IsSystemOverloaded() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dailyLimit <= 0 {
		return false
	}
	return t.currentLoad > t.dailyLimit && !t.override
}

// ActivateOverride suppresses the blocking state until the load drops back
// to or under the limit, at which point it clears itself.
func (t *LoadTracker) ActivateOverride() {
	t.mu.Lock()
	t.override = true
	t.mu.Unlock()
}

// ResetOverride clears the override immediately.
func (t *LoadTracker) ResetOverride() {
	t.mu.Lock()
	t.override = false
	t.mu.Unlock()
}

// DailyReset zeroes the tracked load and clears the override for a new day.
// The next task emission re-derives the true sum; this only resets the local
// state so a fresh day never starts blocked.
func (t *LoadTracker) DailyReset() {
	t.mu.Lock()
	t.currentLoad = 0
	t.override = false
	t.mu.Unlock()
}

// OverrideActive reports whether the override is engaged.
func (t *LoadTracker) OverrideActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.override
}
