package engine

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bmad/internal/sensory"
)

// fakeClock is a settable time source so tests can move across days and
// hours without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{t: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

// recordingSensory captures every cue for assertions.
type recordingSensory struct {
	mu      sync.Mutex
	effects []sensory.Effect
	haptics []sensory.Haptic
}

func (r *recordingSensory) Play(e sensory.Effect) {
	r.mu.Lock()
	r.effects = append(r.effects, e)
	r.mu.Unlock()
}

func (r *recordingSensory) Vibrate(h sensory.Haptic) {
	r.mu.Lock()
	r.haptics = append(r.haptics, h)
	r.mu.Unlock()
}

func (r *recordingSensory) count(e sensory.Effect) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.effects {
		if got == e {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T) (*Service, func()) {
	t.Helper()
	return newTestServiceWith(t, func(*Config) {})
}

func newTestServiceWith(t *testing.T, mutate func(*Config)) (*Service, func()) {
	t.Helper()
	ctx := context.Background()

	dir := t.TempDir()
	cfg := Config{
		DBPath:      filepath.Join(dir, "test.db"),
		UnlocksPath: filepath.Join(dir, "unlocks.json"),
		DevMode:     true,
	}
	mutate(&cfg)

	svc, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	cleanup := func() {
		_ = svc.Close()
	}
	return svc, cleanup
}

func TestSeedDefaults(t *testing.T) {
	svc, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	st, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if st.DailyLimit != DefaultDailyLimit {
		t.Fatalf("dailyLimit=%v, want %v", st.DailyLimit, DefaultDailyLimit)
	}
	if !st.SoundEnabled || !st.HapticsEnabled {
		t.Fatalf("expected sound and haptics on by default: %+v", st)
	}
	if st.FontSize != "medium" {
		t.Fatalf("fontSize=%q, want medium", st.FontSize)
	}

	player, err := svc.Player(ctx)
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	if player.Energy != 0 || player.Level != 1 {
		t.Fatalf("player=%+v, want energy 0 level 1", player)
	}
}

func TestSeedDefaultsDoesNotOverwrite(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := Config{
		DBPath:      filepath.Join(dir, "test.db"),
		UnlocksPath: filepath.Join(dir, "unlocks.json"),
		DevMode:     true,
	}

	svc, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if err := svc.SetDailyLimit(ctx, 42); err != nil {
		t.Fatalf("set limit: %v", err)
	}
	if err := svc.AddEnergy(ctx, 7); err != nil {
		t.Fatalf("add energy: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	again, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen service: %v", err)
	}
	defer again.Close()

	st, err := again.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if st.DailyLimit != 42 {
		t.Fatalf("dailyLimit=%v after restart, want 42", st.DailyLimit)
	}
	player, err := again.Player(ctx)
	if err != nil {
		t.Fatalf("player: %v", err)
	}
	if player.Energy != 7 {
		t.Fatalf("energy=%v after restart, want 7", player.Energy)
	}
}

func TestTasksSurviveRestart(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := Config{
		DBPath:      filepath.Join(dir, "test.db"),
		UnlocksPath: filepath.Join(dir, "unlocks.json"),
		DevMode:     true,
	}

	svc, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	task, err := svc.AddTask(ctx, "write report")
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if err := svc.EstimateTask(ctx, task.ID, 25); err != nil {
		t.Fatalf("estimate: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	again, err := New(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()

	tasks, err := again.ActiveTasks(ctx)
	if err != nil {
		t.Fatalf("active tasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID || tasks[0].Points != 25 {
		t.Fatalf("tasks after restart=%+v", tasks)
	}
	// The load tracker rebuilt itself from the reopened store.
	if got := again.Load().CurrentLoad(); got != 25 {
		t.Fatalf("currentLoad=%v after restart, want 25", got)
	}
}
