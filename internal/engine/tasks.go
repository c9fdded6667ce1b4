package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"bmad/internal/sensory"
	"bmad/internal/storage"
)

func normalizeTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", errors.New("title is required")
	}
	return t, nil
}

func activeTasks(doc storage.Doc) bool {
	status, _ := doc["status"].(string)
	return status == string(TaskActive)
}

func completedTasks(doc storage.Doc) bool {
	status, _ := doc["status"].(string)
	return status == string(TaskCompleted)
}

// ActiveTaskSort is the board order: manual position first, newest next.
var ActiveTaskSort = []storage.SortField{
	{Field: "order"},
	{Field: "createdAt", Desc: true},
}

// AddTask creates a new active, unweighed task.
func (s *Service) AddTask(ctx context.Context, title string) (Task, error) {
	t, err := normalizeTitle(title)
	if err != nil {
		return Task{}, err
	}
	task := Task{
		ID:        uuid.NewString(),
		Title:     t,
		Status:    TaskActive,
		Points:    0,
		CreatedAt: s.now().UnixMilli(),
		Order:     0,
	}
	if _, err := s.tasks.Insert(ctx, toDoc(task)); err != nil {
		return Task{}, fmt.Errorf("add task: %w", err)
	}
	s.sensory.Play(sensory.EffectAdd)
	s.sensory.Vibrate(sensory.HapticLight)
	return task, nil
}

// EstimateTask sets the task's point weight.
func (s *Service) EstimateTask(ctx context.Context, id string, points float64) error {
	if points < 0 {
		return errors.New("points must be non-negative")
	}
	if _, err := s.tasks.Patch(ctx, id, storage.Doc{"points": points}); err != nil {
		return fmt.Errorf("estimate task: %w", err)
	}
	s.sensory.Play(sensory.EffectAdd)
	return nil
}

// CompleteResult reports what a completion triggered.
type CompleteResult struct {
	Task          Task
	EnergyAwarded float64
	Unlocked      []Achievement
}

// CompleteTask marks the task completed and drives the downstream
// aggregations. Analytics, achievements and the energy award are
// best-effort: their failures are logged, never surfaced as a failure of
// the completion itself.
func (s *Service) CompleteTask(ctx context.Context, id string) (*CompleteResult, error) {
	doc, err := s.tasks.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, &storage.NotFoundError{Collection: ColTasks, ID: id}
	}
	task, err := docAs[Task](doc)
	if err != nil {
		return nil, err
	}

	if _, err := s.tasks.Patch(ctx, id, storage.Doc{"status": string(TaskCompleted)}); err != nil {
		return nil, fmt.Errorf("complete task: %w", err)
	}
	task.Status = TaskCompleted
	s.sensory.Play(sensory.EffectComplete)
	s.sensory.Vibrate(sensory.HapticMedium)

	res := &CompleteResult{Task: task}

	if err := s.analytics.LogAction(ctx, task); err != nil {
		log.Printf("analytics: log completion: %v", err)
	}
	if err := s.AddEnergy(ctx, task.Points); err != nil {
		log.Printf("player: energy award: %v", err)
	} else {
		res.EnergyAwarded = task.Points
	}
	unlocked, err := s.achieve.Check(ctx)
	if err != nil {
		log.Printf("achievements: check: %v", err)
	}
	res.Unlocked = unlocked

	return res, nil
}

// ChopTask splits a task into subtasks: the original is removed and the new
// titles inserted as fresh unweighed tasks. CreatedAt is staggered so the
// default sort preserves the given order.
func (s *Service) ChopTask(ctx context.Context, id string, titles []string) ([]Task, error) {
	if len(titles) == 0 {
		return nil, errors.New("at least one subtask title is required")
	}
	doc, err := s.tasks.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	if err := s.tasks.Remove(ctx, id); err != nil {
		return nil, fmt.Errorf("chop task: remove original: %w", err)
	}

	// The board sorts createdAt newest-first, so the first subtask gets the
	// largest timestamp.
	base := s.now().UnixMilli()
	newTasks := make([]Task, 0, len(titles))
	docs := make([]storage.Doc, 0, len(titles))
	for i, title := range titles {
		t, err := normalizeTitle(title)
		if err != nil {
			continue
		}
		task := Task{
			ID:        uuid.NewString(),
			Title:     t,
			Status:    TaskActive,
			Points:    0,
			CreatedAt: base - int64(i),
			Order:     0,
		}
		newTasks = append(newTasks, task)
		docs = append(docs, toDoc(task))
	}
	if _, err := s.tasks.BulkInsert(ctx, docs); err != nil {
		return newTasks, fmt.Errorf("chop task: insert subtasks: %w", err)
	}
	for range newTasks {
		s.sensory.Play(sensory.EffectAdd)
		s.sensory.Vibrate(sensory.HapticLight)
	}
	return newTasks, nil
}

// ReorderTasks rewrites each task's order field to its index in orderedIDs.
// Tasks already in position are not rewritten, so no spurious emissions.
func (s *Service) ReorderTasks(ctx context.Context, orderedIDs []string) error {
	for i, id := range orderedIDs {
		doc, err := s.tasks.FindOne(ctx, id)
		if err != nil {
			return err
		}
		if doc == nil {
			continue
		}
		if order, ok := doc["order"].(float64); ok && int(order) == i {
			continue
		}
		if _, err := s.tasks.Patch(ctx, id, storage.Doc{"order": float64(i)}); err != nil {
			return fmt.Errorf("reorder task %s: %w", id, err)
		}
	}
	return nil
}

// UpdateTaskTitle renames a task.
func (s *Service) UpdateTaskTitle(ctx context.Context, id, newTitle string) error {
	t, err := normalizeTitle(newTitle)
	if err != nil {
		return err
	}
	if _, err := s.tasks.Patch(ctx, id, storage.Doc{"title": t}); err != nil {
		return fmt.Errorf("update task title: %w", err)
	}
	return nil
}

// DeleteTask removes a task. Deleting an absent id succeeds with no change.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	doc, err := s.tasks.FindOne(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tasks.Remove(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if doc != nil {
		s.sensory.Play(sensory.EffectComplete)
	}
	return nil
}

// ArchiveCompleted removes every completed task in one sweep.
func (s *Service) ArchiveCompleted(ctx context.Context) (int, error) {
	docs, err := s.tasks.Find(ctx, storage.Query{Match: completedTasks})
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if id, ok := d["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	if err := s.tasks.BulkRemove(ctx, ids); err != nil {
		return 0, fmt.Errorf("archive completed: %w", err)
	}
	s.sensory.Play(sensory.EffectComplete)
	return len(ids), nil
}

// ActiveTasks returns the board's working set in board order.
func (s *Service) ActiveTasks(ctx context.Context) ([]Task, error) {
	docs, err := s.tasks.Find(ctx, storage.Query{Match: activeTasks, Sort: ActiveTaskSort})
	if err != nil {
		return nil, err
	}
	return docsAs[Task](docs)
}

// AllTasks returns every task, newest first.
func (s *Service) AllTasks(ctx context.Context) ([]Task, error) {
	docs, err := s.tasks.Find(ctx, storage.Query{Sort: []storage.SortField{{Field: "createdAt", Desc: true}}})
	if err != nil {
		return nil, err
	}
	return docsAs[Task](docs)
}

// SubscribeActiveTasks streams the active board to fn, initial snapshot first.
func (s *Service) SubscribeActiveTasks(fn func([]Task)) (cancel func()) {
	return s.tasks.Subscribe(storage.Query{Match: activeTasks, Sort: ActiveTaskSort}, func(docs []storage.Doc) {
		tasks, err := docsAs[Task](docs)
		if err != nil {
			log.Printf("tasks: decode snapshot: %v", err)
			return
		}
		fn(tasks)
	})
}
