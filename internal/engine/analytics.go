package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"bmad/internal/storage"
)

// Analytics accumulates the per-day log. All writes go through the
// collection's atomic IncrementalModify, so interleaved completions in the
// same tick can never lose an increment. Day documents are created lazily,
// seeded from the first event of the day rather than from zero.
type Analytics struct {
	svc *Service

	mu         sync.Mutex
	currentLog *DailyLog

	cancelToday func()
}

func newAnalytics(s *Service) *Analytics {
	a := &Analytics{svc: s}
	a.cancelToday = s.dailyLogs.SubscribeOne(a.TodayID(), func(doc storage.Doc) {
		a.mu.Lock()
		defer a.mu.Unlock()
		if doc == nil {
			a.currentLog = nil
			return
		}
		logDoc, err := docAs[DailyLog](doc)
		if err != nil {
			log.Printf("analytics: decode daily log: %v", err)
			return
		}
		a.currentLog = &logDoc
	})
	return a
}

func (a *Analytics) close() {
	if a.cancelToday != nil {
		a.cancelToday()
	}
}

// TodayID is the local-timezone calendar date key.
func (a *Analytics) TodayID() string {
	return a.svc.now().Format("2006-01-02")
}

// CurrentLog returns today's log, or nil before the first event of the day.
func (a *Analytics) CurrentLog() *DailyLog {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.currentLog == nil {
		return nil
	}
	cp := *a.currentLog
	cp.Records = append([]LogRecord(nil), a.currentLog.Records...)
	return &cp
}

// LogAction records a task completion: increments totalPoints and
// tasksCompleted and appends the completion record.
func (a *Analytics) LogAction(ctx context.Context, task Task) error {
	record := LogRecord{
		TaskID:      task.ID,
		Title:       task.Title,
		Points:      task.Points,
		CompletedAt: a.svc.now().UnixMilli(),
		Type:        RecordTask,
	}
	seed := DailyLog{
		ID:             a.TodayID(),
		Date:           a.svc.now().UnixMilli(),
		TotalPoints:    task.Points,
		TasksCompleted: 1,
		OverloadCount:  0,
		Records:        []LogRecord{record},
	}
	return a.upsertLog(ctx, seed, func(doc storage.Doc) storage.Doc {
		doc["totalPoints"] = num(doc["totalPoints"]) + task.Points
		doc["tasksCompleted"] = num(doc["tasksCompleted"]) + 1
		doc["records"] = appendRecord(doc["records"], record)
		return doc
	})
}

// LogOverload records an overload transition event.
func (a *Analytics) LogOverload(ctx context.Context) error {
	record := LogRecord{
		TaskID:      "",
		Title:       "System Overload",
		Points:      0,
		CompletedAt: a.svc.now().UnixMilli(),
		Type:        RecordOverload,
	}
	seed := DailyLog{
		ID:             a.TodayID(),
		Date:           a.svc.now().UnixMilli(),
		TotalPoints:    0,
		TasksCompleted: 0,
		OverloadCount:  1,
		Records:        []LogRecord{record},
	}
	return a.upsertLog(ctx, seed, func(doc storage.Doc) storage.Doc {
		doc["overloadCount"] = num(doc["overloadCount"]) + 1
		doc["records"] = appendRecord(doc["records"], record)
		return doc
	})
}

// upsertLog applies the increment when today's log exists, otherwise inserts
// the seed. A losing race against a concurrent first insert falls back to
// the increment path.
func (a *Analytics) upsertLog(ctx context.Context, seed DailyLog, apply func(storage.Doc) storage.Doc) error {
	existing, err := a.svc.dailyLogs.FindOne(ctx, seed.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		_, err := a.svc.dailyLogs.Insert(ctx, toDoc(seed))
		var verr *storage.ValidationError
		if err == nil {
			return nil
		}
		if !errors.As(err, &verr) {
			return fmt.Errorf("insert daily log: %w", err)
		}
		// Someone beat us to the first event of the day.
	}
	if _, err := a.svc.dailyLogs.IncrementalModify(ctx, seed.ID, apply); err != nil {
		return fmt.Errorf("update daily log: %w", err)
	}
	return nil
}

// History returns every daily log, oldest first.
func (a *Analytics) History(ctx context.Context) ([]DailyLog, error) {
	docs, err := a.svc.dailyLogs.Find(ctx, storage.Query{Sort: []storage.SortField{{Field: "date"}}})
	if err != nil {
		return nil, err
	}
	return docsAs[DailyLog](docs)
}

func num(v any) float64 {
	n, _ := v.(float64)
	return n
}

func appendRecord(v any, record LogRecord) []any {
	records, _ := v.([]any)
	return append(records, toDoc(record))
}
