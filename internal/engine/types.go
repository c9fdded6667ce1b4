package engine

import (
	"encoding/json"
	"fmt"

	"bmad/internal/storage"
)

type TaskStatus string

const (
	TaskActive    TaskStatus = "active"
	TaskCompleted TaskStatus = "completed"
	TaskArchived  TaskStatus = "archived"
)

// Task is a unit of work weighed in points against the daily limit.
// Points stay 0 ("unweighed") until the task is explicitly estimated.
type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`
	Points    float64    `json:"points"`
	CreatedAt int64      `json:"createdAt"`
	Order     int        `json:"order"`
}

// Settings is the singleton app configuration document (id "user").
type Settings struct {
	ID             string  `json:"id"`
	DailyLimit     float64 `json:"dailyLimit"`
	SoundEnabled   bool    `json:"soundEnabled"`
	HapticsEnabled bool    `json:"hapticsEnabled"`
	FontSize       string  `json:"fontSize"`
}

type RecordType string

const (
	RecordTask     RecordType = "task"
	RecordOverload RecordType = "overload"
)

// LogRecord is one append-only entry in a day's history.
type LogRecord struct {
	TaskID      string     `json:"taskId"`
	Title       string     `json:"title"`
	Points      float64    `json:"points"`
	CompletedAt int64      `json:"completedAt"`
	Type        RecordType `json:"type"`
}

// DailyLog aggregates one calendar day. Keyed by local-timezone YYYY-MM-DD;
// counters only ever grow within a day.
type DailyLog struct {
	ID             string      `json:"id"`
	Date           int64       `json:"date"`
	TotalPoints    float64     `json:"totalPoints"`
	TasksCompleted int         `json:"tasksCompleted"`
	OverloadCount  int         `json:"overloadCount"`
	Records        []LogRecord `json:"records"`
}

type EggStatus string

const (
	EggNew        EggStatus = "new"
	EggIncubating EggStatus = "incubating"
	EggReady      EggStatus = "ready"
	EggHatched    EggStatus = "hatched"
)

// Rarities in ascending order.
var Rarities = []string{"common", "uncommon", "rare", "epic", "legendary", "mythic", "divine"}

type Egg struct {
	ID                 string    `json:"id"`
	Status             EggStatus `json:"status"`
	HatchTime          int64     `json:"hatchTime"`
	IncubationDuration int64     `json:"incubationDuration"`
	PetID              string    `json:"petId"`
	Rarity             string    `json:"rarity"`
	CreatedAt          int64     `json:"createdAt"`
}

type Pet struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Type      string `json:"type"`
	Rarity    string `json:"rarity"`
	Image     string `json:"image"`
	CreatedAt int64  `json:"createdAt"`
}

// User is the singleton player-progression document (id "player").
type User struct {
	ID     string  `json:"id"`
	Energy float64 `json:"energy"`
	Level  int     `json:"level"`
	XP     int     `json:"xp"`
}

// toDoc converts a typed document to its stored form via JSON round trip,
// so numbers land as float64 the way the store decodes them.
func toDoc(v any) storage.Doc {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("encode document: %v", err))
	}
	var doc storage.Doc
	if err := json.Unmarshal(b, &doc); err != nil {
		panic(fmt.Sprintf("decode document: %v", err))
	}
	return doc
}

func docAs[T any](doc storage.Doc) (T, error) {
	var out T
	if doc == nil {
		return out, nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return out, fmt.Errorf("encode doc: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode doc: %w", err)
	}
	return out, nil
}

func docsAs[T any](docs []storage.Doc) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		v, err := docAs[T](d)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
