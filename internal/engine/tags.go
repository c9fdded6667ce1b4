package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Tag is a label that can be pinned onto tasks. Tags and their task
// associations live in a flat file outside the document store, like the
// achievement unlock set.
type Tag struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
	Emoji string `json:"emoji"`
}

// defaultTags seed a fresh install.
func defaultTags() []Tag {
	return []Tag{
		{ID: "work", Name: "Work", Color: "#3b82f6", Emoji: "💼"},
		{ID: "personal", Name: "Personal", Color: "#22c55e", Emoji: "🏠"},
		{ID: "urgent", Name: "Urgent", Color: "#ef4444", Emoji: "🔥"},
		{ID: "learning", Name: "Learning", Color: "#a855f7", Emoji: "📚"},
		{ID: "health", Name: "Health", Color: "#14b8a6", Emoji: "💪"},
	}
}

// tagFile is the on-disk shape: the tag list plus taskId -> tagIds.
type tagFile struct {
	Tags     []Tag               `json:"tags"`
	TaskTags map[string][]string `json:"taskTags"`
}

type tagStore struct {
	path string

	mu       sync.Mutex
	tags     []Tag
	taskTags map[string][]string
}

// loadTagStore reads the tag file, seeding the defaults when the file is
// missing or holds no tags.
func loadTagStore(path string) (*tagStore, error) {
	s := &tagStore{path: path, taskTags: make(map[string][]string)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.tags = defaultTags()
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var file tagFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	s.tags = file.Tags
	if len(s.tags) == 0 {
		s.tags = defaultTags()
	}
	if file.TaskTags != nil {
		s.taskTags = file.TaskTags
	}
	return s, nil
}

func (s *tagStore) saveLocked() error {
	data, err := json.Marshal(tagFile{Tags: s.tags, TaskTags: s.taskTags})
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create tags dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}

func (s *tagStore) findLocked(tagID string) (Tag, bool) {
	for _, tag := range s.tags {
		if tag.ID == tagID {
			return tag, true
		}
	}
	return Tag{}, false
}

// Tags returns every defined tag.
func (s *Service) Tags() []Tag {
	s.tagsFile.mu.Lock()
	defer s.tagsFile.mu.Unlock()
	return append([]Tag(nil), s.tagsFile.tags...)
}

// AddTag defines a new tag and persists it.
func (s *Service) AddTag(name, color, emoji string) (Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Tag{}, errors.New("tag name is required")
	}
	tag := Tag{ID: "tag-" + uuid.NewString(), Name: name, Color: color, Emoji: emoji}

	s.tagsFile.mu.Lock()
	defer s.tagsFile.mu.Unlock()
	s.tagsFile.tags = append(s.tagsFile.tags, tag)
	if err := s.tagsFile.saveLocked(); err != nil {
		return Tag{}, err
	}
	return tag, nil
}

// RemoveTag deletes a tag and strips it from every task association.
// Removing an unknown id is a no-op.
func (s *Service) RemoveTag(tagID string) error {
	s.tagsFile.mu.Lock()
	defer s.tagsFile.mu.Unlock()

	kept := s.tagsFile.tags[:0]
	for _, tag := range s.tagsFile.tags {
		if tag.ID != tagID {
			kept = append(kept, tag)
		}
	}
	s.tagsFile.tags = kept
	for taskID, ids := range s.tagsFile.taskTags {
		s.tagsFile.taskTags[taskID] = removeString(ids, tagID)
	}
	return s.tagsFile.saveLocked()
}

// AssignTag pins a tag onto a task. Assigning an already-assigned tag is a
// no-op; an unknown tag id is rejected.
func (s *Service) AssignTag(taskID, tagID string) error {
	s.tagsFile.mu.Lock()
	defer s.tagsFile.mu.Unlock()

	if _, ok := s.tagsFile.findLocked(tagID); !ok {
		return fmt.Errorf("unknown tag %q", tagID)
	}
	ids := s.tagsFile.taskTags[taskID]
	for _, id := range ids {
		if id == tagID {
			return nil
		}
	}
	s.tagsFile.taskTags[taskID] = append(ids, tagID)
	return s.tagsFile.saveLocked()
}

// UnassignTag removes a tag from a task; absent assignments are a no-op.
func (s *Service) UnassignTag(taskID, tagID string) error {
	s.tagsFile.mu.Lock()
	defer s.tagsFile.mu.Unlock()

	ids, ok := s.tagsFile.taskTags[taskID]
	if !ok {
		return nil
	}
	s.tagsFile.taskTags[taskID] = removeString(ids, tagID)
	return s.tagsFile.saveLocked()
}

// ToggleTag flips a tag on a task and reports whether it is now assigned.
func (s *Service) ToggleTag(taskID, tagID string) (bool, error) {
	s.tagsFile.mu.Lock()
	assigned := false
	for _, id := range s.tagsFile.taskTags[taskID] {
		if id == tagID {
			assigned = true
		}
	}
	s.tagsFile.mu.Unlock()

	if assigned {
		return false, s.UnassignTag(taskID, tagID)
	}
	return true, s.AssignTag(taskID, tagID)
}

// TaskTags returns the tags assigned to a task, in definition order.
func (s *Service) TaskTags(taskID string) []Tag {
	s.tagsFile.mu.Lock()
	defer s.tagsFile.mu.Unlock()

	ids := s.tagsFile.taskTags[taskID]
	out := make([]Tag, 0, len(ids))
	for _, tag := range s.tagsFile.tags {
		for _, id := range ids {
			if tag.ID == id {
				out = append(out, tag)
			}
		}
	}
	return out
}

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
