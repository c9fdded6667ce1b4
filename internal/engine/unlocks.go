package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// unlockSet is the persisted set of earned achievement ids. It lives in its
// own flat file outside the document store so it survives schema migrations
// and application restarts.
type unlockSet struct {
	path string

	mu  sync.Mutex
	ids map[string]bool
}

func loadUnlockSet(path string) (*unlockSet, error) {
	s := &unlockSet{path: path, ids: make(map[string]bool)}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for _, id := range ids {
		s.ids[id] = true
	}
	return s, nil
}

func (s *unlockSet) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ids[id]
}

// Add records an unlock and writes the set through to disk immediately.
func (s *unlockSet) Add(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ids[id] {
		return nil
	}
	s.ids[id] = true
	return s.saveLocked()
}

func (s *unlockSet) saveLocked() error {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode unlocks: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create unlocks dir: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", s.path, err)
	}
	return nil
}
