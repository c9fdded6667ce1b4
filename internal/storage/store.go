package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Options configures store-wide behavior.
type Options struct {
	// DevMode enables schema validation on every write. It is a developer
	// safety net; production opens skip the per-write check.
	DevMode bool
}

// Store is the single-process document database. It owns the on-device
// bytes; callers only ever see decoded copies of documents.
type Store struct {
	db   *sql.DB
	opts Options

	mu          sync.Mutex
	collections map[string]*Collection
	closed      bool
}

// Open opens (creating if missing) the store at path. Collections must be
// registered with AddCollection before use; registration runs migrations.
func Open(ctx context.Context, path string, opts Options) (*Store, error) {
	db, err := openSQLite(ctx, path)
	if err != nil {
		return nil, storageErr("open", err)
	}

	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS documents (
			collection TEXT NOT NULL,
			id TEXT NOT NULL,
			version INTEGER NOT NULL,
			data TEXT NOT NULL,
			PRIMARY KEY (collection, id)
		);
	`)
	if err != nil {
		_ = db.Close()
		return nil, storageErr("create documents table", err)
	}

	return &Store{
		db:          db,
		opts:        opts,
		collections: make(map[string]*Collection),
	}, nil
}

// AddCollection registers a collection under its schema. Stored documents
// behind the schema version are migrated before the collection becomes
// queryable; a migration failure leaves the collection unregistered.
func (s *Store) AddCollection(ctx context.Context, schema Schema) (*Collection, error) {
	if schema.Name == "" {
		return nil, &ValidationError{Collection: schema.Name, Reason: "schema has no name"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, storageErr("add collection", fmt.Errorf("store is closed"))
	}
	if existing, ok := s.collections[schema.Name]; ok {
		return existing, nil
	}

	c := &Collection{
		store:  s,
		schema: schema,
		docs:   make(map[string]Doc),
		subs:   make(map[int]*subscription),
	}
	if err := c.load(ctx); err != nil {
		return nil, err
	}
	s.collections[schema.Name] = c
	return c, nil
}

// Collection returns a registered collection, or nil if it was never added.
func (s *Store) Collection(name string) *Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collections[name]
}

// Close releases the underlying database. Subscriptions are dropped.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, c := range s.collections {
		c.dropSubscriptions()
	}
	if err := s.db.Close(); err != nil {
		return storageErr("close", err)
	}
	return nil
}
